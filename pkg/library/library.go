// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package library implements the library packager: it takes a finished
// *mast.Forest plus its ordered exported procedure names and produces a
// CompiledLibrary, checking that exports are nonempty, share a single
// namespace, and stay within the module and dependency limits.
package library

import (
	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/util/path"
)

const (
	// MaxModules is the largest number of distinct module paths a single
	// library may export procedures from.
	MaxModules = 1<<16 - 1
	// MaxDependencies is the largest number of distinct external
	// (out-of-library) procedure references a forest may contain.
	MaxDependencies = 1<<16 - 1
	// MaxKernelProcedures is the largest number of procedures a
	// KernelLibrary may export.
	MaxKernelProcedures = 256
)

// FullyQualifiedProcedureName is the canonical (LibraryPath, ProcedureName)
// pair carried throughout the assembler; there is deliberately exactly
// one such type rather than parallel per-subsystem shapes.
type FullyQualifiedProcedureName struct {
	Module path.Path
	Proc   string
}

// String renders the name in its "module::proc" source form.
func (f FullyQualifiedProcedureName) String() string {
	return f.Module.String() + path.Delim + f.Proc
}

// ProcedureInfo pairs a procedure's local name with its MAST digest,
// within a single ModuleInfo entry.
type ProcedureInfo struct {
	Name   string
	Digest digest.Digest
}

// ModuleInfo groups the exported procedures of one module path, in
// encounter order.
type ModuleInfo struct {
	Path       path.Path
	Procedures []ProcedureInfo
}

// CompiledLibrary is a finished MastForest plus the ordered list of
// fully qualified names of its exported procedures, aligned index-for-
// index against forest.ProcedureRoots().
type CompiledLibrary struct {
	Forest   *mast.Forest
	Exports  []FullyQualifiedProcedureName
	Metadata Metadata
}

// Package constructs a CompiledLibrary from forest and exports, checking
// the packaging invariants. exports must already be aligned with
// forest.ProcedureRoots() by the caller (the assembler appends to both
// in lockstep); a mismatch is a contract violation, not a user error, so
// it panics rather than returning one of the typed errors below.
func Package(forest *mast.Forest, exports []FullyQualifiedProcedureName, meta Metadata) (*CompiledLibrary, error) {
	if len(exports) == 0 {
		return nil, aerror.New(aerror.EmptyExports, "")
	}

	if len(exports) != forest.NumProcedureRoots() {
		panic("library: exports count does not match forest procedure root count")
	}

	if err := ValidateVersion(meta.Version); err != nil {
		return nil, err
	}

	namespace := meta.Namespace
	modules := make(map[string]struct{})

	for _, e := range exports {
		if namespace == "" {
			namespace = e.Module.Namespace()
		} else if e.Module.Namespace() != namespace {
			return nil, aerror.New(aerror.InvalidExportNamespace, e.String())
		}

		modules[e.Module.String()] = struct{}{}
	}

	if len(modules) > MaxModules {
		return nil, aerror.New(aerror.TooManyModules, "")
	}

	if n := countExternalDependencies(forest); n > MaxDependencies {
		return nil, aerror.New(aerror.TooManyDependencies, "")
	}

	meta.Namespace = namespace

	return &CompiledLibrary{
		Forest:   forest,
		Exports:  append([]FullyQualifiedProcedureName(nil), exports...),
		Metadata: meta,
	}, nil
}

// countExternalDependencies counts the distinct digests carried by
// External nodes in forest: each represents one procedure this library
// depends on but does not itself define.
func countExternalDependencies(forest *mast.Forest) int {
	seen := make(map[digest.Digest]struct{})

	for i := 0; i < forest.Len(); i++ {
		n := forest.Node(mast.NodeID(i))
		if n.Kind == mast.KindExternal {
			seen[n.External] = struct{}{}
		}
	}

	return len(seen)
}

// IntoModules regroups this library's exports by module path into an
// ordered list of ModuleInfo, each carrying (ProcedureName, Digest)
// pairs in encounter order.
func (c *CompiledLibrary) IntoModules() []ModuleInfo {
	var (
		order []string
		byMod = make(map[string]*ModuleInfo)
	)

	roots := c.Forest.ProcedureRoots()

	for i, e := range c.Exports {
		key := e.Module.String()

		mi, ok := byMod[key]
		if !ok {
			mi = &ModuleInfo{Path: e.Module}
			byMod[key] = mi
			order = append(order, key)
		}

		mi.Procedures = append(mi.Procedures, ProcedureInfo{
			Name:   e.Proc,
			Digest: c.Forest.Digest(roots[i]),
		})
	}

	out := make([]ModuleInfo, len(order))
	for i, key := range order {
		out[i] = *byMod[key]
	}

	return out
}
