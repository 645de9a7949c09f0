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
package library

import (
	"testing"

	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/util/assert"
	"github.com/openmast/masm/pkg/util/path"
)

func oneExportForest(t *testing.T) (*mast.Forest, []FullyQualifiedProcedureName) {
	t.Helper()

	f := mast.NewForest()

	id, err := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	assert.Equal(t, nil, err)

	f.AddProcedureRoot(id)

	return f, []FullyQualifiedProcedureName{{Module: path.New("foo"), Proc: "double"}}
}

// TestPackageRequiresNonEmptyExports checks the EmptyExports error.
func TestPackageRequiresNonEmptyExports(t *testing.T) {
	f := mast.NewForest()

	_, err := Package(f, nil, Metadata{})
	assert.True(t, err != nil, "expected an error for empty exports")

	ae, ok := err.(*aerror.Error)
	assert.True(t, ok, "expected an *aerror.Error")
	assert.Equal(t, aerror.EmptyExports, ae.Code)
}

// TestPackageInfersNamespace checks that an unset Metadata.Namespace is
// inferred from the exports' own module paths.
func TestPackageInfersNamespace(t *testing.T) {
	f, exports := oneExportForest(t)

	lib, err := Package(f, exports, Metadata{Version: "0.1.0"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "foo", lib.Metadata.Namespace)
}

// TestPackageRejectsMixedNamespaces checks that every export of a
// packaged library shares one namespace.
func TestPackageRejectsMixedNamespaces(t *testing.T) {
	f := mast.NewForest()

	id1, _ := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	id2, _ := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{2}}}, nil)
	f.AddProcedureRoot(id1)
	f.AddProcedureRoot(id2)

	exports := []FullyQualifiedProcedureName{
		{Module: path.New("foo"), Proc: "a"},
		{Module: path.New("bar"), Proc: "b"},
	}

	_, err := Package(f, exports, Metadata{})
	assert.True(t, err != nil, "expected an error for mixed namespaces")

	ae, ok := err.(*aerror.Error)
	assert.True(t, ok, "expected an *aerror.Error")
	assert.Equal(t, aerror.InvalidExportNamespace, ae.Code)
}

// TestExportsAlignWithProcedureRoots checks that the exports list stays
// aligned with the forest's procedure roots.
func TestExportsAlignWithProcedureRoots(t *testing.T) {
	f, exports := oneExportForest(t)

	lib, err := Package(f, exports, Metadata{})
	assert.Equal(t, nil, err)
	assert.Equal(t, len(lib.Exports), lib.Forest.NumProcedureRoots())
}

// TestKernelLibraryRequiresKernelNamespace checks that every
// KernelLibrary export's module path lives under the reserved kernel
// namespace.
func TestKernelLibraryRequiresKernelNamespace(t *testing.T) {
	f, exports := oneExportForest(t)

	lib, err := Package(f, exports, Metadata{})
	assert.Equal(t, nil, err)

	_, err = NewKernelLibrary(lib)
	assert.True(t, err != nil, "expected an error for a non-kernel export")
}

func TestKernelLibraryAcceptsSysNamespace(t *testing.T) {
	f := mast.NewForest()

	id, err := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{5}}}, nil)
	assert.Equal(t, nil, err)

	f.AddProcedureRoot(id)

	exports := []FullyQualifiedProcedureName{{Module: path.New(path.KernelNamespace, "hash"), Proc: "blake"}}

	lib, err := Package(f, exports, Metadata{})
	assert.Equal(t, nil, err)

	kl, err := NewKernelLibrary(lib)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, kl.ToMastKernel().Len())
}

func TestIntoModulesGroupsByPath(t *testing.T) {
	f := mast.NewForest()

	id1, _ := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	id2, _ := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{2}}}, nil)
	f.AddProcedureRoot(id1)
	f.AddProcedureRoot(id2)

	exports := []FullyQualifiedProcedureName{
		{Module: path.New("foo"), Proc: "a"},
		{Module: path.New("foo"), Proc: "b"},
	}

	lib, err := Package(f, exports, Metadata{})
	assert.Equal(t, nil, err)

	modules := lib.IntoModules()
	assert.Equal(t, 1, len(modules))
	assert.Equal(t, 2, len(modules[0].Procedures))
}
