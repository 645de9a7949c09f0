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

// Package ast defines the surface syntax tree produced by pkg/parser: the
// structured-control-flow representation of a module's procedures, before
// pkg/lower flattens it down into the MAST forest's DAG shape.
package ast

import (
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
)

// ModuleKind classifies how a module's procedures may be invoked.
type ModuleKind uint8

const (
	// ModuleLibrary holds ordinary procedures, invoked via exec/call.
	ModuleLibrary ModuleKind = iota
	// ModuleKernel holds privileged procedures; only these may be the
	// target of a syscall, and they live under the reserved "#sys"
	// namespace.
	ModuleKernel
	// ModuleExecutable is the single entrypoint module of a program,
	// whose unnamed "begin...end" body becomes the forest's root.
	ModuleExecutable
)

// Visibility controls whether a procedure may be referenced from other
// modules.
type Visibility uint8

const (
	// VisLocal procedures may only be invoked from within their own module.
	VisLocal Visibility = iota
	// VisExported procedures may be invoked (and, for kernel modules,
	// syscalled) from any module that imports this one.
	VisExported
)

// Module is one source file's worth of declarations: its own path, the
// modules it imports, and the procedures it declares.
type Module struct {
	Path       path.Path
	Kind       ModuleKind
	Imports    []Import
	Procedures []*Procedure
	// Entry holds the executable module's top-level body; nil for
	// library/kernel modules, which only expose named procedures.
	Entry *Body
	Span  source.Span
}

// Import names a module brought into scope under a local alias (the
// final segment of its path).
type Import struct {
	Target path.Path
	Alias  string
	Span   source.Span
}

// Procedure is a single named, exported-or-not procedure body along with
// its declared local count.
type Procedure struct {
	Name       string
	Visibility Visibility
	Locals     int
	Body       *Body
	Span       source.Span
}

// NodeKind discriminates the variants a Body's top-level Nodes slice may
// hold.
type NodeKind uint8

const (
	// NodeOp is a single primitive VM operation (opcode + immediates).
	NodeOp NodeKind = iota
	// NodeIfElse is a structured if/else; Else is nil when the source
	// omits the else branch.
	NodeIfElse
	// NodeWhile is a structured while loop.
	NodeWhile
	// NodeRepeat unrolls a fixed iteration count at lowering time.
	NodeRepeat
	// NodeExec inlines the callee's MAST root directly (no Call wrapper).
	NodeExec
	// NodeCall invokes the callee via a Call node (new call frame).
	NodeCall
	// NodeSysCall invokes a kernel procedure via a SysCall node.
	NodeSysCall
	// NodeProcRef pushes the callee's digest onto the stack without
	// invoking it.
	NodeProcRef
	// NodeDynExec invokes the procedure whose digest sits on the stack,
	// inlined into the current context.
	NodeDynExec
	// NodeDynCall invokes the procedure whose digest sits on the stack
	// in a new call frame.
	NodeDynCall
)

// Body is a structured sequence of control-flow nodes, e.g. a procedure's
// definition or one arm of an if/while.
type Body struct {
	Nodes []Node
	Span  source.Span
}

// Node is one element of a Body. Exactly the fields relevant to Kind are
// populated; see NodeKind's doc comments for which.
type Node struct {
	Kind NodeKind
	Span source.Span

	// NodeOp
	Op     string
	Immeds []uint64

	// NodeIfElse / NodeWhile
	Then *Body
	Else *Body

	// NodeRepeat
	Count uint32
	Body  *Body

	// NodeExec / NodeCall / NodeSysCall / NodeProcRef
	Target InvocationTarget
}

// InvocationKind discriminates how an InvocationTarget names its callee.
type InvocationKind uint8

const (
	// InvocationLocal names a procedure declared in the same module.
	InvocationLocal InvocationKind = iota
	// InvocationQualified names a procedure in an imported module via its
	// local alias.
	InvocationQualified
	// InvocationDigest names a procedure directly by its MAST root,
	// bypassing name resolution entirely.
	InvocationDigest
)

// InvocationTarget identifies the callee of an exec/call/syscall/procref
// node, in whichever form the source text used.
type InvocationTarget struct {
	Kind InvocationKind

	// InvocationLocal
	Name string

	// InvocationQualified
	Alias string
	Proc  string

	// InvocationDigest
	Digest digest.Digest
}
