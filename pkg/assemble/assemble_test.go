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

// End-to-end scenarios driven through the public CompileLibrary /
// CompileProgram entry points, each from literal source text rather
// than hand-built ASTs.
package assemble

import (
	"testing"

	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/util/assert"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
)

func src(text string, segments ...string) Source {
	return Source{File: source.NewSourceFile("<test>", []byte(text)), Path: path.New(segments...)}
}

// TestSingleExportDigest checks that module foo with "export.double
// locadd.1 add end" produces one export whose digest equals the digest
// of the equivalent hand-built block.
func TestSingleExportDigest(t *testing.T) {
	lib, err := CompileLibrary([]Source{
		src("export.double locadd.1 add end", "foo"),
	}, Options{})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(lib.Exports))

	ref := mast.NewForest()
	id, err := ref.EnsureBlock([]mast.Operation{
		{Opcode: "locadd", Immediates: []uint64{1}},
		{Opcode: "add"},
	}, nil)
	assert.Equal(t, nil, err)

	roots := lib.Forest.ProcedureRoots()
	assert.Equal(t, ref.Digest(id), lib.Forest.Digest(roots[0]))
}

// TestProgramWithQualifiedExecAndIfElse checks that "use bar; begin
// exec.bar::f if.true push.1 else push.0 end end" with "bar::f = push.5
// end" lowers to Join(root(f), Split(Block[Push(1)], Block[Push(0)])).
func TestProgramWithQualifiedExecAndIfElse(t *testing.T) {
	forest, err := CompileProgram([]Source{
		src("export.f push.5 end", "bar"),
		src("use bar begin exec.bar::f if.true push.1 else push.0 end end", "prog"),
	}, Options{})
	assert.Equal(t, nil, err)

	entry, ok := forest.Entrypoint()
	assert.True(t, ok, "expected an entrypoint")

	root := forest.Node(entry)
	assert.Equal(t, mast.KindJoin, root.Kind)

	fRoot := forest.Node(root.Left)
	assert.Equal(t, mast.KindBlock, fRoot.Kind)
	assert.Equal(t, "push", fRoot.Ops[0].Opcode)
	assert.Equal(t, uint64(5), fRoot.Ops[0].Immediates[0])

	split := forest.Node(root.Right)
	assert.Equal(t, mast.KindSplit, split.Kind)

	thenBlock := forest.Node(split.Left)
	assert.Equal(t, uint64(1), thenBlock.Ops[0].Immediates[0])

	elseBlock := forest.Node(split.Right)
	assert.Equal(t, uint64(0), elseBlock.Ops[0].Immediates[0])
}

// TestRepeatProducesBalancedDedupedTree checks that "repeat 4 push.1
// end" lowers to a 4-leaf balanced Join tree whose leaves all share one
// Block id.
func TestRepeatProducesBalancedDedupedTree(t *testing.T) {
	lib, err := CompileLibrary([]Source{
		src("export.r repeat 4 push.1 end end", "foo"),
	}, Options{})
	assert.Equal(t, nil, err)

	// 1 Block + 2 distinct Joins, per TestRepeatLeavesDedup in pkg/lower.
	assert.Equal(t, 3, lib.Forest.Len())

	roots := lib.Forest.ProcedureRoots()
	root := lib.Forest.Node(roots[0])
	assert.Equal(t, mast.KindJoin, root.Kind)
	assert.Equal(t, root.Left, root.Right)
}

// TestSyscallResolvesAgainstKernel checks that a program syscalling a
// procedure the attached kernel exports succeeds; the same program with
// no kernel at all fails with KernelProcNotFound.
func TestSyscallResolvesAgainstKernel(t *testing.T) {
	kernelLib, err := CompileKernelLibrary([]Source{
		src("export.foo push.7 end", "#sys", "k"),
	}, Options{})
	assert.Equal(t, nil, err)

	forest, err := CompileProgram([]Source{
		src("begin syscall.foo end", "prog"),
	}, Options{Kernel: kernelLib})
	assert.Equal(t, nil, err)

	entry, ok := forest.Entrypoint()
	assert.True(t, ok, "expected an entrypoint")

	root := forest.Node(entry)
	assert.Equal(t, mast.KindCall, root.Kind)
	assert.True(t, root.IsSysCall, "expected a syscall node")

	callee := forest.Node(root.Callee)
	assert.Equal(t, mast.KindExternal, callee.Kind)
}

func TestSyscallWithoutKernelFails(t *testing.T) {
	_, err := CompileProgram([]Source{
		src("begin syscall.foo end", "prog"),
	}, Options{})
	assert.True(t, err != nil, "expected an error with no kernel attached")

	ae, ok := err.(*aerror.Error)
	assert.True(t, ok, "expected an *aerror.Error")
	assert.Equal(t, aerror.KernelProcNotFound, ae.Code)
}

// TestCircularImportsDetected checks that "a uses b; b uses a" fails
// with CircularModuleDependency naming the closing chain.
func TestCircularImportsDetected(t *testing.T) {
	_, err := CompileLibrary([]Source{
		src("use b export.x push.1 end", "a"),
		src("use a export.y push.1 end", "b"),
	}, Options{})
	assert.True(t, err != nil, "expected a circular dependency error")

	ae, ok := err.(*aerror.Error)
	assert.True(t, ok, "expected an *aerror.Error")
	assert.Equal(t, aerror.CircularModuleDependency, ae.Code)
	assert.Equal(t, []string{"a", "b", "a"}, ae.Chain)
}

// TestIdenticalProcedureBodiesDedup checks that two modules each
// exporting a procedure with an identical body collapse to exactly one
// Block node in the shared forest.
func TestIdenticalProcedureBodiesDedup(t *testing.T) {
	lib, err := CompileLibrary([]Source{
		src("export.a push.1 end", "mylib", "foo"),
		src("export.b push.1 end", "mylib", "bar"),
	}, Options{})
	assert.Equal(t, nil, err)

	assert.Equal(t, 1, lib.Forest.Len())
	assert.Equal(t, 2, len(lib.Exports))

	roots := lib.Forest.ProcedureRoots()
	assert.Equal(t, roots[0], roots[1])
}

// TestExportedInExecutableRejected checks that an executable module may
// not itself declare an export.
func TestExportedInExecutableRejected(t *testing.T) {
	_, err := CompileProgram([]Source{
		src("export.x push.1 end begin push.0 end", "prog"),
	}, Options{})
	assert.True(t, err != nil, "expected an error for export inside an executable module")

	ae, ok := err.(*aerror.Error)
	assert.True(t, ok, "expected an *aerror.Error")
	assert.Equal(t, aerror.ExportedInExecutable, ae.Code)
}
