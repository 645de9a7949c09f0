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
package parser

import (
	"testing"

	"github.com/openmast/masm/pkg/ast"
	"github.com/openmast/masm/pkg/perror"
	"github.com/openmast/masm/pkg/util/assert"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
)

func parseString(s string, segments ...string) (*ast.Module, []error) {
	if len(segments) == 0 {
		segments = []string{"test"}
	}

	return Parse(source.NewSourceFile("<test>", []byte(s)), path.New(segments...))
}

func firstCode(t *testing.T, errs []error) perror.Code {
	t.Helper()
	assert.True(t, len(errs) > 0, "expected at least one error")

	pe, ok := errs[0].(*perror.Error)
	assert.True(t, ok, "expected a *perror.Error")

	return pe.Code
}

func TestParseLibraryModule(t *testing.T) {
	mod, errs := parseString("proc.helper push.1 end export.api exec.helper add end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, ast.ModuleLibrary, mod.Kind)
	assert.Equal(t, 2, len(mod.Procedures))
	assert.Equal(t, ast.VisLocal, mod.Procedures[0].Visibility)
	assert.Equal(t, ast.VisExported, mod.Procedures[1].Visibility)
}

func TestParseExecutableModule(t *testing.T) {
	mod, errs := parseString("begin push.1 push.2 add end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, ast.ModuleExecutable, mod.Kind)
	assert.True(t, mod.Entry != nil, "expected an entry body")
	assert.Equal(t, 3, len(mod.Entry.Nodes))
}

func TestParseKernelModuleInferredFromPath(t *testing.T) {
	mod, errs := parseString("export.open push.1 end", path.KernelNamespace, "io")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, ast.ModuleKernel, mod.Kind)
}

func TestProcedureLocalsParsed(t *testing.T) {
	mod, errs := parseString("proc.scratch.3 locadd.0 end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 3, mod.Procedures[0].Locals)
}

func TestIfElseNested(t *testing.T) {
	mod, errs := parseString("begin if.true push.1 else if.true push.2 end end end")
	assert.Equal(t, 0, len(errs))

	outer := mod.Entry.Nodes[0]
	assert.Equal(t, ast.NodeIfElse, outer.Kind)
	assert.True(t, outer.Else != nil, "expected an else branch")
	assert.Equal(t, ast.NodeIfElse, outer.Else.Nodes[0].Kind)
}

func TestIfWithoutTrueRejected(t *testing.T) {
	_, errs := parseString("begin if push.1 end end")
	assert.Equal(t, perror.UnexpectedToken, firstCode(t, errs))
}

func TestUnclosedProcReported(t *testing.T) {
	_, errs := parseString("proc.f push.1")
	assert.Equal(t, perror.UnmatchedProc, firstCode(t, errs))
}

func TestEmptyBodyReported(t *testing.T) {
	_, errs := parseString("proc.f end")
	assert.Equal(t, perror.EmptyBlock, firstCode(t, errs))
}

func TestEmptySourceReported(t *testing.T) {
	_, errs := parseString("")
	assert.Equal(t, perror.EmptySource, firstCode(t, errs))
}

func TestRepeatRequiresPositiveCount(t *testing.T) {
	_, errs := parseString("begin repeat 0 push.1 end end")
	assert.Equal(t, perror.InvalidParameter, firstCode(t, errs))
}

func TestRepeatCountParsed(t *testing.T) {
	mod, errs := parseString("begin repeat 4 push.1 end end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, ast.NodeRepeat, mod.Entry.Nodes[0].Kind)
	assert.Equal(t, uint32(4), mod.Entry.Nodes[0].Count)
}

func TestUnknownMnemonicRejected(t *testing.T) {
	_, errs := parseString("begin frobnicate end")
	assert.Equal(t, perror.InvalidOperation, firstCode(t, errs))
}

func TestMissingImmediateRejected(t *testing.T) {
	_, errs := parseString("begin push end")
	assert.Equal(t, perror.MissingParameter, firstCode(t, errs))
}

func TestExtraImmediateRejected(t *testing.T) {
	_, errs := parseString("begin add.1.2 end")
	assert.Equal(t, perror.ExtraParameter, firstCode(t, errs))
}

func TestImportInsideBodyRejected(t *testing.T) {
	_, errs := parseString("begin use foo push.1 end")
	assert.Equal(t, perror.ImportInsideBody, firstCode(t, errs))
}

func TestUseAfterProcRejected(t *testing.T) {
	_, errs := parseString("proc.f push.1 end use foo")
	assert.Equal(t, perror.ImportInsideBody, firstCode(t, errs))
}

func TestTooManyLocalsRejected(t *testing.T) {
	_, errs := parseString("proc.f.70000 push.1 end")
	assert.Equal(t, perror.TooManyLocals, firstCode(t, errs))
}

func TestOverlongNameRejected(t *testing.T) {
	name := make([]byte, 101)
	for i := range name {
		name[i] = 'a'
	}

	_, errs := parseString("proc." + string(name) + " push.1 end")
	assert.Equal(t, perror.NameTooLong, firstCode(t, errs))
}

func TestSyscallTakesLocalNameOnly(t *testing.T) {
	_, errs := parseString("begin syscall.k::f end")
	assert.Equal(t, perror.InvalidParameter, firstCode(t, errs))
}

func TestImportPathWithBadCharsetRejected(t *testing.T) {
	_, errs := parseString("use foo$bar::baz begin push.1 end")
	assert.Equal(t, perror.InvalidImportPath, firstCode(t, errs))
}

func TestImportPathWithDigitStartRejected(t *testing.T) {
	_, errs := parseString("use 9abc::x begin push.1 end")
	assert.Equal(t, perror.InvalidImportPath, firstCode(t, errs))
}

func TestQualifiedInvocationTarget(t *testing.T) {
	mod, errs := parseString("use std::math begin exec.math::pow end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, "math", mod.Imports[0].Alias)

	target := mod.Entry.Nodes[0].Target
	assert.Equal(t, ast.InvocationQualified, target.Kind)
	assert.Equal(t, "math", target.Alias)
	assert.Equal(t, "pow", target.Proc)
}

func TestDigestLiteralTarget(t *testing.T) {
	hex := "0x" +
		"00000000000000010000000000000002" +
		"00000000000000030000000000000004"

	mod, errs := parseString("begin call." + hex + " end")
	assert.Equal(t, 0, len(errs))

	target := mod.Entry.Nodes[0].Target
	assert.Equal(t, ast.InvocationDigest, target.Kind)
	assert.Equal(t, uint64(1), target.Digest[0])
	assert.Equal(t, uint64(4), target.Digest[3])
}

func TestAdviceInstructionParsed(t *testing.T) {
	mod, errs := parseString("begin adv.push_mapval end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, "adv.push_mapval", mod.Entry.Nodes[0].Op)
}

func TestDynExecAndDynCallParsed(t *testing.T) {
	mod, errs := parseString("begin dynexec dyncall end")
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, ast.NodeDynExec, mod.Entry.Nodes[0].Kind)
	assert.Equal(t, ast.NodeDynCall, mod.Entry.Nodes[1].Kind)
}
