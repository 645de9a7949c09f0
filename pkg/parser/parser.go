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

// Package parser implements the recursive-descent parser for the masm
// surface language: tokens in, an *ast.Module out. The Parser holds a
// token cursor plus lookahead helpers and accumulates *perror.Error
// values instead of aborting on the first failure, so a caller can
// report every syntax problem in one pass.
package parser

import (
	"strconv"
	"strings"

	"github.com/openmast/masm/pkg/ast"
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/lex"
	"github.com/openmast/masm/pkg/perror"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
)

const (
	maxNameLen   = 100
	maxLocals    = 65535
	digestHexLen = 64
)

// blockState names one level of the parser's block stack.
type blockState uint8

const (
	stateModuleTop blockState = iota
	stateProcBody
	stateBeginBody
	stateIfThen
	stateIfElse
	stateWhileBody
	stateRepeatBody
)

// Parser holds the token cursor and accumulated diagnostics for parsing
// a single module's source file.
type Parser struct {
	file       *source.File
	tokens     []lex.Token
	index      int
	modulePath path.Path
	errs       []error
	stack      []blockState
}

// Parse tokenizes and parses file into an *ast.Module declared under
// modulePath. Kernel-ness is inferred from modulePath (the reserved
// "#sys" namespace); executable-ness is inferred from the
// presence of a begin_block, since the grammar itself carries no
// separate "module kind" keyword.
func Parse(file *source.File, modulePath path.Path) (*ast.Module, []error) {
	tokens, lexErrs := lex.Lex(file)

	p := &Parser{file: file, tokens: tokens, modulePath: modulePath}
	for _, e := range lexErrs {
		p.errs = append(p.errs, e)
	}

	mod := p.parseModule()

	return mod, p.errs
}

func (p *Parser) push(s blockState) { p.stack = append(p.stack, s) }

func (p *Parser) pop() blockState {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	return top
}

func (p *Parser) top() (blockState, bool) {
	if len(p.stack) == 0 {
		return 0, false
	}

	return p.stack[len(p.stack)-1], true
}

func (p *Parser) atEOF() bool { return p.index >= len(p.tokens) }

func (p *Parser) peek() (lex.Token, bool) {
	if p.atEOF() {
		return lex.Token{}, false
	}

	return p.tokens[p.index], true
}

func (p *Parser) advance() lex.Token {
	t := p.tokens[p.index]
	p.index++

	return t
}

func (p *Parser) spanAt(offset, length int) source.Span {
	return source.NewSpan(offset, offset+length)
}

func (p *Parser) errorf(code perror.Code, detail string) {
	span := p.currentSpan()
	p.errs = append(p.errs, perror.Detailed(code, p.file, span, detail))
}

func (p *Parser) currentSpan() source.Span {
	if t, ok := p.peek(); ok {
		return p.spanAt(t.Offset, len(t.Text()))
	}

	n := len(p.file.Contents())

	return source.NewSpan(n, n)
}

// keyword reports whether the next token's first part equals kw,
// without consuming it.
func (p *Parser) keyword(kw string) bool {
	t, ok := p.peek()

	return ok && t.Parts[0] == kw
}

func (p *Parser) parseModule() *ast.Module {
	if len(p.file.Contents()) == 0 {
		p.errorf(perror.EmptySource, "module source is empty")

		return nil
	}

	mod := &ast.Module{Path: p.modulePath, Kind: ast.ModuleLibrary}
	p.push(stateModuleTop)

	seenProcOrBegin := false

	for !p.atEOF() {
		switch {
		case p.keyword("use"):
			if seenProcOrBegin {
				p.errorf(perror.ImportInsideBody, "use declarations must precede all procedures")
			}

			if imp, ok := p.parseUse(); ok {
				mod.Imports = append(mod.Imports, imp)
			}
		case p.keyword("proc") || p.keyword("export"):
			seenProcOrBegin = true

			if proc, ok := p.parseProcDecl(); ok {
				mod.Procedures = append(mod.Procedures, proc)
			}
		case p.keyword("begin"):
			seenProcOrBegin = true
			mod.Kind = ast.ModuleExecutable
			mod.Entry = p.parseBeginBlock()
		default:
			t := p.advance()
			if seenProcOrBegin {
				p.errs = append(p.errs, perror.Detailed(perror.DanglingInstructions, p.file,
					p.spanAt(t.Offset, len(t.Text())), t.Text()))

				continue
			}

			p.errs = append(p.errs, perror.Unexpected(p.file, p.spanAt(t.Offset, len(t.Text())), t.Text(),
				"use, proc, export or begin"))
		}
	}

	if mod.Kind != ast.ModuleExecutable && p.modulePath.IsKernel() {
		mod.Kind = ast.ModuleKernel
	}

	if top, ok := p.top(); ok {
		p.pop()

		if top != stateModuleTop {
			p.errorf(codeForUnmatched(top), "unterminated construct at end of file")
		}
	}

	return mod
}

func (p *Parser) parseUse() (ast.Import, bool) {
	kw := p.advance() // "use"
	startSpan := p.spanAt(kw.Offset, len(kw.Text()))

	t, ok := p.peek()
	if !ok {
		p.errorf(perror.UnexpectedEOF, "expected module path after 'use'")

		return ast.Import{}, false
	}

	p.advance()

	target, parseOk := path.Parse(t.Parts[0])
	if !parseOk {
		p.errs = append(p.errs, perror.Detailed(perror.InvalidImportPath, p.file,
			p.spanAt(t.Offset, len(t.Text())), t.Text()))

		return ast.Import{}, false
	}

	alias := target.Segment(target.Depth() - 1)
	span := startSpan.Join(p.spanAt(t.Offset, len(t.Text())))

	return ast.Import{Target: target, Alias: alias, Span: span}, true
}

func (p *Parser) validName(name string) bool {
	if name == "" || len(name) > maxNameLen {
		return false
	}

	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'

		switch {
		case i == 0 && !isLetter:
			return false
		case i > 0 && !(isLetter || isDigit || r == '_'):
			return false
		}
	}

	return true
}

func (p *Parser) parseProcDecl() (*ast.Procedure, bool) {
	kw := p.advance() // "proc" or "export", possibly dotted with name/.locals
	vis := ast.VisLocal

	if kw.Parts[0] == "export" {
		vis = ast.VisExported
	}

	if len(kw.Parts) < 2 {
		p.errs = append(p.errs, perror.Unexpected(p.file, p.spanAt(kw.Offset, len(kw.Text())), kw.Text(),
			"proc.<name> or export.<name>"))

		return nil, false
	}

	name := kw.Parts[1]
	if !p.validName(name) {
		code := perror.InvalidName
		if len(name) > maxNameLen {
			code = perror.NameTooLong
		}

		p.errs = append(p.errs, perror.Detailed(code, p.file, p.spanAt(kw.Offset, len(kw.Text())), name))
	}

	locals := 0

	if len(kw.Parts) >= 3 {
		n, err := strconv.Atoi(kw.Parts[2])
		if err != nil || n < 0 || n > maxLocals {
			p.errs = append(p.errs, perror.Detailed(perror.TooManyLocals, p.file,
				p.spanAt(kw.Offset, len(kw.Text())), kw.Parts[2]))
		} else {
			locals = n
		}
	}

	p.push(stateProcBody)
	body := p.parseBody()
	p.expectEnd(stateProcBody)

	span := p.spanAt(kw.Offset, len(kw.Text()))

	return &ast.Procedure{Name: name, Visibility: vis, Locals: locals, Body: body, Span: span}, true
}

func (p *Parser) parseBeginBlock() *ast.Body {
	kw := p.advance() // "begin"
	p.push(stateBeginBody)

	body := p.parseBody()
	p.expectEnd(stateBeginBody)

	_ = kw

	return body
}

// expectEnd consumes a trailing "end" token and validates it closes the
// expected block state, popping the parser's state stack.
func (p *Parser) expectEnd(want blockState) {
	if !p.keyword("end") {
		p.errorf(codeForUnmatched(want), "missing 'end'")

		return
	}

	p.advance()

	if top, ok := p.top(); !ok || top != want {
		p.errorf(codeForUnmatched(want), "mismatched 'end'")

		return
	}

	p.pop()
}

func codeForUnmatched(s blockState) perror.Code {
	switch s {
	case stateIfThen, stateIfElse:
		return perror.UnmatchedIf
	case stateWhileBody:
		return perror.UnmatchedWhile
	case stateRepeatBody:
		return perror.UnmatchedRepeat
	case stateProcBody:
		return perror.UnmatchedProc
	case stateBeginBody:
		return perror.UnmatchedBegin
	default:
		return perror.UnexpectedToken
	}
}

// parseBody consumes nodes until it encounters a token that closes the
// enclosing construct ("end" or "else"), without consuming that token.
func (p *Parser) parseBody() *ast.Body {
	start := p.currentSpan()
	body := &ast.Body{}

	for !p.atEOF() && !p.keyword("end") && !p.keyword("else") {
		if n, ok := p.parseNode(); ok {
			body.Nodes = append(body.Nodes, n)
		}
	}

	if len(body.Nodes) == 0 {
		p.errorf(perror.EmptyBlock, "block must contain at least one node")
	}

	end := p.currentSpan()
	body.Span = start.Join(end)

	return body
}

func (p *Parser) parseNode() (ast.Node, bool) {
	t, ok := p.peek()
	if !ok {
		return ast.Node{}, false
	}

	switch t.Parts[0] {
	case "if":
		return p.parseIf()
	case "while":
		return p.parseWhile()
	case "repeat":
		return p.parseRepeat()
	case "exec":
		return p.parseInvocation(t, ast.NodeExec)
	case "call":
		return p.parseInvocation(t, ast.NodeCall)
	case "procref":
		return p.parseInvocation(t, ast.NodeProcRef)
	case "syscall":
		return p.parseSysCall()
	case "dynexec":
		p.advance()

		return ast.Node{Kind: ast.NodeDynExec, Span: p.spanAt(t.Offset, len(t.Text()))}, true
	case "dyncall":
		p.advance()

		return ast.Node{Kind: ast.NodeDynCall, Span: p.spanAt(t.Offset, len(t.Text()))}, true
	case "use":
		p.advance()
		p.errorf(perror.ImportInsideBody, "use declarations may not appear inside a body")

		return ast.Node{}, false
	default:
		return p.parseInstruction(t)
	}
}

func (p *Parser) parseIf() (ast.Node, bool) {
	kw := p.advance()

	if len(kw.Parts) < 2 || kw.Parts[1] != "true" {
		p.errs = append(p.errs, perror.Unexpected(p.file, p.spanAt(kw.Offset, len(kw.Text())), kw.Text(), "if.true"))
	}

	p.push(stateIfThen)

	then := p.parseBody()

	var elseBody *ast.Body

	if p.keyword("else") {
		p.advance()

		if top, ok := p.top(); ok && top == stateIfThen {
			p.pop()
			p.push(stateIfElse)
		} else {
			p.errorf(perror.UnmatchedElse, "'else' without matching 'if'")
		}

		elseBody = p.parseBody()
	}

	want := stateIfThen
	if elseBody != nil {
		want = stateIfElse
	}

	p.expectEnd(want)

	span := p.spanAt(kw.Offset, len(kw.Text()))

	return ast.Node{Kind: ast.NodeIfElse, Then: then, Else: elseBody, Span: span}, true
}

func (p *Parser) parseWhile() (ast.Node, bool) {
	kw := p.advance()

	if len(kw.Parts) < 2 || kw.Parts[1] != "true" {
		p.errs = append(p.errs, perror.Unexpected(p.file, p.spanAt(kw.Offset, len(kw.Text())), kw.Text(), "while.true"))
	}

	p.push(stateWhileBody)
	body := p.parseBody()
	p.expectEnd(stateWhileBody)

	span := p.spanAt(kw.Offset, len(kw.Text()))

	return ast.Node{Kind: ast.NodeWhile, Then: body, Span: span}, true
}

func (p *Parser) parseRepeat() (ast.Node, bool) {
	kw := p.advance() // "repeat"
	span := p.spanAt(kw.Offset, len(kw.Text()))

	count, ok := p.parseNumericToken()
	if !ok || count < 1 {
		p.errorf(perror.InvalidParameter, "repeat requires a count N >= 1")

		count = 1
	}

	p.push(stateRepeatBody)
	body := p.parseBody()
	p.expectEnd(stateRepeatBody)

	return ast.Node{Kind: ast.NodeRepeat, Count: uint32(count), Body: body, Span: span}, true
}

// parseNumericToken consumes one standalone token and parses it as a
// non-negative integer.
func (p *Parser) parseNumericToken() (int, bool) {
	t, ok := p.peek()
	if !ok || len(t.Parts) != 1 {
		return 0, false
	}

	n, err := strconv.Atoi(t.Parts[0])
	if err != nil || n < 0 {
		return 0, false
	}

	p.advance()

	return n, true
}

func (p *Parser) parseInvocation(kw lex.Token, kind ast.NodeKind) (ast.Node, bool) {
	p.advance()

	if len(kw.Parts) < 2 {
		p.errorf(perror.MissingParameter, kw.Parts[0]+" requires a target")

		return ast.Node{}, false
	}

	target := p.resolveTarget(kw.Parts[1])
	span := p.spanAt(kw.Offset, len(kw.Text()))

	return ast.Node{Kind: kind, Target: target, Span: span}, true
}

func (p *Parser) parseSysCall() (ast.Node, bool) {
	kw := p.advance()
	span := p.spanAt(kw.Offset, len(kw.Text()))

	var name string

	if len(kw.Parts) >= 2 {
		name = kw.Parts[1]
	} else {
		t, ok := p.peek()
		if !ok || len(t.Parts) != 1 {
			p.errorf(perror.MissingParameter, "syscall requires a procedure name")

			return ast.Node{}, false
		}

		name = t.Parts[0]
		p.advance()
	}

	if strings.Contains(name, path.Delim) {
		p.errorf(perror.InvalidParameter, "syscall target must be a local name, not module-qualified")
	}

	return ast.Node{
		Kind:   ast.NodeSysCall,
		Target: ast.InvocationTarget{Kind: ast.InvocationLocal, Name: name},
		Span:   span,
	}, true
}

// resolveTarget classifies a raw invocation-target string into an
// InvocationTarget, without touching the module table: that happens in
// pkg/resolver. A target of the form 0x<64 hex chars> is a literal
// digest; one containing "::" exactly
// once is module-qualified; otherwise it's a local name.
func (p *Parser) resolveTarget(raw string) ast.InvocationTarget {
	if strings.HasPrefix(raw, "0x") && len(raw) == 2+digestHexLen {
		if b, ok := decodeHex(raw[2:]); ok {
			return ast.InvocationTarget{Kind: ast.InvocationDigest, Digest: digest.FromBytes(b)}
		}
	}

	if idx := strings.Index(raw, path.Delim); idx >= 0 {
		alias := raw[:idx]
		proc := raw[idx+len(path.Delim):]

		if !strings.Contains(proc, path.Delim) {
			return ast.InvocationTarget{Kind: ast.InvocationQualified, Alias: alias, Proc: proc}
		}
	}

	return ast.InvocationTarget{Kind: ast.InvocationLocal, Name: raw}
}

func decodeHex(s string) ([]byte, bool) {
	if len(s)%2 != 0 {
		return nil, false
	}

	out := make([]byte, len(s)/2)

	for i := 0; i < len(out); i++ {
		hi, ok1 := hexDigit(s[2*i])
		lo, ok2 := hexDigit(s[2*i+1])

		if !ok1 || !ok2 {
			return nil, false
		}

		out[i] = hi<<4 | lo
	}

	return out, true
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

func (p *Parser) parseInstruction(t lex.Token) (ast.Node, bool) {
	p.advance()

	span := p.spanAt(t.Offset, len(t.Text()))
	mnemonic := t.Parts[0]

	// Advice instructions carry a textual sub-mnemonic rather than
	// numeric immediates; fold it into the stored opcode.
	if mnemonic == "adv" {
		if len(t.Parts) != 2 {
			p.errs = append(p.errs, perror.Detailed(perror.MissingParameter, p.file, span, "adv requires a sub-mnemonic"))

			return ast.Node{}, false
		}

		if _, ok := advSubOps[t.Parts[1]]; !ok {
			p.errs = append(p.errs, perror.Detailed(perror.InvalidOperation, p.file, span, t.Text()))

			return ast.Node{}, false
		}

		return ast.Node{Kind: ast.NodeOp, Op: mnemonic + "." + t.Parts[1], Span: span}, true
	}

	spec, known := opTable[mnemonic]
	if !known {
		p.errs = append(p.errs, perror.Detailed(perror.InvalidOperation, p.file, span, mnemonic))

		return ast.Node{}, false
	}

	immeds := make([]uint64, 0, len(t.Parts)-1)

	for _, part := range t.Parts[1:] {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			p.errs = append(p.errs, perror.Detailed(perror.InvalidParameter, p.file, span,
				"operand \""+part+"\" is not a valid unsigned integer"))

			continue
		}

		immeds = append(immeds, n)
	}

	switch {
	case len(immeds) < spec.minImms:
		p.errs = append(p.errs, perror.Detailed(perror.MissingParameter, p.file, span, t.Text()))

		return ast.Node{}, false
	case len(immeds) > spec.maxImms:
		p.errs = append(p.errs, perror.Detailed(perror.ExtraParameter, p.file, span, t.Text()))

		return ast.Node{}, false
	}

	return ast.Node{Kind: ast.NodeOp, Op: mnemonic, Immeds: immeds, Span: span}, true
}
