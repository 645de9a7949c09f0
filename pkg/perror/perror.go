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

// Package perror defines the parsing-error taxonomy: fatal errors
// raised while tokenizing or parsing a single module.  Each error pairs
// a source file and span with a typed Code, so callers can switch on
// the failure kind instead of matching strings.
package perror

import (
	"fmt"

	"github.com/openmast/masm/pkg/util/source"
)

// Code enumerates the parsing failure kinds.
type Code uint8

const (
	// EmptySource is raised when a module's source text is empty.
	EmptySource Code = iota
	// UnexpectedEOF is raised when the token stream ends mid-construct.
	UnexpectedEOF
	// UnexpectedToken is raised when a token doesn't match what the
	// grammar expects at this point; Expected names what was wanted.
	UnexpectedToken
	// EmptyBlock is raised when a body construct closes without having
	// accumulated at least one node.
	EmptyBlock
	// InvalidOperation is raised for an unrecognized instruction mnemonic.
	InvalidOperation
	// MissingParameter is raised when an instruction requires an
	// immediate that wasn't supplied.
	MissingParameter
	// ExtraParameter is raised when an instruction was given more
	// immediates than it accepts.
	ExtraParameter
	// InvalidParameter is raised when a supplied immediate fails to
	// parse as the expected shape (e.g. a non-numeric count).
	InvalidParameter
	// UnmatchedIf is raised for an "if.true" whose closing "end" is
	// missing or closes a different construct (a second "else" within
	// one "if" is reported this way, since "end" was expected there).
	UnmatchedIf
	// UnmatchedElse is raised for an "else" reached while the innermost
	// open construct is not the then-branch of an "if.true".
	UnmatchedElse
	// UnmatchedWhile is raised for a "while.true" left unclosed, or an
	// "end" that doesn't match one.
	UnmatchedWhile
	// UnmatchedRepeat is raised for an unclosed "repeat".
	UnmatchedRepeat
	// UnmatchedProc is raised for an unclosed "proc"/"export".
	UnmatchedProc
	// UnmatchedBegin is raised for an unclosed "begin".
	UnmatchedBegin
	// DanglingInstructions is raised when tokens remain after a module's
	// closing construct.
	DanglingInstructions
	// InvalidName is raised when a procedure name violates the
	// surface-language identifier rules.
	InvalidName
	// NameTooLong is raised when a procedure name exceeds 100 characters.
	NameTooLong
	// TooManyLocals is raised when a procedure declares more than 65535
	// locals.
	TooManyLocals
	// ImportInsideBody is raised when a "use" declaration appears after
	// the first proc/begin block.
	ImportInsideBody
	// InvalidImportPath is raised when a "use" target isn't a
	// well-formed module path.
	InvalidImportPath
)

var names = map[Code]string{
	EmptySource:          "EmptySource",
	UnexpectedEOF:        "UnexpectedEOF",
	UnexpectedToken:      "UnexpectedToken",
	EmptyBlock:           "EmptyBlock",
	InvalidOperation:     "InvalidOperation",
	MissingParameter:     "MissingParameter",
	ExtraParameter:       "ExtraParameter",
	InvalidParameter:     "InvalidParameter",
	UnmatchedIf:          "UnmatchedIf",
	UnmatchedElse:        "UnmatchedElse",
	UnmatchedWhile:       "UnmatchedWhile",
	UnmatchedRepeat:      "UnmatchedRepeat",
	UnmatchedProc:        "UnmatchedProc",
	UnmatchedBegin:       "UnmatchedBegin",
	DanglingInstructions: "DanglingInstructions",
	InvalidName:          "InvalidName",
	NameTooLong:          "NameTooLong",
	TooManyLocals:        "TooManyLocals",
	ImportInsideBody:     "ImportInsideBody",
	InvalidImportPath:    "InvalidImportPath",
}

// String renders the code's symbolic name.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}

	return "Unknown"
}

// Error is a single parsing failure, carrying enough context (source
// file, span, offending token text, and what was expected) for a caller
// to produce a diagnostic without re-deriving it from the Code alone.
type Error struct {
	Code     Code
	File     *source.File
	Span     source.Span
	Token    string
	Expected string
	Detail   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	loc := "?"
	if e.File != nil {
		loc = fmt.Sprintf("%s:%d", e.File.Filename(), e.Span.Start())
	}

	msg := e.Code.String()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}

	if e.Token != "" {
		msg = fmt.Sprintf("%s (found %q)", msg, e.Token)
	}

	if e.Expected != "" {
		msg = fmt.Sprintf("%s (expected %s)", msg, e.Expected)
	}

	return fmt.Sprintf("%s: %s", loc, msg)
}

// New constructs a parsing error with no extra context beyond its code
// and location.
func New(code Code, file *source.File, span source.Span) *Error {
	return &Error{Code: code, File: file, Span: span}
}

// Unexpected constructs an UnexpectedToken error naming what was found
// and what was expected.
func Unexpected(file *source.File, span source.Span, token, expected string) *Error {
	return &Error{Code: UnexpectedToken, File: file, Span: span, Token: token, Expected: expected}
}

// Detailed constructs an error of the given code with a free-form detail
// message.
func Detailed(code Code, file *source.File, span source.Span, detail string) *Error {
	return &Error{Code: code, File: file, Span: span, Detail: detail}
}
