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

// Package aerror defines the assembly-error taxonomy: fatal errors raised
// while resolving, lowering or packaging a program after it has already
// parsed successfully. These carry module/procedure path context rather
// than a byte span, since by this stage the failure is almost always
// about relationships between modules rather than a single token.
package aerror

import (
	"fmt"
	"strings"
)

// Code enumerates the assembly failure kinds.
type Code uint8

const (
	// CallInKernel is raised when a kernel procedure issues an ordinary
	// call (not syscall) targeting a procedure outside the kernel
	// namespace, breaking privilege isolation.
	CallInKernel Code = iota
	// CallerOutOfKernel is raised when a non-kernel procedure issues an
	// ordinary call (not syscall) directly targeting a kernel procedure;
	// it must go through syscall instead.
	CallerOutOfKernel
	// CircularModuleDependency is raised when the import graph has a
	// cycle; Chain names the path that closes it.
	CircularModuleDependency
	// DivisionByZero is raised during constant folding of a division
	// whose divisor is a literal zero.
	DivisionByZero
	// DuplicateProcedure is raised when a module declares the same
	// procedure name twice.
	DuplicateProcedure
	// DuplicateModule is raised when a library contains two modules with
	// the same path.
	DuplicateModule
	// ExportedInExecutable is raised when an executable module declares
	// an exported procedure.
	ExportedInExecutable
	// ImportedProcNotFound is raised when a module-qualified invocation
	// names a procedure absent from the target module's exports.
	ImportedProcNotFound
	// KernelProcNotFound is raised when a syscall names a procedure
	// absent from the kernel's export set.
	KernelProcNotFound
	// LocalProcNotFound is raised when an unqualified invocation names a
	// procedure absent from the current module.
	LocalProcNotFound
	// ParameterOutOfBounds is raised when a resolved immediate value
	// exceeds its operand's valid range.
	ParameterOutOfBounds
	// SysCallInKernel is raised when a kernel procedure itself attempts a
	// syscall (kernel procedures may not syscall into themselves).
	SysCallInKernel
	// InvalidExportNamespace is raised when a packaged library's exports
	// span more than one namespace.
	InvalidExportNamespace
	// TooManyModules is raised when a library exceeds MaxModules.
	TooManyModules
	// TooManyDependencies is raised when a library's external references
	// exceed MaxDependencies.
	TooManyDependencies
	// NodeIDOverflow is raised when a constructor is given a child id not
	// present in the forest.
	NodeIDOverflow
	// EmptyExports is raised when a library is packaged with no exported
	// procedures at all.
	EmptyExports
)

var names = map[Code]string{
	CallInKernel:             "CallInKernel",
	CallerOutOfKernel:        "CallerOutOfKernel",
	CircularModuleDependency: "CircularModuleDependency",
	DivisionByZero:           "DivisionByZero",
	DuplicateProcedure:       "DuplicateProcedure",
	DuplicateModule:          "DuplicateModule",
	ExportedInExecutable:     "ExportedInExecutable",
	ImportedProcNotFound:     "ImportedProcNotFound",
	KernelProcNotFound:       "KernelProcNotFound",
	LocalProcNotFound:        "LocalProcNotFound",
	ParameterOutOfBounds:     "ParameterOutOfBounds",
	SysCallInKernel:          "SysCallInKernel",
	InvalidExportNamespace:   "InvalidExportNamespace",
	TooManyModules:           "TooManyModules",
	TooManyDependencies:      "TooManyDependencies",
	NodeIDOverflow:           "NodeIDOverflow",
	EmptyExports:             "EmptyExports",
}

// String renders the code's symbolic name.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}

	return "Unknown"
}

// Error is a single assembly-stage failure.
type Error struct {
	Code Code
	// Path names the module or procedure most directly implicated, e.g.
	// "foo::bar" for a missing procedure.
	Path string
	// Chain holds the module cycle of a circular dependency, e.g.
	// ["a", "b", "a"]; Error() renders it joined with " -> ".
	Chain  []string
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Code.String()

	if len(e.Chain) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Chain, " -> "))
	} else if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}

	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}

	return msg
}

// New constructs an assembly error naming a single offending path.
func New(code Code, path string) *Error {
	return &Error{Code: code, Path: path}
}

// Circular constructs a CircularModuleDependency error carrying the full
// cycle, e.g. ["a", "b", "a"].
func Circular(chain []string) *Error {
	return &Error{Code: CircularModuleDependency, Chain: append([]string(nil), chain...)}
}

// Detailed constructs an assembly error with a free-form detail message.
func Detailed(code Code, path, detail string) *Error {
	return &Error{Code: code, Path: path, Detail: detail}
}
