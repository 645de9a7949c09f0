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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/perror"
)

// defaultDiagnosticWidth is used whenever stdout isn't a terminal (e.g.
// output is piped or redirected), matching the fallback width used by
// most line-wrapping CLI tools.
const defaultDiagnosticWidth = 80

// terminalWidth reports the current terminal's column count, falling
// back to defaultDiagnosticWidth when stdout isn't a terminal.
func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return defaultDiagnosticWidth
	}

	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultDiagnosticWidth
	}

	return w
}

// PrintDiagnostic renders a bundling failure to stdout, wrapping its
// message to the current terminal width. Parsing errors additionally
// show the offending source line with the error's span underlined.
func PrintDiagnostic(err error) {
	width := terminalWidth()

	switch e := err.(type) {
	case *perror.Error:
		fmt.Println(wrap(e.Error(), width))
		printSourceLine(e)
	case *aerror.Error:
		fmt.Println(wrap(e.Error(), width))
	default:
		fmt.Println(wrap(err.Error(), width))
	}
}

// printSourceLine shows the first line enclosing a parsing error's span,
// with a caret underline beneath the offending region.
func printSourceLine(e *perror.Error) {
	if e.File == nil {
		return
	}

	line := e.File.FindFirstEnclosingLine(e.Span)
	fmt.Printf("%4d | %s\n", line.Number(), line.String())

	offset := e.Span.Start() - line.Start()
	if offset < 0 {
		return
	}

	length := e.Span.Length()
	if length < 1 {
		length = 1
	}

	if offset+length > line.Length() {
		length = line.Length() - offset
	}

	if length < 1 {
		return
	}

	fmt.Printf("     | %s%s\n", strings.Repeat(" ", offset), strings.Repeat("^", length))
}

// wrap greedily wraps s to width columns on word boundaries.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}

	var b strings.Builder

	lineLen := 0

	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > width {
				b.WriteByte('\n')
				lineLen = 0
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}

		b.WriteString(word)
		lineLen += len(word)
	}

	return b.String()
}
