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

// Package lex tokenizes masm source text into dot-separated compound
// tokens, tracking rune offsets precisely so pkg/parser can attribute
// errors back to exact source locations. A single scanning pass
// produces a flat token stream plus accumulated syntax errors; the
// grammar is simple enough (whitespace-delimited, dot-split words) that
// no rule table is needed.
package lex

import (
	"github.com/openmast/masm/pkg/perror"
	"github.com/openmast/masm/pkg/util/source"
)

// Token is one whitespace-delimited word, split on '.' into Parts (e.g.
// "push.1.2" -> ["push","1","2"]), along with the index of its first
// rune in the source file's rune slice. This is a rune index, not a byte
// offset; the two coincide only when all preceding text is ASCII.
type Token struct {
	Parts  []string
	Offset int
}

// Text reconstitutes the token's original dotted spelling.
func (t Token) Text() string {
	out := t.Parts[0]
	for _, p := range t.Parts[1:] {
		out += "." + p
	}

	return out
}

// Lex scans an entire source file into a flat token stream. Whitespace
// and '#'-to-end-of-line comments are skipped. A token with an empty
// part (e.g. consecutive dots, or a leading/trailing dot) is reported as
// an error but scanning continues past it so later, unrelated errors can
// still be reported in the same pass.
func Lex(file *source.File) ([]Token, []*perror.Error) {
	runes := file.Contents()

	var (
		tokens []Token
		errs   []*perror.Error
	)

	i := 0
	n := len(runes)

	for i < n {
		switch {
		case isSpace(runes[i]):
			i++
		case runes[i] == '#':
			for i < n && runes[i] != '\n' {
				i++
			}
		default:
			start := i
			for i < n && !isSpace(runes[i]) && runes[i] != '#' {
				i++
			}

			word := string(runes[start:i])
			parts := splitDots(word)

			empty := false
			for _, p := range parts {
				if p == "" {
					empty = true
					break
				}
			}

			if empty {
				span := source.NewSpan(start, i)
				errs = append(errs, perror.Detailed(perror.UnexpectedToken, file, span,
					"empty component in dotted token \""+word+"\""))

				continue
			}

			tokens = append(tokens, Token{Parts: parts, Offset: start})
		}
	}

	return tokens, errs
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

func splitDots(s string) []string {
	var (
		parts   []string
		current []rune
	)

	for _, r := range s {
		if r == '.' {
			parts = append(parts, string(current))
			current = nil
		} else {
			current = append(current, r)
		}
	}

	parts = append(parts, string(current))

	return parts
}
