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
package source

// Span identifies a contiguous region of a source file, as a half-open
// [start,end) range of rune indices.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span covering [start,end).
func NewSpan(start, end int) Span {
	return Span{start, end}
}

// Start returns the index of the first rune covered by this span.
func (p Span) Start() int {
	return p.start
}

// End returns the index one past the last rune covered by this span.
func (p Span) End() int {
	return p.end
}

// Length returns the number of runes covered by this span.
func (p Span) Length() int {
	return p.end - p.start
}

// Contains determines whether a given index falls within this span.
func (p Span) Contains(index int) bool {
	return index >= p.start && index < p.end
}

// Join returns the smallest span covering both this span and other.
func (p Span) Join(other Span) Span {
	start := p.start
	if other.start < start {
		start = other.start
	}

	end := p.end
	if other.end > end {
		end = other.end
	}

	return Span{start, end}
}
