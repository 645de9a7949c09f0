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

// Package path provides a small absolute-path type shared by library and
// module paths ("::"-delimited, first segment is the namespace).
package path

import (
	"strings"
)

// Delim is the literal two-colon sequence which separates segments of a
// LibraryPath.
const Delim = "::"

// KernelNamespace is the reserved namespace denoting the kernel library.  A
// module path whose first segment equals this is a kernel module, and its
// exported procedures are the only legal syscall targets.
const KernelNamespace = "#sys"

// Path identifies a module (or a module-qualified procedure) by its
// dot-free, "::"-delimited segments.  The first segment is always the
// namespace.
type Path struct {
	segments []string
}

// New constructs a path from its segments directly.  Panics if given zero
// segments, since a path always has at least a namespace.
func New(segments ...string) Path {
	if len(segments) == 0 {
		panic("empty library path")
	}

	return Path{append([]string(nil), segments...)}
}

// maxSegmentLen bounds a single path segment's length, matching the cap
// on procedure names.
const maxSegmentLen = 100

// validSegment determines whether a segment is a well-formed identifier:
// an ASCII letter followed by ASCII letters, digits or underscores.
func validSegment(s string) bool {
	if s == "" || len(s) > maxSegmentLen {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'

		switch {
		case i == 0 && !isLetter:
			return false
		case i > 0 && !(isLetter || isDigit || c == '_'):
			return false
		}
	}

	return true
}

// Parse splits a "::"-delimited string into a Path.  Returns false if the
// string is empty, starts/ends with the delimiter, or any segment is not
// a well-formed identifier; the reserved kernel namespace is accepted as
// a first segment despite its leading '#'.
func Parse(s string) (Path, bool) {
	if s == "" || strings.HasPrefix(s, Delim) || strings.HasSuffix(s, Delim) {
		return Path{}, false
	}

	segments := strings.Split(s, Delim)
	for i, seg := range segments {
		if i == 0 && seg == KernelNamespace {
			continue
		}

		if !validSegment(seg) {
			return Path{}, false
		}
	}

	return Path{segments}, true
}

// Namespace returns the first (outermost) segment of this path.
func (p Path) Namespace() string {
	return p.segments[0]
}

// IsKernel determines whether this path lives under the reserved kernel
// namespace.
func (p Path) IsKernel() bool {
	return p.Namespace() == KernelNamespace
}

// Depth returns the number of segments in this path.
func (p Path) Depth() int {
	return len(p.segments)
}

// Segment returns the nth segment of this path.
func (p Path) Segment(nth int) string {
	return p.segments[nth]
}

// Segments returns a copy of the underlying segments.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Equals determines whether two paths have identical segments.
func (p Path) Equals(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}

	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}

	return true
}

// Extend returns this path with an additional innermost segment appended.
func (p Path) Extend(segment string) Path {
	return Path{append(append([]string(nil), p.segments...), segment)}
}

// String renders the path back into its "::"-delimited form.
func (p Path) String() string {
	return strings.Join(p.segments, Delim)
}
