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
package wire

import (
	"testing"

	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/library"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/util/assert"
	"github.com/openmast/masm/pkg/util/path"
)

func buildSampleForest(t *testing.T) *mast.Forest {
	t.Helper()

	f := mast.NewForest()

	a, err := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{1}}}, []string{"dbg"})
	assert.Equal(t, nil, err)

	b, err := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{0}}}, nil)
	assert.Equal(t, nil, err)

	split, err := f.EnsureSplit(a, b)
	assert.Equal(t, nil, err)

	join, err := f.EnsureJoin(split, split)
	assert.Equal(t, nil, err)

	call, err := f.EnsureCall(join, false)
	assert.Equal(t, nil, err)

	loop, err := f.EnsureLoop(b)
	assert.Equal(t, nil, err)

	f.EnsureExternal(digest.Digest{9, 8, 7, 6})
	f.EnsureDyn()

	f.AddProcedureRoot(call)
	f.AddProcedureRoot(loop)

	return f
}

// TestForestRoundTrip checks that deserialize(serialize(f)) reproduces
// the same node count, kinds and digests.
func TestForestRoundTrip(t *testing.T) {
	f := buildSampleForest(t)

	w := NewWriter()
	assert.Equal(t, nil, w.WriteForest(f))

	got, roots, err := NewReader(w.Bytes()).ReadForest()
	assert.Equal(t, nil, err)

	assert.Equal(t, f.Len(), got.Len())
	assert.Equal(t, len(f.ProcedureRoots()), len(roots))

	for i := 0; i < f.Len(); i++ {
		want := f.Node(mast.NodeID(i))
		have := got.Node(mast.NodeID(i))
		assert.Equal(t, want.Kind, have.Kind)
		assert.Equal(t, want.Digest, have.Digest)
	}

	for i, id := range f.ProcedureRoots() {
		assert.Equal(t, f.Digest(id), got.Digest(roots[i]))
	}
}

// TestLibraryRoundTrip checks the round-trip property for the full
// library record: every field restored by ReadLibrary matches the
// original, kernel and metadata included.
func TestLibraryRoundTrip(t *testing.T) {
	f := mast.NewForest()

	id, err := f.EnsureBlock([]mast.Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	assert.Equal(t, nil, err)

	f.AddProcedureRoot(id)
	f.SetKernel(mast.NewKernel([]digest.Digest{f.Digest(id)}))

	lib, err := library.Package(f, []library.FullyQualifiedProcedureName{
		{Module: path.New("foo"), Proc: "double"},
	}, library.Metadata{Version: "1.2.3"})
	assert.Equal(t, nil, err)

	w := NewWriter()
	assert.Equal(t, nil, w.WriteLibrary(lib))

	got, err := NewReader(w.Bytes()).ReadLibrary()
	assert.Equal(t, nil, err)

	assert.Equal(t, lib.Metadata.Namespace, got.Metadata.Namespace)
	assert.Equal(t, lib.Metadata.Version, got.Metadata.Version)
	assert.Equal(t, len(lib.Exports), len(got.Exports))
	assert.Equal(t, lib.Exports[0].Module.String(), got.Exports[0].Module.String())
	assert.Equal(t, lib.Exports[0].Proc, got.Exports[0].Proc)
	assert.Equal(t, lib.Forest.Kernel().Len(), got.Forest.Kernel().Len())
	assert.Equal(t, lib.Forest.Kernel().Digests()[0], got.Forest.Kernel().Digests()[0])
}

// TestLibraryRoundTripWithoutKernel checks that a library with no
// attached kernel round-trips without a spurious non-nil kernel.
func TestLibraryRoundTripWithoutKernel(t *testing.T) {
	f := mast.NewForest()

	id, err := f.EnsureBlock([]mast.Operation{{Opcode: "nop"}}, nil)
	assert.Equal(t, nil, err)

	f.AddProcedureRoot(id)

	lib, err := library.Package(f, []library.FullyQualifiedProcedureName{
		{Module: path.New("foo"), Proc: "noop"},
	}, library.Metadata{})
	assert.Equal(t, nil, err)

	w := NewWriter()
	assert.Equal(t, nil, w.WriteLibrary(lib))

	got, err := NewReader(w.Bytes()).ReadLibrary()
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, got.Forest.Kernel().Len())
}

func TestReaderRejectsTruncatedInput(t *testing.T) {
	f := buildSampleForest(t)

	w := NewWriter()
	assert.Equal(t, nil, w.WriteForest(f))

	truncated := w.Bytes()[:len(w.Bytes())-1]

	_, _, err := NewReader(truncated).ReadForest()
	assert.True(t, err != nil, "expected an error decoding truncated input")
}
