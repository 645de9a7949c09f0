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
package mast

import (
	"testing"

	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/util/assert"
)

func TestJoinDigestLaw(t *testing.T) {
	f := NewForest()

	a, err := f.EnsureBlock([]Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	assert.Equal(t, nil, err)

	b, err := f.EnsureBlock([]Operation{{Opcode: "push", Immediates: []uint64{2}}}, nil)
	assert.Equal(t, nil, err)

	join, err := f.EnsureJoin(a, b)
	assert.Equal(t, nil, err)

	want := digest.MergeInDomain(f.Digest(a), f.Digest(b), digest.JoinDomain)
	assert.Equal(t, want, f.Digest(join))
}

func TestDistinctDomainsNeverCollide(t *testing.T) {
	f := NewForest()

	a, _ := f.EnsureBlock([]Operation{{Opcode: "push", Immediates: []uint64{1}}}, nil)
	b, _ := f.EnsureBlock([]Operation{{Opcode: "push", Immediates: []uint64{2}}}, nil)

	join, _ := f.EnsureJoin(a, b)
	split, _ := f.EnsureSplit(a, b)

	assert.True(t, f.Digest(join) != f.Digest(split), "join/split digests collided")
}

func TestExternalDigestIsCarriedVerbatim(t *testing.T) {
	f := NewForest()
	d := digest.Digest{1, 2, 3, 4}

	id := f.EnsureExternal(d)
	assert.Equal(t, d, f.Digest(id))
}

func TestDynDigestIsFixed(t *testing.T) {
	f1 := NewForest()
	f2 := NewForest()

	id1 := f1.EnsureDyn()
	id2 := f2.EnsureDyn()

	assert.Equal(t, f1.Digest(id1), f2.Digest(id2))
	assert.Equal(t, digest.DynDigest, f1.Digest(id1))
}

func TestDeduplicationReturnsSameID(t *testing.T) {
	f := NewForest()

	ops := []Operation{{Opcode: "push", Immediates: []uint64{7}}, {Opcode: "add"}}

	id1, err := f.EnsureBlock(ops, nil)
	assert.Equal(t, nil, err)

	id2, err := f.EnsureBlock(ops, nil)
	assert.Equal(t, nil, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, f.Len())
}

func TestEmptyBlockRejected(t *testing.T) {
	f := NewForest()

	_, err := f.EnsureBlock(nil, nil)
	assert.True(t, err != nil, "expected error for empty block")
}

func TestExternalVsCallNeverConflated(t *testing.T) {
	f := NewForest()

	block, _ := f.EnsureBlock([]Operation{{Opcode: "nop"}}, nil)
	_ = f.Digest(block)

	// A Call node whose own digest equals an External's digest would
	// still be a different dedupKey (different Kind), so forcing
	// an External with the same digest as an existing Call must not
	// collapse into one node.
	call, _ := f.EnsureCall(block, false)
	ext := f.EnsureExternal(f.Digest(call))

	assert.True(t, call != ext, "Call and External with same digest were conflated")
}
