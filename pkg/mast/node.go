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

// Package mast implements the content-addressed MAST forest: the
// append-only, deduplicating, id-indexed store of code nodes that
// pkg/lower builds and pkg/library packages.
package mast

import (
	"hash/fnv"
	"sort"

	"github.com/openmast/masm/pkg/digest"
)

// NodeID is a dense, monotonically assigned handle into a Forest's node
// vector. Once issued, the node an id refers to never changes.
type NodeID uint32

// NodeKind discriminates the tagged union a Node may hold.
type NodeKind uint8

const (
	// KindBlock is a straight-line basic block of operations.
	KindBlock NodeKind = iota
	// KindJoin executes its left child then its right child.
	KindJoin
	// KindSplit branches on the stack-top value.
	KindSplit
	// KindLoop repeats its body while the stack top is one.
	KindLoop
	// KindCall transfers into its callee in a new execution context.
	KindCall
	// KindDyn dispatches to a callee digest supplied on the stack; there
	// is exactly one Dyn node per forest.
	KindDyn
	// KindExternal is an opaque reference carrying only a digest.
	KindExternal
)

// Operation is one primitive VM instruction within a Block node: an
// opcode mnemonic plus its immediate operands.
type Operation struct {
	Opcode     string
	Immediates []uint64
}

// Node is a single entry in a Forest: exactly the fields relevant to
// Kind are meaningful; see NodeKind's doc comments.
type Node struct {
	Kind   NodeKind
	Digest digest.Digest

	// KindBlock
	Ops        []Operation
	Decorators []string

	// KindJoin / KindSplit
	Left, Right NodeID

	// KindLoop
	Body NodeID

	// KindCall
	Callee    NodeID
	IsSysCall bool

	// KindExternal
	External digest.Digest
}

// encodeOps packs a block's operations into a flat word stream suitable
// for HashOpGroups: each operation contributes one opcode word (an FNV
// hash of its mnemonic, folded with its operand count so that e.g.
// "add" and "add.1" never collide) followed by one word per immediate.
func encodeOps(ops []Operation) []uint64 {
	words := make([]uint64, 0, len(ops)*2)

	for _, op := range ops {
		h := fnv.New64a()
		_, _ = h.Write([]byte(op.Opcode))

		opWord := h.Sum64() ^ (uint64(len(op.Immediates)) << 56)
		words = append(words, opWord)
		words = append(words, op.Immediates...)
	}

	return words
}

// sortedDecorators returns a copy of decorators; decorators never
// participate in a node's digest, so no ordering requirement flows from
// hashing, but callers (e.g. the wire encoder) expect a stable order.
func sortedDecorators(decorators []string) []string {
	out := append([]string(nil), decorators...)
	sort.Strings(out)

	return out
}
