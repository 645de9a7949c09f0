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
package digest

import (
	"encoding/binary"
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	gnarkhash "github.com/consensys/gnark-crypto/hash"
)

// Domain tags, one per control-flow node variant, drawn from the reserved
// range of VM opcodes so that two otherwise-identical children can never
// collide across variants.
const (
	// BlockDomain separates the hash of a basic block's operation groups.
	BlockDomain uint64 = 0xb10c
	// JoinDomain separates Join node digests.
	JoinDomain uint64 = 0x6a01
	// SplitDomain separates Split node digests.
	SplitDomain uint64 = 0x591
	// LoopDomain separates Loop node digests.
	LoopDomain uint64 = 0x1001
	// CallDomain separates ordinary Call node digests.
	CallDomain uint64 = 0xca11
	// SysCallDomain separates syscall Call node digests.
	SysCallDomain uint64 = 0x5901
	// OpGroupWidth is the number of packed operations absorbed per sponge
	// permutation when hashing a basic block.
	OpGroupWidth = 8
)

// EmptyBlockDigest is the reserved digest of an (otherwise forbidden) empty
// block, used only as a sentinel; constructors never hand it out as a real
// node's digest since empty blocks are rejected outright.
var EmptyBlockDigest = MergeInDomain(Zero, Zero, BlockDomain)

// dynTag is an arbitrary, fixed label absorbed when deriving the constant
// Dyn-node digest; what matters is that it is unique and never produced by
// any other construction path.
var dynTag = Digest{0, 0, 0, 0x44594e}

// DynDigest is the fixed digest of the singleton Dyn node.  It is
// derived once, deterministically, rather than hard-coded, so that it
// stays consistent with whichever concrete sponge construction backs
// MergeInDomain.
var DynDigest = MergeInDomain(dynTag, Zero, BlockDomain)

// sponge wraps a fresh gnark-crypto MiMC/BLS12-377 hash state.  A fresh
// state is used per call so that domain separation is purely a function of
// what gets absorbed, never of leftover state from a previous call.
func sponge() hash.Hash {
	return gnarkhash.MIMC_BLS12_377.New()
}

// absorbWord writes one 64-bit word into the sponge as a full big-endian
// field element block.  MiMC absorbs in whole field-element blocks, and
// left-padding the word with zeroes keeps every block strictly below the
// field modulus regardless of the word's value.
func absorbWord(h hash.Hash, word uint64) {
	var buf [fr.Bytes]byte

	binary.BigEndian.PutUint64(buf[fr.Bytes-8:], word)
	_, _ = h.Write(buf[:])
}

// absorbDigest writes a digest's four limbs into the sponge, one block
// per limb.
func absorbDigest(h hash.Hash, d Digest) {
	for _, limb := range d {
		absorbWord(h, limb)
	}
}

// absorbDomain writes a domain tag into the sponge ahead of its operands,
// guaranteeing that distinct tags never collide even given identical
// children.
func absorbDomain(h hash.Hash, domain uint64) {
	absorbWord(h, domain)
}

// squeeze reduces the sponge's accumulated state down to a Digest by
// reading it back through a BLS12-377 field element (so the result is
// always a valid element of the field the permutation operates over) and
// then truncating to four 64-bit limbs.
func squeeze(h hash.Hash) Digest {
	var elem fr.Element

	sum := h.Sum(nil)
	elem.SetBytes(sum)
	packed := elem.Bytes()

	var d Digest
	// Bytes() returns a 32-byte big-endian array; fold it down to the low
	// 32 bytes actually populated (fr.Element.Bytes is already fixed-size).
	for i := range d {
		d[i] = binary.BigEndian.Uint64(packed[i*8 : i*8+8])
	}

	return d
}

// MergeInDomain computes merge_in_domain([left, right], domain): the
// digest of a two-child control-flow node (Join, Split, Loop, Call,
// SysCall), domain-separated by the supplied tag.
func MergeInDomain(left, right Digest, domain uint64) Digest {
	h := sponge()
	absorbDomain(h, domain)
	absorbDigest(h, left)
	absorbDigest(h, right)

	return squeeze(h)
}

// HashOpGroups computes the digest of a basic block from its operations,
// packed into fixed-width groups of OpGroupWidth and absorbed until
// exhausted.  Panics if ops is empty, since empty blocks are forbidden.
func HashOpGroups(ops []uint64) Digest {
	if len(ops) == 0 {
		panic("digest: cannot hash an empty block")
	}

	h := sponge()
	absorbDomain(h, BlockDomain)

	for i := 0; i < len(ops); i += OpGroupWidth {
		end := min(i+OpGroupWidth, len(ops))
		for _, op := range ops[i:end] {
			absorbWord(h, op)
		}
	}

	return squeeze(h)
}
