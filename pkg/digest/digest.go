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

// Package digest provides the 256-bit content-addressing digest used
// throughout the MAST forest, along with the domain-separated sponge
// compression function used to derive a node's digest from its children.
//
// The finite-field and sponge-hash primitives themselves are an external
// collaborator; this package pins that collaborator to gnark-crypto's
// BLS12-377 scalar field and its MiMC permutation.
package digest

import (
	"encoding/binary"
	"encoding/hex"
)

// Digest is a 256-bit value carried as four 64-bit limbs, one word of
// four field elements.  It is the identity of a MAST node: two nodes
// with the same Digest are considered the same code.
type Digest [4]uint64

// Zero is the reserved digest representing the empty word (e.g. the
// right-hand operand fed to Call/SysCall, which take no second argument).
var Zero = Digest{}

// FromBytes decodes a 32-byte big-endian buffer into a Digest.  Panics if
// the buffer is not exactly 32 bytes.
func FromBytes(b []byte) Digest {
	if len(b) != 32 {
		panic("digest: expected 32 bytes")
	}

	var d Digest
	for i := range d {
		d[i] = binary.BigEndian.Uint64(b[i*8 : i*8+8])
	}

	return d
}

// Bytes encodes this digest as a 32-byte big-endian buffer.
func (d Digest) Bytes() [32]byte {
	var out [32]byte
	for i, limb := range d {
		binary.BigEndian.PutUint64(out[i*8:i*8+8], limb)
	}

	return out
}

// Equal determines whether two digests carry the same value.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// String renders the digest as a lowercase hex string, matching the
// convention used when printing MAST roots in diagnostics.
func (d Digest) String() string {
	b := d.Bytes()
	return hex.EncodeToString(b[:])
}

// IsZero determines whether this is the reserved zero word.
func (d Digest) IsZero() bool {
	return d == Zero
}
