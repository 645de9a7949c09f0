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
	"errors"

	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/mast"
)

var errUnknownKind = errors.New("wire: unknown node kind")

// Node record tags.
const (
	tagBlock    = 0
	tagJoin     = 1
	tagSplit    = 2
	tagLoop     = 3
	tagCall     = 4
	tagDyn      = 5
	tagExternal = 6
)

// WriteNode encodes n as one tagged node record.
func (w *Writer) WriteNode(n mast.Node) error {
	switch n.Kind {
	case mast.KindBlock:
		w.WriteU8(tagBlock)
		w.WriteUvarint(uint64(len(n.Ops)))

		for _, op := range n.Ops {
			w.WriteString(op.Opcode)
			w.WriteUvarint(uint64(len(op.Immediates)))

			for _, imm := range op.Immediates {
				w.WriteUvarint(imm)
			}
		}

		w.WriteUvarint(uint64(len(n.Decorators)))
		for _, d := range n.Decorators {
			w.WriteString(d)
		}
	case mast.KindJoin:
		w.WriteU8(tagJoin)
		w.WriteU32LE(uint32(n.Left))
		w.WriteU32LE(uint32(n.Right))
	case mast.KindSplit:
		w.WriteU8(tagSplit)
		w.WriteU32LE(uint32(n.Left))
		w.WriteU32LE(uint32(n.Right))
	case mast.KindLoop:
		w.WriteU8(tagLoop)
		w.WriteU32LE(uint32(n.Body))
	case mast.KindCall:
		w.WriteU8(tagCall)
		w.WriteU32LE(uint32(n.Callee))

		if n.IsSysCall {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	case mast.KindDyn:
		w.WriteU8(tagDyn)
	case mast.KindExternal:
		w.WriteU8(tagExternal)

		b := n.External.Bytes()
		w.WriteBytes(b[:])
	default:
		return errUnknownKind
	}

	return nil
}

// decodedNode is the tagged-union intermediate produced by ReadNode,
// before ReadForest re-inserts it via the forest's Ensure* methods,
// re-hashing rather than trusting any digest stored on the wire.
type decodedNode struct {
	tag        uint8
	ops        []mast.Operation
	decorators []string
	left       uint32
	right      uint32
	body       uint32
	callee     uint32
	isSyscall  bool
	external   digest.Digest
}

// ReadNode decodes one tagged node record.
func (r *Reader) ReadNode() (decodedNode, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return decodedNode{}, err
	}

	switch tag {
	case tagBlock:
		numOps, err := r.ReadUvarint()
		if err != nil {
			return decodedNode{}, err
		}

		ops := make([]mast.Operation, numOps)

		for i := range ops {
			opcode, err := r.ReadString()
			if err != nil {
				return decodedNode{}, err
			}

			numImm, err := r.ReadUvarint()
			if err != nil {
				return decodedNode{}, err
			}

			imms := make([]uint64, numImm)
			for j := range imms {
				imms[j], err = r.ReadUvarint()
				if err != nil {
					return decodedNode{}, err
				}
			}

			ops[i] = mast.Operation{Opcode: opcode, Immediates: imms}
		}

		numDec, err := r.ReadUvarint()
		if err != nil {
			return decodedNode{}, err
		}

		decorators := make([]string, numDec)
		for i := range decorators {
			decorators[i], err = r.ReadString()
			if err != nil {
				return decodedNode{}, err
			}
		}

		return decodedNode{tag: tag, ops: ops, decorators: decorators}, nil
	case tagJoin, tagSplit:
		left, err := r.ReadU32LE()
		if err != nil {
			return decodedNode{}, err
		}

		right, err := r.ReadU32LE()
		if err != nil {
			return decodedNode{}, err
		}

		return decodedNode{tag: tag, left: left, right: right}, nil
	case tagLoop:
		body, err := r.ReadU32LE()
		if err != nil {
			return decodedNode{}, err
		}

		return decodedNode{tag: tag, body: body}, nil
	case tagCall:
		callee, err := r.ReadU32LE()
		if err != nil {
			return decodedNode{}, err
		}

		flag, err := r.ReadU8()
		if err != nil {
			return decodedNode{}, err
		}

		return decodedNode{tag: tag, callee: callee, isSyscall: flag != 0}, nil
	case tagDyn:
		return decodedNode{tag: tag}, nil
	case tagExternal:
		b, err := r.ReadBytes(32)
		if err != nil {
			return decodedNode{}, err
		}

		return decodedNode{tag: tag, external: digest.FromBytes(b)}, nil
	default:
		return decodedNode{}, errUnknownKind
	}
}
