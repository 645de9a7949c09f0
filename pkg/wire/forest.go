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
	"github.com/openmast/masm/pkg/mast"
)

// WriteForest encodes f's nodes followed by its procedure root ids.
func (w *Writer) WriteForest(f *mast.Forest) error {
	w.WriteUvarint(uint64(f.Len()))

	for i := 0; i < f.Len(); i++ {
		if err := w.WriteNode(f.Node(mast.NodeID(i))); err != nil {
			return err
		}
	}

	roots := f.ProcedureRoots()
	w.WriteUvarint(uint64(len(roots)))

	for _, id := range roots {
		w.WriteU32LE(uint32(id))
	}

	return nil
}

// ReadForest decodes a forest record, reconstructing the forest by
// replaying each node through the matching Ensure* constructor: this
// re-derives every digest from its children rather than trusting the
// bytes on the wire, and naturally reproduces the original node ids
// since the input was already deduplicated when it was serialized.
func (r *Reader) ReadForest() (*mast.Forest, []mast.NodeID, error) {
	numNodes, err := r.ReadUvarint()
	if err != nil {
		return nil, nil, err
	}

	f := mast.NewForest()
	remap := make([]mast.NodeID, numNodes)

	for i := uint64(0); i < numNodes; i++ {
		dn, err := r.ReadNode()
		if err != nil {
			return nil, nil, err
		}

		id, err := insertDecoded(f, dn, remap)
		if err != nil {
			return nil, nil, err
		}

		remap[i] = id
	}

	numRoots, err := r.ReadUvarint()
	if err != nil {
		return nil, nil, err
	}

	roots := make([]mast.NodeID, numRoots)

	for i := range roots {
		wireID, err := r.ReadU32LE()
		if err != nil {
			return nil, nil, err
		}

		roots[i] = remap[wireID]
		f.AddProcedureRoot(roots[i])
	}

	return f, roots, nil
}

func insertDecoded(f *mast.Forest, dn decodedNode, remap []mast.NodeID) (mast.NodeID, error) {
	switch dn.tag {
	case tagBlock:
		return f.EnsureBlock(dn.ops, dn.decorators)
	case tagJoin:
		return f.EnsureJoin(remap[dn.left], remap[dn.right])
	case tagSplit:
		return f.EnsureSplit(remap[dn.left], remap[dn.right])
	case tagLoop:
		return f.EnsureLoop(remap[dn.body])
	case tagCall:
		return f.EnsureCall(remap[dn.callee], dn.isSyscall)
	case tagDyn:
		return f.EnsureDyn(), nil
	case tagExternal:
		return f.EnsureExternal(dn.external), nil
	default:
		return 0, errUnknownKind
	}
}
