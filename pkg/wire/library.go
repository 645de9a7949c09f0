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
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/library"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/util/path"
)

// WriteLibrary encodes lib as `mast_forest || uvarint(num_exports) ||
// export*`, followed by the library's namespace, version and kernel
// digests so a round-trip restores the full CompiledLibrary, kernel
// included.
func (w *Writer) WriteLibrary(lib *library.CompiledLibrary) error {
	if err := w.WriteForest(lib.Forest); err != nil {
		return err
	}

	w.WriteUvarint(uint64(len(lib.Exports)))

	for _, e := range lib.Exports {
		w.WriteString(e.Module.String())
		w.WriteString(e.Proc)
	}

	w.WriteString(lib.Metadata.Namespace)
	w.WriteString(lib.Metadata.Version)

	k := lib.Forest.Kernel()
	w.WriteUvarint(uint64(k.Len()))

	for _, d := range k.Digests() {
		b := d.Bytes()
		w.WriteBytes(b[:])
	}

	return nil
}

// ReadLibrary decodes a library record produced by WriteLibrary.
func (r *Reader) ReadLibrary() (*library.CompiledLibrary, error) {
	forest, _, err := r.ReadForest()
	if err != nil {
		return nil, err
	}

	numExports, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}

	exports := make([]library.FullyQualifiedProcedureName, numExports)

	for i := range exports {
		modStr, err := r.ReadString()
		if err != nil {
			return nil, err
		}

		modPath, ok := path.Parse(modStr)
		if !ok {
			return nil, errUnknownKind
		}

		proc, err := r.ReadString()
		if err != nil {
			return nil, err
		}

		exports[i] = library.FullyQualifiedProcedureName{Module: modPath, Proc: proc}
	}

	namespace, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	version, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	numKernel, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}

	if numKernel > 0 {
		digests := make([]digest.Digest, numKernel)

		for i := range digests {
			b, err := r.ReadBytes(32)
			if err != nil {
				return nil, err
			}

			digests[i] = digest.FromBytes(b)
		}

		forest.SetKernel(mast.NewKernel(digests))
	}

	return &library.CompiledLibrary{
		Forest:   forest,
		Exports:  exports,
		Metadata: library.Metadata{Namespace: namespace, Version: version},
	}, nil
}
