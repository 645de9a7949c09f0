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

import "github.com/openmast/masm/pkg/digest"

// AdviceMap is the forest's optional table of non-deterministic hint
// values, consulted at VM run time via adv.push_mapval: digest keys,
// one or more word-sized values, last-write-wins insertion.
type AdviceMap struct {
	data map[digest.Digest][]uint64
}

// NewAdviceMap constructs an empty advice map.
func NewAdviceMap() *AdviceMap {
	return &AdviceMap{data: make(map[digest.Digest][]uint64)}
}

// Insert records value under key, overwriting whatever was previously
// stored there.
func (m *AdviceMap) Insert(key digest.Digest, value []uint64) {
	m.data[key] = append([]uint64(nil), value...)
}

// Get retrieves the value stored under key, if any.
func (m *AdviceMap) Get(key digest.Digest) ([]uint64, bool) {
	v, ok := m.data[key]

	return v, ok
}

// Len returns the number of distinct keys currently stored.
func (m *AdviceMap) Len() int {
	return len(m.data)
}
