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

// Kernel is the ordered set of procedure digests which are legal syscall
// targets for a forest. It is a value attached to the forest, never a
// process-wide singleton.
type Kernel struct {
	digests []digest.Digest
	byValue map[digest.Digest]struct{}
}

// NewKernel constructs a kernel from an ordered list of procedure
// digests, in the order their procedures were exported.
func NewKernel(digests []digest.Digest) *Kernel {
	byValue := make(map[digest.Digest]struct{}, len(digests))
	for _, d := range digests {
		byValue[d] = struct{}{}
	}

	return &Kernel{digests: append([]digest.Digest(nil), digests...), byValue: byValue}
}

// Contains determines whether d is a legal syscall target of this
// kernel.
func (k *Kernel) Contains(d digest.Digest) bool {
	if k == nil {
		return false
	}

	_, ok := k.byValue[d]

	return ok
}

// Len returns the number of procedures exposed by this kernel.
func (k *Kernel) Len() int {
	if k == nil {
		return 0
	}

	return len(k.digests)
}

// Digests returns the ordered list of this kernel's procedure digests.
func (k *Kernel) Digests() []digest.Digest {
	if k == nil {
		return nil
	}

	return append([]digest.Digest(nil), k.digests...)
}
