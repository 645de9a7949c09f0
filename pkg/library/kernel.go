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
package library

import (
	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/mast"
)

// KernelLibrary is a CompiledLibrary every one of whose exports lives
// under the reserved "#sys" namespace, making it eligible to be
// attached to another forest as its Kernel (the legal syscall target
// set).
type KernelLibrary struct {
	*CompiledLibrary
}

// NewKernelLibrary validates lib as a kernel library and wraps it.
// Returns ParameterOutOfBounds if it exports more than
// MaxKernelProcedures procedures.
func NewKernelLibrary(lib *CompiledLibrary) (*KernelLibrary, error) {
	if len(lib.Exports) > MaxKernelProcedures {
		return nil, aerror.Detailed(aerror.ParameterOutOfBounds, "", "kernel library exceeds MAX_KERNEL_PROCEDURES")
	}

	for _, e := range lib.Exports {
		if !e.Module.IsKernel() {
			return nil, aerror.New(aerror.InvalidExportNamespace, e.String())
		}
	}

	return &KernelLibrary{CompiledLibrary: lib}, nil
}

// digests returns the digest of every procedure this kernel exposes, in
// the forest's ProcedureRoots() order, i.e. the order expected by
// mast.NewKernel.
func (k *KernelLibrary) digests() []digest.Digest {
	roots := k.Forest.ProcedureRoots()
	out := make([]digest.Digest, len(roots))

	for i, id := range roots {
		out[i] = k.Forest.Digest(id)
	}

	return out
}

// ToMastKernel builds the mast.Kernel value used to attach this library
// as another forest's syscall target set.
func (k *KernelLibrary) ToMastKernel() *mast.Kernel {
	return mast.NewKernel(k.digests())
}

// ExportDigests returns a name -> digest map suitable for populating
// lower.Context.KernelExports, keyed by the kernel procedure's bare
// name (the same key a syscall instruction names).
func (k *KernelLibrary) ExportDigests() map[string]digest.Digest {
	roots := k.Forest.ProcedureRoots()
	out := make(map[string]digest.Digest, len(k.Exports))

	for i, e := range k.Exports {
		out[e.Proc] = k.Forest.Digest(roots[i])
	}

	return out
}
