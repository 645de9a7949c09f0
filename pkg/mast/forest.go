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
	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/digest"
)

// dedupKey is the deduplication index's key: node equality is variant
// tag and digest, not digest alone, so an External node and a Call node
// that happen to carry the same digest are never conflated.
type dedupKey struct {
	kind NodeKind
	dig  digest.Digest
}

// Forest is an append-only, deduplicating store of MAST nodes.
type Forest struct {
	nodes      []Node
	index      map[dedupKey]NodeID
	dynID      *NodeID
	entrypoint *NodeID
	roots      []NodeID
	kernel     *Kernel
	advice     *AdviceMap
}

// NewForest constructs an empty forest.
func NewForest() *Forest {
	return &Forest{index: make(map[dedupKey]NodeID)}
}

// Len returns the number of nodes currently in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Node returns the node stored at id. Panics if id is out of range: a
// valid NodeID is a contract the caller must uphold.
func (f *Forest) Node(id NodeID) Node {
	return f.nodes[id]
}

// Digest returns the digest of the node at id.
func (f *Forest) Digest(id NodeID) digest.Digest {
	return f.nodes[id].Digest
}

func (f *Forest) valid(id NodeID) bool {
	return int(id) < len(f.nodes)
}

func (f *Forest) insert(n Node) NodeID {
	key := dedupKey{kind: n.Kind, dig: n.Digest}
	if id, ok := f.index[key]; ok {
		return id
	}

	id := NodeID(len(f.nodes))
	f.nodes = append(f.nodes, n)
	f.index[key] = id

	return id
}

// EnsureBlock inserts (or finds an existing) Block node over ops.
// Errors if ops is empty, since empty blocks are forbidden.
func (f *Forest) EnsureBlock(ops []Operation, decorators []string) (NodeID, error) {
	if len(ops) == 0 {
		return 0, aerror.Detailed(aerror.NodeIDOverflow, "", "cannot construct a Block with no operations")
	}

	d := digest.HashOpGroups(encodeOps(ops))

	return f.insert(Node{
		Kind:       KindBlock,
		Digest:     d,
		Ops:        append([]Operation(nil), ops...),
		Decorators: sortedDecorators(decorators),
	}), nil
}

// EnsureJoin inserts (or finds) a Join node sequencing left then right.
func (f *Forest) EnsureJoin(left, right NodeID) (NodeID, error) {
	if !f.valid(left) || !f.valid(right) {
		return 0, aerror.New(aerror.NodeIDOverflow, "join")
	}

	d := digest.MergeInDomain(f.Digest(left), f.Digest(right), digest.JoinDomain)

	return f.insert(Node{Kind: KindJoin, Digest: d, Left: left, Right: right}), nil
}

// EnsureSplit inserts (or finds) a Split node branching between thenID
// and elseID.
func (f *Forest) EnsureSplit(thenID, elseID NodeID) (NodeID, error) {
	if !f.valid(thenID) || !f.valid(elseID) {
		return 0, aerror.New(aerror.NodeIDOverflow, "split")
	}

	d := digest.MergeInDomain(f.Digest(thenID), f.Digest(elseID), digest.SplitDomain)

	return f.insert(Node{Kind: KindSplit, Digest: d, Left: thenID, Right: elseID}), nil
}

// EnsureLoop inserts (or finds) a Loop node wrapping body.
func (f *Forest) EnsureLoop(body NodeID) (NodeID, error) {
	if !f.valid(body) {
		return 0, aerror.New(aerror.NodeIDOverflow, "loop")
	}

	d := digest.MergeInDomain(f.Digest(body), digest.Zero, digest.LoopDomain)

	return f.insert(Node{Kind: KindLoop, Digest: d, Body: body}), nil
}

// EnsureCall inserts (or finds) a Call node transferring into callee,
// either as an ordinary call or (isSysCall) a kernel syscall.
func (f *Forest) EnsureCall(callee NodeID, isSysCall bool) (NodeID, error) {
	if !f.valid(callee) {
		return 0, aerror.New(aerror.NodeIDOverflow, "call")
	}

	domain := digest.CallDomain
	if isSysCall {
		domain = digest.SysCallDomain
	}

	d := digest.MergeInDomain(f.Digest(callee), digest.Zero, domain)

	return f.insert(Node{Kind: KindCall, Digest: d, Callee: callee, IsSysCall: isSysCall}), nil
}

// EnsureDyn returns the forest's singleton Dyn node, inserting it on
// first use.
func (f *Forest) EnsureDyn() NodeID {
	if f.dynID != nil {
		return *f.dynID
	}

	id := f.insert(Node{Kind: KindDyn, Digest: digest.DynDigest})
	f.dynID = &id

	return id
}

// EnsureExternal inserts (or finds) an External node carrying d
// verbatim; its digest is d itself, not computed from children.
func (f *Forest) EnsureExternal(d digest.Digest) NodeID {
	return f.insert(Node{Kind: KindExternal, Digest: d, External: d})
}

// SetEntrypoint designates id as the forest's program entrypoint. Only
// meaningful for executable programs; library forests leave this unset.
func (f *Forest) SetEntrypoint(id NodeID) {
	f.entrypoint = &id
}

// Entrypoint returns the forest's entrypoint id, if one was set.
func (f *Forest) Entrypoint() (NodeID, bool) {
	if f.entrypoint == nil {
		return 0, false
	}

	return *f.entrypoint, true
}

// AddProcedureRoot records id as one more procedure root, in encounter
// order; the library packager aligns this list against its exports.
func (f *Forest) AddProcedureRoot(id NodeID) {
	f.roots = append(f.roots, id)
}

// ProcedureRoots returns the ordered list of procedure root ids recorded
// so far.
func (f *Forest) ProcedureRoots() []NodeID {
	return append([]NodeID(nil), f.roots...)
}

// NumProcedureRoots returns len(ProcedureRoots()).
func (f *Forest) NumProcedureRoots() int {
	return len(f.roots)
}

// SetKernel attaches a Kernel to this forest.
func (f *Forest) SetKernel(k *Kernel) {
	f.kernel = k
}

// Kernel returns the forest's attached kernel, if any.
func (f *Forest) Kernel() *Kernel {
	return f.kernel
}

// SetAdvice attaches an AdviceMap to this forest.
func (f *Forest) SetAdvice(m *AdviceMap) {
	f.advice = m
}

// Advice returns the forest's attached advice map, if any.
func (f *Forest) Advice() *AdviceMap {
	return f.advice
}

// CheckEntrypoint verifies that, when an entrypoint is set, it names a
// node present in the forest and every node reachable from it is
// present too.
func (f *Forest) CheckEntrypoint() error {
	if f.entrypoint == nil {
		return nil
	}

	if !f.valid(*f.entrypoint) {
		return aerror.New(aerror.NodeIDOverflow, "entrypoint")
	}

	visited := make(map[NodeID]struct{})
	stack := []NodeID{*f.entrypoint}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[id]; ok {
			continue
		}

		visited[id] = struct{}{}

		if !f.valid(id) {
			return aerror.New(aerror.NodeIDOverflow, "entrypoint")
		}

		n := f.nodes[id]

		switch n.Kind {
		case KindJoin, KindSplit:
			stack = append(stack, n.Left, n.Right)
		case KindLoop:
			stack = append(stack, n.Body)
		case KindCall:
			stack = append(stack, n.Callee)
		}
	}

	return nil
}

// CheckKernelConsistency verifies every digest in the attached kernel
// names a node actually present in this forest.
func (f *Forest) CheckKernelConsistency() error {
	if f.kernel == nil {
		return nil
	}

	present := make(map[digest.Digest]struct{}, len(f.nodes))
	for _, n := range f.nodes {
		present[n.Digest] = struct{}{}
	}

	for _, d := range f.kernel.Digests() {
		if _, ok := present[d]; !ok {
			return aerror.Detailed(aerror.KernelProcNotFound, d.String(), "kernel digest absent from forest")
		}
	}

	return nil
}
