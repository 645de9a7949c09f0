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

// Package lower translates a parsed procedure body (pkg/ast) into a
// MAST subgraph (pkg/mast): a small context object is threaded through
// a recursive walk which coalesces straight-line instructions into
// Block nodes and only breaks out a new node at control-flow
// boundaries.
package lower

import (
	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/ast"
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/resolver"
	"github.com/openmast/masm/pkg/util/path"
)

// noopMnemonic is the opcode used to pad an omitted else-branch, so
// that an omitted else and an explicit "else nop end" lower to the same
// digest.
const noopMnemonic = "nop"

// Context carries everything a body lowering needs beyond the body
// itself: the forest being built, the module-graph being compiled
// against, and the already-compiled procedure roots available for
// exec/call/procref targets. KernelExports maps a
// kernel procedure's name to its digest directly (rather than to a
// local forest node id), so a syscall target resolves the same way
// whether the kernel was compiled in this same pass or supplied
// pre-built as a library.KernelLibrary: either way the target becomes
// an External node wrapping that digest.
type Context struct {
	Forest        *mast.Forest
	Graph         *resolver.Graph
	Module        *ast.Module
	KernelExports map[string]digest.Digest
	Compiled      map[string]mast.NodeID
}

func fqn(modPath path.Path, proc string) string {
	return modPath.String() + "::" + proc
}

// LowerBody lowers an entire Body into a single MAST node id, coalescing
// straight-line operations into Block nodes and combining successive
// segments with a left-leaning Join chain.
func (c *Context) LowerBody(body *ast.Body) (mast.NodeID, error) {
	var (
		segments []mast.NodeID
		current  []mast.Operation
	)

	flush := func() error {
		if len(current) == 0 {
			return nil
		}

		id, err := c.Forest.EnsureBlock(current, nil)
		if err != nil {
			return err
		}

		segments = append(segments, id)
		current = nil

		return nil
	}

	for _, n := range body.Nodes {
		switch n.Kind {
		case ast.NodeOp:
			if n.Op == "div" && len(n.Immeds) == 1 && n.Immeds[0] == 0 {
				return 0, aerror.Detailed(aerror.DivisionByZero, c.Module.Path.String(), "div.0")
			}

			current = append(current, mast.Operation{Opcode: n.Op, Immediates: n.Immeds})
		case ast.NodeProcRef:
			d, err := c.targetDigest(n.Target)
			if err != nil {
				return 0, err
			}

			current = append(current, pushDigestOps(d)...)
		default:
			if err := flush(); err != nil {
				return 0, err
			}

			id, err := c.lowerControlNode(n)
			if err != nil {
				return 0, err
			}

			segments = append(segments, id)
		}
	}

	if err := flush(); err != nil {
		return 0, err
	}

	if len(segments) == 0 {
		return 0, aerror.Detailed(aerror.NodeIDOverflow, c.Module.Path.String(), "body lowered to no segments")
	}

	result := segments[0]

	for _, next := range segments[1:] {
		id, err := c.Forest.EnsureJoin(result, next)
		if err != nil {
			return 0, err
		}

		result = id
	}

	return result, nil
}

// pushDigestOps produces the four Push instructions which place a
// digest's words on the stack: no MAST node is created for this, only
// ordinary block operations.
func pushDigestOps(d digest.Digest) []mast.Operation {
	ops := make([]mast.Operation, len(d))
	for i, limb := range d {
		ops[i] = mast.Operation{Opcode: "push", Immediates: []uint64{limb}}
	}

	return ops
}

func (c *Context) lowerControlNode(n ast.Node) (mast.NodeID, error) {
	switch n.Kind {
	case ast.NodeIfElse:
		return c.lowerIfElse(n)
	case ast.NodeWhile:
		body, err := c.LowerBody(n.Then)
		if err != nil {
			return 0, err
		}

		return c.Forest.EnsureLoop(body)
	case ast.NodeRepeat:
		body, err := c.LowerBody(n.Body)
		if err != nil {
			return 0, err
		}

		return c.buildBalanced(body, int(n.Count))
	case ast.NodeExec:
		return c.resolveCalleeNode(n.Target)
	case ast.NodeCall:
		if err := c.checkCallDirection(n.Target, false); err != nil {
			return 0, err
		}

		callee, err := c.resolveCalleeNode(n.Target)
		if err != nil {
			return 0, err
		}

		return c.Forest.EnsureCall(callee, false)
	case ast.NodeSysCall:
		if c.Module.Kind == ast.ModuleKernel {
			return 0, aerror.New(aerror.SysCallInKernel, fqn(c.Module.Path, n.Target.Name))
		}

		d, ok := c.KernelExports[n.Target.Name]
		if !ok {
			return 0, aerror.New(aerror.KernelProcNotFound, n.Target.Name)
		}

		calleeID := c.Forest.EnsureExternal(d)

		return c.Forest.EnsureCall(calleeID, true)
	case ast.NodeDynExec:
		return c.Forest.EnsureDyn(), nil
	case ast.NodeDynCall:
		return c.Forest.EnsureCall(c.Forest.EnsureDyn(), false)
	default:
		return 0, aerror.Detailed(aerror.NodeIDOverflow, c.Module.Path.String(), "unknown control node kind")
	}
}

func (c *Context) lowerIfElse(n ast.Node) (mast.NodeID, error) {
	thenID, err := c.LowerBody(n.Then)
	if err != nil {
		return 0, err
	}

	var elseID mast.NodeID

	if n.Else != nil {
		elseID, err = c.LowerBody(n.Else)
	} else {
		elseID, err = c.Forest.EnsureBlock([]mast.Operation{{Opcode: noopMnemonic}}, nil)
	}

	if err != nil {
		return 0, err
	}

	return c.Forest.EnsureSplit(thenID, elseID)
}

// buildBalanced constructs a balanced binary Join tree of n leaves, each
// referencing body. Deduplication in the forest collapses this to
// O(log n) distinct Join nodes whenever subtrees repeat, which happens
// automatically for n a power of two.
func (c *Context) buildBalanced(body mast.NodeID, n int) (mast.NodeID, error) {
	if n <= 1 {
		return body, nil
	}

	left, err := c.buildBalanced(body, n/2)
	if err != nil {
		return 0, err
	}

	right, err := c.buildBalanced(body, n-n/2)
	if err != nil {
		return 0, err
	}

	return c.Forest.EnsureJoin(left, right)
}

// checkCallDirection enforces the kernel/non-kernel call-direction rules
// for an ordinary (non-syscall) invocation.
func (c *Context) checkCallDirection(t ast.InvocationTarget, isExec bool) error {
	if isExec || t.Kind == ast.InvocationDigest {
		return nil
	}

	targetMod, targetName, ok := c.targetModule(t)
	if !ok {
		return nil
	}

	callerIsKernel := c.Module.Kind == ast.ModuleKernel
	targetIsKernel := targetMod.Kind == ast.ModuleKernel

	switch {
	case callerIsKernel && !targetIsKernel:
		return aerror.New(aerror.CallInKernel, fqn(targetMod.Path, targetName))
	case !callerIsKernel && targetIsKernel:
		return aerror.New(aerror.CallerOutOfKernel, fqn(targetMod.Path, targetName))
	default:
		return nil
	}
}

func (c *Context) targetModule(t ast.InvocationTarget) (*ast.Module, string, bool) {
	switch t.Kind {
	case ast.InvocationLocal:
		return c.Module, t.Name, true
	case ast.InvocationQualified:
		mod, err := c.Graph.ResolveAlias(c.Module, t.Alias)
		if err != nil {
			return nil, "", false
		}

		return mod, t.Proc, true
	default:
		return nil, "", false
	}
}

// resolveCalleeNode resolves an InvocationTarget to the MAST node id of
// the callee's already-compiled procedure root (for exec/call), or to a
// fresh/existing External node (for a literal digest target).
func (c *Context) resolveCalleeNode(t ast.InvocationTarget) (mast.NodeID, error) {
	switch t.Kind {
	case ast.InvocationDigest:
		return c.Forest.EnsureExternal(t.Digest), nil
	case ast.InvocationLocal:
		if _, err := resolver.FindLocal(c.Module, t.Name); err != nil {
			return 0, err
		}

		id, ok := c.Compiled[fqn(c.Module.Path, t.Name)]
		if !ok {
			return 0, aerror.New(aerror.LocalProcNotFound, fqn(c.Module.Path, t.Name))
		}

		return id, nil
	case ast.InvocationQualified:
		mod, err := c.Graph.ResolveAlias(c.Module, t.Alias)
		if err != nil {
			return 0, err
		}

		proc, err := resolver.FindExported(mod, t.Proc)
		if err != nil {
			return 0, err
		}

		id, ok := c.Compiled[fqn(mod.Path, proc.Name)]
		if !ok {
			return 0, aerror.New(aerror.ImportedProcNotFound, fqn(mod.Path, proc.Name))
		}

		return id, nil
	default:
		return 0, aerror.Detailed(aerror.NodeIDOverflow, c.Module.Path.String(), "unknown invocation target kind")
	}
}

// targetDigest resolves an InvocationTarget straight to a digest, for
// procref, without requiring a MAST node id.
func (c *Context) targetDigest(t ast.InvocationTarget) (digest.Digest, error) {
	if t.Kind == ast.InvocationDigest {
		return t.Digest, nil
	}

	id, err := c.resolveCalleeNode(t)
	if err != nil {
		return digest.Digest{}, err
	}

	return c.Forest.Digest(id), nil
}
