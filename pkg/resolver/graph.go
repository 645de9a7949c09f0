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

// Package resolver maintains the module graph: a mapping from library
// path to parsed Module, import-alias and procedure-name lookups, and a
// pre-compilation DFS cycle check over the import graph whose
// visited/on-stack tracking is backed by dense bitsets.
package resolver

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/ast"
	"github.com/openmast/masm/pkg/util/path"
)

// Graph holds every module being compiled together, keyed by its path.
type Graph struct {
	modules []*ast.Module
	byPath  map[string]int
}

// NewGraph constructs an empty module graph.
func NewGraph() *Graph {
	return &Graph{byPath: make(map[string]int)}
}

// Add registers mod in the graph. Returns DuplicateModule if a module
// with the same path was already registered.
func (g *Graph) Add(mod *ast.Module) error {
	key := mod.Path.String()
	if _, ok := g.byPath[key]; ok {
		return aerror.New(aerror.DuplicateModule, key)
	}

	g.byPath[key] = len(g.modules)
	g.modules = append(g.modules, mod)

	return nil
}

// Get looks up a module by its exact path.
func (g *Graph) Get(p path.Path) (*ast.Module, bool) {
	idx, ok := g.byPath[p.String()]
	if !ok {
		return nil, false
	}

	return g.modules[idx], true
}

// Modules returns every registered module, in registration order.
func (g *Graph) Modules() []*ast.Module {
	return append([]*ast.Module(nil), g.modules...)
}

// ResolveAlias looks up the module that an import alias within mod
// refers to.
func (g *Graph) ResolveAlias(mod *ast.Module, alias string) (*ast.Module, error) {
	for _, imp := range mod.Imports {
		if imp.Alias == alias {
			target, ok := g.Get(imp.Target)
			if !ok {
				return nil, aerror.New(aerror.ImportedProcNotFound, imp.Target.String())
			}

			return target, nil
		}
	}

	return nil, aerror.New(aerror.ImportedProcNotFound, alias)
}

// CheckCycles performs a DFS over the import graph and fails with the
// closing chain if any cycle exists. Each module's provisional graph
// index doubles as its bit position.
func (g *Graph) CheckCycles() error {
	n := len(g.modules)
	visited := bitset.New(uint(n))
	onStack := bitset.New(uint(n))

	for i := range g.modules {
		if visited.Test(uint(i)) {
			continue
		}

		if chain := g.dfs(uint(i), visited, onStack, nil); chain != nil {
			return aerror.Circular(chain)
		}
	}

	return nil
}

func (g *Graph) dfs(i uint, visited, onStack *bitset.BitSet, path []string) []string {
	visited.Set(i)
	onStack.Set(i)

	mod := g.modules[i]
	path = append(path, mod.Path.String())

	for _, imp := range mod.Imports {
		j, ok := g.byPath[imp.Target.String()]
		if !ok {
			continue
		}

		ji := uint(j)

		if onStack.Test(ji) {
			return append(append([]string(nil), path...), g.modules[ji].Path.String())
		}

		if visited.Test(ji) {
			continue
		}

		if chain := g.dfs(ji, visited, onStack, path); chain != nil {
			return chain
		}
	}

	onStack.Clear(i)

	return nil
}
