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

// Package assemble orchestrates pkg/parser, pkg/resolver and pkg/lower
// into the compilation entry points (CompileLibrary,
// CompileKernelLibrary, CompileProgram) that pkg/cmd's `bundle`
// subcommand calls: parse, resolve imports, lower, package.
package assemble

import (
	"github.com/sirupsen/logrus"

	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/ast"
	"github.com/openmast/masm/pkg/digest"
	"github.com/openmast/masm/pkg/library"
	"github.com/openmast/masm/pkg/lower"
	"github.com/openmast/masm/pkg/mast"
	"github.com/openmast/masm/pkg/parser"
	"github.com/openmast/masm/pkg/resolver"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
)

// log is this package's logger; a package-scoped logrus.Entry rather
// than a logger threaded through every call.
var log = logrus.WithField("pkg", "assemble")

// Source pairs a module's raw text with the path it declares itself
// under; the caller (pkg/cmd) derives Path from a source file's
// location within the library directory being bundled.
type Source struct {
	File *source.File
	Path path.Path
}

// Options configures a compile_library / compile_program invocation.
type Options struct {
	// Namespace, when set, is the namespace every exported module path
	// must carry (a mismatch is InvalidExportNamespace); empty means it
	// is inferred from the first export's module path.
	Namespace string
	// Version is the free-form semantic version stamped onto the
	// resulting library's metadata.
	Version string
	// Kernel, if non-nil, supplies a pre-compiled kernel library whose
	// exports become the legal syscall targets. Mutually exclusive with
	// compiling a local "#sys" module in the same source set.
	Kernel *library.KernelLibrary
}

// ParseModules parses every source, collecting every error encountered
// rather than stopping at the first, so independent modules each report
// their own errors.
func ParseModules(sources []Source) ([]*ast.Module, []error) {
	var (
		modules []*ast.Module
		errs    []error
	)

	for _, s := range sources {
		mod, modErrs := parser.Parse(s.File, s.Path)
		if len(modErrs) > 0 {
			errs = append(errs, modErrs...)
			continue
		}

		modules = append(modules, mod)
	}

	return modules, errs
}

// buildGraph registers every module in a fresh resolver.Graph and checks
// for duplicate paths, duplicate procedures and import cycles before any
// lowering begins.
func buildGraph(modules []*ast.Module) (*resolver.Graph, error) {
	g := resolver.NewGraph()

	for _, mod := range modules {
		if err := g.Add(mod); err != nil {
			return nil, err
		}
	}

	for _, mod := range modules {
		if err := resolver.CheckDuplicateProcedures(mod); err != nil {
			return nil, err
		}
	}

	if err := g.CheckCycles(); err != nil {
		return nil, err
	}

	return g, nil
}

// compileModules lowers every procedure of every library/kernel module
// in modules into forest, in import-dependency order (a kernel module,
// when there is one, is compiled by an earlier call so syscalls against
// it never need a forward reference), caching
// each compiled root under "module::proc" and registering exported ones
// as both a forest procedure root and a library export entry.
func compileModules(
	forest *mast.Forest,
	g *resolver.Graph,
	modules []*ast.Module,
	kernelExports map[string]digest.Digest,
) ([]library.FullyQualifiedProcedureName, map[string]mast.NodeID, error) {
	compiled := make(map[string]mast.NodeID)

	var exports []library.FullyQualifiedProcedureName

	order := topoSortModules(modules, g)

	for _, mod := range order {
		ctx := &lower.Context{Forest: forest, Graph: g, Module: mod, KernelExports: kernelExports, Compiled: compiled}

		for _, proc := range sortProcsByLocalDeps(mod.Procedures) {
			id, err := ctx.LowerBody(proc.Body)
			if err != nil {
				return nil, nil, err
			}

			compiled[mod.Path.String()+"::"+proc.Name] = id

			if proc.Visibility == ast.VisExported {
				forest.AddProcedureRoot(id)
				exports = append(exports, library.FullyQualifiedProcedureName{Module: mod.Path, Proc: proc.Name})
			}
		}
	}

	return exports, compiled, nil
}

// topoSortModules orders modules so that every module imported by
// another appears before it; g.CheckCycles has already ruled out
// import cycles, so a DFS postorder always terminates.
func topoSortModules(modules []*ast.Module, g *resolver.Graph) []*ast.Module {
	var (
		order   []*ast.Module
		visited = make(map[string]bool)
	)

	var visit func(mod *ast.Module)

	visit = func(mod *ast.Module) {
		key := mod.Path.String()
		if visited[key] {
			return
		}

		visited[key] = true

		for _, imp := range mod.Imports {
			if dep, ok := g.Get(imp.Target); ok {
				visit(dep)
			}
		}

		order = append(order, mod)
	}

	for _, mod := range modules {
		visit(mod)
	}

	return order
}

// sortProcsByLocalDeps orders a module's procedures so a procedure
// invoked by local exec/call appears before its caller wherever
// possible. Genuine recursion cannot arise through exec/call (the MAST
// DAG requires a node's children to exist before it does), so
// any remaining forward reference after this best-effort ordering
// surfaces naturally as LocalProcNotFound; true recursive procedures
// must go through dyncall instead, which needs no such ordering.
func sortProcsByLocalDeps(procs []*ast.Procedure) []*ast.Procedure {
	byName := make(map[string]*ast.Procedure, len(procs))
	for _, p := range procs {
		byName[p.Name] = p
	}

	var (
		order   []*ast.Procedure
		visited = make(map[string]bool)
		visit   func(p *ast.Procedure)
	)

	visit = func(p *ast.Procedure) {
		if visited[p.Name] {
			return
		}

		visited[p.Name] = true

		for _, dep := range localDeps(p.Body) {
			if target, ok := byName[dep]; ok {
				visit(target)
			}
		}

		order = append(order, p)
	}

	for _, p := range procs {
		visit(p)
	}

	return order
}

// localDeps collects the names of every unqualified local invocation
// (exec/call/procref) reachable from body, recursing through nested
// control structures.
func localDeps(body *ast.Body) []string {
	var out []string

	var walk func(b *ast.Body)

	walk = func(b *ast.Body) {
		if b == nil {
			return
		}

		for _, n := range b.Nodes {
			switch n.Kind {
			case ast.NodeExec, ast.NodeCall, ast.NodeProcRef:
				if n.Target.Kind == ast.InvocationLocal {
					out = append(out, n.Target.Name)
				}
			case ast.NodeIfElse:
				walk(n.Then)
				walk(n.Else)
			case ast.NodeWhile:
				walk(n.Then)
			case ast.NodeRepeat:
				walk(n.Body)
			}
		}
	}

	walk(body)

	return out
}

// splitKernel separates a kernel module (path under "#sys") out of
// modules, if one is present, returning the remaining non-kernel
// modules alongside it.
func splitKernel(modules []*ast.Module) (kernel *ast.Module, rest []*ast.Module) {
	for _, mod := range modules {
		if mod.Kind == ast.ModuleKernel {
			kernel = mod
			continue
		}

		rest = append(rest, mod)
	}

	return kernel, rest
}

// CompileLibrary implements compile_library for an ordinary (non-kernel)
// library: every exported procedure of every library module becomes a
// forest procedure root and an export entry.
func CompileLibrary(sources []Source, opts Options) (*library.CompiledLibrary, error) {
	modules, errs := ParseModules(sources)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	kernelMod, libMods := splitKernel(modules)
	if kernelMod != nil {
		return nil, aerror.New(aerror.InvalidExportNamespace, kernelMod.Path.String())
	}

	g, err := buildGraph(libMods)
	if err != nil {
		return nil, err
	}

	kernelExports := map[string]digest.Digest{}
	if opts.Kernel != nil {
		kernelExports = opts.Kernel.ExportDigests()
	}

	forest := mast.NewForest()

	exports, _, err := compileModules(forest, g, libMods, kernelExports)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"modules": len(libMods), "exports": len(exports)}).Debug("compiled library")

	return library.Package(forest, exports, library.Metadata{Namespace: opts.Namespace, Version: opts.Version})
}

// CompileKernelLibrary implements compile_library for a kernel: every
// module in sources must live under the reserved "#sys" namespace.
func CompileKernelLibrary(sources []Source, opts Options) (*library.KernelLibrary, error) {
	modules, errs := ParseModules(sources)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	g, err := buildGraph(modules)
	if err != nil {
		return nil, err
	}

	forest := mast.NewForest()

	exports, _, err := compileModules(forest, g, modules, nil)
	if err != nil {
		return nil, err
	}

	lib, err := library.Package(forest, exports, library.Metadata{Namespace: opts.Namespace, Version: opts.Version})
	if err != nil {
		return nil, err
	}

	return library.NewKernelLibrary(lib)
}

// CompileProgram implements the executable-program assembly path: one
// module of ModuleExecutable kind (with a "begin...end" Entry body) plus
// its dependency modules lower into a single forest whose entrypoint is
// the executable's body.
func CompileProgram(sources []Source, opts Options) (*mast.Forest, error) {
	modules, errs := ParseModules(sources)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	kernelMod, rest := splitKernel(modules)

	var mainMod *ast.Module

	var libMods []*ast.Module

	for _, mod := range rest {
		if mod.Kind == ast.ModuleExecutable {
			mainMod = mod
			continue
		}

		libMods = append(libMods, mod)
	}

	if mainMod == nil {
		return nil, aerror.Detailed(aerror.NodeIDOverflow, "", "no executable module (begin...end) found")
	}

	g, err := buildGraph(append(append([]*ast.Module(nil), libMods...), mainMod))
	if err != nil {
		return nil, err
	}

	forest := mast.NewForest()

	kernelExports := map[string]digest.Digest{}

	switch {
	case opts.Kernel != nil:
		kernelExports = opts.Kernel.ExportDigests()
		forest.SetKernel(opts.Kernel.ToMastKernel())
	case kernelMod != nil:
		kg, err := buildGraph([]*ast.Module{kernelMod})
		if err != nil {
			return nil, err
		}

		_, kcompiled, err := compileModules(forest, kg, []*ast.Module{kernelMod}, nil)
		if err != nil {
			return nil, err
		}

		// Collect digests in declaration order as the map is filled, so
		// the kernel's digest vector stays deterministic across runs.
		var digests []digest.Digest

		for _, proc := range kernelMod.Procedures {
			if proc.Visibility != ast.VisExported {
				continue
			}

			id, ok := kcompiled[kernelMod.Path.String()+"::"+proc.Name]
			if !ok {
				return nil, aerror.New(aerror.KernelProcNotFound, proc.Name)
			}

			kernelExports[proc.Name] = forest.Digest(id)
			digests = append(digests, forest.Digest(id))
		}

		forest.SetKernel(mast.NewKernel(digests))
	}

	_, compiled, err := compileModules(forest, g, libMods, kernelExports)
	if err != nil {
		return nil, err
	}

	ctx := &lower.Context{Forest: forest, Graph: g, Module: mainMod, KernelExports: kernelExports, Compiled: compiled}

	entry, err := ctx.LowerBody(mainMod.Entry)
	if err != nil {
		return nil, err
	}

	forest.SetEntrypoint(entry)

	if err := forest.CheckEntrypoint(); err != nil {
		return nil, err
	}

	if err := forest.CheckKernelConsistency(); err != nil {
		return nil, err
	}

	return forest, nil
}
