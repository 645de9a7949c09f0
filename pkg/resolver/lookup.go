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
package resolver

import (
	"github.com/openmast/masm/pkg/aerror"
	"github.com/openmast/masm/pkg/ast"
)

// CheckDuplicateProcedures verifies mod declares no procedure name
// twice.
func CheckDuplicateProcedures(mod *ast.Module) error {
	seen := make(map[string]struct{}, len(mod.Procedures))

	for _, proc := range mod.Procedures {
		if _, ok := seen[proc.Name]; ok {
			return aerror.New(aerror.DuplicateProcedure, mod.Path.String()+"::"+proc.Name)
		}

		seen[proc.Name] = struct{}{}
	}

	if mod.Kind == ast.ModuleExecutable {
		for _, proc := range mod.Procedures {
			if proc.Visibility == ast.VisExported {
				return aerror.New(aerror.ExportedInExecutable, mod.Path.String()+"::"+proc.Name)
			}
		}
	}

	return nil
}

// FindLocal looks up a procedure declared directly within mod.
func FindLocal(mod *ast.Module, name string) (*ast.Procedure, error) {
	for _, proc := range mod.Procedures {
		if proc.Name == name {
			return proc, nil
		}
	}

	return nil, aerror.New(aerror.LocalProcNotFound, mod.Path.String()+"::"+name)
}

// FindExported looks up an exported procedure within target, for
// resolving a module-qualified invocation.
func FindExported(target *ast.Module, name string) (*ast.Procedure, error) {
	for _, proc := range target.Procedures {
		if proc.Name == name && proc.Visibility == ast.VisExported {
			return proc, nil
		}
	}

	return nil, aerror.New(aerror.ImportedProcNotFound, target.Path.String()+"::"+name)
}

// FindKernelProc looks up a procedure exported by the kernel module,
// for resolving a syscall target.
func FindKernelProc(kernel *ast.Module, name string) (*ast.Procedure, error) {
	proc, err := FindExported(kernel, name)
	if err != nil {
		return nil, aerror.New(aerror.KernelProcNotFound, kernel.Path.String()+"::"+name)
	}

	return proc, nil
}
