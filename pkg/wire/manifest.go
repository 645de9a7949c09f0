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
	"github.com/segmentio/encoding/json"

	"github.com/openmast/masm/pkg/library"
)

// Manifest is a human-inspectable JSON summary of a compiled library,
// written out by `bundle --json-manifest`. It never replaces the binary
// `.masl` format; it's a debugging side channel only.
type Manifest struct {
	Namespace    string           `json:"namespace"`
	Version      string           `json:"version"`
	NumExports   int              `json:"num_exports"`
	NumNodes     int              `json:"num_nodes"`
	KernelDigest int              `json:"num_kernel_digests"`
	Modules      []ManifestModule `json:"modules"`
}

// ManifestModule is one module's worth of exported procedure digests.
type ManifestModule struct {
	Path       string              `json:"path"`
	Procedures []ManifestProcedure `json:"procedures"`
}

// ManifestProcedure names a single exported procedure and its digest.
type ManifestProcedure struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
}

// BuildManifest summarizes lib for JSON serialization.
func BuildManifest(lib *library.CompiledLibrary) Manifest {
	m := Manifest{
		Namespace:    lib.Metadata.Namespace,
		Version:      lib.Metadata.Version,
		NumExports:   len(lib.Exports),
		NumNodes:     lib.Forest.Len(),
		KernelDigest: lib.Forest.Kernel().Len(),
	}

	for _, mi := range lib.IntoModules() {
		mod := ManifestModule{Path: mi.Path.String()}

		for _, p := range mi.Procedures {
			mod.Procedures = append(mod.Procedures, ManifestProcedure{
				Name:   p.Name,
				Digest: p.Digest.String(),
			})
		}

		m.Modules = append(m.Modules, mod)
	}

	return m
}

// MarshalManifest renders a compiled library's manifest as indented JSON.
func MarshalManifest(lib *library.CompiledLibrary) ([]byte, error) {
	return json.MarshalIndent(BuildManifest(lib), "", "  ")
}
