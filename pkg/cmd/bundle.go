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
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openmast/masm/pkg/assemble"
	"github.com/openmast/masm/pkg/library"
	"github.com/openmast/masm/pkg/util/path"
	"github.com/openmast/masm/pkg/util/source"
	"github.com/openmast/masm/pkg/wire"
)

// bundleCmd compiles a directory of .masm modules into one .masl
// library. Directory walking and file discovery are the CLI's own
// business, not the core library's, so this is the one place in the
// module that touches the filesystem directly.
var bundleCmd = &cobra.Command{
	Use:   "bundle <dir>",
	Short: "Bundle a directory of .masm modules into a single .masl library.",
	Long: `Bundle compiles every .masm source file beneath a directory into a single
content-addressed MAST library, written out as a .masl file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") || GetFlag(cmd, "debug") {
			log.SetLevel(log.DebugLevel)
		}

		dir := args[0]
		namespace := GetString(cmd, "namespace")
		version := GetString(cmd, "version")
		kernelPath := GetString(cmd, "kernel")
		output := GetString(cmd, "output")
		jsonManifest := GetString(cmd, "json-manifest")

		if namespace == "" {
			namespace = filepath.Base(filepath.Clean(dir))
		}

		if output == "" {
			output = namespace + ".masl"
		}

		sources, err := discoverModules(dir, namespace)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		opts := assemble.Options{Namespace: namespace, Version: version}

		if kernelPath != "" {
			kernel, err := readKernelLibrary(kernelPath)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			opts.Kernel = kernel
		}

		lib, err := assemble.CompileLibrary(sources, opts)
		if err != nil {
			PrintDiagnostic(err)
			os.Exit(1)
		}

		w := wire.NewWriter()
		if err := w.WriteLibrary(lib); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if err := os.WriteFile(output, w.Bytes(), 0o644); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if jsonManifest != "" {
			manifest, err := wire.MarshalManifest(lib)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			if err := os.WriteFile(jsonManifest, manifest, 0o644); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}

		log.WithFields(log.Fields{"namespace": namespace, "exports": len(lib.Exports)}).Infof("compiled library %s -> %s", namespace, output)
	},
}

// readKernelLibrary loads a pre-compiled kernel library from a .masl
// file on disk, for use as the --kernel flag's target.
func readKernelLibrary(p string) (*library.KernelLibrary, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	lib, err := wire.NewReader(data).ReadLibrary()
	if err != nil {
		return nil, err
	}

	return library.NewKernelLibrary(lib)
}

// discoverModules walks dir for .masm files and derives each one's
// module path from its location relative to dir: the namespace, then
// one path segment per directory component, then the file's base name
// (extension stripped) as the innermost segment.
func discoverModules(dir, namespace string) ([]assemble.Source, error) {
	var sources []assemble.Source

	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(p, ".masm") {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}

		rel = strings.TrimSuffix(rel, ".masm")
		segments := append([]string{namespace}, strings.Split(filepath.ToSlash(rel), "/")...)

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		sources = append(sources, assemble.Source{
			File: source.NewSourceFile(p, data),
			Path: path.New(segments...),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no .masm modules found under %s", dir)
	}

	return sources, nil
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.Flags().String("namespace", "", "top-level namespace for the library (defaults to the directory name)")
	bundleCmd.Flags().String("version", "0.1.0", "semantic version for the library")
	bundleCmd.Flags().String("kernel", "", "path to a pre-compiled kernel .masl file, for resolving syscalls")
	bundleCmd.Flags().StringP("output", "o", "", "output .masl path (defaults to <namespace>.masl)")
	bundleCmd.Flags().Bool("debug", false, "enable verbose diagnostic logging during compilation")
	bundleCmd.Flags().String("json-manifest", "", "also write a human-inspectable JSON manifest of the compiled library")
}
