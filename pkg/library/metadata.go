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
	"strconv"
	"strings"

	"github.com/openmast/masm/pkg/aerror"
)

// Metadata carries a library's identity beyond its code: a namespace
// shared by every exported module path, and a semantic version string.
type Metadata struct {
	Namespace string
	Version   string
}

// ValidateVersion checks that v is a "major.minor.patch" triple of
// decimal numbers. An empty version is accepted and means "unversioned".
func ValidateVersion(v string) error {
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return aerror.Detailed(aerror.ParameterOutOfBounds, v, "version must be major.minor.patch")
	}

	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 16); err != nil {
			return aerror.Detailed(aerror.ParameterOutOfBounds, v, "version component is not a small decimal number")
		}
	}

	return nil
}
