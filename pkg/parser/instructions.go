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
package parser

// opSpec bounds the number of immediate operands an instruction accepts.
type opSpec struct {
	minImms int
	maxImms int
}

// opTable maps every recognized instruction mnemonic to its operand
// bounds.  Anything not listed here (and not a control-flow keyword) is
// an InvalidOperation.
var opTable = map[string]opSpec{
	// stack manipulation
	"push":  {1, 4},
	"drop":  {0, 0},
	"dropw": {0, 0},
	"dup":   {0, 1},
	"dupw":  {0, 1},
	"swap":  {0, 1},
	"swapw": {0, 1},
	"movup": {1, 1},
	"movdn": {1, 1},
	"padw":  {0, 0},

	// field arithmetic
	"add":  {0, 1},
	"sub":  {0, 1},
	"mul":  {0, 1},
	"div":  {0, 1},
	"neg":  {0, 0},
	"inv":  {0, 0},
	"pow2": {0, 0},
	"exp":  {0, 1},

	// boolean and comparison
	"not": {0, 0},
	"and": {0, 0},
	"or":  {0, 0},
	"xor": {0, 0},
	"eq":  {0, 1},
	"neq": {0, 1},
	"eqw": {0, 0},
	"lt":  {0, 0},
	"lte": {0, 0},
	"gt":  {0, 0},
	"gte": {0, 0},

	// assertions
	"assert":    {0, 0},
	"assertz":   {0, 0},
	"assert_eq": {0, 0},

	// procedure locals
	"locadd":   {1, 1},
	"locload":  {1, 1},
	"locstore": {1, 1},

	// linear memory
	"mem_load":  {0, 1},
	"mem_store": {0, 1},

	// hashing
	"hash":   {0, 0},
	"hperm":  {0, 0},
	"hmerge": {0, 0},

	// padding
	"nop": {0, 0},
}

// advSubOps names the recognized non-deterministic advice instructions,
// spelled "adv.<sub>" in source.  They take no numeric immediates; the
// sub-mnemonic is folded into the stored opcode.
var advSubOps = map[string]struct{}{
	"push_mapval": {},
	"loadw":       {},
	"pipe":        {},
}
