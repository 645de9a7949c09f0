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
package lex

import (
	"testing"

	"github.com/openmast/masm/pkg/util/assert"
	"github.com/openmast/masm/pkg/util/source"
)

func lexString(s string) ([]Token, int) {
	tokens, errs := Lex(source.NewSourceFile("<test>", []byte(s)))
	return tokens, len(errs)
}

func TestDottedTokenSplitsIntoParts(t *testing.T) {
	tokens, nerrs := lexString("push.1.2")
	assert.Equal(t, 0, nerrs)
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, []string{"push", "1", "2"}, tokens[0].Parts)
	assert.Equal(t, "push.1.2", tokens[0].Text())
}

func TestOffsetsTrackSourcePositions(t *testing.T) {
	tokens, nerrs := lexString("push.1  add\n  mul")
	assert.Equal(t, 0, nerrs)
	assert.Equal(t, 3, len(tokens))
	assert.Equal(t, 0, tokens[0].Offset)
	assert.Equal(t, 8, tokens[1].Offset)
	assert.Equal(t, 14, tokens[2].Offset)
}

func TestCommentsSkippedToEndOfLine(t *testing.T) {
	tokens, nerrs := lexString("add # drop everything here\nmul")
	assert.Equal(t, 0, nerrs)
	assert.Equal(t, 2, len(tokens))
	assert.Equal(t, "add", tokens[0].Text())
	assert.Equal(t, "mul", tokens[1].Text())
}

func TestEmptyDottedComponentReported(t *testing.T) {
	tokens, nerrs := lexString("push..1 add")
	assert.Equal(t, 1, nerrs)
	// Scanning continues past the bad token.
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, "add", tokens[0].Text())
}

func TestTrailingDotReported(t *testing.T) {
	_, nerrs := lexString("push.")
	assert.Equal(t, 1, nerrs)
}
