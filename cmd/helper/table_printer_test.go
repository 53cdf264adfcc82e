/*
Copyright 2025 Codenotary Inc. All rights reserved.

SPDX-License-Identifier: BUSL-1.1
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://mariadb.com/bsl11/

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package helper

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var b bytes.Buffer

	elements := []string{"one", "two"}
	PrintTable(
		&b,
		[]string{"Key"},
		len(elements),
		func(i int) []string {
			return []string{elements[i]}
		},
		"",
	)
	assert.Contains(t, b.String(), "Key")
	assert.Contains(t, b.String(), "one")
	assert.Contains(t, b.String(), "two")
	assert.Contains(t, b.String(), "2 row(s)")

	// custom caption and short rows
	b.Reset()
	PrintTable(
		&b,
		[]string{"Key", "Value"},
		len(elements),
		func(i int) []string {
			return []string{elements[i]}
		},
		"my caption",
	)
	assert.Contains(t, b.String(), "Value")
	assert.Contains(t, b.String(), "my caption")
	assert.NotContains(t, b.String(), "row(s)")
}

func TestPrintTableZeroEle(t *testing.T) {
	var b bytes.Buffer

	PrintTable(&b, []string{"Key"}, 0, func(i int) []string { return nil }, "")
	assert.Empty(t, b.String())
}

func TestPrintTableZeroCol(t *testing.T) {
	var b bytes.Buffer

	PrintTable(&b, nil, 1, func(i int) []string { return []string{"x"} }, "")
	assert.Empty(t, b.String())
}
