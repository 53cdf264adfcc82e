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
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// PrintTable prints data (string arrays) in a tabular format
func PrintTable(
	w io.Writer,
	cols []string,
	nbRows int,
	getRow func(int) []string,
	caption string,
) {
	if nbRows == 0 || len(cols) == 0 {
		return
	}

	if len(caption) == 0 {
		caption = fmt.Sprintf("%d row(s)", nbRows)
	}
	fmt.Fprintln(w, caption)

	table := tablewriter.NewWriter(w)
	table.SetHeader(cols)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i := 0; i < nbRows; i++ {
		row := getRow(i)

		cells := make([]string, len(cols))
		copy(cells, row)

		table.Append(cells)
	}

	table.Render()
}
