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
	"io"
	"os"

	"github.com/fatih/color"
)

var osexit = os.Exit

var stderr io.Writer = os.Stderr

// QuitToStdErr prints an error on stderr and closes
func QuitToStdErr(msg interface{}) {
	PrintfColorW(stderr, color.FgRed, "%v\n", msg)
	osexit(1)
}

// PrintfColorW writes a formatted message in the given color. Colors are
// dropped when the output is not a terminal.
func PrintfColorW(w io.Writer, attr color.Attribute, format string, args ...interface{}) {
	_, _ = color.New(attr).Fprintf(w, format, args...)
}

func OverrideQuitter(quitter func(int)) {
	osexit = quitter
}

func OverrideStdErr(w io.Writer) {
	stderr = w
}
