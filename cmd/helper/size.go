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
	"strconv"
	"strings"
)

const (
	Byte     = 1
	KiloByte = 1 << (10 * iota)
	MegaByte
	GigaByte
	TeraByte
	PetaByte
	ExaByte
)

var unitMap = map[int]string{
	Byte:     "B",
	KiloByte: "KB",
	MegaByte: "MB",
	GigaByte: "GB",
	TeraByte: "TB",
	PetaByte: "PB",
	ExaByte:  "EB",
}

// FormatByteSize renders a log size with one decimal in the largest unit
// that keeps it above one, e.g. 1536 becomes "1.5 KB".
func FormatByteSize(size int64) string {
	if size < 0 {
		return "-" + FormatByteSize(-size)
	}

	u := getUnit(size)

	fsize := float64(size) / float64(u)
	if rounded := int64(fsize + 0.05); rounded == 1024 {
		u = getUnit(1024 * int64(u))
		fsize = 1
	}
	return strings.TrimSuffix(strconv.FormatFloat(fsize, 'f', 1, 64), ".0") + " " + unitMap[u]
}

func getUnit(size int64) int {
	switch {
	case size >= ExaByte:
		return ExaByte
	case size >= PetaByte:
		return PetaByte
	case size >= TeraByte:
		return TeraByte
	case size >= GigaByte:
		return GigaByte
	case size >= MegaByte:
		return MegaByte
	case size >= KiloByte:
		return KiloByte
	}
	return Byte
}
