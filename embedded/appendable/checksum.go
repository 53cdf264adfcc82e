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

package appendable

import (
	"crypto/sha256"
	"io"
)

// Checksum returns the sha256 digest of n bytes of rAt starting at off.
func Checksum(rAt io.ReaderAt, off, n int64) (checksum [sha256.Size]byte, err error) {
	h := sha256.New()

	if _, err := io.Copy(h, io.NewSectionReader(rAt, off, n)); err != nil {
		return checksum, err
	}

	copy(checksum[:], h.Sum(nil))
	return checksum, nil
}
