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

import "io"

// Appendable is a byte log that only grows at its end. Offsets returned by
// Append are stable for the lifetime of the log.
type Appendable interface {
	io.ReaderAt

	Metadata() []byte
	Size() (int64, error)
	Offset() int64
	Append(bs []byte) (off int64, n int, err error)
	Flush() error
	Sync() error
	ReadOnly() bool
	Close() error
}
