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

package memory

import (
	"io"
	"sync"

	"github.com/treehaus/treebase/embedded"
	"github.com/treehaus/treebase/embedded/appendable"
)

var _ appendable.Appendable = (*memApp)(nil)

// New returns an Appendable kept entirely in memory. Useful for tests and
// for throw-away trees.
func New() appendable.Appendable {
	return NewWithMetadata(nil)
}

func NewWithMetadata(metadata []byte) appendable.Appendable {
	return &memApp{metadata: metadata}
}

type memApp struct {
	mutex    sync.RWMutex
	buf      []byte
	metadata []byte
	closed   bool
}

func (app *memApp) Metadata() []byte {
	return app.metadata
}

func (app *memApp) ReadOnly() bool {
	return false
}

func (app *memApp) ReadAt(dst []byte, off int64) (int, error) {
	app.mutex.RLock()
	defer app.mutex.RUnlock()

	if app.closed {
		return 0, embedded.ErrAlreadyClosed
	}

	if off < 0 {
		return 0, embedded.ErrIllegalArguments
	}

	if off >= int64(len(app.buf)) {
		return 0, io.EOF
	}

	n := copy(dst, app.buf[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

func (app *memApp) Offset() int64 {
	app.mutex.RLock()
	defer app.mutex.RUnlock()

	return int64(len(app.buf))
}

func (app *memApp) Append(bs []byte) (int64, int, error) {
	app.mutex.Lock()
	defer app.mutex.Unlock()

	if app.closed {
		return 0, 0, embedded.ErrAlreadyClosed
	}

	off := int64(len(app.buf))
	app.buf = append(app.buf, bs...)
	return off, len(bs), nil
}

func (app *memApp) Size() (int64, error) {
	return app.Offset(), nil
}

func (app *memApp) Flush() error {
	return nil
}

func (app *memApp) Sync() error {
	return nil
}

func (app *memApp) Close() error {
	app.mutex.Lock()
	defer app.mutex.Unlock()

	if app.closed {
		return embedded.ErrAlreadyClosed
	}
	app.closed = true
	return nil
}
