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

package mocked

// MockedAppendable delegates every call to a function field. Calling a
// method whose field is unset panics.
type MockedAppendable struct {
	MetadataFn func() []byte
	SizeFn     func() (int64, error)
	OffsetFn   func() int64
	AppendFn   func(bs []byte) (off int64, n int, err error)
	FlushFn    func() error
	SyncFn     func() error
	ReadAtFn   func(bs []byte, off int64) (int, error)
	ReadOnlyFn func() bool
	CloseFn    func() error
}

func (a *MockedAppendable) Metadata() []byte {
	return a.MetadataFn()
}

func (a *MockedAppendable) Size() (int64, error) {
	return a.SizeFn()
}

func (a *MockedAppendable) Offset() int64 {
	return a.OffsetFn()
}

func (a *MockedAppendable) Append(bs []byte) (off int64, n int, err error) {
	return a.AppendFn(bs)
}

func (a *MockedAppendable) Flush() error {
	return a.FlushFn()
}

func (a *MockedAppendable) Sync() error {
	return a.SyncFn()
}

func (a *MockedAppendable) ReadAt(bs []byte, off int64) (int, error) {
	return a.ReadAtFn(bs, off)
}

func (a *MockedAppendable) ReadOnly() bool {
	return a.ReadOnlyFn()
}

func (a *MockedAppendable) Close() error {
	return a.CloseFn()
}

// Wrap returns a MockedAppendable whose functions delegate to the given
// implementation; tests then override only the calls they want to fail.
func Wrap(app interface {
	Metadata() []byte
	Size() (int64, error)
	Offset() int64
	Append(bs []byte) (off int64, n int, err error)
	Flush() error
	Sync() error
	ReadAt(bs []byte, off int64) (int, error)
	ReadOnly() bool
	Close() error
}) *MockedAppendable {
	return &MockedAppendable{
		MetadataFn: app.Metadata,
		SizeFn:     app.Size,
		OffsetFn:   app.Offset,
		AppendFn:   app.Append,
		FlushFn:    app.Flush,
		SyncFn:     app.Sync,
		ReadAtFn:   app.ReadAt,
		ReadOnlyFn: app.ReadOnly,
		CloseFn:    app.Close,
	}
}
