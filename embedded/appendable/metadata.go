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
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sort"
)

var ErrCorruptedMetadata = errors.New("corrupted metadata")

// Metadata is a small key/value map persisted in the header of a log file.
type Metadata struct {
	data map[string][]byte
}

func NewMetadata(b []byte) (*Metadata, error) {
	m := &Metadata{
		data: make(map[string][]byte),
	}

	if len(b) > 0 {
		if _, err := m.ReadFrom(bytes.NewReader(b)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metadata) Bytes() []byte {
	var b bytes.Buffer
	_, _ = m.WriteTo(&b)
	return b.Bytes()
}

func (m *Metadata) ReadFrom(r io.Reader) (int64, error) {
	var read int64

	var countBs [4]byte
	if _, err := io.ReadFull(r, countBs[:]); err != nil {
		return read, ErrCorruptedMetadata
	}
	read += 4

	count := int(binary.BigEndian.Uint32(countBs[:]))

	for i := 0; i < count; i++ {
		k, n, err := readField(r)
		read += n
		if err != nil {
			return read, err
		}

		v, n, err := readField(r)
		read += n
		if err != nil {
			return read, err
		}

		m.data[string(k)] = v
	}
	return read, nil
}

// WriteTo serializes entries sorted by key so equal metadata always
// produces equal bytes.
func (m *Metadata) WriteTo(w io.Writer) (int64, error) {
	var written int64

	var countBs [4]byte
	binary.BigEndian.PutUint32(countBs[:], uint32(len(m.data)))

	n, err := w.Write(countBs[:])
	written += int64(n)
	if err != nil {
		return written, err
	}

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n, err := writeField(w, []byte(k))
		written += n
		if err != nil {
			return written, err
		}

		n, err = writeField(w, m.data[k])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (m *Metadata) Put(key string, value []byte) {
	m.data[key] = value
}

func (m *Metadata) Get(key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *Metadata) PutInt(key string, n int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	m.Put(key, b[:])
}

func (m *Metadata) GetInt(key string) (int, bool) {
	v, ok := m.Get(key)
	if !ok || len(v) != 8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(v)), true
}

func readField(r io.Reader) ([]byte, int64, error) {
	var lenBs [4]byte
	if _, err := io.ReadFull(r, lenBs[:]); err != nil {
		return nil, 0, ErrCorruptedMetadata
	}

	fb := make([]byte, binary.BigEndian.Uint32(lenBs[:]))
	if _, err := io.ReadFull(r, fb); err != nil {
		return nil, 4, ErrCorruptedMetadata
	}
	return fb, int64(4 + len(fb)), nil
}

func writeField(w io.Writer, b []byte) (int64, error) {
	var lenBs [4]byte
	binary.BigEndian.PutUint32(lenBs[:], uint32(len(b)))

	n, err := w.Write(lenBs[:])
	if err != nil {
		return int64(n), err
	}

	m, err := w.Write(b)
	return int64(n + m), err
}
