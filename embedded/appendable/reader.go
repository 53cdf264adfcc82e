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
	"encoding/binary"
	"io"
)

// Reader reads a log sequentially through a fixed-size buffer, starting at a
// given offset.
type Reader struct {
	rAt io.ReaderAt

	buf     []byte
	bufLen  int
	bufPos  int
	eof     bool
	nextOff int64

	readCount int64
}

func NewReaderFrom(rAt io.ReaderAt, off int64, size int) *Reader {
	return &Reader{
		rAt:     rAt,
		buf:     make([]byte, size),
		nextOff: off,
	}
}

// Offset returns the log offset of the next byte Read will return.
func (r *Reader) Offset() int64 {
	return r.nextOff - int64(r.bufLen-r.bufPos)
}

func (r *Reader) ReadCount() int64 {
	return r.readCount
}

func (r *Reader) Read(bs []byte) (n int, err error) {
	defer func() {
		r.readCount += int64(n)
	}()

	for n < len(bs) {
		if r.bufPos == r.bufLen {
			if r.eof {
				return n, io.EOF
			}

			rn, err := r.rAt.ReadAt(r.buf, r.nextOff)
			if err == io.EOF {
				r.eof = true
			} else if err != nil {
				return n, err
			}

			if rn == 0 {
				r.eof = true
			}

			r.bufLen = rn
			r.bufPos = 0
			r.nextOff += int64(rn)
			continue
		}

		cn := copy(bs[n:], r.buf[r.bufPos:r.bufLen])
		r.bufPos += cn
		n += cn
	}
	return n, nil
}

func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
