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

package singleapp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/treehaus/treebase/embedded"
	"github.com/treehaus/treebase/embedded/appendable"
)

var ErrIllegalArguments = embedded.ErrIllegalArguments
var ErrInvalidOptions = fmt.Errorf("%w: invalid options", ErrIllegalArguments)
var ErrAlreadyClosed = embedded.ErrAlreadyClosed
var ErrReadOnly = embedded.ErrReadOnly
var ErrCorruptedMetadata = appendable.ErrCorruptedMetadata
var ErrNegativeOffset = errors.New("singleapp: negative offset")

const metadataLenLen = 4

var _ appendable.Appendable = (*AppendableFile)(nil)

// AppendableFile is a single-file Appendable. The file starts with a
// length-prefixed metadata header; offsets exposed to callers are relative
// to the end of that header. Appended bytes are buffered in memory until
// the buffer fills up or Flush is called, and ReadAt serves them from the
// buffer meanwhile.
type AppendableFile struct {
	f              *os.File
	fileBaseOffset int64
	fileOffset     int64

	wbuf []byte

	readOnly bool
	synced   bool
	closed   bool

	metadata []byte

	mutex sync.Mutex
}

func Open(fileName string, opts *Options) (*AppendableFile, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	_, err := os.Stat(fileName)
	notExist := os.IsNotExist(err)

	if err != nil && (!notExist || opts.readOnly || !opts.createIfNotExists) {
		return nil, err
	}

	flag := os.O_RDWR
	if opts.readOnly {
		flag = os.O_RDONLY
	} else if notExist {
		flag |= os.O_CREATE
	}

	f, err := os.OpenFile(fileName, flag, opts.fileMode)
	if err != nil {
		return nil, err
	}

	metadata := opts.metadata

	if notExist {
		err = writeHeader(f, metadata)
	} else {
		metadata, err = readHeader(f)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	fileSize, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, err
	}

	baseOffset := int64(metadataLenLen + len(metadata))

	aof := &AppendableFile{
		f:              f,
		fileBaseOffset: baseOffset,
		fileOffset:     fileSize - baseOffset,
		readOnly:       opts.readOnly,
		synced:         opts.synced,
		metadata:       metadata,
	}

	if !opts.readOnly {
		aof.wbuf = make([]byte, 0, opts.writeBufferSize)
	}

	return aof, nil
}

func writeHeader(f *os.File, metadata []byte) error {
	hdr := make([]byte, metadataLenLen+len(metadata))
	binary.BigEndian.PutUint32(hdr, uint32(len(metadata)))
	copy(hdr[metadataLenLen:], metadata)

	if _, err := f.Write(hdr); err != nil {
		return err
	}
	return f.Sync()
}

func readHeader(f *os.File) ([]byte, error) {
	var lenBs [metadataLenLen]byte
	if _, err := f.ReadAt(lenBs[:], 0); err != nil {
		return nil, ErrCorruptedMetadata
	}

	metadata := make([]byte, binary.BigEndian.Uint32(lenBs[:]))
	if _, err := f.ReadAt(metadata, metadataLenLen); err != nil {
		return nil, ErrCorruptedMetadata
	}
	return metadata, nil
}

func (aof *AppendableFile) Metadata() []byte {
	return aof.metadata
}

func (aof *AppendableFile) ReadOnly() bool {
	return aof.readOnly
}

func (aof *AppendableFile) Size() (int64, error) {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return 0, ErrAlreadyClosed
	}
	return aof.offset(), nil
}

func (aof *AppendableFile) Offset() int64 {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	return aof.offset()
}

func (aof *AppendableFile) offset() int64 {
	return aof.fileOffset + int64(len(aof.wbuf))
}

func (aof *AppendableFile) Append(bs []byte) (off int64, n int, err error) {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return 0, 0, ErrAlreadyClosed
	}

	if aof.readOnly {
		return 0, 0, ErrReadOnly
	}

	if bs == nil {
		return 0, 0, ErrIllegalArguments
	}

	off = aof.offset()

	if len(aof.wbuf)+len(bs) > cap(aof.wbuf) {
		if err := aof.flush(); err != nil {
			return off, 0, err
		}
	}

	if len(bs) > cap(aof.wbuf) {
		n, err = aof.f.WriteAt(bs, aof.fileBaseOffset+aof.fileOffset)
		aof.fileOffset += int64(n)
		return off, n, err
	}

	aof.wbuf = append(aof.wbuf, bs...)
	return off, len(bs), nil
}

func (aof *AppendableFile) ReadAt(bs []byte, off int64) (n int, err error) {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return 0, ErrAlreadyClosed
	}

	if off < 0 {
		return 0, ErrNegativeOffset
	}

	if off >= aof.offset() {
		return 0, io.EOF
	}

	if off < aof.fileOffset {
		end := len(bs)
		if int64(end) > aof.fileOffset-off {
			end = int(aof.fileOffset - off)
		}

		n, err = aof.f.ReadAt(bs[:end], aof.fileBaseOffset+off)
		if err != nil {
			return n, err
		}
	}

	if n < len(bs) {
		boff := off + int64(n) - aof.fileOffset
		n += copy(bs[n:], aof.wbuf[boff:])
	}

	if n < len(bs) {
		return n, io.EOF
	}
	return n, nil
}

func (aof *AppendableFile) Flush() error {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return ErrAlreadyClosed
	}

	if aof.readOnly {
		return ErrReadOnly
	}

	return aof.flush()
}

func (aof *AppendableFile) flush() error {
	if len(aof.wbuf) == 0 {
		return nil
	}

	n, err := aof.f.WriteAt(aof.wbuf, aof.fileBaseOffset+aof.fileOffset)
	aof.fileOffset += int64(n)
	aof.wbuf = aof.wbuf[:copy(aof.wbuf, aof.wbuf[n:])]
	if err != nil {
		return err
	}

	if aof.synced {
		return aof.f.Sync()
	}
	return nil
}

func (aof *AppendableFile) Sync() error {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return ErrAlreadyClosed
	}

	if aof.readOnly {
		return ErrReadOnly
	}

	if err := aof.flush(); err != nil {
		return err
	}
	return aof.f.Sync()
}

func (aof *AppendableFile) Close() error {
	aof.mutex.Lock()
	defer aof.mutex.Unlock()

	if aof.closed {
		return ErrAlreadyClosed
	}

	aof.closed = true

	if !aof.readOnly {
		if err := aof.flush(); err != nil {
			aof.f.Close()
			return err
		}
	}
	return aof.f.Close()
}
