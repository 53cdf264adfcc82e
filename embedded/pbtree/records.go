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

package pbtree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/treehaus/treebase/embedded/appendable"
	"github.com/treehaus/treebase/embedded/metrics"
)

// Every record in the log is framed as
//
//	kind:1 | payloadLen:4 | payload | xxhash64(kind|payloadLen|payload):8
const (
	recordHeaderSize   = 1 + 4
	recordChecksumSize = 8
	recordOverhead     = recordHeaderSize + recordChecksumSize

	kindPreamble byte = 'P'
	kindValue    byte = 'V'
	kindLeaf     byte = 'L'
	kindNode     byte = 'N'

	MaxKeySize   = math.MaxUint16
	MaxValueSize = math.MaxUint32 - valueHeaderSize
)

const (
	preambleMagic   = "TBH1"
	preambleVersion = byte(1)
	preambleSize    = len(preambleMagic) + 1 + 4 + 16
)

func kindName(kind byte) string {
	switch kind {
	case kindPreamble:
		return "preamble"
	case kindValue:
		return "value"
	case kindLeaf:
		return "leaf"
	case kindNode:
		return "node"
	}
	return fmt.Sprintf("unknown(%#x)", kind)
}

// recordLog frames records on top of an appendable log.
type recordLog struct {
	app     appendable.Appendable
	metrics metrics.TreeMetrics
}

func newRecordLog(app appendable.Appendable, m metrics.TreeMetrics) *recordLog {
	if m == nil {
		m = metrics.NewNopTreeMetrics()
	}
	return &recordLog{app: app, metrics: m}
}

func (l *recordLog) append(kind byte, payload []byte) (uint64, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: record payload is too large", ErrIllegalArguments)
	}

	buf := make([]byte, recordHeaderSize+len(payload)+recordChecksumSize)
	buf[0] = kind
	binary.BigEndian.PutUint32(buf[1:], uint32(len(payload)))
	copy(buf[recordHeaderSize:], payload)

	sumOff := recordHeaderSize + len(payload)
	binary.BigEndian.PutUint64(buf[sumOff:], xxhash.Sum64(buf[:sumOff]))

	off, n, err := l.app.Append(buf)
	if err != nil {
		return 0, err
	}

	l.metrics.IncRecordsWritten(string(kind))
	l.metrics.AddBytesAppended(n)

	return uint64(off), nil
}

func (l *recordLog) read(pos uint64) (kind byte, payload []byte, err error) {
	if pos > math.MaxInt64 {
		return 0, nil, fmt.Errorf("%w: invalid record offset %d", ErrCorruptedData, pos)
	}

	var hdr [recordHeaderSize]byte
	if err := l.readAt(hdr[:], int64(pos)); err != nil {
		return 0, nil, err
	}

	payloadLen := int64(binary.BigEndian.Uint32(hdr[1:]))

	size, err := l.app.Size()
	if err != nil {
		return 0, nil, err
	}

	if int64(pos)+recordOverhead+payloadLen > size {
		return 0, nil, fmt.Errorf("%w: record at offset %d exceeds the log boundary", ErrCorruptedData, pos)
	}

	buf := make([]byte, recordOverhead+payloadLen)
	copy(buf, hdr[:])

	if err := l.readAt(buf[recordHeaderSize:], int64(pos)+recordHeaderSize); err != nil {
		return 0, nil, err
	}

	sumOff := len(buf) - recordChecksumSize
	if xxhash.Sum64(buf[:sumOff]) != binary.BigEndian.Uint64(buf[sumOff:]) {
		return 0, nil, fmt.Errorf("%w: checksum mismatch for record at offset %d", ErrCorruptedData, pos)
	}

	return hdr[0], buf[recordHeaderSize:sumOff], nil
}

func (l *recordLog) readKind(pos uint64, expected byte) ([]byte, error) {
	kind, payload, err := l.read(pos)
	if err != nil {
		return nil, err
	}

	if kind != expected {
		return nil, fmt.Errorf("%w: expected %s record at offset %d but found %s",
			ErrCorruptedData, kindName(expected), pos, kindName(kind))
	}
	return payload, nil
}

func (l *recordLog) readAt(bs []byte, off int64) error {
	_, err := l.app.ReadAt(bs, off)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of log at offset %d", ErrCorruptedData, off)
	}
	if err != nil {
		return fmt.Errorf("reading log at offset %d: %w", off, err)
	}
	return nil
}

type preamble struct {
	version  byte
	nodeSize int
	treeID   uuid.UUID
}

func (p *preamble) encode() []byte {
	buf := make([]byte, preambleSize)

	off := copy(buf, preambleMagic)

	buf[off] = p.version
	off++

	binary.BigEndian.PutUint32(buf[off:], uint32(p.nodeSize))
	off += 4

	copy(buf[off:], p.treeID[:])

	return buf
}

func decodePreamble(payload []byte) (*preamble, error) {
	if len(payload) != preambleSize || !bytes.Equal(payload[:len(preambleMagic)], []byte(preambleMagic)) {
		return nil, fmt.Errorf("%w: invalid preamble", ErrCorruptedData)
	}

	off := len(preambleMagic)

	p := &preamble{version: payload[off]}
	off++

	if p.version != preambleVersion {
		return nil, fmt.Errorf("%w: unsupported log version %d", ErrCorruptedData, p.version)
	}

	p.nodeSize = int(binary.BigEndian.Uint32(payload[off:]))
	off += 4

	if p.nodeSize < MinNodeSize {
		return nil, fmt.Errorf("%w: invalid node size %d", ErrCorruptedData, p.nodeSize)
	}

	copy(p.treeID[:], payload[off:])

	return p, nil
}

// payloadReader consumes a record payload; the first decoding failure sticks
// and is reported by err.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated %s", ErrCorruptedData, what)
	}
}

func (r *payloadReader) uint16(what string) uint16 {
	if r.err != nil || len(r.buf)-r.off < 2 {
		r.fail(what)
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *payloadReader) uint32(what string) uint32 {
	if r.err != nil || len(r.buf)-r.off < 4 {
		r.fail(what)
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *payloadReader) uint64(what string) uint64 {
	if r.err != nil || len(r.buf)-r.off < 8 {
		r.fail(what)
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *payloadReader) bytes(n int, what string) []byte {
	if r.err != nil || len(r.buf)-r.off < n {
		r.fail(what)
		return nil
	}
	v := make([]byte, n)
	copy(v, r.buf[r.off:])
	r.off += n
	return v
}

func (r *payloadReader) key() []byte {
	return r.bytes(int(r.uint16("key length")), "key")
}

func (r *payloadReader) finish() error {
	if r.err == nil && r.off != len(r.buf) {
		r.err = fmt.Errorf("%w: %d unexpected trailing bytes", ErrCorruptedData, len(r.buf)-r.off)
	}
	return r.err
}

func encodeLeaf(gen uint64, keys [][]byte, values []uint64) []byte {
	size := 8 + 4
	for _, k := range keys {
		size += 2 + len(k) + 8
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint64(buf, gen)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(keys)))

	for i, k := range keys {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(k)))
		buf = append(buf, k...)
		buf = binary.BigEndian.AppendUint64(buf, values[i])
	}
	return buf
}

func decodeLeaf(payload []byte) (gen uint64, keys [][]byte, values []uint64, err error) {
	r := &payloadReader{buf: payload}

	gen = r.uint64("generation")
	n := int(r.uint32("key count"))

	// every entry takes at least 10 bytes
	if r.err == nil && n > (len(payload)-r.off)/10 {
		return 0, nil, nil, fmt.Errorf("%w: invalid leaf key count %d", ErrCorruptedData, n)
	}

	keys = make([][]byte, 0, n)
	values = make([]uint64, 0, n)

	for i := 0; i < n && r.err == nil; i++ {
		keys = append(keys, r.key())

		vpos := r.uint64("value offset")
		if r.err == nil && vpos == 0 {
			return 0, nil, nil, fmt.Errorf("%w: leaf entry without value offset", ErrCorruptedData)
		}
		values = append(values, vpos)
	}

	if err := r.finish(); err != nil {
		return 0, nil, nil, err
	}
	return gen, keys, values, nil
}

func encodeNode(gen uint64, splits [][]byte, children []uint64) []byte {
	size := 8 + 4 + 8*len(children)
	for _, k := range splits {
		size += 2 + len(k)
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint64(buf, gen)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(splits)))

	for _, k := range splits {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(k)))
		buf = append(buf, k...)
	}

	for _, c := range children {
		buf = binary.BigEndian.AppendUint64(buf, c)
	}
	return buf
}

func decodeNode(payload []byte) (gen uint64, splits [][]byte, children []uint64, err error) {
	r := &payloadReader{buf: payload}

	gen = r.uint64("generation")
	n := int(r.uint32("split count"))

	// every split takes at least 2 bytes and every child 8 bytes
	if r.err == nil && n > (len(payload)-r.off-8)/10 {
		return 0, nil, nil, fmt.Errorf("%w: invalid node split count %d", ErrCorruptedData, n)
	}

	splits = make([][]byte, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		splits = append(splits, r.key())
	}

	children = make([]uint64, 0, n+1)
	for i := 0; i <= n && r.err == nil; i++ {
		cpos := r.uint64("child offset")
		if r.err == nil && cpos == 0 {
			return 0, nil, nil, fmt.Errorf("%w: node child without offset", ErrCorruptedData)
		}
		children = append(children, cpos)
	}

	if err := r.finish(); err != nil {
		return 0, nil, nil, err
	}
	return gen, splits, children, nil
}
