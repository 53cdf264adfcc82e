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
	"encoding/binary"
	"fmt"
)

// value payload: prev:8 | version:8 | ref:8 | vlen:4 | value
const valueHeaderSize = 8 + 8 + 8 + 4

type valueRecord struct {
	prevPos uint64
	version uint64
	refPos  uint64
	value   []byte
}

func (v *valueRecord) encode() []byte {
	buf := make([]byte, valueHeaderSize+len(v.value))

	binary.BigEndian.PutUint64(buf[0:], v.prevPos)
	binary.BigEndian.PutUint64(buf[8:], v.version)
	binary.BigEndian.PutUint64(buf[16:], v.refPos)
	binary.BigEndian.PutUint32(buf[24:], uint32(len(v.value)))
	copy(buf[valueHeaderSize:], v.value)

	return buf
}

func decodeValue(payload []byte) (*valueRecord, error) {
	if len(payload) < valueHeaderSize {
		return nil, fmt.Errorf("%w: truncated value record", ErrCorruptedData)
	}

	vlen := binary.BigEndian.Uint32(payload[24:])
	if int64(vlen) != int64(len(payload)-valueHeaderSize) {
		return nil, fmt.Errorf("%w: value length mismatch", ErrCorruptedData)
	}

	v := &valueRecord{
		prevPos: binary.BigEndian.Uint64(payload[0:]),
		version: binary.BigEndian.Uint64(payload[8:]),
		refPos:  binary.BigEndian.Uint64(payload[16:]),
		value:   make([]byte, vlen),
	}
	copy(v.value, payload[valueHeaderSize:])

	return v, nil
}

func (l *recordLog) readValueRecord(pos uint64) (*valueRecord, error) {
	if pos == 0 {
		return nil, fmt.Errorf("%w: value offset is not set", ErrCorruptedData)
	}

	payload, err := l.readKind(pos, kindValue)
	if err != nil {
		return nil, err
	}
	return decodeValue(payload)
}

// writeValue appends a value record chained to lastPos. A non-zero refPos
// makes the record an alias of the value stored at refPos; an alias of an
// alias is flattened to the original target, so reads never take more than
// one hop.
func (l *recordLog) writeValue(lastPos, version uint64, value []byte, refPos uint64) (uint64, error) {
	if uint64(len(value)) > MaxValueSize {
		return 0, fmt.Errorf("%w: value is too large", ErrIllegalArguments)
	}

	rec := &valueRecord{
		prevPos: lastPos,
		version: version,
		value:   value,
	}

	if refPos != 0 {
		target, err := l.readValueRecord(refPos)
		if err != nil {
			return 0, err
		}

		if target.refPos != 0 {
			refPos = target.refPos
		}

		rec.refPos = refPos
		rec.value = nil
	}

	return l.append(kindValue, rec.encode())
}

// readValue returns the value stored at pos together with the version chain
// pointer and version of that record. For aliases, the value is taken from
// the referenced record.
func (l *recordLog) readValue(pos uint64) (value []byte, lastPos uint64, version uint64, err error) {
	rec, err := l.readValueRecord(pos)
	if err != nil {
		return nil, 0, 0, err
	}

	value = rec.value

	if rec.refPos != 0 {
		target, err := l.readValueRecord(rec.refPos)
		if err != nil {
			return nil, 0, 0, err
		}
		value = target.value
	}

	return value, rec.prevPos, rec.version, nil
}
