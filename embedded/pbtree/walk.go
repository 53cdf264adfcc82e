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
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/treehaus/treebase/embedded/appendable"
)

// NodeInfo describes a node reached by Walk.
type NodeInfo struct {
	Pos      uint64
	Depth    int
	Leaf     bool
	Entries  int
	Gen      uint64
	Modified bool
	FirstKey []byte
	LastKey  []byte
}

// Walk visits every node of the current tree depth-first, parents before
// children, loading nodes from the log as needed.
func (t *PBTree) Walk(fn func(info NodeInfo) error) error {
	if err := t.checkReadable(); err != nil {
		return err
	}

	return t.walk(t.root, 0, fn)
}

func (t *PBTree) walk(n treeNode, depth int, fn func(info NodeInfo) error) error {
	b := n.base()

	info := NodeInfo{
		Pos:      b.pos,
		Depth:    depth,
		Leaf:     n.isLeaf(),
		Gen:      b.gen,
		Modified: b.modified,
	}

	switch n := n.(type) {
	case *pleaf:
		info.Entries = len(n.keys)
		if len(n.keys) > 0 {
			info.FirstKey = n.keys[0]
			info.LastKey = n.keys[len(n.keys)-1]
		}

		return fn(info)
	case *pnode:
		info.Entries = len(n.children)
		if len(n.splits) > 0 {
			info.FirstKey = n.splits[0]
			info.LastKey = n.splits[len(n.splits)-1]
		}

		if err := fn(info); err != nil {
			return err
		}

		for _, ref := range n.children {
			child, err := ref.resolve()
			if err != nil {
				return err
			}

			if err := t.walk(child, depth+1, fn); err != nil {
				return err
			}
		}
	}

	return nil
}

// Depth returns the number of levels of the tree, the root included.
func (t *PBTree) Depth() (int, error) {
	depth := 0

	err := t.Walk(func(info NodeInfo) error {
		if info.Depth+1 > depth {
			depth = info.Depth + 1
		}
		return nil
	})

	return depth, err
}

// RecordInfo describes a record found by ScanRecords.
type RecordInfo struct {
	Pos  uint64
	Kind byte
	Size int
}

func (r RecordInfo) KindName() string {
	return kindName(r.Kind)
}

// ScanRecords reads every record of a tree log in offset order, verifying
// record framing and checksums.
func ScanRecords(app appendable.Appendable, fn func(rec RecordInfo) error) error {
	if app == nil {
		return ErrIllegalArguments
	}

	size, err := app.Size()
	if err != nil {
		return err
	}

	r := appendable.NewReaderFrom(app, 0, DefaultAppendableWriteBufferSize)

	for {
		pos := r.Offset()

		kind, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		payloadLen, err := r.ReadUint32()
		if err != nil {
			return scanErr(err, pos)
		}

		if pos+recordOverhead+int64(payloadLen) > size {
			return fmt.Errorf("%w: record at offset %d exceeds the log boundary", ErrCorruptedData, pos)
		}

		buf := make([]byte, recordHeaderSize+int(payloadLen))
		buf[0] = kind
		binary.BigEndian.PutUint32(buf[1:], payloadLen)

		if _, err := io.ReadFull(r, buf[recordHeaderSize:]); err != nil {
			return scanErr(err, pos)
		}

		sum, err := r.ReadUint64()
		if err != nil {
			return scanErr(err, pos)
		}

		if xxhash.Sum64(buf) != sum {
			return fmt.Errorf("%w: checksum mismatch for record at offset %d", ErrCorruptedData, pos)
		}

		if pos == 0 && kind != kindPreamble {
			return fmt.Errorf("%w: log does not start with a preamble", ErrCorruptedData)
		}

		err = fn(RecordInfo{
			Pos:  uint64(pos),
			Kind: kind,
			Size: recordOverhead + int(payloadLen),
		})
		if err != nil {
			return err
		}
	}
}

func scanErr(err error, pos int64) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated record at offset %d", ErrCorruptedData, pos)
	}
	return err
}
