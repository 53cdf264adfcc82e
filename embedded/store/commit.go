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


package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/treehaus/treebase/embedded/appendable"
)

const CommitMagic = uint16(0x5442)
const CommitMagicSize = 2

// CommitEntrySize is the size of an encoded commit entry:
// rootPos, keyCount, updateCounter, treeOff and treeSize (8 bytes each),
// the checksum of the tree log bytes in [treeOff, treeSize), the checksum of
// all the preceding fields and the trailing magic.
const CommitEntrySize = 5*8 + 2*sha256.Size + CommitMagicSize

// CommitEntry records where the root of a committed tree lives.
type CommitEntry struct {
	RootPos       uint64
	KeyCount      uint64
	UpdateCounter uint64

	// region of the tree log written since the previous commit
	TreeOff      uint64
	TreeSize     uint64
	TreeChecksum [sha256.Size]byte
}

func putCommitEntry(e *CommitEntry, buf []byte) int {
	off := 0

	binary.BigEndian.PutUint64(buf[off:], e.RootPos)
	off += 8

	binary.BigEndian.PutUint64(buf[off:], e.KeyCount)
	off += 8

	binary.BigEndian.PutUint64(buf[off:], e.UpdateCounter)
	off += 8

	binary.BigEndian.PutUint64(buf[off:], e.TreeOff)
	off += 8

	binary.BigEndian.PutUint64(buf[off:], e.TreeSize)
	off += 8

	off += copy(buf[off:], e.TreeChecksum[:])

	entryChecksum := sha256.Sum256(buf[:off])
	off += copy(buf[off:], entryChecksum[:])

	binary.BigEndian.PutUint16(buf[off:], CommitMagic)
	off += CommitMagicSize

	return off
}

func readCommitEntry(buf []byte) (*CommitEntry, error) {
	if len(buf) != CommitEntrySize {
		return nil, ErrIllegalArguments
	}

	if binary.BigEndian.Uint16(buf[CommitEntrySize-CommitMagicSize:]) != CommitMagic {
		return nil, fmt.Errorf("%w: magic mismatch", ErrInvalidCommitEntry)
	}

	checksumOff := CommitEntrySize - CommitMagicSize - sha256.Size

	entryChecksum := sha256.Sum256(buf[:checksumOff])
	if !bytes.Equal(entryChecksum[:], buf[checksumOff:checksumOff+sha256.Size]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidCommitEntry)
	}

	var e CommitEntry

	off := 0

	e.RootPos = binary.BigEndian.Uint64(buf[off:])
	off += 8

	e.KeyCount = binary.BigEndian.Uint64(buf[off:])
	off += 8

	e.UpdateCounter = binary.BigEndian.Uint64(buf[off:])
	off += 8

	e.TreeOff = binary.BigEndian.Uint64(buf[off:])
	off += 8

	e.TreeSize = binary.BigEndian.Uint64(buf[off:])
	off += 8

	copy(e.TreeChecksum[:], buf[off:])

	return &e, nil
}

func validateCommitEntry(e *CommitEntry, treeApp appendable.Appendable) error {
	if e.TreeOff > e.TreeSize {
		return fmt.Errorf("%w: invalid tree log region", ErrInvalidCommitEntry)
	}

	if e.RootPos == 0 || e.RootPos >= e.TreeSize {
		return fmt.Errorf("%w: invalid root offset", ErrInvalidCommitEntry)
	}

	treeSize, err := treeApp.Size()
	if err != nil {
		return err
	}

	if e.TreeSize > uint64(treeSize) {
		return fmt.Errorf("%w: tree log is shorter than the committed size", ErrInvalidCommitEntry)
	}

	treeChecksum, err := appendable.Checksum(treeApp, int64(e.TreeOff), int64(e.TreeSize-e.TreeOff))
	if err != nil {
		return err
	}

	if treeChecksum != e.TreeChecksum {
		return fmt.Errorf("%w: tree log checksum mismatch", ErrInvalidCommitEntry)
	}
	return nil
}

// findLastCommitEntry scans the commit log backwards and returns the last
// entry that validates against the tree log, together with its offset.
func findLastCommitEntry(treeApp, commitApp appendable.Appendable) (*CommitEntry, int64, error) {
	size, err := commitApp.Size()
	if err != nil {
		return nil, -1, err
	}

	var buf [CommitEntrySize]byte
	for off := size - CommitEntrySize; off >= 0; {
		if _, err := commitApp.ReadAt(buf[:], off); err != nil {
			return nil, -1, err
		}

		e, err := readCommitEntry(buf[:])
		if err == nil {
			err = validateCommitEntry(e, treeApp)
		}
		if err == nil {
			return e, off, nil
		}
		if !errors.Is(err, ErrInvalidCommitEntry) {
			return nil, -1, err
		}

		i := findMagic(buf[:])
		if i >= 0 {
			off -= int64(CommitEntrySize - i - 1)
		} else {
			off -= CommitEntrySize
		}
	}
	return nil, -1, ErrNoCommitEntryFound
}

// findMagic returns the index of the last byte of the rightmost magic found
// in buf, excluding the one at its very end, or -1.
func findMagic(buf []byte) int {
	if len(buf) < 2 {
		return -1
	}

	m0 := byte(CommitMagic >> 8)
	m1 := byte(CommitMagic & 0xFF)

	for i := len(buf) - 2; i >= 1; i-- {
		if buf[i] == m1 && buf[i-1] == m0 {
			return i
		}
	}

	if buf[0] == m1 {
		return 0
	}
	return -1
}
