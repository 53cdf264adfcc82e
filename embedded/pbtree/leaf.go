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
	"sort"
)

type pleaf struct {
	nodeBase

	keys   [][]byte
	values []uint64
}

var _ treeNode = (*pleaf)(nil)

func newLeaf(tree *PBTree) *pleaf {
	return &pleaf{nodeBase: nodeBase{tree: tree}}
}

func (l *pleaf) isLeaf() bool {
	return true
}

// search returns the index of the first key not lower than key and whether
// it is an exact match.
func (l *pleaf) search(key []byte) (int, bool) {
	i := sort.Search(len(l.keys), func(i int) bool {
		return bytes.Compare(l.keys[i], key) >= 0
	})
	return i, i < len(l.keys) && bytes.Equal(l.keys[i], key)
}

func (l *pleaf) save() (uint64, error) {
	if !l.modified {
		return 0, nil
	}

	pos, err := l.tree.log.append(kindLeaf, encodeLeaf(l.gen, l.keys, l.values))
	if err != nil {
		return 0, err
	}

	l.pos = pos
	l.modified = false
	l.tree.nodesSaved++
	l.tree.touch(l)

	return pos, nil
}

func (l *pleaf) insert(idx int, key []byte, valuePos uint64) error {
	l.keys = insertAt(l.keys, idx, key)
	l.values = insertAt(l.values, idx, valuePos)

	l.tree.setModified(l)

	if len(l.keys) > l.tree.nodeSize {
		return l.split()
	}
	return nil
}

func (l *pleaf) update(idx int, valuePos uint64) {
	l.values[idx] = valuePos
	l.tree.setModified(l)
}

func (l *pleaf) split() error {
	mid := len(l.keys) / 2

	right := newLeaf(l.tree)
	right.keys = append([][]byte(nil), l.keys[mid:]...)
	right.values = append([]uint64(nil), l.values[mid:]...)

	l.keys = l.keys[:mid:mid]
	l.values = l.values[:mid:mid]

	return l.parent.insertChild(l.ref, right.keys[0], right)
}

func (l *pleaf) minKeys() int {
	return l.tree.nodeSize / 2
}

func (l *pleaf) remove(idx int) error {
	l.keys = removeAt(l.keys, idx)
	l.values = removeAt(l.values, idx)

	l.tree.setModified(l)

	return l.rebalance()
}

// rebalance restores the minimum occupancy of l, borrowing an entry from a
// sibling leaf when possible and merging with one otherwise.
func (l *pleaf) rebalance() error {
	if len(l.keys) >= l.minKeys() {
		return nil
	}

	parent := l.parent

	idx := parent.indexOf(l.ref)
	if idx < 0 {
		return ErrIllegalState
	}

	var left, right *pleaf
	var ok bool

	if idx > 0 {
		sibling, err := parent.children[idx-1].resolve()
		if err != nil {
			return err
		}
		left, ok = sibling.(*pleaf)
		if !ok {
			return ErrCorruptedData
		}

		if len(left.keys) > l.minKeys() {
			last := len(left.keys) - 1

			l.keys = insertAt(l.keys, 0, left.keys[last])
			l.values = insertAt(l.values, 0, left.values[last])

			left.keys = left.keys[:last]
			left.values = left.values[:last]

			parent.splits[idx-1] = l.keys[0]

			l.tree.setModified(left)
			l.tree.setModified(l)

			return nil
		}
	}

	if idx < len(parent.children)-1 {
		sibling, err := parent.children[idx+1].resolve()
		if err != nil {
			return err
		}
		right, ok = sibling.(*pleaf)
		if !ok {
			return ErrCorruptedData
		}

		if len(right.keys) > l.minKeys() {
			l.keys = append(l.keys, right.keys[0])
			l.values = append(l.values, right.values[0])

			right.keys = removeAt(right.keys, 0)
			right.values = removeAt(right.values, 0)

			parent.splits[idx] = right.keys[0]

			l.tree.setModified(right)
			l.tree.setModified(l)

			return nil
		}
	}

	if left != nil {
		left.keys = append(left.keys, l.keys...)
		left.values = append(left.values, l.values...)

		parent.splits = removeAt(parent.splits, idx-1)
		parent.children = removeAt(parent.children, idx)

		l.tree.setModified(left)
		l.tree.setRemoved(l)

		return parent.rebalance()
	}

	if right != nil {
		l.keys = append(l.keys, right.keys...)
		l.values = append(l.values, right.values...)

		parent.splits = removeAt(parent.splits, idx)
		parent.children = removeAt(parent.children, idx+1)

		l.tree.setModified(l)
		l.tree.setRemoved(right)

		return parent.rebalance()
	}

	return nil
}
