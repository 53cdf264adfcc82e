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

type treeNode interface {
	base() *nodeBase
	isLeaf() bool
	save() (uint64, error)
}

// nodeBase holds the state shared by leaves and internal nodes.
type nodeBase struct {
	tree   *PBTree
	parent *pnode
	ref    *childRef

	// offset of the persisted version of the node, 0 if it was never saved
	pos uint64
	// generation at which the node was first modified after its last save
	gen      uint64
	modified bool
}

func (b *nodeBase) base() *nodeBase {
	return b
}

func (b *nodeBase) attach(parent *pnode, ref *childRef) {
	b.parent = parent
	b.ref = ref
}

type pnode struct {
	nodeBase

	splits   [][]byte
	children []*childRef
}

var _ treeNode = (*pnode)(nil)

func newNode(tree *PBTree) *pnode {
	return &pnode{nodeBase: nodeBase{tree: tree}}
}

func (n *pnode) isLeaf() bool {
	return false
}

// childIndex returns the index of the child whose range contains key.
func (n *pnode) childIndex(key []byte) int {
	return sort.Search(len(n.splits), func(i int) bool {
		return bytes.Compare(key, n.splits[i]) < 0
	})
}

func (n *pnode) indexOf(ref *childRef) int {
	for i, c := range n.children {
		if c == ref {
			return i
		}
	}
	return -1
}

func (n *pnode) save() (uint64, error) {
	for i := len(n.children) - 1; i >= 0; i-- {
		pos, err := n.children[i].save()
		if err != nil {
			return 0, err
		}

		if pos != 0 && !n.modified {
			n.tree.setModified(n)
		}
	}

	if !n.modified {
		return 0, nil
	}

	children := make([]uint64, len(n.children))
	for i, c := range n.children {
		children[i] = c.pos
	}

	pos, err := n.tree.log.append(kindNode, encodeNode(n.gen, n.splits, children))
	if err != nil {
		return 0, err
	}

	n.pos = pos
	n.modified = false
	n.tree.nodesSaved++
	n.tree.touch(n)

	return pos, nil
}

// insertChild places child right after the edge ref, separated by sep, and
// splits the node if it overflows.
func (n *pnode) insertChild(ref *childRef, sep []byte, child treeNode) error {
	idx := n.indexOf(ref)
	if idx < 0 {
		return ErrIllegalState
	}

	n.splits = insertAt(n.splits, idx, sep)
	n.children = insertAt(n.children, idx+1, newChildRef(n.tree, n, 0, child))

	n.tree.setModified(child)

	if len(n.children) > n.tree.nodeSize {
		return n.split()
	}
	return nil
}

func (n *pnode) split() error {
	mid := (len(n.children) + 1) / 2
	sep := n.splits[mid-1]

	right := newNode(n.tree)
	right.splits = append([][]byte(nil), n.splits[mid:]...)
	right.children = append([]*childRef(nil), n.children[mid:]...)

	for _, c := range right.children {
		c.setParent(right)
	}

	n.splits = n.splits[:mid-1:mid-1]
	n.children = n.children[:mid:mid]

	if n.parent != nil {
		return n.parent.insertChild(n.ref, sep, right)
	}

	root := newNode(n.tree)
	root.splits = [][]byte{sep}
	root.children = []*childRef{
		newChildRef(n.tree, root, n.pos, n),
		newChildRef(n.tree, root, 0, right),
	}

	n.tree.root = root
	n.tree.setModified(n)
	n.tree.setModified(right)

	return nil
}

func (n *pnode) minChildren() int {
	return (n.tree.nodeSize + 1) / 2
}

// rebalance restores the minimum fan-out of n after one of its children was
// merged away, borrowing from or merging with a sibling, and propagates the
// check upwards. The root collapses when it is left with a single internal
// node as child.
func (n *pnode) rebalance() error {
	if n.parent == nil {
		if len(n.children) != 1 {
			return nil
		}

		child, err := n.children[0].resolve()
		if err != nil {
			return err
		}

		node, ok := child.(*pnode)
		if !ok {
			return nil
		}

		n.tree.setRemoved(n)
		node.attach(nil, nil)
		n.tree.root = node
		n.tree.setModified(node)

		return nil
	}

	if len(n.children) >= n.minChildren() {
		return nil
	}

	parent := n.parent
	idx := parent.indexOf(n.ref)
	if idx < 0 {
		return ErrIllegalState
	}

	var left, right *pnode
	var ok bool

	if idx > 0 {
		sibling, err := parent.children[idx-1].resolve()
		if err != nil {
			return err
		}
		left, ok = sibling.(*pnode)
		if !ok {
			return ErrCorruptedData
		}

		if len(left.children) > n.minChildren() {
			last := len(left.children) - 1

			moved := left.children[last]
			moved.setParent(n)

			n.splits = insertAt(n.splits, 0, parent.splits[idx-1])
			n.children = insertAt(n.children, 0, moved)

			parent.splits[idx-1] = left.splits[last-1]

			left.splits = left.splits[:last-1]
			left.children = left.children[:last]

			n.tree.setModified(left)
			n.tree.setModified(n)

			return nil
		}
	}

	if idx < len(parent.children)-1 {
		sibling, err := parent.children[idx+1].resolve()
		if err != nil {
			return err
		}
		right, ok = sibling.(*pnode)
		if !ok {
			return ErrCorruptedData
		}

		if len(right.children) > n.minChildren() {
			moved := right.children[0]
			moved.setParent(n)

			n.splits = append(n.splits, parent.splits[idx])
			n.children = append(n.children, moved)

			parent.splits[idx] = right.splits[0]

			right.splits = removeAt(right.splits, 0)
			right.children = removeAt(right.children, 0)

			n.tree.setModified(right)
			n.tree.setModified(n)

			return nil
		}
	}

	if left != nil {
		left.splits = append(left.splits, parent.splits[idx-1])
		left.splits = append(left.splits, n.splits...)

		for _, c := range n.children {
			c.setParent(left)
		}
		left.children = append(left.children, n.children...)

		parent.splits = removeAt(parent.splits, idx-1)
		parent.children = removeAt(parent.children, idx)

		n.tree.setModified(left)
		n.tree.setRemoved(n)

		return parent.rebalance()
	}

	if right != nil {
		n.splits = append(n.splits, parent.splits[idx])
		n.splits = append(n.splits, right.splits...)

		for _, c := range right.children {
			c.setParent(n)
		}
		n.children = append(n.children, right.children...)

		parent.splits = removeAt(parent.splits, idx)
		parent.children = removeAt(parent.children, idx+1)

		n.tree.setModified(n)
		n.tree.setRemoved(right)

		return parent.rebalance()
	}

	return nil
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}
