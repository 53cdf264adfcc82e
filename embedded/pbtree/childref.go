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

import "fmt"

// childRef is the edge from an internal node to one of its children. pos is
// the offset of the child's last persisted record (0 until it is first
// saved); node is set while the child is resident. Clean children may be
// dropped from node by the tree cache at any time and are reloaded from pos
// on demand. Modified children stay resident until saved.
type childRef struct {
	tree   *PBTree
	parent *pnode
	pos    uint64
	node   treeNode
}

func newChildRef(tree *PBTree, parent *pnode, pos uint64, child treeNode) *childRef {
	ref := &childRef{
		tree:   tree,
		parent: parent,
		pos:    pos,
	}

	if child != nil {
		ref.node = child
		child.base().attach(parent, ref)
		tree.touch(child)
	}

	return ref
}

func (r *childRef) resolve() (treeNode, error) {
	if r.node != nil {
		r.tree.touch(r.node)
		return r.node, nil
	}

	if r.pos == 0 {
		return nil, fmt.Errorf("%w: child reference has neither a resident node nor an offset", ErrCorruptedData)
	}

	n, err := r.tree.loadNode(r.pos)
	if err != nil {
		return nil, err
	}

	n.base().attach(r.parent, r)
	r.node = n
	r.tree.touch(n)

	return n, nil
}

// save persists the resident child if it has pending changes and returns
// the new offset, or 0 when nothing was written.
func (r *childRef) save() (uint64, error) {
	if r.node == nil {
		return 0, nil
	}

	pos, err := r.node.save()
	if err != nil {
		return 0, err
	}

	if pos != 0 {
		r.pos = pos
	}
	return pos, nil
}

func (r *childRef) setParent(parent *pnode) {
	r.parent = parent

	if r.node != nil {
		r.node.base().parent = parent
	}
}
