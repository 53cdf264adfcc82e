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
	"fmt"

	"github.com/treehaus/treebase/embedded/container"
)

type IteratorOptions struct {
	// Start and Stop bound the iteration, both inclusive. A nil bound leaves
	// that side open.
	Start   []byte
	Stop    []byte
	Reverse bool
	// Checker, when set, is called before every entry is produced.
	Checker func() error
}

func (opts *IteratorOptions) validate() error {
	if opts.Start != nil && opts.Stop != nil && bytes.Compare(opts.Start, opts.Stop) > 0 {
		return fmt.Errorf("%w: start key is greater than stop key", ErrIllegalArguments)
	}
	return nil
}

type iteratorFrame struct {
	node *pnode
	idx  int
}

// Iterator scans a key range in order. It is invalidated by any mutation of
// the tree, after which Next fails with ErrIllegalState.
type Iterator struct {
	tree      *PBTree
	opts      IteratorOptions
	mutations uint64

	stack *container.Stack[*iteratorFrame]
	leaf  *pleaf
	idx   int

	seeked bool
	done   bool
	closed bool
}

func (t *PBTree) NewIterator(opts IteratorOptions) (*Iterator, error) {
	if err := t.checkReadable(); err != nil {
		return nil, err
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Iterator{
		tree:      t,
		opts:      opts,
		mutations: t.mutations,
		stack:     container.NewStack[*iteratorFrame](8),
	}, nil
}

// Next returns the next key in the range and its current value.
func (it *Iterator) Next() (key []byte, value []byte, err error) {
	if it.closed {
		return nil, nil, ErrAlreadyClosed
	}

	if it.tree.mutations != it.mutations {
		return nil, nil, fmt.Errorf("%w: tree modified during iteration", ErrIllegalState)
	}

	if it.opts.Checker != nil {
		if err := it.opts.Checker(); err != nil {
			return nil, nil, err
		}
	}

	if it.done {
		return nil, nil, ErrNoMoreEntries
	}

	if !it.seeked {
		if err := it.seek(); err != nil {
			return nil, nil, err
		}
		it.seeked = true
	}

	for it.idx < 0 || it.idx >= len(it.leaf.keys) {
		ok, err := it.nextLeaf()
		if err != nil {
			return nil, nil, err
		}

		if !ok {
			it.done = true
			return nil, nil, ErrNoMoreEntries
		}
	}

	k := it.leaf.keys[it.idx]
	vpos := it.leaf.values[it.idx]

	if !it.opts.Reverse && it.opts.Stop != nil && bytes.Compare(k, it.opts.Stop) > 0 ||
		it.opts.Reverse && it.opts.Start != nil && bytes.Compare(k, it.opts.Start) < 0 {
		it.done = true
		return nil, nil, ErrNoMoreEntries
	}

	if it.opts.Reverse {
		it.idx--
	} else {
		it.idx++
	}

	value, _, _, err = it.tree.log.readValue(vpos)
	if err != nil {
		return nil, nil, err
	}

	return append([]byte(nil), k...), value, nil
}

func (it *Iterator) seek() error {
	it.stack.Reset()

	bound := it.opts.Start
	if it.opts.Reverse {
		bound = it.opts.Stop
	}

	n := it.tree.root

	for {
		var idx int

		switch {
		case bound != nil:
			idx = n.childIndex(bound)
		case it.opts.Reverse:
			idx = len(n.children) - 1
		}

		it.stack.Push(&iteratorFrame{node: n, idx: idx})

		child, err := n.children[idx].resolve()
		if err != nil {
			return err
		}

		if l, ok := child.(*pleaf); ok {
			it.leaf = l

			switch {
			case bound == nil && it.opts.Reverse:
				it.idx = len(l.keys) - 1
			case bound == nil:
				it.idx = 0
			case it.opts.Reverse:
				i, found := l.search(bound)
				if !found {
					i--
				}
				it.idx = i
			default:
				it.idx, _ = l.search(bound)
			}

			return nil
		}

		n = child.(*pnode)
	}
}

// nextLeaf moves to the adjacent leaf in iteration order.
func (it *Iterator) nextLeaf() (bool, error) {
	for it.stack.Len() > 0 {
		top, _ := it.stack.Peek()

		if it.opts.Reverse {
			top.idx--
		} else {
			top.idx++
		}

		if top.idx < 0 || top.idx >= len(top.node.children) {
			it.stack.Pop()
			continue
		}

		return true, it.descend(top.node.children[top.idx])
	}
	return false, nil
}

func (it *Iterator) descend(ref *childRef) error {
	for {
		child, err := ref.resolve()
		if err != nil {
			return err
		}

		if l, ok := child.(*pleaf); ok {
			it.leaf = l

			if it.opts.Reverse {
				it.idx = len(l.keys) - 1
			} else {
				it.idx = 0
			}
			return nil
		}

		n := child.(*pnode)

		idx := 0
		if it.opts.Reverse {
			idx = len(n.children) - 1
		}

		it.stack.Push(&iteratorFrame{node: n, idx: idx})
		ref = n.children[idx]
	}
}

func (it *Iterator) Close() error {
	if it.closed {
		return ErrAlreadyClosed
	}

	it.closed = true
	it.stack.Reset()
	it.leaf = nil

	return nil
}
