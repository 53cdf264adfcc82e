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

import "errors"

type TimedValue struct {
	Value []byte
	Ts    uint64
}

// HistoryIterator walks the versions of a single key, newest first. It is
// not invalidated by later mutations of the tree: value records are never
// rewritten.
type HistoryIterator struct {
	log     *recordLog
	checker func() error

	curr     *TimedValue
	nextPos  uint64
	consumed int
}

// History returns an iterator over the versions of key. A key that was never
// set yields no entries. When checker is not nil it is called before every
// entry is produced and any error it returns aborts the iteration.
func (t *PBTree) History(key []byte, checker func() error) (*HistoryIterator, error) {
	it := &HistoryIterator{
		log:     t.log,
		checker: checker,
	}

	value, prevPos, ts, err := t.GetWithPrevPos(key)
	if errors.Is(err, ErrKeyNotFound) {
		return it, nil
	}
	if err != nil {
		return nil, err
	}

	it.curr = &TimedValue{Value: value, Ts: ts}
	it.nextPos = prevPos

	return it, nil
}

func (it *HistoryIterator) Next() (*TimedValue, error) {
	if it.checker != nil {
		if err := it.checker(); err != nil {
			return nil, err
		}
	}

	if it.curr == nil && it.nextPos != 0 {
		value, prevPos, ts, err := it.log.readValue(it.nextPos)
		if err != nil {
			return nil, err
		}

		it.curr = &TimedValue{Value: value, Ts: ts}
		it.nextPos = prevPos
	}

	if it.curr == nil {
		return nil, ErrNoMoreEntries
	}

	tv := it.curr
	it.curr = nil
	it.consumed++

	return tv, nil
}

// Consumed returns the number of entries returned so far.
func (it *HistoryIterator) Consumed() int {
	return it.consumed
}
