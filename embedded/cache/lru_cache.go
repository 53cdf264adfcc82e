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

package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/treehaus/treebase/embedded"
)

var ErrIllegalArguments = embedded.ErrIllegalArguments
var ErrKeyNotFound = embedded.ErrKeyNotFound
var ErrIllegalState = embedded.ErrIllegalState

type EvictCallbackFunc func(key, value interface{})

// LRUCache keeps at most size entries, evicting the least recently used one
// when a new entry does not fit.
type LRUCache struct {
	data    map[interface{}]*entry
	lruList *list.List
	size    int

	onEvict EvictCallbackFunc

	mutex sync.Mutex
}

type entry struct {
	value interface{}
	order *list.Element
}

func NewLRUCache(size int) (*LRUCache, error) {
	if size < 1 {
		return nil, ErrIllegalArguments
	}

	return &LRUCache{
		data:    make(map[interface{}]*entry, size),
		lruList: list.New(),
		size:    size,
	}, nil
}

// SetOnEvict registers a callback invoked for every entry dropped because
// of capacity, either on Put or on Resize. It is not invoked by Pop.
func (c *LRUCache) SetOnEvict(onEvict EvictCallbackFunc) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.onEvict = onEvict
}

func (c *LRUCache) Resize(size int) error {
	if size < 1 {
		return ErrIllegalArguments
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.size = size

	for c.lruList.Len() > c.size {
		if _, _, err := c.evict(); err != nil {
			return err
		}
	}
	return nil
}

// Put inserts or refreshes key. When the insertion exceeds the capacity the
// evicted entry is returned.
func (c *LRUCache) Put(key interface{}, value interface{}) (rkey interface{}, rvalue interface{}, err error) {
	if key == nil || value == nil {
		return nil, nil, ErrIllegalArguments
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, ok := c.data[key]; ok {
		e.value = value
		c.lruList.MoveToBack(e.order)
		return nil, nil, nil
	}

	c.data[key] = &entry{
		value: value,
		order: c.lruList.PushBack(key),
	}

	if c.lruList.Len() > c.size {
		return c.evict()
	}
	return nil, nil, nil
}

func (c *LRUCache) evict() (rkey interface{}, rvalue interface{}, err error) {
	if c.lruList.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: evict requested in an empty cache", ErrIllegalState)
	}

	lruEntry := c.lruList.Front()
	rkey = lruEntry.Value
	rvalue = c.data[rkey].value

	delete(c.data, rkey)
	c.lruList.Remove(lruEntry)

	if c.onEvict != nil {
		c.onEvict(rkey, rvalue)
	}
	return rkey, rvalue, nil
}

// Get returns the value for key and marks it as the most recently used.
func (c *LRUCache) Get(key interface{}) (interface{}, error) {
	if key == nil {
		return nil, ErrIllegalArguments
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	c.lruList.MoveToBack(e.order)
	return e.value, nil
}

func (c *LRUCache) Pop(key interface{}) (interface{}, error) {
	if key == nil {
		return nil, ErrIllegalArguments
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	c.lruList.Remove(e.order)
	delete(c.data, key)
	return e.value, nil
}

func (c *LRUCache) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.size
}

func (c *LRUCache) EntriesCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.lruList.Len()
}

// Apply calls fun for every entry from least to most recently used.
func (c *LRUCache) Apply(fun func(k interface{}, v interface{}) error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for el := c.lruList.Front(); el != nil; el = el.Next() {
		if err := fun(el.Value, c.data[el.Value].value); err != nil {
			return err
		}
	}
	return nil
}
