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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheCreation(t *testing.T) {
	_, err := NewLRUCache(0)
	require.ErrorIs(t, err, ErrIllegalArguments)

	cacheSize := 10
	cache, err := NewLRUCache(cacheSize)
	require.NoError(t, err)
	require.Equal(t, cacheSize, cache.Size())

	_, err = cache.Get(nil)
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, _, err = cache.Put(nil, nil)
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, err = cache.Pop(nil)
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, _, err = cache.evict()
	require.ErrorIs(t, err, ErrIllegalState)

	for i := 0; i < cacheSize; i++ {
		k, v, err := cache.Put(i, 10*i)
		require.NoError(t, err)
		require.Nil(t, k)
		require.Nil(t, v)
	}

	// touch the first half so that the second half becomes the eviction target
	for i := 0; i < cacheSize/2; i++ {
		_, err := cache.Get(i)
		require.NoError(t, err)
	}

	for i := cacheSize; i < cacheSize+cacheSize/2; i++ {
		k, v, err := cache.Put(i, 10*i)
		require.NoError(t, err)
		require.Equal(t, i-cacheSize/2, k)
		require.Equal(t, 10*(i-cacheSize/2), v)
	}

	for i := 0; i < cacheSize/2; i++ {
		v, err := cache.Get(i)
		require.NoError(t, err)
		require.Equal(t, 10*i, v)
	}

	for i := cacheSize / 2; i < cacheSize; i++ {
		_, err = cache.Get(i)
		require.ErrorIs(t, err, ErrKeyNotFound)
	}

	require.Equal(t, cacheSize, cache.EntriesCount())
}

func TestPutRefreshesEntry(t *testing.T) {
	cache, err := NewLRUCache(2)
	require.NoError(t, err)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("a", 3)

	k, v, err := cache.Put("c", 4)
	require.NoError(t, err)
	require.Equal(t, "b", k)
	require.Equal(t, 2, v)

	v, err = cache.Get("a")
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestOnEvictAndResize(t *testing.T) {
	cache, err := NewLRUCache(4)
	require.NoError(t, err)

	var evicted []interface{}
	cache.SetOnEvict(func(k, v interface{}) {
		evicted = append(evicted, k)
	})

	for i := 0; i < 5; i++ {
		cache.Put(i, i)
	}
	require.Equal(t, []interface{}{0}, evicted)

	require.ErrorIs(t, cache.Resize(0), ErrIllegalArguments)

	require.NoError(t, cache.Resize(2))
	require.Equal(t, []interface{}{0, 1, 2}, evicted)
	require.Equal(t, 2, cache.Size())
	require.Equal(t, 2, cache.EntriesCount())

	_, err = cache.Pop(3)
	require.NoError(t, err)
	require.Equal(t, []interface{}{0, 1, 2}, evicted)

	_, err = cache.Pop(3)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestApply(t *testing.T) {
	cache, err := NewLRUCache(10)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		cache.Put(i, 10*i)
	}
	cache.Get(0)

	var keys []interface{}
	err = cache.Apply(func(k, v interface{}) error {
		keys = append(keys, k)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, keys, 10)
	require.Equal(t, 1, keys[0])
	require.Equal(t, 0, keys[9])

	err = cache.Apply(func(k, v interface{}) error {
		return errors.New("expected error")
	})
	require.Error(t, err)
}
