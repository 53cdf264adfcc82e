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
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treehaus/treebase/embedded/appendable"
	"github.com/treehaus/treebase/embedded/appendable/memory"
	"github.com/treehaus/treebase/embedded/appendable/mocked"
	"github.com/treehaus/treebase/embedded/logger"
)

func newTestTree(t *testing.T, nodeSize, cacheSize int) (*PBTree, appendable.Appendable) {
	app := memory.New()

	tree, err := OpenWith(app, DefaultOptions().
		WithNodeSize(nodeSize).
		WithCacheSize(cacheSize).
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	return tree, app
}

// reopenTestTree opens a second tree on the same log, at the last saved root
// of tree.
func reopenTestTree(t *testing.T, app appendable.Appendable, tree *PBTree, cacheSize int) *PBTree {
	reopened, err := OpenWith(app, DefaultOptions().
		WithCacheSize(cacheSize).
		WithRootPos(tree.RootPos()).
		WithKeyCount(tree.KeyCount()).
		WithUpdateCounter(tree.UpdateCounter()).
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	return reopened
}

// requireValidTree checks the shape of the whole tree: uniform leaf depth,
// key order and separator bounds, fan-out limits and parent links.
func requireValidTree(t *testing.T, tree *PBTree) {
	t.Helper()

	leafDepth := -1
	keys := uint64(0)

	var check func(n treeNode, depth int, lo, hi []byte)

	check = func(n treeNode, depth int, lo, hi []byte) {
		switch n := n.(type) {
		case *pleaf:
			if leafDepth < 0 {
				leafDepth = depth
			}
			require.Equal(t, leafDepth, depth)

			require.Len(t, n.values, len(n.keys))
			require.LessOrEqual(t, len(n.keys), tree.nodeSize)

			if len(tree.root.children) > 1 {
				require.GreaterOrEqual(t, len(n.keys), tree.nodeSize/2)
			}

			for i, k := range n.keys {
				if i > 0 {
					require.Negative(t, bytes.Compare(n.keys[i-1], k))
				}
				if lo != nil {
					require.GreaterOrEqual(t, bytes.Compare(k, lo), 0)
				}
				if hi != nil {
					require.Negative(t, bytes.Compare(k, hi))
				}
			}

			keys += uint64(len(n.keys))
		case *pnode:
			require.Len(t, n.splits, len(n.children)-1)
			require.LessOrEqual(t, len(n.children), tree.nodeSize)

			if n != tree.root {
				require.GreaterOrEqual(t, len(n.children), (tree.nodeSize+1)/2)
			}

			for i, ref := range n.children {
				require.Same(t, n, ref.parent)

				child, err := ref.resolve()
				require.NoError(t, err)
				require.Same(t, n, child.base().parent)

				clo, chi := lo, hi
				if i > 0 {
					clo = n.splits[i-1]
				}
				if i < len(n.splits) {
					chi = n.splits[i]
				}

				check(child, depth+1, clo, chi)
			}
		}
	}

	check(tree.root, 0, nil, nil)

	require.Equal(t, tree.KeyCount(), keys)
}

func TestOpenEmptyTree(t *testing.T) {
	tree, app := newTestTree(t, 0, DefaultCacheSize)

	require.Equal(t, DefaultNodeSize, tree.Meta().NodeSize)
	require.Zero(t, tree.KeyCount())
	require.Zero(t, tree.RootPos())
	require.True(t, tree.IsModified())

	_, err := tree.Get([]byte("key"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	size, err := app.Size()
	require.NoError(t, err)
	require.EqualValues(t, recordOverhead+preambleSize, size)

	depth, err := tree.Depth()
	require.NoError(t, err)
	require.Equal(t, 2, depth)

	requireValidTree(t, tree)
}

func TestOpenWithInvalidArguments(t *testing.T) {
	_, err := OpenWith(nil, DefaultOptions())
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, err = OpenWith(memory.New(), nil)
	require.ErrorIs(t, err, ErrInvalidOptions)

	_, err = OpenWith(memory.New(), DefaultOptions().WithReadOnly(true))
	require.ErrorIs(t, err, ErrIllegalState)

	_, err = OpenWith(memory.New(), DefaultOptions().WithRootPos(100))
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, err = Open(filepath.Join(t.TempDir(), "tree"), DefaultOptions().WithCacheSize(0))
	require.ErrorIs(t, err, ErrInvalidOptions)

	_, err = Open(filepath.Join(t.TempDir(), "missing"), DefaultOptions().WithReadOnly(true))
	require.Error(t, err)
}

func TestNodeSizeIsFixedAtCreation(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	_, _, _, err := tree.Add([]byte("key"), []byte("value"))
	require.NoError(t, err)

	_, err = tree.Save()
	require.NoError(t, err)

	_, err = OpenWith(app, DefaultOptions().WithNodeSize(8).WithRootPos(tree.RootPos()))
	require.ErrorIs(t, err, ErrIllegalArguments)

	reopened := reopenTestTree(t, app, tree, DefaultCacheSize)
	require.Equal(t, 4, reopened.Meta().NodeSize)
	require.Equal(t, tree.ID(), reopened.ID())
}

func TestCorruptedRoot(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	_, _, _, err := tree.Add([]byte("key"), []byte("value"))
	require.NoError(t, err)

	rootPos, err := tree.Save()
	require.NoError(t, err)

	size, err := app.Size()
	require.NoError(t, err)

	leafPos := tree.root.children[0].pos
	valuePos := tree.root.children[0].node.(*pleaf).values[0]

	for _, pos := range []uint64{leafPos, valuePos, rootPos + 1, uint64(size) + 10} {
		_, err := OpenWith(app, DefaultOptions().WithRootPos(pos).WithMetricsEnabled(false))
		require.ErrorIs(t, err, ErrCorruptedData)
	}
}

func TestChildRefWithoutNode(t *testing.T) {
	tree, _ := newTestTree(t, 4, DefaultCacheSize)

	ref := newChildRef(tree, tree.root, 0, nil)

	_, err := ref.resolve()
	require.ErrorIs(t, err, ErrCorruptedData)

	pos, err := ref.save()
	require.NoError(t, err)
	require.Zero(t, pos)
}

func TestIllegalKeys(t *testing.T) {
	tree, _ := newTestTree(t, 4, DefaultCacheSize)

	_, _, _, err := tree.Add(nil, []byte("value"))
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, _, _, err = tree.Add(make([]byte, MaxKeySize+1), []byte("value"))
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, err = tree.Get(nil)
	require.ErrorIs(t, err, ErrIllegalArguments)

	_, _, err = tree.Remove(nil)
	require.ErrorIs(t, err, ErrIllegalArguments)

	err = tree.Copy([]byte("a"), nil)
	require.ErrorIs(t, err, ErrKeyNotFound)

	_, _, _, err = tree.Add(make([]byte, MaxKeySize), nil)
	require.NoError(t, err)

	value, err := tree.Get(make([]byte, MaxKeySize))
	require.NoError(t, err)
	require.Empty(t, value)
}

// ten keys with a fan-out of four do not fit in a single leaf
func TestScenarioSplitAndReload(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	for i := 1; i <= 10; i++ {
		_, hadPrev, keyCount, err := tree.Add([]byte(fmt.Sprintf("%d", i)), []byte(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
		require.False(t, hadPrev)
		require.EqualValues(t, i, keyCount)
	}

	rootPos, err := tree.Save()
	require.NoError(t, err)
	require.NotZero(t, rootPos)
	require.Equal(t, rootPos, tree.RootPos())

	reopened := reopenTestTree(t, app, tree, DefaultCacheSize)

	for i := 1; i <= 10; i++ {
		value, err := reopened.Get([]byte(fmt.Sprintf("%d", i)))
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("v%d", i)), value)
	}

	leaves := 0
	err = reopened.Walk(func(info NodeInfo) error {
		if info.Leaf {
			leaves++
			require.LessOrEqual(t, info.Entries, 4)
		}
		require.False(t, info.Modified)
		require.NotZero(t, info.Pos)
		return nil
	})
	require.NoError(t, err)
	require.Greater(t, leaves, 1)

	requireValidTree(t, reopened)
}

func TestScenarioVersionHistory(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	for _, v := range []string{"a", "b", "c"} {
		_, _, _, err := tree.Add([]byte("x"), []byte(v))
		require.NoError(t, err)

		_, err = tree.Save()
		require.NoError(t, err)

		_, err = tree.Advance()
		require.NoError(t, err)
	}

	reopened := reopenTestTree(t, app, tree, DefaultCacheSize)

	it, err := reopened.History([]byte("x"), nil)
	require.NoError(t, err)

	var values []string
	var ts []uint64

	for {
		tv, err := it.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		require.NoError(t, err)

		values = append(values, string(tv.Value))
		ts = append(ts, tv.Ts)
	}

	require.Equal(t, []string{"c", "b", "a"}, values)
	require.Equal(t, []uint64{2, 1, 0}, ts)
	require.Equal(t, 3, it.Consumed())
}

func TestScenarioRemove(t *testing.T) {
	tree, _ := newTestTree(t, 4, DefaultCacheSize)

	prev, removed, err := tree.Remove([]byte("never-added"))
	require.NoError(t, err)
	require.False(t, removed)
	require.Nil(t, prev)
	require.Zero(t, tree.KeyCount())

	for i := 0; i < 5; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%d", i)), []byte(fmt.Sprintf("value%d", i)))
		require.NoError(t, err)
	}

	prev, removed, err = tree.Remove([]byte("key3"))
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, []byte("value3"), prev)
	require.EqualValues(t, 4, tree.KeyCount())

	_, err = tree.Get([]byte("key3"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	has, err := tree.Has([]byte("key3"))
	require.NoError(t, err)
	require.False(t, has)

	has, err = tree.Has([]byte("key2"))
	require.NoError(t, err)
	require.True(t, has)

	requireValidTree(t, tree)
}

func TestAddSameValueWritesNothing(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	_, _, keyCount, err := tree.Add([]byte("k"), []byte("v"))
	require.NoError(t, err)
	require.EqualValues(t, 1, keyCount)

	size, err := app.Size()
	require.NoError(t, err)

	prev, hadPrev, keyCount, err := tree.Add([]byte("k"), []byte("v"))
	require.NoError(t, err)
	require.True(t, hadPrev)
	require.Equal(t, []byte("v"), prev)
	require.EqualValues(t, 1, keyCount)

	size2, err := app.Size()
	require.NoError(t, err)
	require.Equal(t, size, size2)

	it, err := tree.History([]byte("k"), nil)
	require.NoError(t, err)

	_, err = it.Next()
	require.NoError(t, err)

	_, err = it.Next()
	require.ErrorIs(t, err, ErrNoMoreEntries)

	prev, hadPrev, keyCount, err = tree.Add([]byte("k"), []byte("v2"))
	require.NoError(t, err)
	require.True(t, hadPrev)
	require.Equal(t, []byte("v"), prev)
	require.EqualValues(t, 1, keyCount)
}

func TestKeyCount(t *testing.T) {
	tree, app := newTestTree(t, 5, 3)

	rnd := rand.New(rand.NewSource(1))
	expected := make(map[string]string)

	for i := 0; i < 3000; i++ {
		key := fmt.Sprintf("key%04d", rnd.Intn(400))

		if rnd.Intn(3) == 0 {
			_, removed, err := tree.Remove([]byte(key))
			require.NoError(t, err)

			_, existed := expected[key]
			require.Equal(t, existed, removed)

			delete(expected, key)
		} else {
			value := fmt.Sprintf("value%d", rnd.Intn(5))

			prev, hadPrev, keyCount, err := tree.Add([]byte(key), []byte(value))
			require.NoError(t, err)

			old, existed := expected[key]
			require.Equal(t, existed, hadPrev)
			if existed {
				require.Equal(t, []byte(old), prev)
			}

			expected[key] = value
			require.EqualValues(t, len(expected), keyCount)
		}

		require.EqualValues(t, len(expected), tree.KeyCount())

		if i%500 == 499 {
			_, err := tree.Save()
			require.NoError(t, err)

			requireValidTree(t, tree)
		}
	}

	_, err := tree.Save()
	require.NoError(t, err)

	reopened := reopenTestTree(t, app, tree, 2)
	requireValidTree(t, reopened)

	for k, v := range expected {
		value, err := reopened.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, []byte(v), value)
	}
}

func TestCopy(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	err := tree.Copy([]byte("missing"), []byte("b"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Zero(t, tree.KeyCount())

	_, _, _, err = tree.Add([]byte("a"), []byte("v1"))
	require.NoError(t, err)

	err = tree.Copy([]byte("a"), []byte("b"))
	require.NoError(t, err)
	require.EqualValues(t, 2, tree.KeyCount())

	value, err := tree.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	_, _, _, err = tree.Add([]byte("a"), []byte("v2"))
	require.NoError(t, err)

	value, err = tree.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	value, err = tree.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	t.Run("copy of a copy references the original record", func(t *testing.T) {
		l, idx, found, err := tree.find([]byte("b"))
		require.NoError(t, err)
		require.True(t, found)

		bRec, err := tree.log.readValueRecord(l.values[idx])
		require.NoError(t, err)
		require.NotZero(t, bRec.refPos)

		err = tree.Copy([]byte("b"), []byte("c"))
		require.NoError(t, err)

		l, idx, found, err = tree.find([]byte("c"))
		require.NoError(t, err)
		require.True(t, found)

		cRec, err := tree.log.readValueRecord(l.values[idx])
		require.NoError(t, err)
		require.Equal(t, bRec.refPos, cRec.refPos)

		value, err := tree.Get([]byte("c"))
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), value)
	})

	t.Run("copy onto an existing key extends its history", func(t *testing.T) {
		_, _, _, err := tree.Add([]byte("d"), []byte("x"))
		require.NoError(t, err)

		keyCount := tree.KeyCount()

		err = tree.Copy([]byte("a"), []byte("d"))
		require.NoError(t, err)
		require.Equal(t, keyCount, tree.KeyCount())

		it, err := tree.History([]byte("d"), nil)
		require.NoError(t, err)

		tv, err := it.Next()
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), tv.Value)

		tv, err = it.Next()
		require.NoError(t, err)
		require.Equal(t, []byte("x"), tv.Value)

		_, err = it.Next()
		require.ErrorIs(t, err, ErrNoMoreEntries)
	})

	_, err = tree.Save()
	require.NoError(t, err)

	reopened := reopenTestTree(t, app, tree, DefaultCacheSize)

	for k, v := range map[string]string{"a": "v2", "b": "v1", "c": "v1", "d": "v2"} {
		value, err := reopened.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, []byte(v), value)
	}
}

func TestLeafCapacity(t *testing.T) {
	for _, nodeSize := range []int{3, 4, 5, 8} {
		t.Run(fmt.Sprintf("nodeSize=%d", nodeSize), func(t *testing.T) {
			tree, _ := newTestTree(t, nodeSize, DefaultCacheSize)

			rnd := rand.New(rand.NewSource(int64(nodeSize)))
			perm := rnd.Perm(500)

			for _, i := range perm {
				_, _, _, err := tree.Add([]byte(fmt.Sprintf("%05d", i)), []byte("v"))
				require.NoError(t, err)
			}

			requireValidTree(t, tree)

			for _, i := range perm[:450] {
				_, removed, err := tree.Remove([]byte(fmt.Sprintf("%05d", i)))
				require.NoError(t, err)
				require.True(t, removed)
			}

			requireValidTree(t, tree)

			for _, i := range perm[450:] {
				_, removed, err := tree.Remove([]byte(fmt.Sprintf("%05d", i)))
				require.NoError(t, err)
				require.True(t, removed)
			}

			requireValidTree(t, tree)
			require.Zero(t, tree.KeyCount())

			depth, err := tree.Depth()
			require.NoError(t, err)
			require.Equal(t, 2, depth)
		})
	}
}

func TestSaveOnlyRewritesChangedPath(t *testing.T) {
	tree, app := newTestTree(t, 4, DefaultCacheSize)

	for i := 0; i < 200; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%03d", i)), []byte("v"))
		require.NoError(t, err)
	}

	rootPos, err := tree.Save()
	require.NoError(t, err)
	require.NotZero(t, rootPos)
	require.False(t, tree.IsModified())

	size, err := app.Size()
	require.NoError(t, err)

	pos, err := tree.Save()
	require.NoError(t, err)
	require.Zero(t, pos)
	require.Equal(t, rootPos, tree.RootPos())

	size2, err := app.Size()
	require.NoError(t, err)
	require.Equal(t, size, size2)

	depth, err := tree.Depth()
	require.NoError(t, err)
	require.Greater(t, depth, 2)

	_, _, _, err = tree.Add([]byte("key100"), []byte("v2"))
	require.NoError(t, err)

	newRootPos, err := tree.Save()
	require.NoError(t, err)
	require.Greater(t, newRootPos, rootPos)
	require.Equal(t, depth, tree.nodesSaved)

	// the previous version of the tree is still readable
	old, err := OpenWith(app, DefaultOptions().
		WithRootPos(rootPos).
		WithKeyCount(200).
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	value, err := old.Get([]byte("key100"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}

func TestSmallCache(t *testing.T) {
	tree, app := newTestTree(t, 3, 1)

	rnd := rand.New(rand.NewSource(7))
	expected := make(map[string]string)

	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("key%d", rnd.Intn(300))

		switch rnd.Intn(4) {
		case 0:
			_, _, err := tree.Remove([]byte(key))
			require.NoError(t, err)
			delete(expected, key)
		case 1:
			to := fmt.Sprintf("key%d", rnd.Intn(300))

			err := tree.Copy([]byte(key), []byte(to))
			if _, ok := expected[key]; !ok {
				require.ErrorIs(t, err, ErrKeyNotFound)
				continue
			}
			require.NoError(t, err)
			expected[to] = expected[key]
		default:
			value := fmt.Sprintf("value%d", i)

			_, _, _, err := tree.Add([]byte(key), []byte(value))
			require.NoError(t, err)
			expected[key] = value
		}

		if i%100 == 99 {
			_, err := tree.Save()
			require.NoError(t, err)
		}
	}

	require.EqualValues(t, len(expected), tree.KeyCount())

	for k, v := range expected {
		value, err := tree.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, []byte(v), value)
	}

	_, err := tree.Save()
	require.NoError(t, err)

	require.ErrorIs(t, tree.SetCacheSize(0), ErrIllegalArguments)
	require.NoError(t, tree.SetCacheSize(50))
	require.Equal(t, 50, tree.Meta().CacheSize)

	reopened := reopenTestTree(t, app, tree, 1)
	requireValidTree(t, reopened)

	for k, v := range expected {
		value, err := reopened.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, []byte(v), value)
	}
}

func TestReadOnlyTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree")

	tree, err := Open(path, DefaultOptions().WithNodeSize(4).WithMetricsEnabled(false))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%d", i)), []byte(fmt.Sprintf("value%d", i)))
		require.NoError(t, err)
	}

	rootPos, err := tree.Save()
	require.NoError(t, err)

	require.NoError(t, tree.Flush())
	require.NoError(t, tree.Sync())
	require.NoError(t, tree.Close())

	ro, err := Open(path, DefaultOptions().
		WithReadOnly(true).
		WithRootPos(rootPos).
		WithKeyCount(20).
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	require.True(t, ro.Meta().ReadOnly)
	require.Equal(t, 4, ro.Meta().NodeSize)

	value, err := ro.Get([]byte("key7"))
	require.NoError(t, err)
	require.Equal(t, []byte("value7"), value)

	_, _, _, err = ro.Add([]byte("key7"), []byte("other"))
	require.ErrorIs(t, err, ErrReadOnly)

	_, _, err = ro.Remove([]byte("key7"))
	require.ErrorIs(t, err, ErrReadOnly)

	err = ro.Copy([]byte("key7"), []byte("key8"))
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = ro.Save()
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = ro.Advance()
	require.ErrorIs(t, err, ErrReadOnly)

	require.NoError(t, ro.Flush())
	require.NoError(t, ro.Sync())
	require.NoError(t, ro.Close())
}

func TestClosedTree(t *testing.T) {
	l := logger.NewMemoryLogger()

	tree, err := OpenWith(memory.New(), DefaultOptions().WithLogger(l))
	require.NoError(t, err)

	_, _, _, err = tree.Add([]byte("key"), []byte("value"))
	require.NoError(t, err)

	require.NoError(t, tree.Close())
	require.ErrorIs(t, tree.Close(), ErrAlreadyClosed)

	require.NotEmpty(t, l.GetLogs())

	_, err = tree.Get([]byte("key"))
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, err = tree.Has([]byte("key"))
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, _, _, err = tree.Add([]byte("key"), []byte("value"))
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, _, err = tree.Remove([]byte("key"))
	require.ErrorIs(t, err, ErrAlreadyClosed)

	err = tree.Copy([]byte("key"), []byte("key2"))
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, err = tree.Save()
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, err = tree.History([]byte("key"), nil)
	require.ErrorIs(t, err, ErrAlreadyClosed)

	_, err = tree.NewIterator(IteratorOptions{})
	require.ErrorIs(t, err, ErrAlreadyClosed)

	require.ErrorIs(t, tree.Walk(func(NodeInfo) error { return nil }), ErrAlreadyClosed)
	require.ErrorIs(t, tree.Flush(), ErrAlreadyClosed)
	require.ErrorIs(t, tree.Sync(), ErrAlreadyClosed)
	require.ErrorIs(t, tree.SetCacheSize(1), ErrAlreadyClosed)
}

func TestGenerations(t *testing.T) {
	tree, _ := newTestTree(t, 4, DefaultCacheSize)

	_, _, _, err := tree.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)

	_, err = tree.Save()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = tree.Advance()
		require.NoError(t, err)
	}
	require.EqualValues(t, 2, tree.UpdateCounter())

	_, _, _, err = tree.Add([]byte("a"), []byte("2"))
	require.NoError(t, err)

	_, err = tree.Advance()
	require.NoError(t, err)

	_, _, _, err = tree.Add([]byte("b"), []byte("3"))
	require.NoError(t, err)

	err = tree.Walk(func(info NodeInfo) error {
		require.True(t, info.Modified)
		require.EqualValues(t, 2, info.Gen)
		return nil
	})
	require.NoError(t, err)

	_, prevPos, updatedAt, err := tree.GetWithPrevPos([]byte("a"))
	require.NoError(t, err)
	require.NotZero(t, prevPos)
	require.EqualValues(t, 2, updatedAt)

	_, prevPos, updatedAt, err = tree.GetWithPrevPos([]byte("b"))
	require.NoError(t, err)
	require.Zero(t, prevPos)
	require.EqualValues(t, 3, updatedAt)
}

func TestAppendFailures(t *testing.T) {
	injectedErr := errors.New("injected error")

	mem := memory.New()
	app := mocked.Wrap(mem)

	tree, err := OpenWith(app, DefaultOptions().WithNodeSize(4).WithMetricsEnabled(false))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%02d", i)), []byte("value"))
		require.NoError(t, err)
	}

	app.AppendFn = func(bs []byte) (int64, int, error) {
		return 0, 0, injectedErr
	}

	_, _, _, err = tree.Add([]byte("new"), []byte("value"))
	require.ErrorIs(t, err, injectedErr)
	require.EqualValues(t, 50, tree.KeyCount())

	err = tree.Copy([]byte("key01"), []byte("new"))
	require.ErrorIs(t, err, injectedErr)

	// fail in the middle of a save
	appended := 0
	app.AppendFn = func(bs []byte) (int64, int, error) {
		if appended == 3 {
			return 0, 0, injectedErr
		}
		appended++
		return mem.Append(bs)
	}

	_, err = tree.Save()
	require.ErrorIs(t, err, injectedErr)
	require.True(t, tree.IsModified())
	require.Zero(t, tree.RootPos())

	app.AppendFn = mem.Append

	rootPos, err := tree.Save()
	require.NoError(t, err)
	require.NotZero(t, rootPos)

	reopened := reopenTestTree(t, mem, tree, DefaultCacheSize)
	requireValidTree(t, reopened)

	for i := 0; i < 50; i++ {
		value, err := reopened.Get([]byte(fmt.Sprintf("key%02d", i)))
		require.NoError(t, err)
		require.Equal(t, []byte("value"), value)
	}

	_, err = reopened.Get([]byte("new"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestReadFailures(t *testing.T) {
	injectedErr := errors.New("injected error")

	tree, mem := newTestTree(t, 4, DefaultCacheSize)

	for i := 0; i < 50; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%02d", i)), []byte("value"))
		require.NoError(t, err)
	}

	rootPos, err := tree.Save()
	require.NoError(t, err)

	app := mocked.Wrap(mem)

	reopened, err := OpenWith(app, DefaultOptions().
		WithRootPos(rootPos).
		WithKeyCount(50).
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	app.ReadAtFn = func(bs []byte, off int64) (int, error) {
		return 0, injectedErr
	}

	_, err = reopened.Get([]byte("key10"))
	require.ErrorIs(t, err, injectedErr)

	app.ReadAtFn = func(bs []byte, off int64) (int, error) {
		return 0, io.EOF
	}

	_, err = reopened.Get([]byte("key10"))
	require.ErrorIs(t, err, ErrCorruptedData)

	app.ReadAtFn = mem.ReadAt

	value, err := reopened.Get([]byte("key10"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)
}

func TestCloseFailures(t *testing.T) {
	injectedErr1 := errors.New("injected error 1")
	injectedErr2 := errors.New("injected error 2")

	app := mocked.Wrap(memory.New())

	tree, err := OpenWith(app, DefaultOptions().WithMetricsEnabled(false))
	require.NoError(t, err)

	app.FlushFn = func() error { return injectedErr1 }
	app.CloseFn = func() error { return injectedErr2 }

	err = tree.Close()
	require.ErrorIs(t, err, injectedErr1)
	require.ErrorIs(t, err, injectedErr2)
}

func TestOpenFileTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree")

	tree, err := Open(path, DefaultOptions().WithNodeSize(8))
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, _, _, err := tree.Add([]byte(fmt.Sprintf("key%03d", i)), []byte(fmt.Sprintf("value%d", i)))
		require.NoError(t, err)
	}

	rootPos, err := tree.Save()
	require.NoError(t, err)

	_, err = tree.Advance()
	require.NoError(t, err)

	meta := tree.Meta()
	require.NoError(t, tree.Close())

	reopened, err := Open(path, DefaultOptions().
		WithRootPos(rootPos).
		WithKeyCount(meta.KeyCount).
		WithUpdateCounter(meta.UpdateCounter),
	)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, meta.ID, reopened.ID())
	require.EqualValues(t, 100, reopened.KeyCount())
	require.EqualValues(t, 1, reopened.UpdateCounter())

	for i := 0; i < 100; i++ {
		value, err := reopened.Get([]byte(fmt.Sprintf("key%03d", i)))
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("value%d", i)), value)
	}

	requireValidTree(t, reopened)
}
