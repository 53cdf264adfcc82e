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

	"github.com/google/uuid"
	"github.com/treehaus/treebase/embedded"
	"github.com/treehaus/treebase/embedded/appendable"
	"github.com/treehaus/treebase/embedded/appendable/singleapp"
	"github.com/treehaus/treebase/embedded/cache"
	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/metrics"
	"github.com/treehaus/treebase/embedded/multierr"
)

var (
	ErrIllegalArguments = embedded.ErrIllegalArguments
	ErrInvalidOptions   = fmt.Errorf("%w: invalid options", ErrIllegalArguments)
	ErrAlreadyClosed    = embedded.ErrAlreadyClosed
	ErrKeyNotFound      = embedded.ErrKeyNotFound
	ErrIllegalState     = embedded.ErrIllegalState
	ErrNoMoreEntries    = embedded.ErrNoMoreEntries
	ErrReadOnly         = embedded.ErrReadOnly
	ErrCorruptedData    = embedded.ErrCorruptedData
)

// PBTree is a persistent copy-on-write B-tree stored in an append-only log.
//
// Mutations are applied to an in-memory tree whose nodes are loaded lazily
// from the log. Save appends a new record for every node that changed, or
// whose descendants changed, since the previous save; untouched subtrees are
// shared with earlier versions by offset. Every value update appends a value
// record linked to the previous version of the key, so the full history of a
// key stays reachable.
//
// The tree does not record where its root lives: the offset returned by Save
// has to be kept by the caller and passed back through Options.WithRootPos.
//
// A PBTree is not safe for concurrent use. Reads update the node cache, so
// even concurrent readers need external locking.
type PBTree struct {
	app appendable.Appendable
	log *recordLog

	id       uuid.UUID
	nodeSize int

	logger  logger.Logger
	metrics metrics.TreeMetrics

	root  *pnode
	cache *cache.LRUCache

	rootPos       uint64
	keyCount      uint64
	updateCounter uint64

	// incremented by every mutation, used to invalidate iterators
	mutations  uint64
	nodesSaved int

	readOnly bool
	closed   bool
}

// Meta describes the state of a tree.
type Meta struct {
	ID            uuid.UUID
	NodeSize      int
	CacheSize     int
	RootPos       uint64
	KeyCount      uint64
	UpdateCounter uint64
	ReadOnly      bool
}

// Open opens the tree stored in the file at path, creating it if needed.
func Open(path string, opts *Options) (*PBTree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	appOpts := singleapp.DefaultOptions().
		WithReadOnly(opts.readOnly).
		WithCreateIfNotExists(!opts.readOnly).
		WithFileMode(opts.fileMode).
		WithWriteBufferSize(opts.appWriteBufferSize)

	app, err := singleapp.Open(path, appOpts)
	if err != nil {
		return nil, err
	}

	t, err := OpenWith(app, opts)
	if err != nil {
		app.Close()
		return nil, err
	}
	return t, nil
}

// OpenWith opens a tree on top of app. The tree takes ownership of app and
// closes it on Close.
func OpenWith(app appendable.Appendable, opts *Options) (*PBTree, error) {
	if app == nil {
		return nil, ErrIllegalArguments
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p, err := readOrCreatePreamble(app, opts)
	if err != nil {
		return nil, err
	}

	m := metrics.NewNopTreeMetrics()
	if opts.metricsEnabled {
		m = metrics.NewPrometheusTreeMetrics(p.treeID.String())
	}

	nodeCache, err := cache.NewLRUCache(opts.cacheSize)
	if err != nil {
		return nil, err
	}

	t := &PBTree{
		app:           app,
		log:           newRecordLog(app, m),
		id:            p.treeID,
		nodeSize:      p.nodeSize,
		logger:        opts.logger,
		metrics:       m,
		cache:         nodeCache,
		rootPos:       opts.rootPos,
		keyCount:      opts.keyCount,
		updateCounter: opts.updateCounter,
		readOnly:      opts.readOnly,
	}

	nodeCache.SetOnEvict(t.unload)

	if err := t.load(); err != nil {
		return nil, err
	}

	m.SetCacheSize(opts.cacheSize)
	m.SetKeyCount(t.keyCount)
	m.SetUpdateCounter(t.updateCounter)
	m.SetRootPos(t.rootPos)

	t.logger.Infof("pbtree: tree %s opened (nodeSize=%d, rootPos=%d, keys=%d)", t.id, t.nodeSize, t.rootPos, t.keyCount)

	return t, nil
}

func readOrCreatePreamble(app appendable.Appendable, opts *Options) (*preamble, error) {
	size, err := app.Size()
	if err != nil {
		return nil, err
	}

	// the preamble makes sure no data record ever lives at offset 0
	if size == 0 {
		if opts.readOnly {
			return nil, fmt.Errorf("%w: empty log can not be opened in read-only mode", ErrIllegalState)
		}

		if opts.rootPos != 0 {
			return nil, fmt.Errorf("%w: root offset %d on an empty log", ErrIllegalArguments, opts.rootPos)
		}

		nodeSize := opts.nodeSize
		if nodeSize == 0 {
			nodeSize = DefaultNodeSize
		}

		p := &preamble{
			version:  preambleVersion,
			nodeSize: nodeSize,
			treeID:   uuid.New(),
		}

		off, err := newRecordLog(app, nil).append(kindPreamble, p.encode())
		if err != nil {
			return nil, err
		}
		if off != 0 {
			return nil, fmt.Errorf("%w: preamble written at offset %d", ErrIllegalState, off)
		}
		return p, nil
	}

	payload, err := newRecordLog(app, nil).readKind(0, kindPreamble)
	if err != nil {
		return nil, err
	}

	p, err := decodePreamble(payload)
	if err != nil {
		return nil, err
	}

	if opts.nodeSize != 0 && opts.nodeSize != p.nodeSize {
		return nil, fmt.Errorf("%w: node size %d does not match the stored node size %d",
			ErrIllegalArguments, opts.nodeSize, p.nodeSize)
	}
	return p, nil
}

// load materializes the root from rootPos. An empty tree is an internal node
// with a single empty leaf.
func (t *PBTree) load() error {
	if t.rootPos == 0 {
		t.root = newNode(t)
		t.root.children = []*childRef{newChildRef(t, t.root, 0, newLeaf(t))}
		t.setModified(t.root.children[0].node)
		return nil
	}

	n, err := t.decodeNode(t.rootPos)
	if err != nil {
		return err
	}

	root, ok := n.(*pnode)
	if !ok {
		return fmt.Errorf("%w: root at offset %d is not an internal node", ErrCorruptedData, t.rootPos)
	}

	t.root = root
	return nil
}

func (t *PBTree) loadNode(pos uint64) (treeNode, error) {
	if v, err := t.cache.Get(pos); err == nil {
		t.metrics.IncCacheHits()
		return v.(treeNode), nil
	}

	t.metrics.IncCacheMisses()

	return t.decodeNode(pos)
}

func (t *PBTree) decodeNode(pos uint64) (treeNode, error) {
	kind, payload, err := t.log.read(pos)
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindLeaf:
		gen, keys, values, err := decodeLeaf(payload)
		if err != nil {
			return nil, err
		}

		l := newLeaf(t)
		l.pos = pos
		l.gen = gen
		l.keys = keys
		l.values = values

		return l, nil
	case kindNode:
		gen, splits, children, err := decodeNode(payload)
		if err != nil {
			return nil, err
		}

		n := newNode(t)
		n.pos = pos
		n.gen = gen
		n.splits = splits
		n.children = make([]*childRef, len(children))

		for i, cpos := range children {
			n.children[i] = newChildRef(t, n, cpos, nil)
		}

		return n, nil
	}

	return nil, fmt.Errorf("%w: expected a node or leaf record at offset %d but found %s", ErrCorruptedData, pos, kindName(kind))
}

// touch marks a clean persisted node as recently used. Modified nodes and the
// root are kept resident regardless of the cache.
func (t *PBTree) touch(n treeNode) {
	b := n.base()
	if b.modified || b.pos == 0 || b.ref == nil {
		return
	}

	t.cache.Put(b.pos, n)
}

// unload drops an evicted node from its parent edge so that it is reloaded
// from the log on next access.
func (t *PBTree) unload(key, value interface{}) {
	t.metrics.IncCacheEvictions()

	n := value.(treeNode)
	b := n.base()

	if b.modified || b.ref == nil || b.ref.node != n {
		return
	}

	b.ref.node = nil
}

// setModified marks n and all of its ancestors as modified, pinning them
// in memory until the next save. Ancestors have to be rewritten anyway
// because they record the offsets of their children.
func (t *PBTree) setModified(n treeNode) {
	for {
		b := n.base()

		if !b.modified {
			b.modified = true
			b.gen = t.updateCounter

			if b.pos != 0 {
				t.cache.Pop(b.pos)
			}
		}

		if b.ref != nil {
			b.ref.node = n
		}

		if b.parent == nil {
			return
		}
		n = b.parent
	}
}

func (t *PBTree) isModified(n treeNode) bool {
	return n.base().modified
}

// setRemoved detaches a node that was merged into a sibling.
func (t *PBTree) setRemoved(n treeNode) {
	b := n.base()

	if b.pos != 0 {
		t.cache.Pop(b.pos)
	}

	b.modified = false
	b.parent = nil
	b.ref = nil
}

func (t *PBTree) checkReadable() error {
	if t.closed {
		return ErrAlreadyClosed
	}
	return nil
}

func (t *PBTree) checkWritable() error {
	if t.closed {
		return ErrAlreadyClosed
	}

	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func checkKey(key []byte) error {
	if key == nil {
		return fmt.Errorf("%w: nil key", ErrIllegalArguments)
	}

	if len(key) > MaxKeySize {
		return fmt.Errorf("%w: key is too large", ErrIllegalArguments)
	}
	return nil
}

// findLeaf descends from the root to the leaf whose range contains key.
func (t *PBTree) findLeaf(key []byte) (*pleaf, error) {
	n := t.root

	for {
		child, err := n.children[n.childIndex(key)].resolve()
		if err != nil {
			return nil, err
		}

		if l, ok := child.(*pleaf); ok {
			return l, nil
		}
		n = child.(*pnode)
	}
}

func (t *PBTree) find(key []byte) (l *pleaf, idx int, found bool, err error) {
	if err := checkKey(key); err != nil {
		return nil, 0, false, err
	}

	l, err = t.findLeaf(key)
	if err != nil {
		return nil, 0, false, err
	}

	idx, found = l.search(key)
	return l, idx, found, nil
}

// Get returns the current value of key.
func (t *PBTree) Get(key []byte) ([]byte, error) {
	value, _, _, err := t.GetWithPrevPos(key)
	return value, err
}

// GetWithPrevPos returns the current value of key together with the offset
// of its previous version (0 if none) and the generation it was written at.
func (t *PBTree) GetWithPrevPos(key []byte) (value []byte, prevPos uint64, updatedAt uint64, err error) {
	if err := t.checkReadable(); err != nil {
		return nil, 0, 0, err
	}

	l, idx, found, err := t.find(key)
	if err != nil {
		return nil, 0, 0, err
	}

	if !found {
		return nil, 0, 0, ErrKeyNotFound
	}

	return t.log.readValue(l.values[idx])
}

func (t *PBTree) Has(key []byte) (bool, error) {
	if err := t.checkReadable(); err != nil {
		return false, err
	}

	_, _, found, err := t.find(key)
	return found, err
}

// Add sets the value of key. Nothing is written when key already holds an
// equal value. It returns the previous value, whether there was one, and
// the resulting number of keys.
func (t *PBTree) Add(key, value []byte) (prev []byte, hadPrev bool, keyCount uint64, err error) {
	if err := t.checkWritable(); err != nil {
		return nil, false, 0, err
	}

	if value == nil {
		value = []byte{}
	}

	l, idx, found, err := t.find(key)
	if err != nil {
		return nil, false, 0, err
	}

	var lastPos uint64

	if found {
		lastPos = l.values[idx]

		prev, _, _, err = t.log.readValue(lastPos)
		if err != nil {
			return nil, false, 0, err
		}

		if bytes.Equal(prev, value) {
			return prev, true, t.keyCount, nil
		}
	}

	pos, err := t.log.writeValue(lastPos, t.updateCounter, value, 0)
	if err != nil {
		return nil, false, 0, err
	}

	t.mutations++

	if found {
		l.update(idx, pos)
		return prev, true, t.keyCount, nil
	}

	err = l.insert(idx, append([]byte(nil), key...), pos)
	if err != nil {
		return nil, false, 0, err
	}

	t.keyCount++
	t.metrics.SetKeyCount(t.keyCount)

	return nil, false, t.keyCount, nil
}

// Remove deletes key from the tree. Its value records are kept in the log.
// Removing an absent key is not an error: removed is false.
func (t *PBTree) Remove(key []byte) (prev []byte, removed bool, err error) {
	if err := t.checkWritable(); err != nil {
		return nil, false, err
	}

	l, idx, found, err := t.find(key)
	if err != nil {
		return nil, false, err
	}

	if !found {
		return nil, false, nil
	}

	prev, _, _, err = t.log.readValue(l.values[idx])
	if err != nil {
		return nil, false, err
	}

	t.mutations++

	if err := l.remove(idx); err != nil {
		return nil, false, err
	}

	t.keyCount--
	t.metrics.SetKeyCount(t.keyCount)

	return prev, true, nil
}

// Copy sets toKey to the current value of fromKey. The new version of
// toKey references the record holding the value instead of duplicating it,
// and later updates of fromKey do not affect it.
func (t *PBTree) Copy(fromKey, toKey []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}

	fl, fidx, found, err := t.find(fromKey)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, fromKey)
	}

	refPos := fl.values[fidx]

	l, idx, found, err := t.find(toKey)
	if err != nil {
		return err
	}

	var lastPos uint64
	if found {
		lastPos = l.values[idx]
	}

	pos, err := t.log.writeValue(lastPos, t.updateCounter, nil, refPos)
	if err != nil {
		return err
	}

	t.mutations++

	if found {
		l.update(idx, pos)
		return nil
	}

	err = l.insert(idx, append([]byte(nil), toKey...), pos)
	if err != nil {
		return err
	}

	t.keyCount++
	t.metrics.SetKeyCount(t.keyCount)

	return nil
}

// Save appends every pending node change to the log and returns the offset
// of the new root, or 0 when there was nothing to save.
func (t *PBTree) Save() (uint64, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}

	t.nodesSaved = 0

	pos, err := t.root.save()
	if err != nil {
		t.logger.Errorf("pbtree: tree %s could not be saved: %v", t.id, err)
		return 0, err
	}

	t.metrics.SetNodesSavedLastCycle(t.nodesSaved)

	if pos == 0 {
		return 0, nil
	}

	t.rootPos = pos
	t.metrics.SetRootPos(pos)

	t.logger.Debugf("pbtree: tree %s saved, %d nodes written, root at %d", t.id, t.nodesSaved, pos)

	return pos, nil
}

// Advance moves the tree to the next generation. Values and nodes written
// from now on are stamped with the new update counter.
func (t *PBTree) Advance() (uint64, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}

	t.updateCounter++
	t.metrics.SetUpdateCounter(t.updateCounter)

	return t.updateCounter, nil
}

func (t *PBTree) Flush() error {
	if err := t.checkReadable(); err != nil {
		return err
	}

	if t.readOnly {
		return nil
	}
	return t.app.Flush()
}

func (t *PBTree) Sync() error {
	if err := t.checkReadable(); err != nil {
		return err
	}

	if t.readOnly {
		return nil
	}
	return t.app.Sync()
}

// SetCacheSize changes the number of clean nodes kept in memory.
func (t *PBTree) SetCacheSize(size int) error {
	if err := t.checkReadable(); err != nil {
		return err
	}

	if err := t.cache.Resize(size); err != nil {
		return err
	}

	t.metrics.SetCacheSize(size)
	return nil
}

func (t *PBTree) KeyCount() uint64 {
	return t.keyCount
}

func (t *PBTree) UpdateCounter() uint64 {
	return t.updateCounter
}

// RootPos returns the offset of the last saved root, 0 if the tree was never
// saved.
func (t *PBTree) RootPos() uint64 {
	return t.rootPos
}

func (t *PBTree) ID() uuid.UUID {
	return t.id
}

func (t *PBTree) IsModified() bool {
	return t.isModified(t.root)
}

func (t *PBTree) Meta() Meta {
	return Meta{
		ID:            t.id,
		NodeSize:      t.nodeSize,
		CacheSize:     t.cache.Size(),
		RootPos:       t.rootPos,
		KeyCount:      t.keyCount,
		UpdateCounter: t.updateCounter,
		ReadOnly:      t.readOnly,
	}
}

// Close flushes and closes the underlying log. Unsaved changes are lost.
func (t *PBTree) Close() error {
	if t.closed {
		return ErrAlreadyClosed
	}

	t.closed = true

	merr := multierr.NewMultiErr()

	if !t.readOnly {
		merr.Append(t.app.Flush())
		merr.Append(t.app.Sync())
	}

	merr.Append(t.app.Close())

	if t.IsModified() {
		t.logger.Warningf("pbtree: tree %s closed with unsaved changes", t.id)
	}

	err := merr.Reduce()
	if err != nil && !errors.Is(err, ErrAlreadyClosed) {
		t.logger.Errorf("pbtree: tree %s closed with errors: %v", t.id, err)
	}
	return err
}
