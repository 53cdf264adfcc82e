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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/treehaus/treebase/embedded"
	"github.com/treehaus/treebase/embedded/appendable"
	"github.com/treehaus/treebase/embedded/appendable/singleapp"
	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/multierr"
	"github.com/treehaus/treebase/embedded/pbtree"
)

var (
	ErrIllegalArguments   = embedded.ErrIllegalArguments
	ErrInvalidOptions     = fmt.Errorf("%w: invalid options", ErrIllegalArguments)
	ErrAlreadyClosed      = embedded.ErrAlreadyClosed
	ErrKeyNotFound        = embedded.ErrKeyNotFound
	ErrNoMoreEntries      = embedded.ErrNoMoreEntries
	ErrReadOnly           = embedded.ErrReadOnly
	ErrCorruptedData      = embedded.ErrCorruptedData
	ErrInvalidCommitEntry = fmt.Errorf("%w: invalid commit entry", ErrCorruptedData)
	ErrNoCommitEntryFound = errors.New("no commit entry found")
)

// Store keeps a persistent tree together with the log of its commits, so
// the last committed root can be found again when the store is reopened.
// All methods are safe for concurrent use.
type Store struct {
	path string

	treeApp   appendable.Appendable
	commitApp appendable.Appendable

	tree   *pbtree.PBTree
	logger logger.Logger

	lastCommit *CommitEntry

	readOnly bool
	closed   bool

	mutex sync.Mutex
}

type KV struct {
	Key   []byte
	Value []byte
}

type Stats struct {
	Meta       pbtree.Meta
	Depth      int
	Pending    bool
	LastCommit *CommitEntry

	TreeLogSize   int64
	CommitLogSize int64
}

// VerifyReport summarizes a full scan of the tree log.
type VerifyReport struct {
	Records map[string]int
	Bytes   int64
}

// Open opens the store kept in the directory at path, creating it when it
// does not exist and the store is not read-only.
func Open(path string, opts *Options) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	finfo, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) || opts.readOnly {
			return nil, err
		}

		if err := os.MkdirAll(path, opts.dirMode); err != nil {
			return nil, err
		}
	} else if !finfo.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is not a directory", ErrIllegalArguments, path)
	}

	treeApp, err := openLog(path, treeLogFilename, opts)
	if err != nil {
		return nil, err
	}

	commitApp, err := openLog(path, commitLogFilename, opts)
	if err != nil {
		treeApp.Close()
		return nil, err
	}

	st, err := OpenWith(treeApp, commitApp, opts)
	if err != nil {
		return nil, multierr.NewMultiErr().
			Append(err).
			Append(treeApp.Close()).
			Append(commitApp.Close()).
			Reduce()
	}

	st.path = path

	return st, nil
}

// openLog opens one of the store logs, checking that an existing file was
// created for the same role.
func openLog(path, name string, opts *Options) (appendable.Appendable, error) {
	md, err := appendable.NewMetadata(nil)
	if err != nil {
		return nil, err
	}

	md.Put(metaLogKind, []byte(name))
	md.PutInt(metaFormatVersion, formatVersion)

	appOpts := singleapp.DefaultOptions().
		WithReadOnly(opts.readOnly).
		WithSynced(opts.synced).
		WithCreateIfNotExists(!opts.readOnly).
		WithFileMode(opts.fileMode).
		WithWriteBufferSize(opts.writeBufferSize).
		WithMetadata(md.Bytes())

	app, err := singleapp.Open(filepath.Join(path, name), appOpts)
	if err != nil {
		return nil, err
	}

	stored, err := appendable.NewMetadata(app.Metadata())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("%w: log '%s': %v", ErrCorruptedData, name, err)
	}

	kind, _ := stored.Get(metaLogKind)
	version, _ := stored.GetInt(metaFormatVersion)

	if string(kind) != name || version != formatVersion {
		app.Close()
		return nil, fmt.Errorf("%w: '%s' is not a %s log of format version %d", ErrCorruptedData, name, name, formatVersion)
	}

	return app, nil
}

// OpenWith opens a store on top of the given logs. On success the store
// owns both logs, on failure they are left open.
func OpenWith(treeApp, commitApp appendable.Appendable, opts *Options) (*Store, error) {
	if treeApp == nil || commitApp == nil {
		return nil, ErrIllegalArguments
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	lastCommit, _, err := findLastCommitEntry(treeApp, commitApp)
	if err != nil && !errors.Is(err, ErrNoCommitEntryFound) {
		return nil, err
	}

	treeOpts := opts.treeOptions()

	if lastCommit != nil {
		treeOpts.
			WithRootPos(lastCommit.RootPos).
			WithKeyCount(lastCommit.KeyCount).
			WithUpdateCounter(lastCommit.UpdateCounter + 1)
	}

	tree, err := pbtree.OpenWith(treeApp, treeOpts)
	if err != nil {
		return nil, err
	}

	if lastCommit != nil {
		opts.logger.Infof("store: last commit found, root at %d (keys=%d, updateCounter=%d)",
			lastCommit.RootPos, lastCommit.KeyCount, lastCommit.UpdateCounter)
	} else {
		opts.logger.Infof("store: no commit found, starting from an empty tree")
	}

	return &Store{
		treeApp:    treeApp,
		commitApp:  commitApp,
		tree:       tree,
		logger:     opts.logger,
		lastCommit: lastCommit,
		readOnly:   opts.readOnly,
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	return s.tree.Get(key)
}

func (s *Store) Set(key, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	_, _, _, err := s.tree.Add(key, value)
	return err
}

// Delete removes key, failing with ErrKeyNotFound when it is not present.
func (s *Store) Delete(key []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	_, removed, err := s.tree.Remove(key)
	if err != nil {
		return err
	}

	if !removed {
		return ErrKeyNotFound
	}
	return nil
}

// Copy makes toKey an alias of the current value of fromKey.
func (s *Store) Copy(fromKey, toKey []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	return s.tree.Copy(fromKey, toKey)
}

// History returns up to limit versions of key, newest first. A limit of 0
// returns them all.
func (s *Store) History(key []byte, limit int) ([]*pbtree.TimedValue, error) {
	if limit < 0 {
		return nil, ErrIllegalArguments
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	it, err := s.tree.History(key, nil)
	if err != nil {
		return nil, err
	}

	var values []*pbtree.TimedValue

	for limit == 0 || len(values) < limit {
		tv, err := it.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return nil, err
		}

		values = append(values, tv)
	}

	return values, nil
}

// Scan returns up to limit entries with keys in [start, stop]. Nil bounds
// are open and a limit of 0 returns every entry in range.
func (s *Store) Scan(start, stop []byte, reverse bool, limit int) ([]*KV, error) {
	if limit < 0 {
		return nil, ErrIllegalArguments
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	it, err := s.tree.NewIterator(pbtree.IteratorOptions{
		Start:   start,
		Stop:    stop,
		Reverse: reverse,
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var entries []*KV

	for limit == 0 || len(entries) < limit {
		k, v, err := it.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		if err != nil {
			return nil, err
		}

		entries = append(entries, &KV{Key: k, Value: v})
	}

	return entries, nil
}

// Commit saves pending changes and records the new root in the commit log.
// When nothing changed since the last commit, that commit is returned.
func (s *Store) Commit() (*CommitEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	if s.readOnly {
		return nil, ErrReadOnly
	}

	return s.commit()
}

// pending reports whether the tree holds changes not yet recorded in the
// commit log, including a root saved by a commit that failed afterwards.
func (s *Store) pending() bool {
	return s.lastCommit == nil ||
		s.tree.IsModified() ||
		s.tree.RootPos() != s.lastCommit.RootPos
}

func (s *Store) commit() (*CommitEntry, error) {
	if !s.pending() {
		return s.lastCommit, nil
	}

	if _, err := s.tree.Save(); err != nil {
		return nil, err
	}

	if err := s.tree.Flush(); err != nil {
		return nil, err
	}

	if err := s.tree.Sync(); err != nil {
		return nil, err
	}

	treeSize, err := s.treeApp.Size()
	if err != nil {
		return nil, err
	}

	e := &CommitEntry{
		RootPos:       s.tree.RootPos(),
		KeyCount:      s.tree.KeyCount(),
		UpdateCounter: s.tree.UpdateCounter(),
		TreeSize:      uint64(treeSize),
	}

	if s.lastCommit != nil {
		e.TreeOff = s.lastCommit.TreeSize
	}

	e.TreeChecksum, err = appendable.Checksum(s.treeApp, int64(e.TreeOff), int64(e.TreeSize-e.TreeOff))
	if err != nil {
		return nil, err
	}

	var buf [CommitEntrySize]byte
	putCommitEntry(e, buf[:])

	if _, _, err := s.commitApp.Append(buf[:]); err != nil {
		return nil, err
	}

	if err := s.commitApp.Flush(); err != nil {
		return nil, err
	}

	if err := s.commitApp.Sync(); err != nil {
		return nil, err
	}

	if _, err := s.tree.Advance(); err != nil {
		return nil, err
	}

	s.lastCommit = e

	s.logger.Infof("store: committed root at %d (keys=%d, updateCounter=%d)", e.RootPos, e.KeyCount, e.UpdateCounter)

	return e, nil
}

// LastCommit returns the last entry written to the commit log, nil if the
// store was never committed.
func (s *Store) LastCommit() *CommitEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.lastCommit
}

func (s *Store) Stats() (*Stats, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	depth, err := s.tree.Depth()
	if err != nil {
		return nil, err
	}

	treeLogSize, err := s.treeApp.Size()
	if err != nil {
		return nil, err
	}

	commitLogSize, err := s.commitApp.Size()
	if err != nil {
		return nil, err
	}

	return &Stats{
		Meta:          s.tree.Meta(),
		Depth:         depth,
		Pending:       s.tree.IsModified(),
		LastCommit:    s.lastCommit,
		TreeLogSize:   treeLogSize,
		CommitLogSize: commitLogSize,
	}, nil
}

// Walk visits the nodes of the current tree, see pbtree.PBTree.Walk.
func (s *Store) Walk(fn func(info pbtree.NodeInfo) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	return s.tree.Walk(fn)
}

// Verify reads the whole tree log checking the framing and checksum of
// every record. fn, when not nil, is called for each record.
func (s *Store) Verify(fn func(rec pbtree.RecordInfo) error) (*VerifyReport, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}

	if err := s.tree.Flush(); err != nil {
		return nil, err
	}

	report := &VerifyReport{Records: make(map[string]int)}

	err := pbtree.ScanRecords(s.treeApp, func(rec pbtree.RecordInfo) error {
		report.Records[rec.KindName()]++
		report.Bytes += int64(rec.Size)

		if fn != nil {
			return fn(rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Close commits pending changes, unless the store is read-only, and closes
// both logs.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}

	s.closed = true

	merr := multierr.NewMultiErr()

	if !s.readOnly {
		_, err := s.commit()
		merr.Append(err)
	}

	merr.Append(s.tree.Close())

	if !s.readOnly {
		merr.Append(s.commitApp.Sync())
	}

	merr.Append(s.commitApp.Close())

	return merr.Reduce()
}
