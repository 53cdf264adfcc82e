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
	"fmt"
	"os"

	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/pbtree"
)

const DefaultFileMode = os.FileMode(0644)
const DefaultDirMode = os.FileMode(0755)
const DefaultWriteBufferSize = 4096

const treeLogFilename = "tree"
const commitLogFilename = "commit"

const formatVersion = 1

const (
	metaLogKind       = "log_kind"
	metaFormatVersion = "format_version"
)

type Options struct {
	logger logger.Logger

	readOnly bool
	synced   bool
	fileMode os.FileMode
	dirMode  os.FileMode

	writeBufferSize int

	// options below only matter when the tree log is created
	nodeSize int

	cacheSize      int
	metricsEnabled bool
}

func DefaultOptions() *Options {
	return &Options{
		logger:          logger.NewSimpleLogger("treebase ", os.Stderr),
		readOnly:        false,
		synced:          true,
		fileMode:        DefaultFileMode,
		dirMode:         DefaultDirMode,
		writeBufferSize: DefaultWriteBufferSize,
		cacheSize:       pbtree.DefaultCacheSize,
		metricsEnabled:  true,
	}
}

func (opts *Options) Validate() error {
	if opts == nil {
		return fmt.Errorf("%w: nil options", ErrInvalidOptions)
	}

	if opts.logger == nil {
		return fmt.Errorf("%w: invalid Logger", ErrInvalidOptions)
	}

	if opts.writeBufferSize <= 0 {
		return fmt.Errorf("%w: invalid WriteBufferSize", ErrInvalidOptions)
	}

	if opts.nodeSize != 0 && opts.nodeSize < pbtree.MinNodeSize {
		return fmt.Errorf("%w: invalid NodeSize, it must be at least %d", ErrInvalidOptions, pbtree.MinNodeSize)
	}

	if opts.cacheSize < 1 {
		return fmt.Errorf("%w: invalid CacheSize", ErrInvalidOptions)
	}

	return nil
}

func (opts *Options) treeOptions() *pbtree.Options {
	return pbtree.DefaultOptions().
		WithLogger(opts.logger).
		WithNodeSize(opts.nodeSize).
		WithCacheSize(opts.cacheSize).
		WithReadOnly(opts.readOnly).
		WithMetricsEnabled(opts.metricsEnabled)
}

func (opts *Options) WithLogger(logger logger.Logger) *Options {
	opts.logger = logger
	return opts
}

func (opts *Options) WithReadOnly(readOnly bool) *Options {
	opts.readOnly = readOnly
	return opts
}

func (opts *Options) WithSynced(synced bool) *Options {
	opts.synced = synced
	return opts
}

func (opts *Options) WithFileMode(fileMode os.FileMode) *Options {
	opts.fileMode = fileMode
	return opts
}

func (opts *Options) WithDirMode(dirMode os.FileMode) *Options {
	opts.dirMode = dirMode
	return opts
}

func (opts *Options) WithWriteBufferSize(size int) *Options {
	opts.writeBufferSize = size
	return opts
}

// WithNodeSize sets the node size of a new store. Zero keeps the size
// recorded in an existing tree log.
func (opts *Options) WithNodeSize(nodeSize int) *Options {
	opts.nodeSize = nodeSize
	return opts
}

func (opts *Options) WithCacheSize(cacheSize int) *Options {
	opts.cacheSize = cacheSize
	return opts
}

func (opts *Options) WithMetricsEnabled(enabled bool) *Options {
	opts.metricsEnabled = enabled
	return opts
}
