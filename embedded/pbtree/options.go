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
	"fmt"
	"os"

	"github.com/treehaus/treebase/embedded/logger"
)

const (
	DefaultNodeSize  = 32
	MinNodeSize      = 3
	DefaultCacheSize = 10

	DefaultFileMode                  = os.FileMode(0644)
	DefaultAppendableWriteBufferSize = 4096
)

type Options struct {
	logger logger.Logger

	// zero means DefaultNodeSize for a new log and the stored size for an
	// existing one
	nodeSize  int
	cacheSize int
	readOnly  bool

	fileMode           os.FileMode
	appWriteBufferSize int

	// state supplied by the root-pointer owner
	rootPos       uint64
	keyCount      uint64
	updateCounter uint64

	metricsEnabled bool
}

func DefaultOptions() *Options {
	return &Options{
		logger:             logger.NewMemoryLogger(),
		cacheSize:          DefaultCacheSize,
		fileMode:           DefaultFileMode,
		appWriteBufferSize: DefaultAppendableWriteBufferSize,
		metricsEnabled:     true,
	}
}

func (opts *Options) Validate() error {
	if opts == nil {
		return fmt.Errorf("%w: nil options", ErrInvalidOptions)
	}

	if opts.logger == nil {
		return fmt.Errorf("%w: invalid Logger", ErrInvalidOptions)
	}

	if opts.nodeSize != 0 && opts.nodeSize < MinNodeSize {
		return fmt.Errorf("%w: invalid NodeSize, it must be at least %d", ErrInvalidOptions, MinNodeSize)
	}

	if opts.cacheSize < 1 {
		return fmt.Errorf("%w: invalid CacheSize", ErrInvalidOptions)
	}

	if opts.appWriteBufferSize <= 0 {
		return fmt.Errorf("%w: invalid appendable write buffer size", ErrInvalidOptions)
	}

	if opts.rootPos == 0 && opts.keyCount > 0 {
		return fmt.Errorf("%w: KeyCount requires a RootPos", ErrInvalidOptions)
	}
	return nil
}

func (opts *Options) WithLogger(logger logger.Logger) *Options {
	opts.logger = logger
	return opts
}

func (opts *Options) WithNodeSize(nodeSize int) *Options {
	opts.nodeSize = nodeSize
	return opts
}

func (opts *Options) WithCacheSize(cacheSize int) *Options {
	opts.cacheSize = cacheSize
	return opts
}

func (opts *Options) WithReadOnly(readOnly bool) *Options {
	opts.readOnly = readOnly
	return opts
}

func (opts *Options) WithFileMode(fileMode os.FileMode) *Options {
	opts.fileMode = fileMode
	return opts
}

func (opts *Options) WithAppWriteBufferSize(size int) *Options {
	opts.appWriteBufferSize = size
	return opts
}

// WithRootPos sets the offset of the root node record to open the tree at.
// Zero opens an empty tree.
func (opts *Options) WithRootPos(rootPos uint64) *Options {
	opts.rootPos = rootPos
	return opts
}

func (opts *Options) WithKeyCount(keyCount uint64) *Options {
	opts.keyCount = keyCount
	return opts
}

func (opts *Options) WithUpdateCounter(updateCounter uint64) *Options {
	opts.updateCounter = updateCounter
	return opts
}

func (opts *Options) WithMetricsEnabled(enabled bool) *Options {
	opts.metricsEnabled = enabled
	return opts
}
