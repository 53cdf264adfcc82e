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


package treebase

import (
	"fmt"

	c "github.com/treehaus/treebase/cmd/helper"
	"github.com/treehaus/treebase/cmd/version"
	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/multierr"
	"github.com/treehaus/treebase/embedded/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "treebase"

type commandline struct {
	config c.Options
}

func NewCommandLine() *commandline {
	return &commandline{}
}

// ConfigChain loads flags, environment and config file before running post.
func (cl *commandline) ConfigChain(post func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) (err error) {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err = cl.config.InitConfig(appName); err != nil {
			return err
		}
		if post != nil {
			return post(cmd, args)
		}
		return nil
	}
}

func (cl *commandline) Register(rootCmd *cobra.Command) *cobra.Command {
	cl.set(rootCmd)
	cl.get(rootCmd)
	cl.del(rootCmd)
	cl.copy(rootCmd)
	cl.history(rootCmd)
	cl.scan(rootCmd)
	cl.stats(rootCmd)
	cl.inspect(rootCmd)
	cl.verify(rootCmd)
	rootCmd.AddCommand(version.VersionCmd())
	return rootCmd
}

func (cl *commandline) storeOptions(cmd *cobra.Command, readOnly bool) (*store.Options, logger.Logger, error) {
	log, err := logger.NewLogger(&logger.Options{
		Name:      appName + " ",
		Level:     logger.ParseLogLevel(viper.GetString("log-level")),
		LogFormat: viper.GetString("log-format"),
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: '%s'", err, viper.GetString("log-format"))
	}

	opts := store.DefaultOptions().
		WithLogger(log).
		WithNodeSize(viper.GetInt("node-size")).
		WithCacheSize(viper.GetInt("cache-size")).
		WithReadOnly(readOnly || viper.GetBool("read-only"))

	if err := opts.Validate(); err != nil {
		log.Close()
		return nil, nil, err
	}

	return opts, log, nil
}

// withStore runs fn with the store opened, closing it afterwards. Read-only
// commands never create a store.
func (cl *commandline) withStore(
	readOnly bool,
	fn func(cmd *cobra.Command, args []string, st *store.Store) error,
) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		opts, log, err := cl.storeOptions(cmd, readOnly)
		if err != nil {
			return err
		}

		st, err := store.Open(viper.GetString("dir"), opts)
		if err != nil {
			log.Close()
			return err
		}

		err = fn(cmd, args, st)

		return multierr.NewMultiErr().
			Append(err).
			Append(st.Close()).
			Append(log.Close()).
			Reduce()
	}
}
