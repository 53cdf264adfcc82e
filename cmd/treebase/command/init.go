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
	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/pbtree"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const DefaultDir = "./data"

func (cl *commandline) configureFlags(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("dir", DefaultDir, "directory holding the store")
	cmd.PersistentFlags().StringVar(&cl.config.CfgFn, "config", "", "config file (default paths are configs, /etc/treebase or $HOME. Default filename is treebase.toml)")
	cmd.PersistentFlags().Int("node-size", 0, "maximum number of keys per node, only used when the store is created (default 32)")
	cmd.PersistentFlags().Int("cache-size", pbtree.DefaultCacheSize, "number of clean nodes kept in memory")
	cmd.PersistentFlags().Bool("read-only", false, "open the store in read-only mode")
	cmd.PersistentFlags().String("log-format", logger.LogFormatText, "log format (text or json)")
	cmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn or error)")

	for _, name := range []string{"dir", "node-size", "cache-size", "read-only", "log-format", "log-level"} {
		if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
