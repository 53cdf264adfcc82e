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

import "github.com/spf13/cobra"

func (cl *commandline) NewRootCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "treebase",
		Short: "CLI for treebase - a persistent, versioned key/value tree",
		Long: `CLI for treebase - a persistent, versioned key/value tree.

Every update is appended to the tree log and committed, so older values of a
key stay readable through the history command.

Environment variables:
  TREEBASE_DIR=./data
  TREEBASE_NODE_SIZE=32
  TREEBASE_CACHE_SIZE=10
  TREEBASE_READ_ONLY=false
  TREEBASE_LOG_FORMAT=text
  TREEBASE_LOG_LEVEL=warn`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: cl.ConfigChain(nil),
	}

	if err := cl.configureFlags(cmd); err != nil {
		return nil, err
	}
	return cl.Register(cmd), nil
}
