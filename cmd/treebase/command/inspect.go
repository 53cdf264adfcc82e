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
	"strconv"

	c "github.com/treehaus/treebase/cmd/helper"
	"github.com/treehaus/treebase/embedded/pbtree"
	"github.com/treehaus/treebase/embedded/store"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
)

func (cl *commandline) stats(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tree and log statistics",
		Args:  cobra.NoArgs,
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			stats, err := st.Stats()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Tree ID", stats.Meta.ID.String()},
				{"Node size", strconv.Itoa(stats.Meta.NodeSize)},
				{"Cache size", strconv.Itoa(stats.Meta.CacheSize)},
				{"Keys", strconv.FormatUint(stats.Meta.KeyCount, 10)},
				{"Update counter", strconv.FormatUint(stats.Meta.UpdateCounter, 10)},
				{"Root offset", strconv.FormatUint(stats.Meta.RootPos, 10)},
				{"Depth", strconv.Itoa(stats.Depth)},
				{"Tree log size", c.FormatByteSize(stats.TreeLogSize)},
				{"Commit log size", c.FormatByteSize(stats.CommitLogSize)},
			}

			c.PrintTable(
				cmd.OutOrStdout(),
				[]string{"Property", "Value"},
				len(rows),
				func(i int) []string { return rows[i] },
				"Store "+st.Path(),
			)
			return nil
		}),
	}
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) inspect(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the nodes of the current tree, parents before children",
		Args:  cobra.NoArgs,
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			maxDepth, err := cmd.Flags().GetInt("max-depth")
			if err != nil {
				return err
			}

			var nodes []pbtree.NodeInfo

			err = st.Walk(func(info pbtree.NodeInfo) error {
				if maxDepth == 0 || info.Depth < maxDepth {
					nodes = append(nodes, info)
				}
				return nil
			})
			if err != nil {
				return err
			}

			c.PrintTable(
				cmd.OutOrStdout(),
				[]string{"Offset", "Depth", "Kind", "Entries", "Generation", "First key", "Last key"},
				len(nodes),
				func(i int) []string {
					n := nodes[i]

					kind := "node"
					if n.Leaf {
						kind = "leaf"
					}

					return []string{
						strconv.FormatUint(n.Pos, 10),
						strconv.Itoa(n.Depth),
						kind,
						strconv.Itoa(n.Entries),
						strconv.FormatUint(n.Gen, 10),
						string(n.FirstKey),
						string(n.LastKey),
					}
				},
				fmt.Sprintf("%d node(s)", len(nodes)),
			)
			return nil
		}),
	}
	ccmd.Flags().Int("max-depth", 0, "only list nodes above this depth, 0 lists them all")
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) verify(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "verify",
		Short: "Read the whole tree log checking every record",
		Args:  cobra.NoArgs,
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			progress, err := cmd.Flags().GetBool("progress")
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if progress {
				stats, err := st.Stats()
				if err != nil {
					return err
				}

				bar = progressbar.NewOptions(
					int(stats.TreeLogSize),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				)
			}

			report, err := st.Verify(func(rec pbtree.RecordInfo) error {
				if bar != nil {
					return bar.Add(rec.Size)
				}
				return nil
			})
			if err != nil {
				return err
			}

			if bar != nil {
				fmt.Fprintln(cmd.ErrOrStderr())
			}

			kinds := []string{"preamble", "value", "leaf", "node"}

			c.PrintTable(
				cmd.OutOrStdout(),
				[]string{"Record", "Count"},
				len(kinds),
				func(i int) []string {
					return []string{kinds[i], strconv.Itoa(report.Records[kinds[i]])}
				},
				fmt.Sprintf("%s verified", c.FormatByteSize(report.Bytes)),
			)
			return nil
		}),
	}
	ccmd.Flags().Bool("progress", false, "show a progress bar")
	rootCmd.AddCommand(ccmd)
}
