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
	"github.com/treehaus/treebase/embedded/store"

	"github.com/spf13/cobra"
)

func (cl *commandline) history(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "history key",
		Short:   "List the values a key had, newest first",
		Aliases: []string{"hist"},
		Args:    cobra.ExactArgs(1),
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			values, err := st.History([]byte(args[0]), limit)
			if err != nil {
				return err
			}

			if len(values) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no history for key '%s'\n", args[0])
				return nil
			}

			c.PrintTable(
				cmd.OutOrStdout(),
				[]string{"Update", "Value"},
				len(values),
				func(i int) []string {
					return []string{strconv.FormatUint(values[i].Ts, 10), string(values[i].Value)}
				},
				fmt.Sprintf("%d version(s) of '%s'", len(values), args[0]),
			)
			return nil
		}),
	}
	ccmd.Flags().Int("limit", 0, "maximum number of versions to list, 0 lists them all")
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) scan(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:   "scan",
		Short: "List keys in a range together with their current value",
		Args:  cobra.NoArgs,
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			start, err := cmd.Flags().GetString("start")
			if err != nil {
				return err
			}
			stop, err := cmd.Flags().GetString("stop")
			if err != nil {
				return err
			}
			reverse, err := cmd.Flags().GetBool("reverse")
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			entries, err := st.Scan(bound(start), bound(stop), reverse, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no keys in range")
				return nil
			}

			c.PrintTable(
				cmd.OutOrStdout(),
				[]string{"Key", "Value"},
				len(entries),
				func(i int) []string {
					return []string{string(entries[i].Key), string(entries[i].Value)}
				},
				"",
			)
			return nil
		}),
	}
	ccmd.Flags().String("start", "", "first key of the range, inclusive")
	ccmd.Flags().String("stop", "", "last key of the range, inclusive")
	ccmd.Flags().Bool("reverse", false, "list keys in descending order")
	ccmd.Flags().Int("limit", 0, "maximum number of keys to list, 0 lists them all")
	rootCmd.AddCommand(ccmd)
}

// bound maps an empty flag to an open range bound.
func bound(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
