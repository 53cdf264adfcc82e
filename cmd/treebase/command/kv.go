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

	"github.com/treehaus/treebase/embedded/store"

	"github.com/spf13/cobra"
)

func (cl *commandline) set(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "set key value",
		Short:   "Set the value of a key and commit",
		Aliases: []string{"s"},
		Args:    cobra.ExactArgs(2),
		RunE: cl.withStore(false, func(cmd *cobra.Command, args []string, st *store.Store) error {
			if err := st.Set([]byte(args[0]), []byte(args[1])); err != nil {
				return err
			}
			return commit(cmd, st)
		}),
	}
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) get(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "get key",
		Short:   "Print the current value of a key",
		Aliases: []string{"g"},
		Args:    cobra.ExactArgs(1),
		RunE: cl.withStore(true, func(cmd *cobra.Command, args []string, st *store.Store) error {
			value, err := st.Get([]byte(args[0]))
			if err != nil {
				return fmt.Errorf("%w: '%s'", err, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", value)
			return nil
		}),
	}
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) del(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "del key",
		Short:   "Remove a key and commit, its history is kept in the log",
		Aliases: []string{"delete", "rm"},
		Args:    cobra.ExactArgs(1),
		RunE: cl.withStore(false, func(cmd *cobra.Command, args []string, st *store.Store) error {
			if err := st.Delete([]byte(args[0])); err != nil {
				return fmt.Errorf("%w: '%s'", err, args[0])
			}
			return commit(cmd, st)
		}),
	}
	rootCmd.AddCommand(ccmd)
}

func (cl *commandline) copy(rootCmd *cobra.Command) {
	ccmd := &cobra.Command{
		Use:     "copy from to",
		Short:   "Set a key to the current value of another one and commit",
		Aliases: []string{"cp"},
		Args:    cobra.ExactArgs(2),
		RunE: cl.withStore(false, func(cmd *cobra.Command, args []string, st *store.Store) error {
			if err := st.Copy([]byte(args[0]), []byte(args[1])); err != nil {
				return err
			}
			return commit(cmd, st)
		}),
	}
	rootCmd.AddCommand(ccmd)
}

func commit(cmd *cobra.Command, st *store.Store) error {
	e, err := st.Commit()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "committed update %d: root at %d, %d key(s)\n", e.UpdateCounter, e.RootPos, e.KeyCount)
	return nil
}
