// Copyright 2026 The go-tokenledger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tokenctl",
	Short: "Operate a local fungible-token ledger",
	Long: `Tokenctl manages a fungible-token ledger backed by a local database
file. It can bootstrap a new ledger from a config file and run the
account and transfer operations against an existing one.`,
}

var dbPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "token.db", "path to the ledger database file")
}

// Execute runs the root command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
