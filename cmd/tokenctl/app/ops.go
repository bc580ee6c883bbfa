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
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/host"
	"github.com/tokenledger/go-tokenledger/log"
	"github.com/tokenledger/go-tokenledger/token"
)

var (
	caller string
	attach string
	memo   string
	force  bool
)

// openToken loads the ledger from the --db flag and stages the call
// identity from the --as and --attach flags. The returned env journal
// holds any refunds the call scheduled.
func openToken() (*token.Token, *host.LocalEnv, func()) {
	store := db.NewBoltDB(dbPath)
	env := host.NewLocalEnv()
	tk, err := token.Load(&token.Config{Store: store, Env: env})
	if err != nil {
		store.Close()
		log.Fatal(err)
	}
	attached := uint256.NewInt(0)
	if attach != "" {
		attached, err = uint256.FromDecimal(attach)
		if err != nil {
			store.Close()
			log.Fatalf("parse attached value failed: %v", err)
		}
	}
	env.SetCall(caller, attached)
	return tk, env, func() { store.Close() }
}

func printRefunds(env *host.LocalEnv) {
	for _, tr := range env.Transfers() {
		fmt.Printf("Refund: %s to %s\n", tr.Amount, tr.To)
	}
}

var registerCmd = &cobra.Command{
	Use:   "register [account]",
	Short: "Register an account with a storage bond",
	Long: `Register an account on the ledger. The attached value covers the
account's storage bond; any excess over the bound is refunded. With no
argument the calling account registers itself.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tk, env, closeFn := openToken()
		defer closeFn()
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		if err := tk.Register(id); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		printRefunds(env)
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Close the calling account and reclaim its bond",
	Long: `Close the calling account's registration and reclaim the storage
bond. A non-empty balance blocks the close unless --force is given, in
which case the remaining balance is burned.`,
	Run: func(cmd *cobra.Command, args []string) {
		tk, env, closeFn := openToken()
		defer closeFn()
		if err := tk.Unregister(force); err != nil {
			log.Fatalf("unregister failed: %v", err)
		}
		printRefunds(env)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Transfer tokens to a registered account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		tk, env, closeFn := openToken()
		defer closeFn()
		amount, err := uint256.FromDecimal(args[1])
		if err != nil {
			log.Fatalf("parse amount failed: %v", err)
		}
		if err := tk.Transfer(args[0], amount, memo); err != nil {
			log.Fatalf("transfer failed: %v", err)
		}
		printRefunds(env)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show the balance of a registered account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tk, _, closeFn := openToken()
		defer closeFn()
		bal, err := tk.BalanceOf(args[0])
		if err != nil {
			log.Fatalf("query balance failed: %v", err)
		}
		fmt.Printf("Balance: %s\n", bal)
	},
}

var supplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Show the total supply and the burned amount",
	Run: func(cmd *cobra.Command, args []string) {
		tk, _, closeFn := openToken()
		defer closeFn()
		burned, err := tk.Burned()
		if err != nil {
			log.Fatalf("query burned amount failed: %v", err)
		}
		fmt.Printf("TotalSupply: %s, Burned: %s\n", tk.TotalSupply(), burned)
	},
}

var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Show the storage bond a registration requires",
	Run: func(cmd *cobra.Command, args []string) {
		tk, _, closeFn := openToken()
		defer closeFn()
		b := tk.StorageBounds()
		fmt.Printf("Min: %s, Max: %s\n", b.Min, b.Max)
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, unregisterCmd, transferCmd} {
		c.Flags().StringVarP(&caller, "as", "a", "", "calling account")
		c.Flags().StringVar(&attach, "attach", "", "attached value for the call")
		c.MarkFlagRequired("as")
	}
	transferCmd.Flags().StringVarP(&memo, "memo", "m", "", "memo to log with the transfer")
	unregisterCmd.Flags().BoolVarP(&force, "force", "f", false, "burn any remaining balance")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(unregisterCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(supplyCmd)
	rootCmd.AddCommand(boundsCmd)
}
