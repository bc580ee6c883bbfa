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
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/host"
	"github.com/tokenledger/go-tokenledger/log"
	"github.com/tokenledger/go-tokenledger/token"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a new ledger with config",
	Long: `Bootstrap a new token ledger from the specified configuration. The
total supply is fixed at this point and credited to the owner account.
Running init against an already initialized database is an error.`,
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile == "" {
			log.Fatal(errors.New("config file not provided"))
		}
		v := viper.New()
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		c, err := newGenesisConfig(v)
		if err != nil {
			log.Fatal(err)
		}
		tk, err := token.Genesis(c)
		if err != nil {
			log.Fatal(err)
		}
		defer c.Store.Close()
		fmt.Printf("Owner: %s, TotalSupply: %s\n", tk.Owner(), tk.TotalSupply())
	},
}

var cfgFile string

// newGenesisConfig maps the viper config onto a token config backed
// by the database file from the --db flag.
func newGenesisConfig(v *viper.Viper) (*token.Config, error) {
	owner := v.GetString("owner")
	if owner == "" {
		return nil, errors.New("owner not provided")
	}
	ts := v.GetString("total_supply")
	if ts == "" {
		return nil, errors.New("total_supply not provided")
	}
	supply, err := uint256.FromDecimal(ts)
	if err != nil {
		return nil, fmt.Errorf("parse total_supply failed: %v", err)
	}
	c := &token.Config{
		Store:       db.NewBoltDB(dbPath),
		Env:         host.NewLocalEnv(),
		TotalSupply: supply,
		Owner:       owner,
	}
	if p := v.GetString("price_per_byte"); p != "" {
		price, err := uint256.FromDecimal(p)
		if err != nil {
			return nil, fmt.Errorf("parse price_per_byte failed: %v", err)
		}
		c.PricePerByte = price
	}
	return c, nil
}

func init() {
	initCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to the ledger config file")
	initCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(initCmd)
}
