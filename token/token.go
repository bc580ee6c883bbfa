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

// Package token is the accounting core of the fungible-token ledger.
// It wires the deposit escrow, the account registry, the balance
// ledger and the transfer protocol into the caller-facing contract
// surface. All global state lives in one explicitly constructed
// Token value; there is no implicit default-construction path.
package token

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/account"
	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/escrow"
	"github.com/tokenledger/go-tokenledger/host"
	"github.com/tokenledger/go-tokenledger/ledger"
	"github.com/tokenledger/go-tokenledger/log"
	"github.com/tokenledger/go-tokenledger/tokenpb"
	"github.com/tokenledger/go-tokenledger/util"
)

var (
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrInvalidAttachment  = errors.New("call requires the minimal attached value unit")
)

const (
	// MetaBucket holds the one-time genesis record.
	MetaBucket = "META"
)

var genesisKey = []byte("genesis")

// OneValueUnit is the smallest non-zero attachment the host value
// convention supports. Balance-mutating calls demand exactly this
// much as a deliberate anti-key-reuse measure; the escrow returns
// it on settlement.
var OneValueUnit = uint256.NewInt(1)

// Config carries everything a Token needs. TotalSupply and Owner
// are consumed by Genesis only; Load reads them back from the
// genesis record.
type Config struct {
	Store        db.Store
	Env          host.Env
	TotalSupply  *uint256.Int
	Owner        string
	PricePerByte *uint256.Int  // defaults to escrow.StoragePricePerByte
	Hooks        account.Hooks // defaults to log notifications
}

func validateConfig(c *Config, genesis bool) error {
	if c == nil {
		return fmt.Errorf("token config is nil")
	}
	if c.Store == nil {
		return fmt.Errorf("store is nil")
	}
	if c.Env == nil {
		return fmt.Errorf("host environment is nil")
	}
	if genesis {
		if c.Owner == "" {
			return fmt.Errorf("owner is empty")
		}
		if c.TotalSupply == nil || !util.IsU128(c.TotalSupply) {
			return fmt.Errorf("total supply is not a valid u128")
		}
	}
	return nil
}

// Token is the contract instance. It exclusively owns the ledger
// and bond tables underneath it.
type Token struct {
	store    db.Store
	env      host.Env
	escrow   *escrow.Escrow
	registry *account.Registry
	lm       *ledger.Manager
	supply   *uint256.Int
	owner    string
}

// Genesis performs the one-time initialization: it establishes the
// immutable total supply, registers the owner and credits it with
// the entire supply. Running it on an initialized store fails with
// ErrAlreadyInitialized.
func Genesis(c *Config) (*Token, error) {
	if err := validateConfig(c, true); err != nil {
		return nil, err
	}
	tk, err := build(c)
	if err != nil {
		return nil, err
	}

	meta, err := c.Store.Get(MetaBucket, genesisKey)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		return nil, ErrAlreadyInitialized
	}

	tk.supply = new(uint256.Int).Set(c.TotalSupply)
	tk.owner = c.Owner

	dt, err := c.Store.Begin()
	if err != nil {
		return nil, err
	}
	if err := tk.genesisState(dt); err != nil {
		dt.Rollback()
		return nil, err
	}
	if err := dt.Commit(); err != nil {
		return nil, err
	}
	log.Infow("genesis complete", "owner", tk.owner, "total_supply", tk.supply.String())
	return tk, nil
}

// Load opens an already-initialized token. A store without a genesis
// record fails with ErrNotInitialized.
func Load(c *Config) (*Token, error) {
	if err := validateConfig(c, false); err != nil {
		return nil, err
	}
	tk, err := build(c)
	if err != nil {
		return nil, err
	}

	b, err := c.Store.Get(MetaBucket, genesisKey)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotInitialized
	}
	meta, err := tokenpb.DecodeMeta(b)
	if err != nil {
		return nil, fmt.Errorf("decode genesis record failed: %v", err)
	}
	supply, err := tokenpb.UnmarshalU128(meta.TotalSupply)
	if err != nil {
		return nil, err
	}
	tk.supply = supply
	tk.owner = meta.Owner
	return tk, nil
}

func build(c *Config) (*Token, error) {
	price := c.PricePerByte
	if price == nil {
		price = escrow.StoragePricePerByte
	}
	hooks := c.Hooks
	if hooks.OnAccountClosed == nil {
		hooks.OnAccountClosed = func(id string, balance *uint256.Int) {
			log.Infof("closed account %s with balance %s", id, balance)
		}
	}
	if hooks.OnTokensBurned == nil {
		hooks.OnTokensBurned = func(id string, amount *uint256.Int) {
			log.Infof("account %s burned %s", id, amount)
		}
	}

	lm := ledger.NewManager()
	meter := escrow.NewMeter(price)
	registry, err := account.NewRegistry(lm, meter, hooks)
	if err != nil {
		return nil, err
	}

	tk := &Token{
		store:    c.Store,
		env:      c.Env,
		escrow:   escrow.New(c.Store, c.Env, meter),
		registry: registry,
		lm:       lm,
	}

	if err := c.Store.NewBucket(MetaBucket); err != nil {
		return nil, err
	}
	if err := lm.Buckets(c.Store); err != nil {
		return nil, err
	}
	if err := registry.Buckets(c.Store); err != nil {
		return nil, err
	}
	return tk, nil
}

func (tk *Token) genesisState(dt db.Tx) error {
	if err := tk.lm.InitTally(dt); err != nil {
		return err
	}
	// the owner's storage is covered by the contract account, not
	// by a caller bond
	if err := tk.registry.RegisterUnbonded(dt, tk.owner); err != nil {
		return err
	}
	if err := tk.lm.Deposit(dt, tk.owner, tk.supply); err != nil {
		return err
	}

	vb, err := tokenpb.MarshalU128(tk.supply)
	if err != nil {
		return err
	}
	rec, err := tokenpb.Encode(&tokenpb.Meta{TotalSupply: vb, Owner: tk.owner})
	if err != nil {
		return fmt.Errorf("encode genesis record failed: %v", err)
	}
	return dt.Put(MetaBucket, genesisKey, rec)
}

// Register registers the account under the caller's attached bond.
// An empty id registers the caller itself. The escrow settles the
// bond: an attachment below the storage bound fails the call with
// escrow.ErrInsufficientDeposit and returns the attachment whole; an
// attachment above it is refunded down to the bond exactly.
func (tk *Token) Register(id string) error {
	if id == "" {
		id = tk.env.Caller()
	}
	return tk.escrow.Run(tk.env.AttachedValue(), func(dt db.Tx) error {
		return tk.registry.Register(dt, id)
	})
}

// Unregister removes the caller's registration and refunds the bond
// through the escrow's freed-storage payout. A non-zero balance
// fails the call unless force is set, in which case the remaining
// balance is burned and reported through the lifecycle hooks.
func (tk *Token) Unregister(force bool) error {
	caller := tk.env.Caller()
	attached := tk.env.AttachedValue()
	return tk.escrow.Run(attached, func(dt db.Tx) error {
		if err := requireOneUnit(attached); err != nil {
			return err
		}
		return tk.registry.Unregister(dt, caller, force)
	})
}

// Transfer moves the amount from the caller to another registered
// account. Requires the minimal attached unit, which the escrow
// returns on settlement.
func (tk *Token) Transfer(to string, amount *uint256.Int, memo string) error {
	caller := tk.env.Caller()
	attached := tk.env.AttachedValue()
	return tk.escrow.Run(attached, func(dt db.Tx) error {
		if err := requireOneUnit(attached); err != nil {
			return err
		}
		return tk.lm.Transfer(dt, caller, to, amount, memo)
	})
}

// TransferAndCall transfers the amount and then asks the receiver to
// acknowledge it; the unused portion the receiver reports is moved
// back to the caller. The confirmation runs strictly after the
// transfer itself is durably committed. Returns the amount the
// receiver kept.
func (tk *Token) TransferAndCall(to string, amount *uint256.Int, memo string, payload []byte) (*uint256.Int, error) {
	caller := tk.env.Caller()
	attached := tk.env.AttachedValue()
	err := tk.escrow.Run(attached, func(dt db.Tx) error {
		if err := requireOneUnit(attached); err != nil {
			return err
		}
		return tk.lm.Transfer(dt, caller, to, amount, memo)
	})
	if err != nil {
		return nil, err
	}

	rcpt := newReceipt(caller, to, amount)
	if err := tk.resolve(rcpt, payload); err != nil {
		return nil, err
	}
	return rcpt.Kept(), nil
}

// BalanceOf returns the balance of a registered account.
func (tk *Token) BalanceOf(id string) (*uint256.Int, error) {
	return tk.lm.Balance(tk.store, id)
}

// TotalSupply returns the fixed supply established at genesis.
func (tk *Token) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(tk.supply)
}

// Burned returns the cumulative amount removed from circulation by
// forced closes.
func (tk *Token) Burned() (*uint256.Int, error) {
	return tk.lm.Burned(tk.store)
}

// StorageBounds returns the bond range a registration requires.
func (tk *Token) StorageBounds() account.Bounds {
	return tk.registry.StorageBounds()
}

// IsRegistered reports whether the account holds a registration.
func (tk *Token) IsRegistered(id string) bool {
	return tk.registry.IsRegistered(tk.store, id)
}

// Owner returns the genesis owner account.
func (tk *Token) Owner() string {
	return tk.owner
}

func requireOneUnit(attached *uint256.Int) error {
	if attached.Cmp(OneValueUnit) != 0 {
		return ErrInvalidAttachment
	}
	return nil
}
