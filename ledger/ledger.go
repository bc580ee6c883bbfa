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

// Package ledger owns the account balance table of the token. Every
// balance is an unsigned 128-bit integer; the sum of all balances
// plus the cumulative burned tally equals the fixed total supply at
// every commit point.
package ledger

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/crypto"
	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/log"
	"github.com/tokenledger/go-tokenledger/tokenpb"
	"github.com/tokenledger/go-tokenledger/util"
)

var (
	ErrNotRegistered       = errors.New("account not registered")
	ErrAlreadyRegistered   = errors.New("account already registered")
	ErrInsufficientBalance = errors.New("insufficient account balance")
	ErrOverflow            = errors.New("account balance overflow")
	ErrSelfTransfer        = errors.New("self transfer not allowed")
	ErrZeroAmount          = errors.New("zero transfer amount")
)

const (
	// LedgerBucket holds one fixed-size record per registered
	// account, keyed by sha256 of the account identity.
	LedgerBucket = "LEDGER"
	// TallyBucket holds running counters, currently only the
	// cumulative burned amount.
	TallyBucket = "TALLY"
)

var burnedKey = []byte("burned")

// Manager manages the balance entries of registered accounts.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Buckets creates the buckets the manager persists into.
func (lm *Manager) Buckets(store db.Store) error {
	if err := store.NewBucket(LedgerBucket); err != nil {
		return err
	}
	return store.NewBucket(TallyBucket)
}

// InitTally writes the zero burned tally; called once at genesis so
// later burns only overwrite a same-size record.
func (lm *Manager) InitTally(p db.Putter) error {
	return lm.saveTally(p, uint256.NewInt(0))
}

// AccountKey returns the ledger key of an account identity. Identities
// are hashed so that every entry has the same key length no matter how
// long the identity string is.
func AccountKey(id string) []byte {
	h := crypto.SHA256HashBytes([]byte(id))
	return h[:]
}

// EntryFootprint returns the exact byte count one ledger entry
// occupies in the store.
func (lm *Manager) EntryFootprint() uint64 {
	vb, _ := tokenpb.MarshalU128(uint256.NewInt(0))
	rec, _ := tokenpb.Encode(&tokenpb.Account{Balance: vb})
	return uint64(len(LedgerBucket) + len(AccountKey("")) + len(rec))
}

// CreateEntry creates a zero balance entry for the account.
func (lm *Manager) CreateEntry(dt db.Tx, id string) error {
	if _, err := lm.Balance(dt, id); err == nil {
		return ErrAlreadyRegistered
	}
	return lm.saveBalance(dt, id, uint256.NewInt(0))
}

// RemoveEntry deletes the account's balance entry. The caller burns
// or moves out any remaining balance first.
func (lm *Manager) RemoveEntry(dt db.Tx, id string) error {
	if _, err := lm.Balance(dt, id); err != nil {
		return err
	}
	return dt.Delete(LedgerBucket, AccountKey(id))
}

// Balance returns the account's balance.
func (lm *Manager) Balance(g db.Getter, id string) (*uint256.Int, error) {
	b, err := g.Get(LedgerBucket, AccountKey(id))
	if err != nil {
		return nil, fmt.Errorf("get account %s failed: %v", id, err)
	}
	if b == nil {
		return nil, ErrNotRegistered
	}
	acc, err := tokenpb.DecodeAccount(b)
	if err != nil {
		return nil, fmt.Errorf("decode account %s failed: %v", id, err)
	}
	return tokenpb.UnmarshalU128(acc.Balance)
}

// Deposit adds the amount to the account's balance.
func (lm *Manager) Deposit(dt db.Tx, id string, amount *uint256.Int) error {
	bal, err := lm.Balance(dt, id)
	if err != nil {
		return err
	}
	sum := new(uint256.Int).Add(bal, amount)
	if !util.IsU128(sum) {
		return ErrOverflow
	}
	return lm.saveBalance(dt, id, sum)
}

// Withdraw subtracts the amount from the account's balance.
func (lm *Manager) Withdraw(dt db.Tx, id string, amount *uint256.Int) error {
	bal, err := lm.Balance(dt, id)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return lm.saveBalance(dt, id, new(uint256.Int).Sub(bal, amount))
}

// Transfer atomically moves the amount between two registered
// accounts. Any failure leaves both balances untouched; the
// enclosing transaction guarantees it.
func (lm *Manager) Transfer(dt db.Tx, from, to string, amount *uint256.Int, memo string) error {
	if from == to {
		return ErrSelfTransfer
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if _, err := lm.Balance(dt, to); err != nil {
		return err
	}
	if err := lm.Withdraw(dt, from, amount); err != nil {
		return err
	}
	if err := lm.Deposit(dt, to, amount); err != nil {
		return err
	}
	log.Infof("transferred %s from %s to %s", amount, from, to)
	if memo != "" {
		log.Infof("memo: %s", memo)
	}
	return nil
}

// Burn zeroes the account's balance, adds it to the cumulative
// burned tally and returns the burned amount.
func (lm *Manager) Burn(dt db.Tx, id string) (*uint256.Int, error) {
	bal, err := lm.Balance(dt, id)
	if err != nil {
		return nil, err
	}
	if bal.IsZero() {
		return uint256.NewInt(0), nil
	}

	burned, err := lm.Burned(dt)
	if err != nil {
		return nil, err
	}
	sum := new(uint256.Int).Add(burned, bal)
	if !util.IsU128(sum) {
		return nil, ErrOverflow
	}
	if err := lm.saveTally(dt, sum); err != nil {
		return nil, err
	}
	if err := lm.saveBalance(dt, id, uint256.NewInt(0)); err != nil {
		return nil, err
	}
	return bal, nil
}

// Burned returns the cumulative burned amount.
func (lm *Manager) Burned(g db.Getter) (*uint256.Int, error) {
	b, err := g.Get(TallyBucket, burnedKey)
	if err != nil {
		return nil, fmt.Errorf("get burned tally failed: %v", err)
	}
	if b == nil {
		return uint256.NewInt(0), nil
	}
	tally, err := tokenpb.DecodeTally(b)
	if err != nil {
		return nil, fmt.Errorf("decode burned tally failed: %v", err)
	}
	return tokenpb.UnmarshalU128(tally.Amount)
}

func (lm *Manager) saveBalance(p db.Putter, id string, balance *uint256.Int) error {
	vb, err := tokenpb.MarshalU128(balance)
	if err != nil {
		return err
	}
	rec, err := tokenpb.Encode(&tokenpb.Account{Balance: vb})
	if err != nil {
		return fmt.Errorf("encode account failed: %v", err)
	}
	return p.Put(LedgerBucket, AccountKey(id), rec)
}

func (lm *Manager) saveTally(p db.Putter, amount *uint256.Int) error {
	vb, err := tokenpb.MarshalU128(amount)
	if err != nil {
		return err
	}
	rec, err := tokenpb.Encode(&tokenpb.Tally{Amount: vb})
	if err != nil {
		return fmt.Errorf("encode tally failed: %v", err)
	}
	return p.Put(TallyBucket, burnedKey, rec)
}
