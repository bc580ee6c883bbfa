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

// Package account tracks which identities are registered to hold a
// balance and the storage bond held against each registration.
package account

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/crypto"
	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/escrow"
	"github.com/tokenledger/go-tokenledger/tokenpb"
)

var (
	ErrAlreadyRegistered = errors.New("account already registered")
	ErrNotRegistered     = errors.New("account not registered")
	ErrBalanceNotEmpty   = errors.New("account balance not empty")
)

// BondBucket holds one fixed-size bond record per registered
// account, keyed by sha256 of the account identity.
const BondBucket = "BOND"

// BalanceKeeper is the narrow surface of the ledger the registry
// drives. The registry never touches the balance table directly.
type BalanceKeeper interface {
	CreateEntry(dt db.Tx, id string) error
	RemoveEntry(dt db.Tx, id string) error
	Burn(dt db.Tx, id string) (*uint256.Int, error)
	Balance(g db.Getter, id string) (*uint256.Int, error)
	EntryFootprint() uint64
}

// Hooks are the outward notification callbacks of the registration
// lifecycle. A nil hook is skipped.
type Hooks struct {
	OnAccountClosed func(id string, balance *uint256.Int)
	OnTokensBurned  func(id string, amount *uint256.Int)
}

// Bounds describes the bond range a registration requires. Records
// are fixed-size and keys are hashed, so Min == Max.
type Bounds struct {
	Min *uint256.Int
	Max *uint256.Int
}

// Registry manages the Unregistered -> Registered -> Unregistered
// lifecycle. All mutating calls run inside the deposit escrow so
// the caller pays the bond on register and receives it back on
// unregister.
type Registry struct {
	keeper BalanceKeeper
	hooks  Hooks
	bond   *uint256.Int
}

func NewRegistry(keeper BalanceKeeper, meter *escrow.Meter, hooks Hooks) (*Registry, error) {
	r := &Registry{keeper: keeper, hooks: hooks}
	bond, err := meter.Cost(r.registrationFootprint())
	if err != nil {
		return nil, fmt.Errorf("compute registration bond failed: %v", err)
	}
	r.bond = bond
	return r, nil
}

// Buckets creates the bucket the registry persists into.
func (r *Registry) Buckets(store db.Store) error {
	return store.NewBucket(BondBucket)
}

// StorageBounds returns the bond range of one registration.
func (r *Registry) StorageBounds() Bounds {
	return Bounds{
		Min: new(uint256.Int).Set(r.bond),
		Max: new(uint256.Int).Set(r.bond),
	}
}

// IsRegistered reports whether the identity holds a registration.
// Pure lookup, no side effects.
func (r *Registry) IsRegistered(g db.Getter, id string) bool {
	b, err := g.Get(BondBucket, bondKey(id))
	return err == nil && b != nil
}

// Bond returns the bond held against the account's registration.
func (r *Registry) Bond(g db.Getter, id string) (*uint256.Int, error) {
	b, err := g.Get(BondBucket, bondKey(id))
	if err != nil {
		return nil, fmt.Errorf("get bond of %s failed: %v", id, err)
	}
	if b == nil {
		return nil, ErrNotRegistered
	}
	bond, err := tokenpb.DecodeBond(b)
	if err != nil {
		return nil, fmt.Errorf("decode bond of %s failed: %v", id, err)
	}
	return tokenpb.UnmarshalU128(bond.Amount)
}

// Register creates a registration with a zero balance entry. The
// escrow settlement around the call charges the caller exactly the
// bond, because the footprint written here is constant.
func (r *Registry) Register(dt db.Tx, id string) error {
	if r.IsRegistered(dt, id) {
		return ErrAlreadyRegistered
	}
	if err := r.saveBond(dt, id, r.bond); err != nil {
		return err
	}
	return r.keeper.CreateEntry(dt, id)
}

// RegisterUnbonded creates a registration whose storage is covered
// by the contract account itself instead of a caller bond. Only the
// genesis owner is registered this way.
func (r *Registry) RegisterUnbonded(dt db.Tx, id string) error {
	if r.IsRegistered(dt, id) {
		return ErrAlreadyRegistered
	}
	if err := r.saveBond(dt, id, uint256.NewInt(0)); err != nil {
		return err
	}
	return r.keeper.CreateEntry(dt, id)
}

// Unregister removes the registration. Without force a non-zero
// balance fails the call; with force the balance is burned first and
// both lifecycle hooks fire, the burn before the close. The freed
// storage is refunded by the escrow settlement after this returns.
func (r *Registry) Unregister(dt db.Tx, id string, force bool) error {
	if !r.IsRegistered(dt, id) {
		return ErrNotRegistered
	}
	bal, err := r.keeper.Balance(dt, id)
	if err != nil {
		return err
	}
	if !bal.IsZero() {
		if !force {
			return ErrBalanceNotEmpty
		}
		burned, err := r.keeper.Burn(dt, id)
		if err != nil {
			return err
		}
		if r.hooks.OnTokensBurned != nil {
			r.hooks.OnTokensBurned(id, burned)
		}
	}
	if err := r.keeper.RemoveEntry(dt, id); err != nil {
		return err
	}
	if err := dt.Delete(BondBucket, bondKey(id)); err != nil {
		return err
	}
	if r.hooks.OnAccountClosed != nil {
		r.hooks.OnAccountClosed(id, bal)
	}
	return nil
}

// registrationFootprint is the exact byte count one registration
// adds to the store: the bond record plus the ledger entry.
func (r *Registry) registrationFootprint() uint64 {
	vb, _ := tokenpb.MarshalU128(uint256.NewInt(0))
	rec, _ := tokenpb.Encode(&tokenpb.Bond{Amount: vb})
	bondBytes := uint64(len(BondBucket) + len(bondKey("")) + len(rec))
	return bondBytes + r.keeper.EntryFootprint()
}

func (r *Registry) saveBond(dt db.Tx, id string, amount *uint256.Int) error {
	vb, err := tokenpb.MarshalU128(amount)
	if err != nil {
		return err
	}
	rec, err := tokenpb.Encode(&tokenpb.Bond{Amount: vb})
	if err != nil {
		return fmt.Errorf("encode bond failed: %v", err)
	}
	return dt.Put(BondBucket, bondKey(id), rec)
}

func bondKey(id string) []byte {
	h := crypto.SHA256HashBytes([]byte(id))
	return h[:]
}
