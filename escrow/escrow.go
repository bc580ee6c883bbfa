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

// Package escrow implements the storage-deposit protocol that wraps
// every mutating ledger call: measure the byte usage around the
// operation, charge the caller for growth out of the attached value,
// refund shrinkage, and roll the whole operation back when the
// attachment cannot cover the growth.
package escrow

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/host"
	"github.com/tokenledger/go-tokenledger/log"
)

var (
	ErrInsufficientDeposit = fmt.Errorf("insufficient storage deposit")
)

type Escrow struct {
	store db.Store
	env   host.Env
	meter *Meter
}

func New(store db.Store, env host.Env, meter *Meter) *Escrow {
	return &Escrow{store: store, env: env, meter: meter}
}

// Meter returns the meter the escrow settles with.
func (e *Escrow) Meter() *Meter {
	return e.meter
}

// Run executes op inside a storage-metered transaction. A failing op
// is rolled back as a unit and charged nothing; the full attachment
// is returned. On success the byte delta is settled: growth consumes
// cost(delta) from the attachment (or fails the whole call with
// ErrInsufficientDeposit), shrinkage pays cost(-delta) out of the
// contract's value reserve on top of the returned attachment.
//
// Exactly one outbound transfer is scheduled per call; a zero-amount
// refund is elided.
func (e *Escrow) Run(attached *uint256.Int, op func(dt db.Tx) error) error {
	dt, err := e.store.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction failed: %v", err)
	}
	before := dt.Usage()

	if err := op(dt); err != nil {
		dt.Rollback()
		e.refund(attached)
		return err
	}

	after := dt.Usage()
	switch {
	case after > before:
		required, err := e.meter.Cost(after - before)
		if err != nil {
			dt.Rollback()
			e.refund(attached)
			return err
		}
		if attached.Cmp(required) < 0 {
			dt.Rollback()
			e.refund(attached)
			return ErrInsufficientDeposit
		}
		if err := dt.Commit(); err != nil {
			e.refund(attached)
			return fmt.Errorf("commit transaction failed: %v", err)
		}
		log.Debugf("escrow charged %s for %d bytes", required, after-before)
		e.refund(new(uint256.Int).Sub(attached, required))
	case after < before:
		freed, err := e.meter.Cost(before - after)
		if err != nil {
			dt.Rollback()
			e.refund(attached)
			return err
		}
		if err := dt.Commit(); err != nil {
			e.refund(attached)
			return fmt.Errorf("commit transaction failed: %v", err)
		}
		log.Debugf("escrow released %s for %d freed bytes", freed, before-after)
		e.refund(new(uint256.Int).Add(attached, freed))
	default:
		if err := dt.Commit(); err != nil {
			e.refund(attached)
			return fmt.Errorf("commit transaction failed: %v", err)
		}
		e.refund(attached)
	}
	return nil
}

func (e *Escrow) refund(amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	if err := e.env.TransferValue(e.env.Caller(), amount); err != nil {
		log.Errorf("schedule refund of %s failed: %v", amount, err)
	}
}
