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

// Package host abstracts the execution environment a metered ledger
// call runs in: who the caller is, how much value the call attached,
// how to schedule outbound value transfers and how to invoke a
// receiver party. Byte accounting is deliberately not part of the
// environment; the storage backend is the byte authority.
package host

import (
	"github.com/holiman/uint256"
)

// Env represents the host environment of a single call. The caller
// identity and attachment are fixed for the duration of the call;
// transfers are scheduled, not executed inline.
type Env interface {
	// Caller returns the externally validated identity of the
	// calling account.
	Caller() string

	// AttachedValue returns the value attached to the current call.
	AttachedValue() *uint256.Int

	// TransferValue schedules an outbound payment of the amount to
	// the given account.
	TransferValue(to string, amount *uint256.Int) error

	// CallReceiver invokes the receiver party's acknowledgment hook
	// for a transfer of amount from sender and returns how much of
	// the amount the receiver reports as actually used. A receiver
	// failure of any kind is returned as an error (a trap).
	CallReceiver(receiver string, sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error)
}
