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

package util

import (
	"github.com/holiman/uint256"
)

// Find the min between two u128 values, the result is a new value
func MinU128(x *uint256.Int, y *uint256.Int) *uint256.Int {
	if x.Cmp(y) <= 0 {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}

// Check whether the value fits in an unsigned 128-bit integer
func IsU128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

// Clamp the value into the inclusive range [0, limit],
// the result is a new value
func ClampU128(x *uint256.Int, limit *uint256.Int) *uint256.Int {
	if x.Cmp(limit) > 0 {
		return new(uint256.Int).Set(limit)
	}
	return new(uint256.Int).Set(x)
}
