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

package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/ed25519"
)

// Generate an account keypair with the ed25519 crypto algorithm. Since
// we can always reconstruct the true private key from the same seed, we
// use the randomly generated seed as an equivalent private key.
func GetAccountKeypair() (string, string, error) {
	var seed [32]byte
	_, err := io.ReadFull(rand.Reader, seed[:])
	if err != nil {
		return "", "", err
	}
	privateKey := ed25519.NewKeyFromSeed(seed[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	var pk [32]byte
	copy(pk[:], publicKey)
	acc := &Key{Code: KeyTypeAccountID, Hash: pk}
	sd := &Key{Code: KeyTypeSeed, Hash: seed}

	pubKeyStr := EncodeKey(acc)
	seedStr := EncodeKey(sd)

	return pubKeyStr, seedStr, nil
}
