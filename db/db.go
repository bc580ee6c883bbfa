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

package db

// Getter reads the value of a key from a bucket. A missing key
// yields (nil, nil) rather than an error.
type Getter interface {
	Get(bucket string, key []byte) ([]byte, error)
}

// Putter writes a key/value pair to a bucket.
type Putter interface {
	Put(bucket string, key, value []byte) error
}

// Deleter deletes a key from a bucket. Deleting a missing key
// is a no-op.
type Deleter interface {
	Delete(bucket string, key []byte) error
}

// Tx is a writable transaction over a store. Usage reports the byte
// count of persistent state as it would be after the pending writes,
// which is what storage metering bills against. At most one writable
// transaction is live at a time.
type Tx interface {
	Getter
	Putter
	Deleter
	Usage() uint64
	Commit() error
	Rollback() error
}

// Store is the generic storage backend interface.
type Store interface {
	Getter
	Putter
	Deleter
	NewBucket(name string) error
	Begin() (Tx, error)
	StorageUsage() uint64
	Close() error
}
