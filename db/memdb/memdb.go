package memdb

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/tokenledger/go-tokenledger/db"
)

type memdb struct {
	sync.Mutex
	buckets mapset.Set
	db      map[string][]byte
	usage   uint64
}

// New creates a memory-based key-value store with full transaction
// support. It backs the in-process contract runtime and is the
// primary test fixture.
func New() db.Store {
	return &memdb{
		buckets: mapset.NewSet(),
		db:      make(map[string][]byte),
	}
}

func (m *memdb) NewBucket(name string) error {
	m.Lock()
	defer m.Unlock()

	if m.db == nil {
		return fmt.Errorf("memdb is closed")
	}
	if name == "" {
		return fmt.Errorf("bucket name is empty")
	}
	m.buckets.Add(name)
	return nil
}

// Put writes the key/value pair to the store.
func (m *memdb) Put(bucket string, key, value []byte) error {
	m.Lock()
	defer m.Unlock()
	return m.put(bucket, key, value)
}

// Delete deletes the key from the store.
func (m *memdb) Delete(bucket string, key []byte) error {
	m.Lock()
	defer m.Unlock()
	return m.delete(bucket, key)
}

// Get retrieves the value of the key from the store, a missing
// key yields (nil, nil).
func (m *memdb) Get(bucket string, key []byte) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	return m.get(bucket, key)
}

func (m *memdb) StorageUsage() uint64 {
	m.Lock()
	defer m.Unlock()
	return m.usage
}

// Begin starts a writable transaction. Writes apply eagerly and an
// undo log restores every touched key on rollback, so usage always
// reflects the pending state of the transaction.
func (m *memdb) Begin() (db.Tx, error) {
	m.Lock()
	defer m.Unlock()

	if m.db == nil {
		return nil, fmt.Errorf("memdb is closed")
	}
	return &memdbTx{store: m, prior: make(map[string]txRecord)}, nil
}

// Close closes the store.
func (m *memdb) Close() error {
	m.Lock()
	defer m.Unlock()

	m.db = nil
	return nil
}

// Unexported accessors assume the store lock is held.
func (m *memdb) get(bucket string, key []byte) ([]byte, error) {
	if m.db == nil {
		return nil, fmt.Errorf("memdb is closed")
	}
	if !m.buckets.Contains(bucket) {
		return nil, fmt.Errorf("bucket %s not exist", bucket)
	}
	if val, ok := m.db[bucket+"/"+string(key)]; ok {
		return val, nil
	}
	return nil, nil
}

func (m *memdb) put(bucket string, key, value []byte) error {
	if m.db == nil {
		return fmt.Errorf("memdb is closed")
	}
	if !m.buckets.Contains(bucket) {
		return fmt.Errorf("bucket %s not exist", bucket)
	}
	k := bucket + "/" + string(key)
	if old, ok := m.db[k]; ok {
		m.usage -= uint64(len(bucket) + len(key) + len(old))
	}
	m.db[k] = value
	m.usage += uint64(len(bucket) + len(key) + len(value))
	return nil
}

func (m *memdb) delete(bucket string, key []byte) error {
	if m.db == nil {
		return fmt.Errorf("memdb is closed")
	}
	if !m.buckets.Contains(bucket) {
		return fmt.Errorf("bucket %s not exist", bucket)
	}
	k := bucket + "/" + string(key)
	if old, ok := m.db[k]; ok {
		m.usage -= uint64(len(bucket) + len(key) + len(old))
		delete(m.db, k)
	}
	return nil
}

type txRecord struct {
	bucket  string
	key     []byte
	value   []byte
	existed bool
}

// memdbTx records the prior state of every key it touches; rollback
// replays the records to restore the store exactly.
type memdbTx struct {
	store *memdb
	prior map[string]txRecord
	done  bool
}

func (mt *memdbTx) Get(bucket string, key []byte) ([]byte, error) {
	mt.store.Lock()
	defer mt.store.Unlock()
	return mt.store.get(bucket, key)
}

func (mt *memdbTx) Put(bucket string, key, value []byte) error {
	mt.store.Lock()
	defer mt.store.Unlock()

	if mt.done {
		return fmt.Errorf("transaction already finished")
	}
	mt.record(bucket, key)
	return mt.store.put(bucket, key, value)
}

func (mt *memdbTx) Delete(bucket string, key []byte) error {
	mt.store.Lock()
	defer mt.store.Unlock()

	if mt.done {
		return fmt.Errorf("transaction already finished")
	}
	mt.record(bucket, key)
	return mt.store.delete(bucket, key)
}

func (mt *memdbTx) Usage() uint64 {
	mt.store.Lock()
	defer mt.store.Unlock()
	return mt.store.usage
}

func (mt *memdbTx) Commit() error {
	mt.store.Lock()
	defer mt.store.Unlock()

	if mt.done {
		return fmt.Errorf("transaction already finished")
	}
	mt.done = true
	mt.prior = nil
	return nil
}

func (mt *memdbTx) Rollback() error {
	mt.store.Lock()
	defer mt.store.Unlock()

	if mt.done {
		return fmt.Errorf("transaction already finished")
	}
	mt.done = true
	for _, rec := range mt.prior {
		if rec.existed {
			mt.store.put(rec.bucket, rec.key, rec.value)
		} else {
			mt.store.delete(rec.bucket, rec.key)
		}
	}
	mt.prior = nil
	return nil
}

// record saves the prior value of the key, first touch only.
func (mt *memdbTx) record(bucket string, key []byte) {
	k := bucket + "/" + string(key)
	if _, ok := mt.prior[k]; ok {
		return
	}
	old, exists := mt.store.db[k]
	mt.prior[k] = txRecord{
		bucket:  bucket,
		key:     append([]byte(nil), key...),
		value:   old,
		existed: exists,
	}
}
