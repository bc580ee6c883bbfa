package db

import (
	"errors"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	lru "github.com/hashicorp/golang-lru"

	"github.com/tokenledger/go-tokenledger/log"
)

const readCacheSize = 10000

// boltdb wraps a bolt database file. A record accounts for
// len(bucket)+len(key)+len(value) bytes of storage usage; the
// counter is rebuilt by a full scan at open time and maintained
// incrementally afterwards. Committed reads go through an LRU
// cache which is invalidated on every write.
type boltdb struct {
	sync.Mutex
	db    *bolt.DB
	usage uint64
	cache *lru.Cache
}

// NewBoltDB creates a new boltdb instance. BoltDB obtains a file lock
// on the data file so multiple processes cannot open the same database
// at the same time. It will panic if the database cannot be opened.
func NewBoltDB(path string) Store {
	bt, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatal(err)
	}
	cache, err := lru.New(readCacheSize)
	if err != nil {
		log.Fatal(err)
	}
	s := &boltdb{db: bt, cache: cache}
	if err := s.scanUsage(); err != nil {
		log.Fatal(err)
	}
	return s
}

func (bt *boltdb) scanUsage() error {
	return bt.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			return b.ForEach(func(k, v []byte) error {
				bt.usage += uint64(len(name) + len(k) + len(v))
				return nil
			})
		})
	})
}

func (bt *boltdb) NewBucket(name string) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}
	if name == "" {
		return errors.New("database bucket name is empty")
	}

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	}); err != nil {
		return err
	}
	return nil
}

// Get retrieves the value of the key from database, a missing
// key yields (nil, nil).
func (bt *boltdb) Get(bucket string, key []byte) ([]byte, error) {
	if bt.db == nil {
		return nil, errors.New("database is not initialized")
	}

	bt.Lock()
	if v, ok := bt.cache.Get(cacheKey(bucket, key)); ok {
		bt.Unlock()
		return v.([]byte), nil
	}
	bt.Unlock()

	var val []byte
	if err := bt.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		// the slice bolt returns is only valid within the tx
		if v := b.Get(key); v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if val != nil {
		bt.Lock()
		bt.cache.Add(cacheKey(bucket, key), val)
		bt.Unlock()
	}
	return val, nil
}

// Put writes the key/value pair to database.
func (bt *boltdb) Put(bucket string, key, value []byte) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}

	bt.Lock()
	defer bt.Unlock()

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New("bucket not exist")
		}
		old := b.Get(key)
		if old != nil {
			bt.usage -= uint64(len(bucket) + len(key) + len(old))
		}
		if err := b.Put(key, value); err != nil {
			return err
		}
		bt.usage += uint64(len(bucket) + len(key) + len(value))
		return nil
	}); err != nil {
		return err
	}

	bt.cache.Add(cacheKey(bucket, key), append([]byte(nil), value...))
	return nil
}

// Delete deletes the key from the database.
func (bt *boltdb) Delete(bucket string, key []byte) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}

	bt.Lock()
	defer bt.Unlock()

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		old := b.Get(key)
		if old == nil {
			return nil
		}
		if err := b.Delete(key); err != nil {
			return err
		}
		bt.usage -= uint64(len(bucket) + len(key) + len(old))
		return nil
	}); err != nil {
		return err
	}

	bt.cache.Remove(cacheKey(bucket, key))
	return nil
}

func (bt *boltdb) StorageUsage() uint64 {
	bt.Lock()
	defer bt.Unlock()
	return bt.usage
}

// Begin starts a writable transaction.
func (bt *boltdb) Begin() (Tx, error) {
	if bt.db == nil {
		return nil, errors.New("database is not initialized")
	}
	tx, err := bt.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &boltdbTx{store: bt, tx: tx, touched: make(map[string]bool)}, nil
}

// Close closes the underlying database.
func (bt *boltdb) Close() error {
	if bt.db != nil {
		return bt.db.Close()
	}
	return nil
}

func cacheKey(bucket string, key []byte) string {
	return bucket + "/" + string(key)
}

// boltdbTx wraps a writable bolt transaction and tracks the usage
// delta of its pending writes.
type boltdbTx struct {
	store   *boltdb
	tx      *bolt.Tx
	delta   int64
	touched map[string]bool
}

func (bx *boltdbTx) Get(bucket string, key []byte) ([]byte, error) {
	b := bx.tx.Bucket([]byte(bucket))
	if b == nil {
		return nil, nil
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (bx *boltdbTx) Put(bucket string, key, value []byte) error {
	b := bx.tx.Bucket([]byte(bucket))
	if b == nil {
		return errors.New("bucket not exist")
	}
	old := b.Get(key)
	if old != nil {
		bx.delta -= int64(len(bucket) + len(key) + len(old))
	}
	if err := b.Put(key, value); err != nil {
		return err
	}
	bx.delta += int64(len(bucket) + len(key) + len(value))
	bx.touched[cacheKey(bucket, key)] = true
	return nil
}

func (bx *boltdbTx) Delete(bucket string, key []byte) error {
	b := bx.tx.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}
	old := b.Get(key)
	if old == nil {
		return nil
	}
	if err := b.Delete(key); err != nil {
		return err
	}
	bx.delta -= int64(len(bucket) + len(key) + len(old))
	bx.touched[cacheKey(bucket, key)] = true
	return nil
}

func (bx *boltdbTx) Usage() uint64 {
	return uint64(int64(bx.store.StorageUsage()) + bx.delta)
}

func (bx *boltdbTx) Commit() error {
	if err := bx.tx.Commit(); err != nil {
		return err
	}
	bx.store.Lock()
	bx.store.usage = uint64(int64(bx.store.usage) + bx.delta)
	for k := range bx.touched {
		bx.store.cache.Remove(k)
	}
	bx.store.Unlock()
	return nil
}

func (bx *boltdbTx) Rollback() error {
	return bx.tx.Rollback()
}
