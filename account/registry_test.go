package account

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/db/memdb"
	"github.com/tokenledger/go-tokenledger/escrow"
	"github.com/tokenledger/go-tokenledger/ledger"
)

const (
	alice = "Alice"
)

type closeEvent struct {
	id     string
	amount *uint256.Int
}

func newRegistry(t *testing.T, hooks Hooks) (*Registry, *ledger.Manager, db.Tx) {
	store := memdb.New()
	lm := ledger.NewManager()
	assert.Nil(t, lm.Buckets(store))

	r, err := NewRegistry(lm, escrow.NewMeter(uint256.NewInt(1)), hooks)
	assert.Nil(t, err)
	assert.Nil(t, r.Buckets(store))

	dt, err := store.Begin()
	assert.Nil(t, err)
	assert.Nil(t, lm.InitTally(dt))
	return r, lm, dt
}

func TestRegistryLifecycle(t *testing.T) {
	r, lm, dt := newRegistry(t, Hooks{})

	assert.False(t, r.IsRegistered(dt, alice))
	assert.Equal(t, ErrNotRegistered, r.Unregister(dt, alice, false))

	assert.Nil(t, r.Register(dt, alice))
	assert.True(t, r.IsRegistered(dt, alice))
	assert.Equal(t, ErrAlreadyRegistered, r.Register(dt, alice))

	bal, err := lm.Balance(dt, alice)
	assert.Nil(t, err)
	assert.True(t, bal.IsZero())

	bond, err := r.Bond(dt, alice)
	assert.Nil(t, err)
	assert.Equal(t, 0, bond.Cmp(r.StorageBounds().Min))

	assert.Nil(t, r.Unregister(dt, alice, false))
	assert.False(t, r.IsRegistered(dt, alice))
	_, err = lm.Balance(dt, alice)
	assert.Equal(t, ledger.ErrNotRegistered, err)
}

func TestRegistryUnregisterNonEmpty(t *testing.T) {
	r, lm, dt := newRegistry(t, Hooks{})

	assert.Nil(t, r.Register(dt, alice))
	assert.Nil(t, lm.Deposit(dt, alice, uint256.NewInt(30)))

	assert.Equal(t, ErrBalanceNotEmpty, r.Unregister(dt, alice, false))
	assert.True(t, r.IsRegistered(dt, alice))
}

func TestRegistryForcedClose(t *testing.T) {
	var burns, closes []closeEvent
	hooks := Hooks{
		OnTokensBurned: func(id string, amount *uint256.Int) {
			burns = append(burns, closeEvent{id, amount})
		},
		OnAccountClosed: func(id string, balance *uint256.Int) {
			closes = append(closes, closeEvent{id, balance})
		},
	}
	r, lm, dt := newRegistry(t, hooks)

	assert.Nil(t, r.Register(dt, alice))
	assert.Nil(t, lm.Deposit(dt, alice, uint256.NewInt(30)))

	assert.Nil(t, r.Unregister(dt, alice, true))
	assert.False(t, r.IsRegistered(dt, alice))

	// both hooks fired exactly once, the burn before the close,
	// carrying the pre-close balance
	assert.Len(t, burns, 1)
	assert.Equal(t, alice, burns[0].id)
	assert.Equal(t, uint64(30), burns[0].amount.Uint64())

	assert.Len(t, closes, 1)
	assert.Equal(t, uint64(30), closes[0].amount.Uint64())

	tally, err := lm.Burned(dt)
	assert.Nil(t, err)
	assert.Equal(t, uint64(30), tally.Uint64())
}

func TestRegistryForcedCloseEmpty(t *testing.T) {
	var burns []closeEvent
	hooks := Hooks{
		OnTokensBurned: func(id string, amount *uint256.Int) {
			burns = append(burns, closeEvent{id, amount})
		},
	}
	r, _, dt := newRegistry(t, hooks)

	assert.Nil(t, r.Register(dt, alice))
	assert.Nil(t, r.Unregister(dt, alice, true))

	// nothing to burn, so the burn hook stays silent
	assert.Len(t, burns, 0)
}

func TestRegistryStorageBounds(t *testing.T) {
	r, _, dt := newRegistry(t, Hooks{})

	bounds := r.StorageBounds()
	assert.Equal(t, 0, bounds.Min.Cmp(bounds.Max))
	assert.False(t, bounds.Min.IsZero())

	// the bound is exactly the storage the registration consumes
	before := dt.Usage()
	assert.Nil(t, r.Register(dt, alice))
	grown := dt.Usage() - before
	assert.Equal(t, bounds.Min.Uint64(), grown)
}
