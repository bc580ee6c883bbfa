package token

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/tokenledger/go-tokenledger/account"
	"github.com/tokenledger/go-tokenledger/db"
	"github.com/tokenledger/go-tokenledger/db/memdb"
	"github.com/tokenledger/go-tokenledger/escrow"
	"github.com/tokenledger/go-tokenledger/host"
	"github.com/tokenledger/go-tokenledger/ledger"
)

const (
	owner = "Owner"
	alice = "Alice"
	bob   = "Bob"
)

var totalSupply = uint256.NewInt(1_000_000)

func newToken(t *testing.T) (*Token, db.Store, *host.LocalEnv) {
	store := memdb.New()
	env := host.NewLocalEnv()
	tk, err := Genesis(&Config{
		Store:       store,
		Env:         env,
		TotalSupply: totalSupply,
		Owner:       owner,
		// one value unit per byte keeps bond arithmetic readable
		PricePerByte: uint256.NewInt(1),
	})
	assert.Nil(t, err)
	return tk, store, env
}

// registerAs registers the account with exactly the minimum bond.
func registerAs(t *testing.T, tk *Token, env *host.LocalEnv, id string) {
	env.SetCall(id, tk.StorageBounds().Min)
	assert.Nil(t, tk.Register(""))
	env.ResetTransfers()
}

// fund moves tokens from the owner to the account.
func fund(t *testing.T, tk *Token, env *host.LocalEnv, id string, amount uint64) {
	env.SetCall(owner, OneValueUnit)
	assert.Nil(t, tk.Transfer(id, uint256.NewInt(amount), ""))
	env.ResetTransfers()
}

// conserved asserts the supply invariant over the given accounts:
// the live balances plus the burn tally add up to the total supply.
func conserved(t *testing.T, tk *Token, ids ...string) {
	sum := uint256.NewInt(0)
	for _, id := range ids {
		bal, err := tk.BalanceOf(id)
		if err == nil {
			sum.Add(sum, bal)
		}
	}
	burned, err := tk.Burned()
	assert.Nil(t, err)
	sum.Add(sum, burned)
	assert.Equal(t, 0, sum.Cmp(tk.TotalSupply()))
}

func TestGenesisInvariant(t *testing.T) {
	tk, store, env := newToken(t)

	bal, err := tk.BalanceOf(owner)
	assert.Nil(t, err)
	assert.Equal(t, 0, bal.Cmp(totalSupply))
	assert.Equal(t, 0, tk.TotalSupply().Cmp(totalSupply))

	_, err = tk.BalanceOf(alice)
	assert.Equal(t, ledger.ErrNotRegistered, err)

	// a second genesis on the same store must refuse
	_, err = Genesis(&Config{
		Store:        store,
		Env:          env,
		TotalSupply:  totalSupply,
		Owner:        alice,
		PricePerByte: uint256.NewInt(1),
	})
	assert.Equal(t, ErrAlreadyInitialized, err)
}

func TestLoad(t *testing.T) {
	_, store, env := newToken(t)

	tk, err := Load(&Config{Store: store, Env: env, PricePerByte: uint256.NewInt(1)})
	assert.Nil(t, err)
	assert.Equal(t, owner, tk.Owner())
	assert.Equal(t, 0, tk.TotalSupply().Cmp(totalSupply))

	// loading an uninitialized store is a hard precondition failure
	_, err = Load(&Config{Store: memdb.New(), Env: env})
	assert.Equal(t, ErrNotInitialized, err)
}

func TestRegisterDepositExactness(t *testing.T) {
	tk, _, env := newToken(t)
	min := tk.StorageBounds().Min

	// under the bound: fails, the full attachment comes back
	under := new(uint256.Int).Sub(min, OneValueUnit)
	env.SetCall(alice, under)
	err := tk.Register("")
	assert.Equal(t, escrow.ErrInsufficientDeposit, err)
	assert.False(t, tk.IsRegistered(alice))
	transfers := env.Transfers()
	assert.Len(t, transfers, 1)
	assert.Equal(t, alice, transfers[0].To)
	assert.Equal(t, 0, transfers[0].Amount.Cmp(under))

	// exactly the bound: succeeds with a zero (elided) refund
	env.ResetTransfers()
	env.SetCall(alice, min)
	assert.Nil(t, tk.Register(""))
	assert.True(t, tk.IsRegistered(alice))
	assert.Len(t, env.Transfers(), 0)

	// above the bound: refunds exactly the excess
	env.ResetTransfers()
	over := new(uint256.Int).AddUint64(min, 37)
	env.SetCall(bob, over)
	assert.Nil(t, tk.Register(""))
	transfers = env.Transfers()
	assert.Len(t, transfers, 1)
	assert.Equal(t, uint64(37), transfers[0].Amount.Uint64())
}

func TestRegisterTwice(t *testing.T) {
	tk, store, env := newToken(t)
	registerAs(t, tk, env, alice)
	usage := store.StorageUsage()

	env.SetCall(alice, tk.StorageBounds().Min)
	err := tk.Register("")
	assert.Equal(t, account.ErrAlreadyRegistered, err)

	// the failing call changed nothing and returned the attachment
	assert.Equal(t, usage, store.StorageUsage())
	transfers := env.Transfers()
	assert.Len(t, transfers, 1)
	assert.Equal(t, 0, transfers[0].Amount.Cmp(tk.StorageBounds().Min))
}

func TestRegisterOther(t *testing.T) {
	tk, _, env := newToken(t)

	// the owner pays the bond on behalf of alice
	env.SetCall(owner, tk.StorageBounds().Min)
	assert.Nil(t, tk.Register(alice))
	assert.True(t, tk.IsRegistered(alice))

	bal, err := tk.BalanceOf(alice)
	assert.Nil(t, err)
	assert.True(t, bal.IsZero())
}

func TestTransfer(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)

	// the minimal unit is demanded exactly
	env.SetCall(owner, uint256.NewInt(0))
	err := tk.Transfer(alice, uint256.NewInt(100), "")
	assert.Equal(t, ErrInvalidAttachment, err)

	env.SetCall(owner, uint256.NewInt(2))
	err = tk.Transfer(alice, uint256.NewInt(100), "")
	assert.Equal(t, ErrInvalidAttachment, err)

	env.ResetTransfers()
	env.SetCall(owner, OneValueUnit)
	assert.Nil(t, tk.Transfer(alice, uint256.NewInt(100), "hello"))

	bal, _ := tk.BalanceOf(alice)
	assert.Equal(t, uint64(100), bal.Uint64())

	// no storage changed, so the unit attachment came straight back
	transfers := env.Transfers()
	assert.Len(t, transfers, 1)
	assert.Equal(t, 0, transfers[0].Amount.Cmp(OneValueUnit))

	// unregistered receiver fails the transfer whole
	env.SetCall(owner, OneValueUnit)
	err = tk.Transfer(bob, uint256.NewInt(1), "")
	assert.Equal(t, ledger.ErrNotRegistered, err)

	conserved(t, tk, owner, alice, bob)
}

func TestTransferAtomicity(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	fund(t, tk, env, alice, 10)

	env.SetCall(alice, OneValueUnit)
	err := tk.Transfer(bob, uint256.NewInt(11), "")
	assert.Equal(t, ledger.ErrNotRegistered, err)

	env.SetCall(alice, OneValueUnit)
	err = tk.Transfer(owner, uint256.NewInt(11), "")
	assert.Equal(t, ledger.ErrInsufficientBalance, err)

	bal, _ := tk.BalanceOf(alice)
	assert.Equal(t, uint64(10), bal.Uint64())
	conserved(t, tk, owner, alice)
}

func TestTransferAndCallPartialRejection(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	fund(t, tk, env, alice, 100)

	// bob uses 25 of the 40, reporting 15 unused
	env.RegisterReceiver(bob, func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
		assert.Equal(t, alice, sender)
		assert.Equal(t, []byte("job"), payload)
		return uint256.NewInt(25), nil
	})

	env.SetCall(alice, OneValueUnit)
	kept, err := tk.TransferAndCall(bob, uint256.NewInt(40), "", []byte("job"))
	assert.Nil(t, err)
	assert.Equal(t, uint64(25), kept.Uint64())

	aliceBal, _ := tk.BalanceOf(alice)
	bobBal, _ := tk.BalanceOf(bob)
	assert.Equal(t, uint64(75), aliceBal.Uint64())
	assert.Equal(t, uint64(25), bobBal.Uint64())
	conserved(t, tk, owner, alice, bob)
}

func TestTransferAndCallFullRejection(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	fund(t, tk, env, alice, 100)

	env.RegisterReceiver(bob, func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
		return uint256.NewInt(0), nil
	})

	env.SetCall(alice, OneValueUnit)
	kept, err := tk.TransferAndCall(bob, uint256.NewInt(40), "", nil)
	assert.Nil(t, err)
	assert.True(t, kept.IsZero())

	aliceBal, _ := tk.BalanceOf(alice)
	bobBal, _ := tk.BalanceOf(bob)
	assert.Equal(t, uint64(100), aliceBal.Uint64())
	assert.True(t, bobBal.IsZero())
	conserved(t, tk, owner, alice, bob)
}

func TestTransferAndCallTrap(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	fund(t, tk, env, alice, 100)

	env.RegisterReceiver(bob, func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
		return nil, errors.New("receiver exploded")
	})

	// a trapped receiver is a full rejection, not an outer failure
	env.SetCall(alice, OneValueUnit)
	kept, err := tk.TransferAndCall(bob, uint256.NewInt(40), "", nil)
	assert.Nil(t, err)
	assert.True(t, kept.IsZero())

	aliceBal, _ := tk.BalanceOf(alice)
	assert.Equal(t, uint64(100), aliceBal.Uint64())

	// an account without a receiver hook traps the same way
	env.SetCall(alice, OneValueUnit)
	kept, err = tk.TransferAndCall(owner, uint256.NewInt(10), "", nil)
	assert.Nil(t, err)
	assert.True(t, kept.IsZero())
	conserved(t, tk, owner, alice, bob)
}

func TestTransferAndCallOverReport(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	fund(t, tk, env, alice, 100)

	// claiming to have used more than it received means it kept
	// everything, never a reversal
	env.RegisterReceiver(bob, func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
		return new(uint256.Int).AddUint64(amount, 999), nil
	})

	env.SetCall(alice, OneValueUnit)
	kept, err := tk.TransferAndCall(bob, uint256.NewInt(40), "", nil)
	assert.Nil(t, err)
	assert.Equal(t, uint64(40), kept.Uint64())

	bobBal, _ := tk.BalanceOf(bob)
	assert.Equal(t, uint64(40), bobBal.Uint64())
}

func TestTransferAndCallRefundClamped(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	fund(t, tk, env, alice, 100)

	// bob spends 30 of the 40 elsewhere during the callback and then
	// claims everything went unused; only what remains can come back
	env.RegisterReceiver(bob, func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
		env.SetCall(bob, OneValueUnit)
		if err := tk.Transfer(owner, uint256.NewInt(30), ""); err != nil {
			return nil, err
		}
		env.SetCall(alice, OneValueUnit)
		return uint256.NewInt(0), nil
	})

	env.SetCall(alice, OneValueUnit)
	kept, err := tk.TransferAndCall(bob, uint256.NewInt(40), "", nil)
	assert.Nil(t, err)
	assert.Equal(t, uint64(30), kept.Uint64())

	aliceBal, _ := tk.BalanceOf(alice)
	bobBal, _ := tk.BalanceOf(bob)
	assert.Equal(t, uint64(70), aliceBal.Uint64())
	assert.True(t, bobBal.IsZero())
	conserved(t, tk, owner, alice, bob)
}

func TestUnregister(t *testing.T) {
	tk, store, env := newToken(t)
	registerAs(t, tk, env, alice)
	usageBefore := store.StorageUsage()

	fund(t, tk, env, alice, 30)

	// self-service unregistration protects a non-empty balance
	env.SetCall(alice, OneValueUnit)
	err := tk.Unregister(false)
	assert.Equal(t, account.ErrBalanceNotEmpty, err)
	assert.True(t, tk.IsRegistered(alice))

	// drain and retry
	env.SetCall(alice, OneValueUnit)
	assert.Nil(t, tk.Transfer(owner, uint256.NewInt(30), ""))
	env.ResetTransfers()

	env.SetCall(alice, OneValueUnit)
	assert.Nil(t, tk.Unregister(false))
	assert.False(t, tk.IsRegistered(alice))

	// the freed storage came back as value: attachment + bond
	transfers := env.Transfers()
	assert.Len(t, transfers, 1)
	want := new(uint256.Int).Add(OneValueUnit, tk.StorageBounds().Min)
	assert.Equal(t, 0, transfers[0].Amount.Cmp(want))
	assert.Equal(t, usageBefore-tk.StorageBounds().Min.Uint64(), store.StorageUsage())
}

func TestForcedCloseBurns(t *testing.T) {
	tk, _, env := newToken(t)
	registerAs(t, tk, env, alice)
	fund(t, tk, env, alice, 30)

	env.SetCall(alice, OneValueUnit)
	assert.Nil(t, tk.Unregister(true))
	assert.False(t, tk.IsRegistered(alice))

	_, err := tk.BalanceOf(alice)
	assert.Equal(t, ledger.ErrNotRegistered, err)

	burned, err := tk.Burned()
	assert.Nil(t, err)
	assert.Equal(t, uint64(30), burned.Uint64())
	conserved(t, tk, owner, alice)
}

func TestConservationSequence(t *testing.T) {
	tk, _, env := newToken(t)
	ids := []string{owner, alice, bob, "Carol"}

	registerAs(t, tk, env, alice)
	registerAs(t, tk, env, bob)
	registerAs(t, tk, env, "Carol")
	conserved(t, tk, ids...)

	fund(t, tk, env, alice, 500)
	fund(t, tk, env, bob, 200)
	conserved(t, tk, ids...)

	env.SetCall(alice, OneValueUnit)
	assert.Nil(t, tk.Transfer("Carol", uint256.NewInt(123), ""))
	conserved(t, tk, ids...)

	env.SetCall(bob, OneValueUnit)
	assert.Nil(t, tk.Unregister(true))
	conserved(t, tk, ids...)

	env.SetCall("Carol", OneValueUnit)
	assert.Equal(t, ledger.ErrInsufficientBalance, tk.Transfer(alice, uint256.NewInt(1_000_000), ""))
	conserved(t, tk, ids...)
}

func TestHooksFireOnce(t *testing.T) {
	var burns, closes int
	store := memdb.New()
	env := host.NewLocalEnv()
	tk, err := Genesis(&Config{
		Store:        store,
		Env:          env,
		TotalSupply:  totalSupply,
		Owner:        owner,
		PricePerByte: uint256.NewInt(1),
		Hooks: account.Hooks{
			OnTokensBurned:  func(id string, amount *uint256.Int) { burns++ },
			OnAccountClosed: func(id string, balance *uint256.Int) { closes++ },
		},
	})
	assert.Nil(t, err)

	registerAs(t, tk, env, alice)
	fund(t, tk, env, alice, 5)

	env.SetCall(alice, OneValueUnit)
	assert.Nil(t, tk.Unregister(true))
	assert.Equal(t, 1, burns)
	assert.Equal(t, 1, closes)
}
