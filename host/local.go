package host

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/log"
)

// ReceiverFunc is an in-process receiver acknowledgment hook. It
// returns how much of the transferred amount it actually used; an
// error means the receiver trapped.
type ReceiverFunc func(sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error)

// Transfer is one scheduled outbound payment.
type Transfer struct {
	To     string
	Amount *uint256.Int
}

// LocalEnv is the in-process host environment used by the CLI and
// tests. The caller and attachment are set per call; scheduled
// transfers accumulate in a journal for inspection.
type LocalEnv struct {
	caller    string
	attached  *uint256.Int
	receivers map[string]ReceiverFunc
	transfers []Transfer
}

func NewLocalEnv() *LocalEnv {
	return &LocalEnv{
		attached:  uint256.NewInt(0),
		receivers: make(map[string]ReceiverFunc),
	}
}

// SetCall fixes the caller identity and attached value for the
// next call.
func (e *LocalEnv) SetCall(caller string, attached *uint256.Int) {
	e.caller = caller
	e.attached = new(uint256.Int).Set(attached)
}

// RegisterReceiver installs an in-process receiver hook for the
// account, making the account callable in transfer-and-call.
func (e *LocalEnv) RegisterReceiver(id string, fn ReceiverFunc) {
	e.receivers[id] = fn
}

// Transfers returns the journal of scheduled outbound payments.
func (e *LocalEnv) Transfers() []Transfer {
	return e.transfers
}

// ResetTransfers clears the journal.
func (e *LocalEnv) ResetTransfers() {
	e.transfers = nil
}

func (e *LocalEnv) Caller() string {
	return e.caller
}

func (e *LocalEnv) AttachedValue() *uint256.Int {
	return new(uint256.Int).Set(e.attached)
}

func (e *LocalEnv) TransferValue(to string, amount *uint256.Int) error {
	e.transfers = append(e.transfers, Transfer{
		To:     to,
		Amount: new(uint256.Int).Set(amount),
	})
	log.Debugf("scheduled transfer of %s to %s", amount, to)
	return nil
}

func (e *LocalEnv) CallReceiver(receiver string, sender string, amount *uint256.Int, payload []byte) (*uint256.Int, error) {
	fn, ok := e.receivers[receiver]
	if !ok {
		// calling an account without a receiver hook is a trap
		return nil, fmt.Errorf("receiver %s is not callable", receiver)
	}
	used, err := fn(sender, new(uint256.Int).Set(amount), payload)
	if err != nil {
		return nil, err
	}
	if used == nil {
		used = uint256.NewInt(0)
	}
	return used, nil
}
