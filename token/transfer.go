package token

import (
	"errors"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/tokenledger/go-tokenledger/ledger"
	"github.com/tokenledger/go-tokenledger/log"
	"github.com/tokenledger/go-tokenledger/util"
)

var (
	ErrReceiverTrapped = errors.New("receiver trapped")
)

// TransferStatus tracks a transfer-and-call exchange through its
// confirm/reverse protocol.
type TransferStatus int

const (
	StatusPending TransferStatus = iota
	StatusConfirmed
	StatusReversed
	StatusPartiallyReversed
)

func (s TransferStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusReversed:
		return "reversed"
	case StatusPartiallyReversed:
		return "partially reversed"
	}
	return "unknown"
}

// Receipt is the ephemeral record of one transfer-and-call exchange.
// It lives for the duration of the call only; persisting it would
// bill storage to a caller who attached the minimal unit.
type Receipt struct {
	ID       string
	Sender   string
	Receiver string
	Amount   *uint256.Int
	Refunded *uint256.Int
	Status   TransferStatus
}

func newReceipt(sender, receiver string, amount *uint256.Int) *Receipt {
	return &Receipt{
		ID:       uuid.NewString(),
		Sender:   sender,
		Receiver: receiver,
		Amount:   new(uint256.Int).Set(amount),
		Refunded: uint256.NewInt(0),
		Status:   StatusPending,
	}
}

// Kept returns the amount the receiver ended up keeping.
func (rc *Receipt) Kept() *uint256.Int {
	return new(uint256.Int).Sub(rc.Amount, rc.Refunded)
}

// resolve runs the confirmation phase of a transfer-and-call: invoke
// the receiver, derive the unused amount from its usage report and
// reverse the covered portion back to the sender. The transfer committed
// before this runs, so every balance is re-read here; the callback
// may have moved funds on the same ledger in the meantime.
//
// A receiver trap counts as full rejection. No outcome of this phase
// fails the outer call, drives a balance negative, or mints tokens.
func (tk *Token) resolve(rcpt *Receipt, payload []byte) error {
	var unused *uint256.Int
	used, err := tk.env.CallReceiver(rcpt.Receiver, rcpt.Sender, rcpt.Amount, payload)
	if err != nil {
		log.Warnf("%v during transfer %s: %v", ErrReceiverTrapped, rcpt.ID, err)
		unused = new(uint256.Int).Set(rcpt.Amount)
	} else {
		// a receiver over-reporting its usage kept everything; it
		// never reverses a transfer the receiver already observed
		used = util.ClampU128(used, rcpt.Amount)
		unused = new(uint256.Int).Sub(rcpt.Amount, used)
	}

	if unused.IsZero() {
		rcpt.Status = StatusConfirmed
		log.Infof("transfer %s confirmed, receiver kept %s", rcpt.ID, rcpt.Amount)
		return nil
	}

	dt, err := tk.store.Begin()
	if err != nil {
		return err
	}

	refund := uint256.NewInt(0)
	bal, err := tk.lm.Balance(dt, rcpt.Receiver)
	switch {
	case err == ledger.ErrNotRegistered:
		// the receiver closed its account during the callback,
		// nothing is left to reverse
	case err != nil:
		dt.Rollback()
		return err
	default:
		refund = util.MinU128(unused, bal)
	}

	if refund.IsZero() {
		// read-only transaction, nothing to keep
		dt.Rollback()
	} else {
		if err := tk.lm.Withdraw(dt, rcpt.Receiver, refund); err != nil {
			dt.Rollback()
			return err
		}
		if err := tk.lm.Deposit(dt, rcpt.Sender, refund); err != nil {
			// the sender unregistered during the callback; the
			// refund is abandoned and stays with the receiver
			dt.Rollback()
			log.Warnf("refund of %s to %s abandoned: %v", refund, rcpt.Sender, err)
			refund = uint256.NewInt(0)
		} else if err := dt.Commit(); err != nil {
			return err
		}
	}

	rcpt.Refunded = refund
	switch {
	case refund.Eq(rcpt.Amount):
		rcpt.Status = StatusReversed
	case !refund.IsZero():
		rcpt.Status = StatusPartiallyReversed
	default:
		rcpt.Status = StatusConfirmed
	}
	log.Infow("transfer resolved",
		"id", rcpt.ID,
		"status", rcpt.Status.String(),
		"refunded", rcpt.Refunded.String(),
		"kept", rcpt.Kept().String(),
	)
	return nil
}
