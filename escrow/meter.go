package escrow

import (
	"errors"

	"github.com/holiman/uint256"
)

// StoragePricePerByte is the fixed price of one byte of persistent
// state, in value units.
var StoragePricePerByte = uint256.NewInt(10_000_000_000_000_000_000)

var (
	ErrCostOverflow = errors.New("storage cost out of u128 range")
)

// Meter prices a byte delta of persistent state. It is a pure
// function of the byte count and the fixed price.
type Meter struct {
	price *uint256.Int
}

func NewMeter(pricePerByte *uint256.Int) *Meter {
	return &Meter{price: new(uint256.Int).Set(pricePerByte)}
}

// Cost returns the value cost of the given byte count. Storage sizes
// are bounded far below integer limits in practice; a product that
// leaves the u128 range is an invariant violation and is rejected,
// never wrapped.
func (m *Meter) Cost(byteCount uint64) (*uint256.Int, error) {
	cost := new(uint256.Int)
	if _, overflow := cost.MulOverflow(m.price, uint256.NewInt(byteCount)); overflow {
		return nil, ErrCostOverflow
	}
	if cost.BitLen() > 128 {
		return nil, ErrCostOverflow
	}
	return cost, nil
}

// PricePerByte returns the fixed price the meter charges.
func (m *Meter) PricePerByte() *uint256.Int {
	return new(uint256.Int).Set(m.price)
}
