package tokenpb

import (
	"errors"

	"github.com/golang/protobuf/proto"
	"github.com/holiman/uint256"
)

// U128Size is the wire width of every balance-like field.
const U128Size = 16

var (
	ErrNotU128 = errors.New("value out of u128 range")
)

// Encode pb message to bytes
func Encode(msg proto.Message) ([]byte, error) {
	b, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Decode pb message to Account
func DecodeAccount(b []byte) (*Account, error) {
	acc := &Account{}
	if err := proto.Unmarshal(b, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Decode pb message to Bond
func DecodeBond(b []byte) (*Bond, error) {
	bond := &Bond{}
	if err := proto.Unmarshal(b, bond); err != nil {
		return nil, err
	}
	return bond, nil
}

// Decode pb message to Tally
func DecodeTally(b []byte) (*Tally, error) {
	tally := &Tally{}
	if err := proto.Unmarshal(b, tally); err != nil {
		return nil, err
	}
	return tally, nil
}

// Decode pb message to Meta
func DecodeMeta(b []byte) (*Meta, error) {
	meta := &Meta{}
	if err := proto.Unmarshal(b, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// MarshalU128 writes the value as a fixed 16-byte big-endian slice,
// zero included, which keeps record sizes constant.
func MarshalU128(v *uint256.Int) ([]byte, error) {
	if v.BitLen() > 128 {
		return nil, ErrNotU128
	}
	b := v.Bytes32()
	return b[U128Size:], nil
}

// UnmarshalU128 reads a fixed 16-byte big-endian slice.
func UnmarshalU128(b []byte) (*uint256.Int, error) {
	if len(b) != U128Size {
		return nil, ErrNotU128
	}
	return new(uint256.Int).SetBytes(b), nil
}
