package crypto

import (
	"bytes"
	"encoding/binary"
	"errors"

	b58 "github.com/mr-tron/base58/base58"
)

type KeyType uint8

// enumeration of key type
const (
	_ KeyType = iota // skip zero
	KeyTypeAccountID
	KeyTypeSeed
)

var (
	ErrInvalidKey = errors.New("invalid key string")
)

// Key is the internal representation of an account key hash,
// Code identifies the type of the key hash.
type Key struct {
	Code KeyType
	Hash [32]byte
}

// decode base58 encoded key string to Key
func DecodeKey(key string) (*Key, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	b, err := b58.Decode(key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	var k Key
	r := bytes.NewReader(b)
	err = binary.Read(r, binary.BigEndian, &k)
	if err != nil {
		return nil, ErrInvalidKey
	}

	switch k.Code {
	case KeyTypeAccountID:
		fallthrough
	case KeyTypeSeed:
		return &k, nil
	}
	return nil, ErrInvalidKey
}

// encode Key to base58 encoded key string
func EncodeKey(k *Key) string {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, k)
	return b58.Encode(buf.Bytes())
}

// check the validity of supplied key string
func IsValidKey(key string) bool {
	if _, err := DecodeKey(key); err != nil {
		return false
	}
	return true
}

// check that the key string identifies an account
func IsValidAccountKey(key string) bool {
	k, err := DecodeKey(key)
	if err != nil {
		return false
	}
	return k.Code == KeyTypeAccountID
}
