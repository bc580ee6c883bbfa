package crypto

import (
	"crypto/sha256"

	b58 "github.com/mr-tron/base58/base58"
)

// compute sha256 checksum (32 bytes) in base58 form
func SHA256Hash(b []byte) string {
	v := sha256.Sum256(b)
	return b58.Encode(v[:])
}

// compute sha256 checksum (32 bytes)
func SHA256HashBytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}
