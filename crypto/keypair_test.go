package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccountKeypair(t *testing.T) {
	pub, seed, err := GetAccountKeypair()
	assert.Nil(t, err)
	assert.NotEqual(t, pub, seed)

	assert.True(t, IsValidKey(pub))
	assert.True(t, IsValidAccountKey(pub))
	assert.False(t, IsValidAccountKey(seed))

	k, err := DecodeKey(pub)
	assert.Nil(t, err)
	assert.Equal(t, KeyTypeAccountID, k.Code)
	assert.Equal(t, pub, EncodeKey(k))
}
