package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(4) // min cost keeps the test fast

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, h.Compare("s3cret-pass", hash))
	assert.False(t, h.Compare("wrong-pass", hash))
}

func TestCompare_MalformedHash(t *testing.T) {
	h := NewHasher(4)
	assert.False(t, h.Compare("anything", "not-a-bcrypt-hash"))
}

func TestNewHasher_ClampsCost(t *testing.T) {
	hashes := map[string]*Hasher{
		"low":  NewHasher(-1),
		"high": NewHasher(99),
	}
	for name, h := range hashes {
		hash, err := h.Hash("pw")
		require.NoError(t, err, name)
		assert.True(t, h.Compare("pw", hash), name)
	}
}
