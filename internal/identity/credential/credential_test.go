package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPBKDF2(t *testing.T) {
	h := NewPBKDF2("pepper", 1000)

	a := h.Digest("s3cret")
	assert.Equal(t, a, h.Digest("s3cret"), "digest must be deterministic")
	assert.NotEqual(t, a, h.Digest("other"))
	assert.NotContains(t, a, "s3cret")
	assert.Len(t, a, len("pbkdf2$")+64)

	other := NewPBKDF2("different", 1000)
	assert.NotEqual(t, a, other.Digest("s3cret"), "pepper changes the digest")
}

func TestSHA256_Legacy(t *testing.T) {
	// sha256("password")
	assert.Equal(t,
		"5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8",
		SHA256{}.Digest("password"))
}

func TestNew(t *testing.T) {
	h, err := New("", "p", 10)
	require.NoError(t, err)
	assert.IsType(t, &PBKDF2{}, h)

	h, err = New("sha256", "", 0)
	require.NoError(t, err)
	assert.IsType(t, SHA256{}, h)

	_, err = New("md5", "", 0)
	require.Error(t, err)
}
