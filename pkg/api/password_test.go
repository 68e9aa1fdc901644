package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordThenVerify(t *testing.T) {
	hashed, err := hashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hashed, "hunter2"))
	assert.False(t, verifyPassword(hashed, "wrong"))
}

func TestHashPasswordProducesDistinctSalts(t *testing.T) {
	a, err := hashPassword("hunter2")
	require.NoError(t, err)
	b, err := hashPassword("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	assert.False(t, verifyPassword("not-a-hash", "anything"))
}

func TestGenerateTokenShape(t *testing.T) {
	token, err := generateToken(time.Unix(1700000000, 0))
	require.NoError(t, err)

	assert.Contains(t, token, "tk_1700000000_")
	assert.Len(t, token, len("tk_1700000000_")+24)
}
