package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	tok, err := NewSessionToken("secret", 42, "sid-1", issued, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(24*time.Hour), tok.Exp)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
}

func TestParseSessionTokenRejects(t *testing.T) {
	now := time.Now().UTC()
	good, err := NewSessionToken("secret", 7, "sid", now, time.Hour)
	require.NoError(t, err)
	expired, err := NewSessionToken("secret", 7, "sid", now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	noSid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "secret", expired.Token},
		{"garbage", "secret", "not-a-jwt"},
		{"missing sid", "secret", noSid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.secret, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("abc"))
	assert.NotEqual(t, h, HashToken("abd"))
}

func TestRandomDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := RandomDigits(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.Equal(t, "", strings.Trim(code, "0123456789"))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	_, err = HashPassword(strings.Repeat("x", 73), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestParseSessionTokenAllowExpired(t *testing.T) {
	expired, err := NewSessionToken("secret", 9, "old", time.Now().Add(-48*time.Hour), time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionTokenAllowExpired("secret", expired.Token)
	require.NoError(t, err)
	assert.Equal(t, "old", claims.SessionID)

	_, err = ParseSessionTokenAllowExpired("other", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
