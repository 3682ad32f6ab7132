package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", DefaultTTL)

	raw, err := m.GenerateToken("u-1", "ann@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := m.VerifyToken(raw)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ann@x.com", claims.Email)
	assert.Equal(t, "u-1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, claims.IssuedAt.Add(DefaultTTL), claims.ExpiresAt.Time, time.Second)
}

func TestManager_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager("test-secret", DefaultTTL, WithClock(clock.Now))

	raw, err := m.GenerateToken("u-1", "ann@x.com")
	require.NoError(t, err)

	issued := clock.t

	clock.t = issued.Add(6 * 24 * time.Hour)
	_, err = m.VerifyToken(raw)
	require.NoError(t, err, "token should be accepted at issuance+6d")

	clock.t = issued.Add(8 * 24 * time.Hour)
	_, err = m.VerifyToken(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	good, err := m.GenerateToken("u-1", "ann@x.com")
	require.NoError(t, err)

	other, err := NewManager("other-secret", time.Hour).GenerateToken("u-1", "ann@x.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbled", raw: "not.a.token"},
		{name: "truncated", raw: good[:len(good)-4]},
		{name: "wrong_secret", raw: other},
		{name: "alg_none", raw: none},
		{name: "no_expiry", raw: noExp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyToken(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager("s", 0)
	assert.Equal(t, DefaultTTL, m.TTL())
}
