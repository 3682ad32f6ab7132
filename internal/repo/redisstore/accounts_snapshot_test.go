package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSnapshot(t *testing.T) *AccountsSnapshot {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	s := New(Config{Addr: addr, Key: "taskflow:test:" + uuid.NewString()})
	t.Cleanup(func() {
		_ = s.redisdb.Del(context.Background(), s.key).Err()
		_ = s.Close()
	})

	require.NoError(t, s.Ping(context.Background()))

	return s
}

func TestAccountsSnapshot_Missing(t *testing.T) {
	s := setupSnapshot(t)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, user.ErrNoSnapshot)
}

func TestAccountsSnapshot_SaveLoad(t *testing.T) {
	s := setupSnapshot(t)
	ctx := context.Background()

	want := []user.Account{
		{ID: "u1", Name: "Ann", Email: "ann@x.com", PasswordHash: "h", RoleType: user.RoleUser, CreatedAt: time.Now().UTC().Truncate(time.Second)},
	}

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewWithClient_DefaultKey(t *testing.T) {
	s := NewWithClient(nil, "")
	assert.Equal(t, DefaultKey, s.key)
}
