package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccountsRepo(t *testing.T) *AccountsRepo {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewAccountsRepo(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = pool.Exec(ctx, `TRUNCATE accounts`)
	require.NoError(t, err)

	return repo
}

func TestAccountsRepo_EmptyIsNoSnapshot(t *testing.T) {
	repo := setupAccountsRepo(t)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, user.ErrNoSnapshot)
}

func TestAccountsRepo_SaveLoadKeepsOrder(t *testing.T) {
	repo := setupAccountsRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	want := []user.Account{
		{ID: "b", Name: "B", Email: "b@x.com", PasswordHash: "h1", RoleType: user.RoleAdmin, CreatedAt: now},
		{ID: "a", Name: "A", Email: "a@x.com", PasswordHash: "h2", RoleType: user.RoleUser, CreatedAt: now, UpdatedAt: now},
	}

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, user.RoleAdmin, got[0].RoleType)
	assert.True(t, got[0].UpdatedAt.IsZero())
	assert.True(t, got[1].UpdatedAt.Equal(now))

	require.NoError(t, repo.Save(ctx, want[:1]))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
