package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar        TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT '',
	role_type     TEXT NOT NULL DEFAULT 'user',
	position      INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ
)`

// AccountsRepo stores the account table snapshot in Postgres.
type AccountsRepo struct {
	pool *pgxpool.Pool
}

func NewAccountsRepo(pool *pgxpool.Pool) *AccountsRepo {
	return &AccountsRepo{pool: pool}
}

func (r *AccountsRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, accountsSchema)
	return err
}

func (r *AccountsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *AccountsRepo) Load(ctx context.Context) ([]user.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, password_hash, avatar, role, role_type, created_at, updated_at
		FROM accounts
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.Account, 0)

	for rows.Next() {
		var (
			a         user.Account
			roleType  string
			updatedAt *time.Time
		)

		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Email,
			&a.PasswordHash,
			&a.Avatar,
			&a.Role,
			&roleType,
			&a.CreatedAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		a.RoleType = user.RoleClass(roleType)
		a.CreatedAt = a.CreatedAt.UTC()
		if updatedAt != nil {
			a.UpdatedAt = updatedAt.UTC()
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, user.ErrNoSnapshot
	}

	return out, nil
}

// Save replaces every row in one transaction.
func (r *AccountsRepo) Save(ctx context.Context, accounts []user.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}

	batch := &pgx.Batch{}

	for i, a := range accounts {
		var updatedAt *time.Time
		if !a.UpdatedAt.IsZero() {
			u := a.UpdatedAt
			updatedAt = &u
		}

		batch.Queue(`
			INSERT INTO accounts (id, name, email, password_hash, avatar, role, role_type, position, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			a.ID, a.Name, a.Email, a.PasswordHash, a.Avatar, a.Role, string(a.RoleType), i, a.CreatedAt, updatedAt,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert accounts: %w", err)
		}
	}

	return tx.Commit(ctx)
}
