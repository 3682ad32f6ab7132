package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geocoder89/taskflow/internal/domain/user"
)

// UsersFile keeps the whole account table as one JSON array on disk.
// Callers serialize Save; the repo holds its write lock across it.
type UsersFile struct {
	path string
	perm os.FileMode
}

func NewUsersFile(path string) *UsersFile {
	return &UsersFile{path: path, perm: 0o600}
}

func (f *UsersFile) Path() string {
	return f.path
}

func (f *UsersFile) Load(ctx context.Context) ([]user.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, user.ErrNoSnapshot
		}
		return nil, err
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return []user.Account{}, nil
	}

	var accounts []user.Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	return accounts, nil
}

func (f *UsersFile) Save(ctx context.Context, accounts []user.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if accounts == nil {
		accounts = []user.Account{}
	}

	b, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	return f.writeAtomic(b)
}

// Ping checks the target directory exists or can be created.
func (f *UsersFile) Ping(ctx context.Context) error {
	return os.MkdirAll(filepath.Dir(f.path), 0o755)
}

// writeAtomic writes to a temp file next to the target and renames it over,
// so a crash mid-write leaves the previous snapshot intact.
func (f *UsersFile) writeAtomic(data []byte) error {
	dir := filepath.Dir(f.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(f.perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return err
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	return nil
}
