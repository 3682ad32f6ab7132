package user

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("user not found")
)

// ErrPasswordTooLong is a validation error: bcrypt only reads 72 bytes.
var ErrPasswordTooLong = fmt.Errorf("%w: password is too long", ErrValidation)

// PersistenceError reports a failed snapshot write. The in-memory change
// that triggered it has already been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrNoSnapshot is returned by a snapshot store that has nothing saved yet.
var ErrNoSnapshot = errors.New("no account snapshot")
