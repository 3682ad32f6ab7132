package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/taskflow/internal/actorctx"
	"github.com/geocoder89/taskflow/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Snapshots loads and saves the whole account table at once.
type Snapshots interface {
	Load(ctx context.Context) ([]user.Account, error)
	Save(ctx context.Context, accounts []user.Account) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// SaveObserver is told about every snapshot write.
type SaveObserver func(op string, took time.Duration, err error)

// UsersRepo is the in-memory account table. It is the only writer of its snapshot store.
type UsersRepo struct {
	mu       sync.RWMutex
	accounts []user.Account
	byEmail  map[string]int
	byID     map[string]int

	snapshots Snapshots
	log       *slog.Logger
	observe   SaveObserver
}

type Option func(*UsersRepo)

func WithSaveObserver(fn SaveObserver) Option {
	return func(r *UsersRepo) {
		r.observe = fn
	}
}

// NewUsersRepo loads the table once. A missing or unreadable snapshot leaves
// the table empty; that is logged and never fatal.
func NewUsersRepo(ctx context.Context, snapshots Snapshots, log *slog.Logger, opts ...Option) *UsersRepo {
	if log == nil {
		log = slog.Default()
	}

	r := &UsersRepo{
		snapshots: snapshots,
		log:       log,
	}

	for _, opt := range opts {
		opt(r)
	}

	loaded, err := snapshots.Load(ctx)

	switch {
	case errors.Is(err, user.ErrNoSnapshot):
		log.Info("no account snapshot found, starting empty")
		loaded = nil
	case err != nil:
		log.Warn("could not load account snapshot, starting empty", "err", err)
		loaded = nil
	}

	r.reset(loaded)

	if len(r.accounts) > 0 {
		log.Info("accounts loaded", "count", len(r.accounts))
	}

	return r
}

// reset rebuilds both indexes, dropping rows that repeat an id or email.
func (r *UsersRepo) reset(rows []user.Account) {
	r.accounts = make([]user.Account, 0, len(rows))
	r.byEmail = make(map[string]int, len(rows))
	r.byID = make(map[string]int, len(rows))

	for _, a := range rows {
		email := user.NormalizeEmail(a.Email)

		if a.ID == "" || email == "" {
			r.log.Warn("skipping account without id or email", "id", a.ID)
			continue
		}

		if _, dup := r.byEmail[email]; dup {
			r.log.Warn("skipping duplicate email in snapshot", "id", a.ID)
			continue
		}

		if _, dup := r.byID[a.ID]; dup {
			r.log.Warn("skipping duplicate id in snapshot", "id", a.ID)
			continue
		}

		a.Email = email
		r.byEmail[email] = len(r.accounts)
		r.byID[a.ID] = len(r.accounts)
		r.accounts = append(r.accounts, a)
	}
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.accounts)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.Account{}, user.ErrNotFound
	}

	return r.accounts[i], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return user.Account{}, user.ErrNotFound
	}

	return r.accounts[i], nil
}

// List returns a copy in creation order.
func (r *UsersRepo) List(ctx context.Context) ([]user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Account, len(r.accounts))
	copy(out, r.accounts)

	return out, nil
}

// Create appends a new account and rewrites the snapshot. An empty Avatar is
// filled from the table size.
func (r *UsersRepo) Create(ctx context.Context, a user.Account) (user.Account, error) {
	a.Email = user.NormalizeEmail(a.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[a.Email]; exists {
		return user.Account{}, user.ErrConflict
	}

	if _, exists := r.byID[a.ID]; exists {
		return user.Account{}, user.ErrConflict
	}

	if a.Avatar == "" {
		a.Avatar = user.DefaultAvatar(len(r.accounts))
	}

	idx := len(r.accounts)
	r.accounts = append(r.accounts, a)
	r.byEmail[a.Email] = idx
	r.byID[a.ID] = idx

	if err := r.saveLocked(ctx, "create"); err != nil {
		// roll back so memory keeps matching the snapshot
		r.accounts = r.accounts[:idx]
		delete(r.byEmail, a.Email)
		delete(r.byID, a.ID)
		return user.Account{}, err
	}

	return a, nil
}

// Update applies mutate to a copy of the account, then swaps it in and saves.
// Id and email are not changeable through here.
func (r *UsersRepo) Update(ctx context.Context, id string, mutate func(*user.Account) error) (user.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok {
		return user.Account{}, user.ErrNotFound
	}

	prev := r.accounts[i]
	next := prev

	if err := mutate(&next); err != nil {
		return user.Account{}, err
	}

	next.ID = prev.ID
	next.Email = prev.Email
	r.accounts[i] = next

	if err := r.saveLocked(ctx, "update"); err != nil {
		r.accounts[i] = prev
		return user.Account{}, err
	}

	return next, nil
}

// Ping reports whether the snapshot store is reachable, when it can tell.
func (r *UsersRepo) Ping(ctx context.Context) error {
	p, ok := r.snapshots.(pinger)
	if !ok {
		return nil
	}

	return p.Ping(ctx)
}

func (r *UsersRepo) saveLocked(ctx context.Context, op string) error {
	ctx, span := otel.Tracer("taskflow/repo").Start(ctx, "accounts.save")
	defer span.End()

	span.SetAttributes(
		attribute.String("accounts.op", op),
		attribute.Int("accounts.count", len(r.accounts)),
	)

	logAttrs := []any{"op", op, "count", len(r.accounts)}
	if actor, ok := actorctx.UserIDFrom(ctx); ok {
		span.SetAttributes(attribute.String("accounts.actor_id", actor))
	}

	start := time.Now()
	err := r.snapshots.Save(ctx, r.accounts)
	took := time.Since(start)

	if r.observe != nil {
		r.observe(op, took, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot save failed")
		r.log.ErrorContext(ctx, "account snapshot save failed", append(logAttrs, "err", err)...)
		return &user.PersistenceError{Op: op, Err: err}
	}

	r.log.DebugContext(ctx, "account snapshot saved", append(logAttrs, "took_ms", took.Milliseconds())...)

	return nil
}
