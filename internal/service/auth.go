package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/taskflow/internal/auth"
	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/geocoder89/taskflow/internal/security"
	"github.com/google/uuid"
)

type UsersStore interface {
	Create(ctx context.Context, a user.Account) (user.Account, error)
	GetByEmail(ctx context.Context, email string) (user.Account, error)
	GetByID(ctx context.Context, id string) (user.Account, error)
	List(ctx context.Context) ([]user.Account, error)
	Update(ctx context.Context, id string, mutate func(*user.Account) error) (user.Account, error)
}

type TokenManager interface {
	GenerateToken(userID, email string) (string, error)
	VerifyToken(token string) (*auth.Claims, error)
}

// compared against when the email is unknown, so both failure paths cost one bcrypt check
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1S6sT0DlsdOAKXcpnRXy3yS"

type AuthService struct {
	users  UsersStore
	tokens TokenManager
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*AuthService)

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *AuthService) { s.newID = fn }
}

func NewAuthService(users UsersStore, tokens TokenManager, log *slog.Logger, opts ...Option) *AuthService {
	if log == nil {
		log = slog.Default()
	}

	s := &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (user.PublicAccount, string, error) {
	created, err := s.create(ctx, name, email, password, user.RoleUser, user.DefaultRoleLabel)
	if err != nil {
		return user.PublicAccount{}, "", err
	}

	token, err := s.tokens.GenerateToken(created.ID, created.Email)
	if err != nil {
		return user.PublicAccount{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.log.InfoContext(ctx, "account registered", "user_id", created.ID)

	return created.Public(), token, nil
}

// CreateAccount is the admin invite path: same rules as Register, caller picks
// the role class, no token is issued.
func (s *AuthService) CreateAccount(ctx context.Context, name, email, password string, roleType user.RoleClass) (user.PublicAccount, error) {
	if roleType == "" {
		roleType = user.RoleUser
	}

	if !roleType.Valid() {
		return user.PublicAccount{}, fmt.Errorf("%w: roleType must be admin or user", user.ErrValidation)
	}

	label := user.DefaultRoleLabel
	if roleType == user.RoleAdmin {
		label = user.AdminRoleLabel
	}

	created, err := s.create(ctx, name, email, password, roleType, label)
	if err != nil {
		return user.PublicAccount{}, err
	}

	s.log.InfoContext(ctx, "account created", "user_id", created.ID, "role_type", string(roleType))

	return created.Public(), nil
}

func (s *AuthService) create(ctx context.Context, name, email, password string, roleType user.RoleClass, roleLabel string) (user.Account, error) {
	name = strings.TrimSpace(name)
	email = user.NormalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return user.Account{}, fmt.Errorf("%w: name, email and password are required", user.ErrValidation)
	}

	// cheap check before paying for bcrypt, Create checks again under the lock
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return user.Account{}, user.ErrConflict
	} else if !errors.Is(err, user.ErrNotFound) {
		return user.Account{}, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		if security.IsTooLong(err) {
			return user.Account{}, user.ErrPasswordTooLong
		}
		return user.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()

	return s.users.Create(ctx, user.Account{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         roleLabel,
		RoleType:     roleType,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) Login(ctx context.Context, email, password string) (user.PublicAccount, string, error) {
	email = user.NormalizeEmail(email)

	if email == "" || password == "" {
		return user.PublicAccount{}, "", fmt.Errorf("%w: email and password are required", user.ErrValidation)
	}

	found, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.CheckPassword(dummyHash, password)
			return user.PublicAccount{}, "", user.ErrInvalidCredentials
		}
		return user.PublicAccount{}, "", err
	}

	if !security.CheckPassword(found.PasswordHash, password) {
		return user.PublicAccount{}, "", user.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(found.ID, found.Email)
	if err != nil {
		return user.PublicAccount{}, "", fmt.Errorf("issue token: %w", err)
	}

	return found.Public(), token, nil
}

// Authenticate resolves a bearer token to its account. Role changes made after
// issuance do not invalidate the token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (user.PublicAccount, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return user.PublicAccount{}, fmt.Errorf("%w: %v", user.ErrUnauthenticated, err)
	}

	found, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return user.PublicAccount{}, err
	}

	return found.Public(), nil
}

func (s *AuthService) GetAccount(ctx context.Context, id string) (user.PublicAccount, error) {
	found, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.PublicAccount{}, err
	}

	return found.Public(), nil
}

func (s *AuthService) ListAccounts(ctx context.Context) ([]user.PublicAccount, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]user.PublicAccount, 0, len(all))
	for _, a := range all {
		out = append(out, a.Public())
	}

	return out, nil
}

// UpdateAccount applies a partial update. Accounts may edit themselves;
// admins may edit anyone and are the only ones who can change roleType.
func (s *AuthService) UpdateAccount(ctx context.Context, actor user.PublicAccount, id string, req user.UpdateRequest) (user.PublicAccount, error) {
	if !actor.CanEdit(id) {
		return user.PublicAccount{}, user.ErrForbidden
	}

	if req.Empty() {
		return user.PublicAccount{}, fmt.Errorf("%w: nothing to update", user.ErrValidation)
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return user.PublicAccount{}, fmt.Errorf("%w: name must not be blank", user.ErrValidation)
	}

	if req.RoleType != nil && !req.RoleType.Valid() {
		return user.PublicAccount{}, fmt.Errorf("%w: roleType must be admin or user", user.ErrValidation)
	}

	if req.RoleType != nil && !actor.IsAdmin() {
		return user.PublicAccount{}, user.ErrForbidden
	}

	now := s.now().UTC()

	updated, err := s.users.Update(ctx, id, func(a *user.Account) error {
		if req.Name != nil {
			a.Name = strings.TrimSpace(*req.Name)
		}
		if req.Avatar != nil {
			a.Avatar = strings.TrimSpace(*req.Avatar)
		}
		if req.Role != nil {
			a.Role = strings.TrimSpace(*req.Role)
		}
		if req.RoleType != nil {
			a.RoleType = *req.RoleType
		}
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return user.PublicAccount{}, err
	}

	s.log.InfoContext(ctx, "account updated", "user_id", updated.ID, "actor_id", actor.ID)

	return updated.Public(), nil
}

// EnsureAdmin creates an elevated account unless the email is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if user.NormalizeEmail(email) == "" || password == "" {
		return nil
	}

	if strings.TrimSpace(name) == "" {
		name = user.AdminRoleLabel
	}

	created, err := s.create(ctx, name, email, password, user.RoleAdmin, user.AdminRoleLabel)
	if errors.Is(err, user.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	s.log.InfoContext(ctx, "admin account seeded", "user_id", created.ID)

	return nil
}
