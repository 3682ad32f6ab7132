package user

import (
	"strconv"
	"strings"
	"time"
)

type RoleClass string

const (
	RoleAdmin RoleClass = "admin"
	RoleUser  RoleClass = "user"
)

const (
	DefaultRoleLabel = "Team Member"
	AdminRoleLabel   = "Administrator"
)

func (r RoleClass) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is the persisted record. Field names follow the users.json format.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Avatar       string    `json:"avatar"`
	Role         string    `json:"role"`
	RoleType     RoleClass `json:"roleType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

// PublicAccount is what leaves the process. It never carries the hash.
type PublicAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	RoleType  RoleClass `json:"roleType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Avatar:    a.Avatar,
		Role:      a.Role,
		RoleType:  a.RoleType,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (p PublicAccount) IsAdmin() bool {
	return p.RoleType == RoleAdmin
}

// CanEdit reports whether p may update the account with the given id.
func (p PublicAccount) CanEdit(id string) bool {
	return p.ID == id || p.IsAdmin()
}

// NormalizeEmail is applied before every store and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const avatarBaseURL = "https://img.heroui.chat/image/avatar?w=200&h=200&u="

// DefaultAvatar derives the placeholder image for the n-th account.
func DefaultAvatar(n int) string {
	return avatarBaseURL + strconv.Itoa(n+5)
}
