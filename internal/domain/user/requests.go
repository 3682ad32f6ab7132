package user

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// partial update, nil means "leave as is"
type UpdateRequest struct {
	Name     *string    `json:"name" binding:"omitempty,min=1,max=120"`
	Avatar   *string    `json:"avatar" binding:"omitempty,max=2048"`
	Role     *string    `json:"role" binding:"omitempty,max=80"`
	RoleType *RoleClass `json:"roleType" binding:"omitempty,oneof=admin user"`
}

func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Avatar == nil && r.Role == nil && r.RoleType == nil
}

type AuthResponse struct {
	User  PublicAccount `json:"user"`
	Token string        `json:"token"`
}

// admin invite; roleType defaults to user
type CreateRequest struct {
	Name     string    `json:"name" binding:"required,max=120"`
	Email    string    `json:"email" binding:"required,max=254"`
	Password string    `json:"password" binding:"required,max=72"`
	RoleType RoleClass `json:"roleType" binding:"omitempty,oneof=admin user"`
}
