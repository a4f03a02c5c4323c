package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/verisys/go-auth-starter/internal/api/auth"
)

// UserResponse is the admin-facing projection of a user. It deliberately
// omits the password hash and token version.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserResponse(u *auth.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type ChangeRoleRequest struct {
	Role auth.Role `json:"role"`
}
