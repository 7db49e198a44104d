package rpc

import (
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// --- Requests ---

type tokenRequest struct {
	Token *string `json:"token"`
}

type registerUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName" validate:"required"`
}

type loginUserRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type getUserRequest struct {
	ID string `json:"id" validate:"required"`
}

type updateUserRequest struct {
	ID       string  `json:"id"       validate:"required"`
	FullName *string `json:"fullName" validate:"omitnil,min=1"`
	Password *string `json:"password" validate:"omitnil,min=8,max=128"`
	Email    *string `json:"email"    validate:"omitnil,email"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{FullName: r.FullName, Password: r.Password, Email: r.Email}
}

// --- Responses ---
// Response types are owned by the transport so the password hash can never
// leak through a serialized domain.User.

type PingResponse struct {
	Status string `json:"status"`
}

type UserResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	IsVerified bool       `json:"isVerified"`
	LastLogin  *time.Time `json:"lastLogin"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
