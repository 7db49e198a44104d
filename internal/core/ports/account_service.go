package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// UpdateUserInput holds the plaintext fields of a partial profile update.
type UpdateUserInput struct {
	FullName *string
	Password *string
	Email    *string
}

type LoginResult struct {
	Token string
	User  *domain.User
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	GetUserByToken(ctx context.Context, token *string) (*domain.User, error)
	VerifyToken(ctx context.Context, token *string) (*domain.User, error)
}
