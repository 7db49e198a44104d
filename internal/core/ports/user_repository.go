package ports

import (
	"context"
	"errors"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ErrDuplicateKey is returned by a UserRepository when a write violates the
// unique email index. It is a storage condition, not a domain error.
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository is the persistence boundary for user accounts. Lookups
// return ok=false when nothing matched; err is reserved for storage failures.
type UserRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, user domain.NewUser) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, bool, error)
	UpdateByID(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, bool, error)
}
