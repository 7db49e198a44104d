package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	bcryptCost = 10
	// bcrypt only reads the first 72 bytes of a password.
	bcryptMaxPasswordBytes = 72
)

// AccountService implements the account operations on top of a UserRepository.
type AccountService struct {
	repo   ports.UserRepository
	tokens *TokenIssuer
	log    zerolog.Logger
}

func NewAccountService(repo ports.UserRepository, tokens *TokenIssuer, log zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, tokens: tokens, log: log}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	exists, err := s.repo.Exists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.repo.Insert(ctx, domain.NewUser{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
	})
	if err != nil {
		// Lost the race against a concurrent registration of the same email.
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, ok, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), passwordBytes(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &ports.LoginResult{Token: token, User: user}, nil
}

// GetUserByID reports ok=false when no user has the given id.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*domain.User, bool, error) {
	user, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get user by id: %w", err)
	}
	return user, ok, nil
}

// GetUserByEmail fails with domain.ErrUserNotFound when no user matches.
func (s *AccountService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies a partial update. A new password goes through the same
// hashing as Register.
func (s *AccountService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	update := domain.UserUpdate{FullName: in.FullName, Email: in.Email}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		update.PasswordHash = &hash
	}

	var (
		user *domain.User
		ok   bool
		err  error
	)
	if update.IsEmpty() {
		user, ok, err = s.repo.FindByID(ctx, id)
	} else {
		user, ok, err = s.repo.UpdateByID(ctx, id, update)
	}
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	s.log.Info().Str("user_id", user.ID).Msg("user updated")
	return user, nil
}

func (s *AccountService) GetUserByToken(ctx context.Context, token *string) (*domain.User, error) {
	return s.userFromToken(ctx, token)
}

func (s *AccountService) VerifyToken(ctx context.Context, token *string) (*domain.User, error) {
	return s.userFromToken(ctx, token)
}

func (s *AccountService) userFromToken(ctx context.Context, token *string) (*domain.User, error) {
	if token == nil || *token == "" {
		return nil, domain.ErrMissingToken
	}

	subject, err := s.tokens.Subject(*token)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.GetUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxPasswordBytes {
		b = b[:bcryptMaxPasswordBytes]
	}
	return b
}
