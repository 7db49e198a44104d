package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

type stubUserRepo struct {
	byID      map[string]*domain.User
	nextID    int
	failWith  error // if set, every call returns this error
	insertErr error // if set, Insert returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) findEmail(email string) *domain.User {
	for _, u := range r.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) Exists(_ context.Context, email string) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	return r.findEmail(email) != nil, nil
}

func (r *stubUserRepo) Insert(_ context.Context, nu domain.NewUser) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if r.findEmail(nu.Email) != nil {
		return nil, ports.ErrDuplicateKey
	}
	r.nextID++
	now := time.Now().UTC()
	u := &domain.User{
		ID:           strconv.Itoa(r.nextID),
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		FullName:     nu.FullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, bool, error) {
	if r.failWith != nil {
		return nil, false, r.failWith
	}
	u, ok := r.byID[id]
	return cloneUser(u), ok, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	if r.failWith != nil {
		return nil, false, r.failWith
	}
	u := r.findEmail(email)
	return cloneUser(u), u != nil, nil
}

func (r *stubUserRepo) UpdateByID(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, bool, error) {
	if r.failWith != nil {
		return nil, false, r.failWith
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if upd.Email != nil {
		if other := r.findEmail(*upd.Email); other != nil && other.ID != id {
			return nil, false, ports.ErrDuplicateKey
		}
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), true, nil
}

func newTestService(repo ports.UserRepository) *AccountService {
	return NewAccountService(repo, NewTokenIssuer("secret", time.Hour), zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func mustRegister(t *testing.T, svc *AccountService, email, password, fullName string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), ports.RegisterInput{Email: email, Password: password, FullName: fullName})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestAccountService_Register_Success(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	user := mustRegister(t, svc, "a@b.com", "password123", "A B")

	if user.Email != "a@b.com" || user.FullName != "A B" || user.IsVerified {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastLogin != nil {
		t.Fatalf("expected no last login, got %v", user.LastLogin)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	if err != nil || cost != 10 {
		t.Fatalf("expected cost 10, got %d (%v)", cost, err)
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)

	mustRegister(t, svc, "a@b.com", "password123", "A B")
	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@b.com", Password: "otherpass1", FullName: "C D"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	var de *domain.Error
	if !errors.As(err, &de) || de.Code != "user-already-exists" {
		t.Fatalf("expected code user-already-exists, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected exactly one stored user, got %d", len(repo.byID))
	}
}

func TestAccountService_Register_DuplicateKeyOnInsert(t *testing.T) {
	repo := newStubUserRepo()
	repo.insertErr = ports.ErrDuplicateKey
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "race@b.com", Password: "password123", FullName: "R"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountService_Register_StorageFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	repo := newStubUserRepo()
	repo.failWith = storeErr
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@b.com", Password: "password123", FullName: "A"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		t.Fatalf("storage error must not become a domain error: %v", err)
	}
}

func TestAccountService_Login_RoundTrip(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	registered := mustRegister(t, svc, "carol@example.com", "s3cretpass", "Carol")

	res, err := svc.Login(context.Background(), "carol@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.User == nil || res.User.ID != registered.ID {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.User.LastLogin != nil {
		t.Fatalf("login must not set last login")
	}

	verified, err := svc.VerifyToken(context.Background(), &res.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if verified.Email != "carol@example.com" || verified.ID != registered.ID {
		t.Fatalf("token resolved to wrong user: %+v", verified)
	}
}

func TestAccountService_Login_InvalidCredentials(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	mustRegister(t, svc, "dave@example.com", "goodpass1", "Dave")

	cases := map[string][2]string{
		"wrong password": {"dave@example.com", "badpass12"},
		"unknown email":  {"ghost@example.com", "goodpass1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := svc.Login(context.Background(), c[0], c[1])
			if err != domain.ErrInvalidCredentials {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if res != nil {
				t.Fatalf("expected no result, got %+v", res)
			}
		})
	}
}

func TestAccountService_Login_LongPassword(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	long := ""
	for len(long) < 128 {
		long += "abcdefgh"
	}
	mustRegister(t, svc, "long@example.com", long, "Long")

	if _, err := svc.Login(context.Background(), "long@example.com", long); err != nil {
		t.Fatalf("login with 128 byte password: %v", err)
	}
}

func TestAccountService_GetUserByID_AbsentIsNotAnError(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	user, ok, err := svc.GetUserByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok || user != nil {
		t.Fatalf("expected absent, got %+v", user)
	}
}

func TestAccountService_GetUserByID_Found(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	registered := mustRegister(t, svc, "e@x.com", "password123", "E")

	user, ok, err := svc.GetUserByID(context.Background(), registered.ID)
	if err != nil || !ok {
		t.Fatalf("expected user, got ok=%v err=%v", ok, err)
	}
	if user.Email != "e@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAccountService_GetUserByEmail_AbsentIsAnError(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.GetUserByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_UpdateUser(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	registered := mustRegister(t, svc, "f@x.com", "password123", "F")

	updated, err := svc.UpdateUser(context.Background(), registered.ID, ports.UpdateUserInput{FullName: strPtr("Frank")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Frank" || updated.Email != "f@x.com" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}
	if updated.PasswordHash != registered.PasswordHash {
		t.Fatalf("password hash changed without a password update")
	}
}

func TestAccountService_UpdateUser_PasswordIsHashed(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	registered := mustRegister(t, svc, "g@x.com", "password123", "G")

	updated, err := svc.UpdateUser(context.Background(), registered.ID, ports.UpdateUserInput{Password: strPtr("newpassword1")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PasswordHash == "newpassword1" {
		t.Fatalf("password stored in plaintext")
	}
	if _, err := svc.Login(context.Background(), "g@x.com", "newpassword1"); err != nil {
		t.Fatalf("login with updated password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "g@x.com", "password123"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestAccountService_UpdateUser_NotFound(t *testing.T) {
	svc := newTestService(newStubUserRepo())

	if _, err := svc.UpdateUser(context.Background(), "missing", ports.UpdateUserInput{FullName: strPtr("X")}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.UpdateUser(context.Background(), "missing", ports.UpdateUserInput{}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound for empty update, got %v", err)
	}
}

func TestAccountService_UpdateUser_EmptyReturnsCurrent(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	registered := mustRegister(t, svc, "h@x.com", "password123", "H")

	user, err := svc.UpdateUser(context.Background(), registered.ID, ports.UpdateUserInput{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.FullName != "H" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAccountService_UpdateUser_EmailTaken(t *testing.T) {
	svc := newTestService(newStubUserRepo())
	mustRegister(t, svc, "taken@x.com", "password123", "T")
	other := mustRegister(t, svc, "other@x.com", "password123", "O")

	if _, err := svc.UpdateUser(context.Background(), other.ID, ports.UpdateUserInput{Email: strPtr("taken@x.com")}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountService_TokenLookups(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)
	mustRegister(t, svc, "i@x.com", "password123", "I")
	res, err := svc.Login(context.Background(), "i@x.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue("i@x.com")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	foreignToken, err := NewTokenIssuer("other-secret", time.Hour).Issue("i@x.com")
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}
	ghostToken, err := NewTokenIssuer("secret", time.Hour).Issue("ghost@x.com")
	if err != nil {
		t.Fatalf("issue ghost token: %v", err)
	}

	cases := []struct {
		name    string
		token   *string
		wantErr error
	}{
		{"nil", nil, domain.ErrMissingToken},
		{"empty", strPtr(""), domain.ErrMissingToken},
		{"malformed", strPtr("not-a-token"), domain.ErrInvalidToken},
		{"expired", &expiredToken, domain.ErrInvalidToken},
		{"wrong signature", &foreignToken, domain.ErrInvalidToken},
		{"unknown subject", &ghostToken, domain.ErrInvalidToken},
		{"valid", &res.Token, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			byToken, errByToken := svc.GetUserByToken(context.Background(), tc.token)
			verified, errVerify := svc.VerifyToken(context.Background(), tc.token)

			if errByToken != tc.wantErr || errVerify != tc.wantErr {
				t.Fatalf("expected %v from both, got %v and %v", tc.wantErr, errByToken, errVerify)
			}
			if tc.wantErr != nil {
				if byToken != nil || verified != nil {
					t.Fatalf("expected no user on error")
				}
				return
			}
			if byToken.Email != "i@x.com" || verified.Email != "i@x.com" || byToken.ID != verified.ID {
				t.Fatalf("lookups differ: %+v vs %+v", byToken, verified)
			}
		})
	}
}

func TestAccountService_TokenLookup_StorageFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo)
	token, err := svc.tokens.Issue("j@x.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	storeErr := errors.New("connection reset")
	repo.failWith = storeErr
	if _, err := svc.VerifyToken(context.Background(), &token); !errors.Is(err, storeErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
