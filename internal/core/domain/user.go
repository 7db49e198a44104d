package domain

import "time"

// User is the persisted account record. PasswordHash holds a bcrypt digest and
// must never be written to a response.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	IsVerified   bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser carries the fields required to insert a user.
type NewUser struct {
	Email        string
	PasswordHash string
	FullName     string
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	FullName     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update carries no field.
func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.PasswordHash == nil
}
