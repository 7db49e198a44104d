package domain

// Error is a failure with a stable machine-readable code. Callers compare
// against the sentinels below with errors.Is.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrUserExists         = &Error{Code: "user-already-exists", Message: "User already exists"}
	ErrInvalidCredentials = &Error{Code: "invalid-credentials", Message: "Invalid credentials"}
	ErrUserNotFound       = &Error{Code: "user-not-found", Message: "User not found"}
	ErrMissingToken       = &Error{Code: "missing-token", Message: "Missing token"}
	ErrInvalidToken       = &Error{Code: "invalid-token", Message: "Invalid token"}
)
