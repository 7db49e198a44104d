package rpc

import (
	"errors"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// Codes produced by the router itself; domain codes come from domain.Error.
const (
	CodeValidation     = "validation-error"
	CodeInvalidPayload = "invalid-payload"
	CodeUnknownCommand = "unknown-command"
	CodeInternal       = "internal-error"
)

// Error is the failure envelope sent back to callers.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	errInvalidPayload = &Error{Code: CodeInvalidPayload, Message: "Invalid payload"}
	errInternal       = &Error{Code: CodeInternal, Message: "Internal server error"}
)

// asError converts err into an envelope. ok is false for unclassified errors,
// which are reported as errInternal.
func asError(err error) (e *Error, ok bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return &Error{Code: de.Code, Message: de.Message}, true
	}
	return errInternal, false
}
