package errs

import "net/http"

// Internal codes live outside the HTTP status range; gateway-classified
// server failures reuse the HTTP status itself as the code.
const (
	CodeNetwork    = 1000
	CodeEvaluation = 1001
	CodeInternal   = 1002

	CodeTokenInvalid   = 1100
	CodeTokenExpired   = 1101
	CodeBadCredentials = 1102
	CodeEmailTaken     = 1103
	CodeUserNotFound   = 1104
)

// DefaultErrorMsg is the fallback shown when a failed response carries no
// usable error text of its own.
const DefaultErrorMsg = "An error occurred"

var (
	ErrNetwork      = NewCodeError(CodeNetwork, "network error")
	ErrEvaluation   = NewCodeError(CodeEvaluation, "invalid expression")
	ErrUnauthorized = NewCodeError(http.StatusUnauthorized, DefaultErrorMsg)

	ErrTokenInvalid   = NewCodeError(CodeTokenInvalid, "invalid token")
	ErrTokenExpired   = NewCodeError(CodeTokenExpired, "token expired")
	ErrBadCredentials = NewCodeError(CodeBadCredentials, "invalid email or password")
	ErrEmailTaken     = NewCodeError(CodeEmailTaken, "email already registered")
	ErrUserNotFound   = NewCodeError(CodeUserNotFound, "user not found")
)

// NewServerError classifies a non-2xx, non-401 response: code is the HTTP
// status, msg the text extracted from the response body.
func NewServerError(status int, msg string) *CodeError {
	if msg == "" {
		msg = DefaultErrorMsg
	}
	return NewCodeError(status, msg)
}
