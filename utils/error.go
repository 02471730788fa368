package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies failures for the HTTP layer. Anything without a kind
// is treated as unexpected and surfaced as a generic server error.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindConflict   ErrorKind = "conflict"
	ErrorKindForbidden  ErrorKind = "forbidden"
)

type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string { return e.Message }

func ValidationError(message string) error {
	return &AppError{Kind: ErrorKindValidation, Message: message}
}

func NotFoundError(message string) error {
	return &AppError{Kind: ErrorKindNotFound, Message: message}
}

func ConflictError(message string) error {
	return &AppError{Kind: ErrorKindConflict, Message: message}
}

func ForbiddenError(message string) error {
	return &AppError{Kind: ErrorKindForbidden, Message: message}
}

func KindOf(err error) (ErrorKind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
