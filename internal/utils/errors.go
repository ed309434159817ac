package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures at the HTTP boundary.
type ErrorKind int

const (
	KindInvalidArgument ErrorKind = iota + 1
	KindConflict
	KindNotFound
	KindStoreFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStoreFailure:
		return "STORE_FAILURE"
	}
	return "UNKNOWN"
}

// HTTPStatus maps a kind to its response code. Conflicts are reported as 400.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidArgument, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// AppError is the error type services hand back to handlers.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details []string
	Err     error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Details, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// Common application error codes.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidRole     = "INVALID_ROLE"
	CodeInvalidStatus   = "INVALID_STATUS"
	CodeInvalidProgress = "INVALID_PROGRESS"
	CodeNoChanges       = "NO_CHANGES"
	CodeTransition      = "TRANSITION_NOT_ALLOWED"
	CodeAlreadyAssigned = "ALREADY_ASSIGNED"
	CodeNotAssigned     = "NOT_ASSIGNED"
	CodeStatusChanged   = "STATUS_CHANGED"
	CodeDuplicate       = "DUPLICATE"
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeDevNotFound     = "DEVELOPER_NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

func InvalidArgument(code, message string, details ...string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Code: code, Message: message, Details: details}
}

func Conflict(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

// StoreFailure wraps an unexpected persistence error.
func StoreFailure(op string, err error) *AppError {
	return &AppError{
		Kind:    KindStoreFailure,
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

// AsAppError returns err as an AppError, classifying anything else as a
// store failure.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return StoreFailure("unclassified", err)
}

// IsKind reports whether err is an AppError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == k
}
