package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core is (or wraps) one of these so
// the transport layer can map it to a status code with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
)

// Error is a classified error. Message is safe to return to API callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns an ErrValidation-kind error with the given message.
func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

// Forbidden returns an ErrForbidden-kind error with the given message.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

// NotFound returns an ErrNotFound-kind error with the given message.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

var (
	ErrUserNotFound       = NotFound("user not found")
	ErrUserExists         = &Error{Kind: ErrConflict, Message: "user already exists"}
	ErrProfileNotFound    = NotFound("expert profile not found")
	ErrRequestNotFound    = NotFound("service request not found")
	ErrResolutionNotFound = NotFound("no resolution found for this request")
	ErrRoomNotFound       = NotFound("chat room not found")
	ErrResourceNotFound   = NotFound("resource not found")
	ErrBookmarkNotFound   = NotFound("bookmark not found")
	ErrReviewNotFound     = NotFound("review not found")

	// ErrStateChanged is returned by conditional updates that matched no
	// document: another writer moved the request first.
	ErrStateChanged = Forbidden("request is no longer in a state that allows this action")

	ErrDuplicateReview = Validation("you have already reviewed this service")
	ErrDuplicateLedger = &Error{Kind: ErrConflict, Message: "earning already recorded for this service"}
)
