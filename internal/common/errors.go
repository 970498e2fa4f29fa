// Package common defines shared constants and sentinel errors used across
// studymate components. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Storage failure: the underlying persistence could not be read or written.
	ErrStorage = errors.New("storage failure")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Identity errors.
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrEmptyField        = errors.New("required field is empty")

	// Relationship state machine errors.
	ErrSelfTarget       = errors.New("cannot target yourself")
	ErrAlreadyBound     = errors.New("already bound")
	ErrAlreadyRequested = errors.New("request already sent")
	ErrNotBound         = errors.New("not bound")
	ErrNoSuchRequest    = errors.New("no such request")

	// Content errors.
	ErrForbidden         = errors.New("forbidden")
	ErrNotAuthor         = errors.New("only the author may edit")
	ErrImmutable         = errors.New("content cannot be edited")
	ErrDuplicateContent  = errors.New("identical content already uploaded")
	ErrInvalidDocument   = errors.New("invalid tabular document")
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Storage marks err as a storage failure while keeping the original cause
// available to errors.Is / errors.As. Sentinel errors from this package are
// returned unchanged, nil stays nil.
func Storage(err error) error {
	if err == nil || isKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

var known = []error{
	ErrorNotFound, ErrorAlreadyExists, ErrStorage, ErrorInternal, ErrorUnauthorized, ErrorValidation,
	ErrNotAuthenticated, ErrDuplicateUsername, ErrEmptyField,
	ErrSelfTarget, ErrAlreadyBound, ErrAlreadyRequested, ErrNotBound, ErrNoSuchRequest,
	ErrForbidden, ErrNotAuthor, ErrImmutable, ErrDuplicateContent, ErrInvalidDocument, ErrUnsupportedFormat,
	ErrInvalidToken, ErrTokenExpired, ErrRefreshTokenExpired,
}

func isKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

var codes = map[error]string{
	ErrorNotFound:          "not_found",
	ErrorAlreadyExists:     "already_exists",
	ErrStorage:             "storage",
	ErrorInternal:          "internal",
	ErrorUnauthorized:      "unauthorized",
	ErrorValidation:        "validation",
	ErrNotAuthenticated:    "not_authenticated",
	ErrDuplicateUsername:   "duplicate_username",
	ErrEmptyField:          "empty_field",
	ErrSelfTarget:          "self_target",
	ErrAlreadyBound:        "already_bound",
	ErrAlreadyRequested:    "already_requested",
	ErrNotBound:            "not_bound",
	ErrNoSuchRequest:       "no_such_request",
	ErrForbidden:           "forbidden",
	ErrNotAuthor:           "not_author",
	ErrImmutable:           "immutable",
	ErrDuplicateContent:    "duplicate_content",
	ErrInvalidDocument:     "invalid_document",
	ErrUnsupportedFormat:   "unsupported_format",
	ErrInvalidToken:        "invalid_token",
	ErrTokenExpired:        "token_expired",
	ErrRefreshTokenExpired: "refresh_token_expired",
}

// Code returns a stable snake_case identifier for err: "ok" for nil, the
// code of the first matching sentinel, or "internal".
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return codes[k]
		}
	}
	return codes[ErrorInternal]
}
