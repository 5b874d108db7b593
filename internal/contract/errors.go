package contract

import (
	"errors"
	"fmt"
)

// OpError is the failure type every operation returns. All failures abort the
// whole operation synchronously; nothing partial persists.
type OpError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed.
	Op string

	// Message is a human-readable description naming the violated condition
	// and, where relevant, the exact numeric threshold required.
	Message string
}

// ErrorCode categorizes operation failures.
type ErrorCode string

const (
	// ErrCodeAuthorization: caller is not owner, admin, series creator or
	// item owner, as the operation requires.
	ErrCodeAuthorization ErrorCode = "AUTHORIZATION"

	// ErrCodeValidation: malformed input — bad account id, royalty table over
	// cap or cardinality, missing metadata, wrong series kind.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNotFound: referenced series or item does not resolve.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStateConflict: series not mintable, supply exhausted, not for
	// sale, exchange rate unset.
	ErrCodeStateConflict ErrorCode = "STATE_CONFLICT"

	// ErrCodeFunding: attached deposit below required price plus margin, or
	// below required storage cost.
	ErrCodeFunding ErrorCode = "FUNDING"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from a possibly wrapped OpError, or "" when
// err is not an operation failure.
func CodeOf(err error) ErrorCode {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsAuthorizationError reports whether err is an AUTHORIZATION failure.
func IsAuthorizationError(err error) bool { return CodeOf(err) == ErrCodeAuthorization }

// IsValidationError reports whether err is a VALIDATION failure.
func IsValidationError(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFoundError reports whether err is a NOT_FOUND failure.
func IsNotFoundError(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsStateConflictError reports whether err is a STATE_CONFLICT failure.
func IsStateConflictError(err error) bool { return CodeOf(err) == ErrCodeStateConflict }

// IsFundingError reports whether err is a FUNDING failure.
func IsFundingError(err error) bool { return CodeOf(err) == ErrCodeFunding }

func opErrorf(code ErrorCode, op, format string, args ...any) *OpError {
	return &OpError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
