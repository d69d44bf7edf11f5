package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to API consumers alongside rich errors.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeTokenInvalid      = "TOKEN_INVALID_OR_EXPIRED"
	TextCodeEmailNotConfirmed = "EMAIL_NOT_CONFIRMED"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrMismatchedHashAndPassword is the generic invalid-credentials error. It is
// returned both for unknown accounts and for password mismatches so callers
// cannot distinguish the two.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when a create or update collides with the
// unique email constraint. Detection happens at commit time, never via a
// pre-check, so concurrent registrations cannot both succeed.
var ErrDuplicateEmail = errors.New("email address is already in use", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrInvalidOrExpiredToken is the uniform failure for action token
// verification. Signature mismatch, malformed input, wrong purpose, and
// expiry all surface identically to avoid oracle leaks.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeNotFound)

// ErrAccountNotFound is returned by repository lookups that miss.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailNotConfirmed blocks login until the account confirms its email.
var ErrEmailNotConfirmed = errors.New("please confirm your email address before signing in", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when an account exceeds the login
// attempt budget inside the cooldown window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUnauthenticated is the guard failure for operations requiring a session.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyAuthenticated is the guard failure for anonymous-only operations.
var ErrAlreadyAuthenticated = errors.New("operation requires an anonymous session", errors.CategoryAuthz)

// ErrNotAuthorized is the guard failure for role-gated operations.
var ErrNotAuthorized = errors.New("page not authorized", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects empty input where a value is mandatory.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation)

// ErrUnableToFindSession is the error when our request has no session cookie.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession means we could not decode the JWT carried by the
// session cookie.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsDuplicateEmailError checks whether err carries the duplicate email text code.
func IsDuplicateEmailError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeDuplicateEmail
	}
	return false
}

// isUniqueViolation probes driver error text for unique constraint failures.
// Neither sqlite nor the postgres wire protocol expose a portable typed error
// for this through bun.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
