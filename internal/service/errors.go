package service

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy of the sync engine. Every error returned by this package
// matches exactly one of these with [errors.Is].
var (
	// ErrValidation marks malformed input rejected before any work is done.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCollection marks a collection outside the allow-list.
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrNotFound marks a document that does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAccessDenied marks a role or facility scope that forbids the action.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnauthenticated marks a request without a usable caller identity.
	ErrUnauthenticated = errors.New("caller is not authenticated")
	// ErrRateLimited is matched by every [*RateLimitError].
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCollectionSync marks a store failure scoped to one collection.
	ErrCollectionSync = errors.New("collection sync failed")
	// ErrSystem marks an unexpected failure of the engine itself.
	ErrSystem = errors.New("internal error")

	ErrUnknownStrategy       = errors.New("unknown conflict strategy")
	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)

// RateLimitError is returned when a (user, device) pair has used up its
// session quota. RetryAfter is how long until the window resets.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// ErrorCode is the machine-readable code sent to devices.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeInvalidColl    ErrorCode = "INVALID_COLLECTION"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeAccessDenied   ErrorCode = "ACCESS_DENIED"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeRateLimited    ErrorCode = "RATE_LIMITED"
	CodeCollectionSync ErrorCode = "COLLECTION_SYNC_ERROR"
	CodeSystem         ErrorCode = "SYSTEM_ERROR"
)

// genericSystemMessage is the only text ever shown for a system error.
const genericSystemMessage = "an internal error occurred"

// CodeOf maps err onto the taxonomy. Anything unrecognised is a system error.
func CodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrInvalidCollection):
		return CodeInvalidColl
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAccessDenied):
		return CodeAccessDenied
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrCollectionSync):
		return CodeCollectionSync
	default:
		return CodeSystem
	}
}

// PublicMessage returns the text of err that is safe to show a device.
// Store and system failures never leak their cause.
func PublicMessage(err error) string {
	switch CodeOf(err) {
	case CodeSystem:
		return genericSystemMessage
	case CodeCollectionSync:
		return ErrCollectionSync.Error()
	default:
		return err.Error()
	}
}
