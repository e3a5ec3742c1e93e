package errors

import "errors"

var (
	ErrRequestNotFound        = errors.New("creative request not found")
	ErrInvalidStateTransition = errors.New("invalid creative request state transition")
	ErrValidation             = errors.New("invalid creative request input")
	ErrTransientStore         = errors.New("creative request store temporarily unavailable")
	ErrNotificationDispatch   = errors.New("workflow notification dispatch failed")
	ErrDuplicateRequest       = errors.New("creative request already exists")
)

// IsRetryable reports whether the caller may retry the same call with backoff.
// Only transient store failures qualify; nothing was committed for them.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
