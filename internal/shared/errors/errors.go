package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrUnauthorized    = errors.New("unauthorized user")
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already exists")
	ErrInvalidChannel  = errors.New("invalid channel")
	ErrUserNotFound    = errors.New("user not found")
)

// Posting pipeline failure kinds.
var (
	// ErrNotFound means the channel root directory is absent.
	ErrNotFound = errors.New("channel directory not found")
	// ErrBroken means the root exists but a required subdirectory is absent.
	ErrBroken = errors.New("channel directory broken")
	// ErrPublishFailure covers send errors, unreadable captions and images
	// that could not be prepared.
	ErrPublishFailure = errors.New("publish failed")
	// ErrIOFailure is a single file move that did not happen.
	ErrIOFailure = errors.New("file move failed")
	// ErrUnexpected is anything the cycle does not know how to recover from.
	ErrUnexpected = errors.New("unexpected posting error")
)

// BrokenError names the subdirectory that is missing.
type BrokenError struct {
	Channel string
	Missing string
}

func (e *BrokenError) Error() string {
	return fmt.Sprintf("channel %s: missing %q directory", e.Channel, e.Missing)
}

func (e *BrokenError) Is(target error) bool {
	return target == ErrBroken
}

// Is, As and Join re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }
