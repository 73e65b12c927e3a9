package domain

import "errors"

var (
	// ErrInvalidInput means the command arguments were malformed. No state
	// is changed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotRegistered means no user record exists for the caller.
	ErrNotRegistered = errors.New("user not registered")

	// ErrUpstreamUnavailable means the Codewars fetch failed. Stored state
	// is left untouched.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrStoreUnavailable means the store could not serve the operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrGroupExists   = errors.New("group already exists")
	ErrGroupNotFound = errors.New("group not found")
	ErrAlreadyMember = errors.New("already a member")
)
