package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnknownCommand = errors.New("command not understood")
	ErrNoPayload      = errors.New("command needs a target")
	ErrNotSupported   = errors.New("not supported on this system")
)
