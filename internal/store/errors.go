package store

import "errors"

// Sentinel errors returned by Store operations. The API layer maps each of
// these to a distinct status code, so callers can tell a uniqueness or
// ownership conflict from an unresolvable reference.
var (
	ErrDeviceExists   = errors.New("device name already registered")
	ErrDeviceNotFound = errors.New("device not found")
	ErrUserExists     = errors.New("login already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrDeviceTaken    = errors.New("device already taken")
	ErrNotHolder      = errors.New("device is not held by this user")
	ErrImageNotSet    = errors.New("device has no image attached")
)
