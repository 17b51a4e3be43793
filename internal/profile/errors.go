package profile

import "errors"

// Domain errors for the profile package.
var (
	// ErrProfileNotFound is returned when no current profile exists for a device key.
	ErrProfileNotFound = errors.New("profile: not found")

	// ErrInvalidProfile is returned when a stored or decoded profile is unusable.
	ErrInvalidProfile = errors.New("profile: invalid")

	// ErrDeviceFailed is wrapped around per-device failures in a batch.
	ErrDeviceFailed = errors.New("profile: device resolution failed")
)
