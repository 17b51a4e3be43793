package device

import "errors"

// Domain errors for the device package.
var (
	// ErrInvalidIdentity is returned when vendor or product is missing.
	ErrInvalidIdentity = errors.New("device: invalid identity")

	// ErrInvalidDatapoint is returned for datapoint indices outside 1..255.
	ErrInvalidDatapoint = errors.New("device: invalid datapoint")

	// ErrUnknownCluster is returned when a cluster reference matches no known cluster.
	ErrUnknownCluster = errors.New("device: unknown cluster")

	// ErrInvalidSourceRef is returned when a source reference cannot be parsed.
	ErrInvalidSourceRef = errors.New("device: invalid source reference")
)
