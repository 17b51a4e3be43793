package evidence

import "errors"

// Domain errors for the evidence package.
var (
	// ErrMalformedEvidence is returned for records missing required content.
	ErrMalformedEvidence = errors.New("evidence: malformed")

	// ErrUnknownDomain is returned for an unrecognised source domain.
	ErrUnknownDomain = errors.New("evidence: unknown source domain")

	// ErrUnsupportedDocument is returned when no normaliser accepts a document.
	ErrUnsupportedDocument = errors.New("evidence: unsupported document")

	// ErrNotFound is returned when an evidence ID does not exist.
	ErrNotFound = errors.New("evidence: not found")
)
