package fingerprint

import "errors"

var (
	// ErrRuleTableLoad is returned when a rule table cannot be read or
	// decoded. It is the only fatal error of a resolution batch.
	ErrRuleTableLoad = errors.New("fingerprint: rule table load failed")

	// ErrInvalidRule is returned when a rule fails validation.
	ErrInvalidRule = errors.New("fingerprint: invalid rule")
)
