package evidence

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// maxRawTextBytes bounds free text kept per record.
const maxRawTextBytes = 256 << 10

// Validate reports why a record cannot be used. Every returned error wraps
// ErrMalformedEvidence.
func Validate(e Evidence) error {
	if e.decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvidence, e.decodeErr)
	}
	if err := e.Device.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvidence, err)
	}
	if !e.Domain.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrMalformedEvidence, ErrUnknownDomain, e.Domain)
	}
	if e.ObservedAt.IsZero() {
		return fmt.Errorf("%w: observedAt is required", ErrMalformedEvidence)
	}
	if !e.HasText() && !e.HasClaim() {
		return fmt.Errorf("%w: neither rawText nor structuredClaim present", ErrMalformedEvidence)
	}
	if !utf8.ValidString(e.RawText) {
		return fmt.Errorf("%w: rawText is not valid UTF-8", ErrMalformedEvidence)
	}
	if len(e.RawText) > maxRawTextBytes {
		return fmt.Errorf("%w: rawText exceeds %d bytes", ErrMalformedEvidence, maxRawTextBytes)
	}
	if err := validateClaim(e.Claim); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvidence, err)
	}
	return nil
}

func validateClaim(c *Claim) error {
	if c == nil {
		return nil
	}
	for dp, m := range c.Datapoints {
		if _, err := device.CheckDatapoint(dp); err != nil {
			return err
		}
		if err := validateMapping(m); err != nil {
			return fmt.Errorf("dp %d: %w", dp, err)
		}
	}
	for name, m := range c.Clusters {
		cl, ok := device.LookupCluster(name)
		if !ok || cl.Name != name {
			return fmt.Errorf("%w: %q is not a canonical cluster name", device.ErrUnknownCluster, name)
		}
		if err := validateMapping(m); err != nil {
			return fmt.Errorf("cluster %s: %w", name, err)
		}
	}
	return nil
}

func validateMapping(m Mapping) error {
	if m.Capability == "" {
		return fmt.Errorf("capability is required")
	}
	if m.Parser != "" && !m.Parser.Known() {
		return fmt.Errorf("unknown value parser %q", m.Parser)
	}
	return nil
}

// NormaliseClaim canonicalises cluster keys (hex or decimal IDs become names).
// Unknown clusters are kept as given for Validate to reject.
func NormaliseClaim(c *Claim) *Claim {
	if c == nil {
		return nil
	}
	out := &Claim{}
	if len(c.Datapoints) > 0 {
		out.Datapoints = make(map[int]Mapping, len(c.Datapoints))
		for dp, m := range c.Datapoints {
			out.Datapoints[dp] = normaliseMapping(m)
		}
	}
	if len(c.Clusters) > 0 {
		out.Clusters = make(map[string]Mapping, len(c.Clusters))
		for name, m := range c.Clusters {
			if cl, ok := device.LookupCluster(name); ok {
				name = cl.Name
			}
			out.Clusters[name] = normaliseMapping(m)
		}
	}
	return out
}

func normaliseMapping(m Mapping) Mapping {
	return Mapping{
		Capability: device.Capability(strings.ToLower(strings.TrimSpace(string(m.Capability)))),
		Parser:     device.ValueParser(strings.ToLower(strings.TrimSpace(string(m.Parser)))),
	}
}

func trimmedLen(s string) int {
	return len(strings.TrimFunc(s, unicode.IsSpace))
}
