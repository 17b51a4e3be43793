package profile

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
	"github.com/nerrad567/gray-logic-profiler/internal/textevidence"
)

// BindingOrigin says which kind of assertion produced a binding.
type BindingOrigin string

// Binding origins, strongest first.
const (
	OriginRule          BindingOrigin = "fingerprint_rule"
	OriginAuthoritative BindingOrigin = "authoritative_claim"
	OriginStructured    BindingOrigin = "structured_claim"
	OriginText          BindingOrigin = "text_inference"
)

// CapabilityBinding is where a capability is read from and how.
type CapabilityBinding struct {
	Source     device.SourceRef        `json:"source"`
	Parser     device.ValueParser      `json:"parser"`
	Origin     BindingOrigin           `json:"origin"`
	Confidence float64                 `json:"confidence"`
	Domains    []evidence.SourceDomain `json:"domains,omitempty"`
	Evidence   []string                `json:"evidence,omitempty"`
}

// FingerprintInfo records the rule applied to the profile.
type FingerprintInfo struct {
	Rule         string                  `json:"rule"`
	TableVersion string                  `json:"tableVersion"`
	Specificity  fingerprint.Specificity `json:"specificity"`
}

// SkippedEvidence is a record left out of the resolution.
type SkippedEvidence struct {
	EvidenceID string `json:"evidenceId"`
	Reason     string `json:"reason"`
}

// DeviceProfile is the resolved capability profile of one device key.
type DeviceProfile struct {
	ID                  string                                  `json:"id"`
	RunID               string                                  `json:"runId,omitempty"`
	DeviceKey           device.Identity                         `json:"deviceKey"`
	Family              string                                  `json:"family,omitempty"`
	CapabilityMap       map[device.Capability]CapabilityBinding `json:"capabilityMap"`
	Events              []textevidence.Event                    `json:"events,omitempty"`
	Score               float64                                 `json:"score"`
	Status              scoring.Status                          `json:"status"`
	ConfidenceLevel     scoring.ConfidenceLevel                 `json:"confidenceLevel"`
	ContributingSources []evidence.SourceDomain                 `json:"contributingSources"`
	Fingerprint         *FingerprintInfo                        `json:"fingerprint,omitempty"`
	TableVersion        string                                  `json:"tableVersion"`
	Report              scoring.Report                          `json:"report"`
	Skipped             []SkippedEvidence                       `json:"skippedEvidence,omitempty"`
	ResolvedAt          time.Time                               `json:"resolvedAt"`
}

// Key returns the device key string ("vendor|product[|firmware]").
func (p *DeviceProfile) Key() string {
	return p.DeviceKey.Key()
}

// Capabilities returns the bound capabilities in sorted order.
func (p *DeviceProfile) Capabilities() []device.Capability {
	caps := make([]device.Capability, 0, len(p.CapabilityMap))
	for c := range p.CapabilityMap {
		caps = append(caps, c)
	}
	return device.SortCapabilities(caps)
}

// Encode renders the profile as its JSON output document.
func Encode(p *DeviceProfile) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}

// Decode parses a profile document produced by Encode.
func Decode(data []byte) (*DeviceProfile, error) {
	var p DeviceProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := p.DeviceKey.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if p.CapabilityMap == nil {
		p.CapabilityMap = map[device.Capability]CapabilityBinding{}
	}
	return &p, nil
}
