package scoring

import (
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

// Status is the publication status of a resolved profile.
type Status string

// Statuses, from strongest to weakest.
const (
	StatusConfirmed Status = "confirmed"
	StatusProposed  Status = "proposed"
	StatusTracking  Status = "tracking"
)

// ParseStatus accepts the JSON spelling of a status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusConfirmed, StatusProposed, StatusTracking:
		return st, true
	}
	return "", false
}

// ConfidenceLevel is the five-step quantisation of a score.
type ConfidenceLevel string

// Confidence levels.
const (
	LevelExcellent ConfidenceLevel = "excellent"
	LevelVeryGood  ConfidenceLevel = "very_good"
	LevelGood      ConfidenceLevel = "good"
	LevelFair      ConfidenceLevel = "fair"
	LevelPoor      ConfidenceLevel = "poor"
)

// Observation is what the engine needs from one evidence item.
type Observation struct {
	EvidenceID string
	Domain     evidence.SourceDomain
	Origin     string
	ObservedAt time.Time

	// Mappings asserted by this item, structured or inferred from text.
	Mappings map[device.SourceRef]device.Capability

	// Events detected in the item's text.
	Events []string

	// Structured is true when Mappings came from an explicit claim.
	Structured bool
}

// originKey identifies the independent source behind the observation.
func (o Observation) originKey() string {
	return evidence.Evidence{ID: o.EvidenceID, Domain: o.Domain, Origin: o.Origin}.OriginKey()
}

// authoritativeClaim reports a structured claim from an official or local source.
func (o Observation) authoritativeClaim() bool {
	return o.Structured && o.Domain.IsAuthoritative()
}

// Candidate is the profile being scored.
type Candidate struct {
	Device device.Identity

	// FingerprintRule names the matched rule; empty when none matched.
	FingerprintRule string
}

// AdjustmentKind names a bonus or penalty.
type AdjustmentKind string

// Bonuses and penalties. Each is applied at most once per score.
const (
	BonusDiversity       AdjustmentKind = "diversity_bonus"
	BonusDatapoint       AdjustmentKind = "datapoint_bonus"
	BonusRecency         AdjustmentKind = "recency_bonus"
	BonusFingerprint     AdjustmentKind = "fingerprint_bonus"
	PenaltyContradiction AdjustmentKind = "contradiction_penalty"
	PenaltySingleSource  AdjustmentKind = "single_source_penalty"
	PenaltyOutdated      AdjustmentKind = "outdated_penalty"
)

// Adjustment is one applied bonus (positive) or penalty (negative).
type Adjustment struct {
	Kind   AdjustmentKind `json:"kind"`
	Points float64        `json:"points"`
	Detail string         `json:"detail"`
}

// DomainCredit is the base weight credited for one source domain.
type DomainCredit struct {
	Domain   evidence.SourceDomain `json:"domain"`
	Weight   float64               `json:"weight"`
	Evidence int                   `json:"evidence"`
}

// Contradiction records a source primitive mapped to more than one
// capability. Overridden is true when an official or local structured
// claim settles which mapping the profile keeps.
type Contradiction struct {
	Source       string              `json:"source"`
	Capabilities []device.Capability `json:"capabilities"`
	Overridden   bool                `json:"overridden"`
}

// Report explains a score. It is pure data.
type Report struct {
	EvidenceCount  int             `json:"evidenceCount"`
	DistinctOrigin int             `json:"distinctOrigins"`
	Newest         *time.Time      `json:"newestObservation,omitempty"`
	Base           float64         `json:"base"`
	Domains        []DomainCredit  `json:"domains"`
	Adjustments    []Adjustment    `json:"adjustments"`
	Contradictions []Contradiction `json:"contradictions,omitempty"`
	Raw            float64         `json:"raw"`
	Clamped        bool            `json:"clamped,omitempty"`
	Gate           string          `json:"gate,omitempty"`
	Notes          []string        `json:"notes,omitempty"`
}

// Adjustment returns the applied adjustment of the given kind.
func (r Report) Adjustment(kind AdjustmentKind) (Adjustment, bool) {
	for _, a := range r.Adjustments {
		if a.Kind == kind {
			return a, true
		}
	}
	return Adjustment{}, false
}

// Result is the outcome of scoring one candidate.
type Result struct {
	Score           float64         `json:"score"`
	Status          Status          `json:"status"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
	Report          Report          `json:"report"`
}
