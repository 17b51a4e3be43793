package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

// Engine scores candidates against their evidence. It is safe for
// concurrent use.
type Engine struct {
	cfg Config
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, which recency is measured against.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates cfg and returns an engine using it.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the calibration in use.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score computes the result for one candidate. The order of observations
// does not affect the outcome.
//
// Base points are the sum of the weights of the distinct domains present;
// many items from one domain earn its weight once. Each bonus and penalty
// applies at most once. The total is clamped, then quantised into a status
// and a confidence level. Confirmed additionally requires an official or
// local domain and no single-source penalty.
func (e *Engine) Score(c Candidate, obs []Observation) Result {
	if len(obs) == 0 {
		return Result{
			Score:           0,
			Status:          StatusTracking,
			ConfidenceLevel: e.level(0),
			Report: Report{
				Domains:     []DomainCredit{},
				Adjustments: []Adjustment{},
				Notes:       []string{"empty evidence set"},
			},
		}
	}

	obs = sortedObservations(obs)
	r := Report{EvidenceCount: len(obs), Adjustments: []Adjustment{}}

	r.Domains = e.domainCredits(obs)
	for _, d := range r.Domains {
		r.Base += d.Weight
	}

	origins := make(map[string]bool)
	var newest time.Time
	anyLocal, anyAuthoritative := false, false
	for _, o := range obs {
		origins[o.originKey()] = true
		if o.ObservedAt.After(newest) {
			newest = o.ObservedAt
		}
		anyLocal = anyLocal || o.Domain.IsLocal()
		anyAuthoritative = anyAuthoritative || o.Domain.IsAuthoritative()
	}
	r.DistinctOrigin = len(origins)
	if !newest.IsZero() {
		n := newest.UTC()
		r.Newest = &n
	}

	agreements := collectAgreements(obs)
	if a, ok := strongestAgreement(agreements, func(a agreement) int { return len(a.origins) }); ok &&
		len(a.origins) >= e.cfg.DiversityMinSources {
		r.add(BonusDiversity, e.cfg.DiversityBonus,
			fmt.Sprintf("%d independent sources agree on %s=%s", len(a.origins), a.source, a.capability))
	}
	if a, ok := strongestAgreement(agreements, func(a agreement) int { return a.items }); ok && a.items >= 2 {
		r.add(BonusDatapoint, e.cfg.DatapointBonus,
			fmt.Sprintf("%s=%s asserted by %d evidence items", a.source, a.capability, a.items))
	}

	if !newest.IsZero() {
		age := e.now().Sub(newest)
		switch {
		case age <= e.cfg.FreshnessWindow:
			r.add(BonusRecency, e.cfg.RecencyBonus, fmt.Sprintf("newest observation %s", newest.UTC().Format(time.DateOnly)))
		case age > e.cfg.Staleness:
			r.add(PenaltyOutdated, -e.cfg.OutdatedPenalty, fmt.Sprintf("newest observation %s", newest.UTC().Format(time.DateOnly)))
		}
	}

	if c.FingerprintRule != "" {
		r.add(BonusFingerprint, e.cfg.FingerprintBonus, "matched rule "+c.FingerprintRule)
	}

	r.Contradictions = findContradictions(obs)
	if n := len(r.Contradictions); n > 0 {
		r.add(PenaltyContradiction, -e.cfg.ContradictionPenalty,
			fmt.Sprintf("%d conflicting source mappings", n))
	}

	singleSource := len(origins) == 1 && !anyLocal
	if singleSource {
		r.add(PenaltySingleSource, -e.cfg.SingleSourcePenalty, "only one non-local source")
	}

	r.Raw = r.Base
	for _, a := range r.Adjustments {
		r.Raw += a.Points
	}
	score := math.Max(e.cfg.MinScore, math.Min(e.cfg.MaxScore, r.Raw))
	r.Clamped = score != r.Raw

	status := e.status(score)
	if status == StatusConfirmed {
		switch {
		case !anyAuthoritative:
			status, r.Gate = StatusProposed, "confirmed requires an official or local source"
		case singleSource:
			status, r.Gate = StatusProposed, "confirmed requires more than one source"
		}
	}

	return Result{
		Score:           score,
		Status:          status,
		ConfidenceLevel: e.level(score),
		Report:          r,
	}
}

func (r *Report) add(kind AdjustmentKind, points float64, detail string) {
	r.Adjustments = append(r.Adjustments, Adjustment{Kind: kind, Points: points, Detail: detail})
}

func (e *Engine) status(score float64) Status {
	switch {
	case score >= e.cfg.ConfirmedThreshold:
		return StatusConfirmed
	case score >= e.cfg.ProposedThreshold:
		return StatusProposed
	default:
		return StatusTracking
	}
}

func (e *Engine) level(score float64) ConfidenceLevel {
	l := e.cfg.Levels
	switch {
	case score >= l.Excellent:
		return LevelExcellent
	case score >= l.VeryGood:
		return LevelVeryGood
	case score >= l.Good:
		return LevelGood
	case score >= l.Fair:
		return LevelFair
	default:
		return LevelPoor
	}
}

func (e *Engine) domainCredits(obs []Observation) []DomainCredit {
	counts := make(map[evidence.SourceDomain]int)
	for _, o := range obs {
		counts[o.Domain]++
	}
	domains := make([]evidence.SourceDomain, 0, len(counts))
	for d := range counts {
		domains = append(domains, d)
	}
	evidence.SortDomains(domains)

	out := make([]DomainCredit, 0, len(domains))
	for _, d := range domains {
		out = append(out, DomainCredit{Domain: d, Weight: e.cfg.Weight(d), Evidence: counts[d]})
	}
	return out
}

// sortedObservations returns a copy in a canonical order.
func sortedObservations(obs []Observation) []Observation {
	out := make([]Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.Before(b.ObservedAt)
		}
		return a.EvidenceID < b.EvidenceID
	})
	return out
}

// agreement is one (source, capability) pair and who asserted it.
type agreement struct {
	source     device.SourceRef
	capability device.Capability
	origins    map[string]bool
	items      int
}

type agreementKey struct {
	source     device.SourceRef
	capability device.Capability
}

func collectAgreements(obs []Observation) []agreement {
	byKey := make(map[agreementKey]*agreement)
	for _, o := range obs {
		for ref, c := range o.Mappings {
			k := agreementKey{ref, c}
			a := byKey[k]
			if a == nil {
				a = &agreement{source: ref, capability: c, origins: make(map[string]bool)}
				byKey[k] = a
			}
			a.origins[o.originKey()] = true
			a.items++
		}
	}

	out := make([]agreement, 0, len(byKey))
	for _, a := range byKey {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source.Less(out[j].source)
		}
		return out[i].capability < out[j].capability
	})
	return out
}

// strongestAgreement returns the agreement with the highest measure,
// the first in canonical order on ties.
func strongestAgreement(all []agreement, measure func(agreement) int) (agreement, bool) {
	best, found := agreement{}, false
	for _, a := range all {
		if !found || measure(a) > measure(best) {
			best, found = a, true
		}
	}
	return best, found
}

// findContradictions lists every source mapped to more than one capability.
// Overridden marks the ones authoritative structured claims settle; the
// merge follows them, the penalty still applies.
func findContradictions(obs []Observation) []Contradiction {
	all := make(map[device.SourceRef]map[device.Capability]bool)
	authoritative := make(map[device.SourceRef]map[device.Capability]bool)
	for _, o := range obs {
		for ref, c := range o.Mappings {
			if all[ref] == nil {
				all[ref] = make(map[device.Capability]bool)
			}
			all[ref][c] = true
			if o.authoritativeClaim() {
				if authoritative[ref] == nil {
					authoritative[ref] = make(map[device.Capability]bool)
				}
				authoritative[ref][c] = true
			}
		}
	}

	refs := make([]device.SourceRef, 0, len(all))
	for ref, caps := range all {
		if len(caps) > 1 {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	out := make([]Contradiction, 0, len(refs))
	for _, ref := range refs {
		caps := make([]device.Capability, 0, len(all[ref]))
		for c := range all[ref] {
			caps = append(caps, c)
		}
		out = append(out, Contradiction{
			Source:       ref.String(),
			Capabilities: device.SortCapabilities(caps),
			Overridden:   len(authoritative[ref]) == 1,
		})
	}
	return out
}
