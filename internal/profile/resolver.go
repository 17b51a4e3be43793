package profile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
	"github.com/nerrad567/gray-logic-profiler/internal/textevidence"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Resolver turns the evidence about one identity into a DeviceProfile.
//
// The rule table is fixed for the resolver's lifetime; build a new
// resolver to pick up a new table. Resolve is safe for concurrent use.
type Resolver struct {
	source    evidence.Source
	table     *fingerprint.Table
	engine    *scoring.Engine
	extractor textevidence.Extractor
	logger    Logger
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now for ResolvedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver. A nil table behaves as an empty one.
func NewResolver(source evidence.Source, table *fingerprint.Table, engine *scoring.Engine, opts ...Option) *Resolver {
	if table == nil {
		table = fingerprint.Empty()
	}
	r := &Resolver{
		source: source,
		table:  table,
		engine: engine,
		logger: noopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogger sets the logger for data-quality warnings.
func (r *Resolver) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// TableVersion returns the version of the rule table in use.
func (r *Resolver) TableVersion() string {
	return r.table.Version()
}

// Resolve builds the profile for id. Malformed evidence is skipped with a
// warning and listed in the profile; an empty evidence set yields a
// tracking profile with score 0. Errors are returned only for an invalid
// identity, a failing source or a cancelled context.
func (r *Resolver) Resolve(ctx context.Context, id device.Identity) (*DeviceProfile, error) {
	id = id.Normalise()
	if err := id.Validate(); err != nil {
		return nil, err
	}

	items, err := r.source.ListEvidence(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing evidence for %s: %w", id.Key(), err)
	}
	sortEvidence(items)

	match, matched := fingerprint.Resolve(id, r.table)
	family := match.Rule.Delta.Family

	p := &DeviceProfile{
		ID:           uuid.NewString(),
		DeviceKey:    id,
		Family:       family,
		TableVersion: r.table.Version(),
	}

	var (
		observations []scoring.Observation
		assertions   []assertion
		events       = make(map[textevidence.Event]bool)
		domains      = make(map[evidence.SourceDomain]bool)
	)
	for _, e := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := evidence.Validate(e); err != nil {
			r.logger.Warn("skipping malformed evidence",
				"evidence_id", e.ID,
				"device", id.Key(),
				"reason", err.Error(),
			)
			p.Skipped = append(p.Skipped, SkippedEvidence{EvidenceID: e.ID, Reason: err.Error()})
			continue
		}

		obs, as, parsed := r.observe(e, family)
		observations = append(observations, obs)
		assertions = append(assertions, as...)
		for _, ev := range parsed.DetectedEvents {
			events[ev] = true
		}
		domains[e.Domain] = true
	}

	candidate := scoring.Candidate{Device: id}
	if matched {
		candidate.FingerprintRule = match.Rule.Name
		p.Fingerprint = &FingerprintInfo{
			Rule:         match.Rule.Name,
			TableVersion: match.TableVersion,
			Specificity:  match.Specificity,
		}
	}
	result := r.engine.Score(candidate, observations)

	p.CapabilityMap = merge(assertions, match.Rule.Delta)
	p.Events = sortedEvents(events)
	p.Score = result.Score
	p.Status = result.Status
	p.ConfidenceLevel = result.ConfidenceLevel
	p.Report = result.Report
	p.ContributingSources = sortedDomains(domains)
	p.ResolvedAt = r.now().UTC()

	r.logger.Debug("device resolved",
		"device", id.Key(),
		"evidence", len(items),
		"skipped", len(p.Skipped),
		"score", p.Score,
		"status", string(p.Status),
	)
	return p, nil
}

// observe converts one valid evidence record into a scoring observation
// and merge assertions. A record's own structured claim overrides its text.
func (r *Resolver) observe(e evidence.Evidence, family string) (scoring.Observation, []assertion, textevidence.ParsedEvidence) {
	weight := r.engine.Config().Weight(e.Domain)
	obs := scoring.Observation{
		EvidenceID: e.ID,
		Domain:     e.Domain,
		Origin:     e.Origin,
		ObservedAt: e.ObservedAt,
		Mappings:   make(map[device.SourceRef]device.Capability),
		Structured: e.HasClaim(),
	}

	var as []assertion
	if e.HasClaim() {
		origin := OriginStructured
		if e.Domain.IsAuthoritative() {
			origin = OriginAuthoritative
		}
		for ref, m := range e.Claim.Mappings() {
			obs.Mappings[ref] = m.Capability
			as = append(as, assertion{
				capability: m.Capability,
				source:     ref,
				parser:     m.Parser,
				origin:     origin,
				domain:     e.Domain,
				evidenceID: e.ID,
				weight:     weight,
				confidence: 1,
			})
		}
	}

	var parsed textevidence.ParsedEvidence
	if e.HasText() {
		parsed = r.extractor.Extract(e, family)
		for ref, c := range parsed.Mappings() {
			if _, claimed := obs.Mappings[ref]; claimed {
				continue
			}
			obs.Mappings[ref] = c
			as = append(as, assertion{
				capability: c,
				source:     ref,
				origin:     OriginText,
				domain:     e.Domain,
				evidenceID: e.ID,
				weight:     weight,
				confidence: parsed.Confidence,
			})
		}
		for _, ev := range parsed.DetectedEvents {
			obs.Events = append(obs.Events, string(ev))
		}
	}
	return obs, as, parsed
}

// sortEvidence puts records in a canonical order so merge tie-breaks do
// not depend on storage order.
func sortEvidence(items []evidence.Evidence) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.Before(b.ObservedAt)
		}
		return a.ID < b.ID
	})
}

func sortedDomains(set map[evidence.SourceDomain]bool) []evidence.SourceDomain {
	out := make([]evidence.SourceDomain, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return evidence.SortDomains(out)
}

func sortedEvents(set map[textevidence.Event]bool) []textevidence.Event {
	out := make([]textevidence.Event, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
