package profile

import (
	"sort"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
)

// tier orders binding origins; higher wins.
func (o BindingOrigin) tier() int {
	switch o {
	case OriginRule:
		return 3
	case OriginAuthoritative:
		return 2
	case OriginStructured:
		return 1
	default:
		return 0
	}
}

// assertion is one claim that capability is read from source.
type assertion struct {
	capability device.Capability
	source     device.SourceRef
	parser     device.ValueParser
	origin     BindingOrigin
	domain     evidence.SourceDomain
	evidenceID string
	weight     float64
	confidence float64
}

// support aggregates the assertions behind one (source, capability) pair.
type support struct {
	capability device.Capability
	source     device.SourceRef
	origin     BindingOrigin
	weight     float64
	confidence float64
	parser     device.ValueParser
	domains    map[evidence.SourceDomain]bool
	evidence   []string

	// parserWeight is the weight of the assertion that set parser.
	parserWeight float64
}

// merge builds the capability map from assertions and the matched rule's
// delta. For each source primitive only the strongest origin survives, and
// within it the best-supported capability; each capability then takes its
// best-supported source.
func merge(assertions []assertion, delta fingerprint.ProfileDelta) map[device.Capability]CapabilityBinding {
	for c, b := range delta.Capabilities {
		ref, err := b.Ref()
		if err != nil {
			continue
		}
		assertions = append(assertions, assertion{
			capability: c,
			source:     ref,
			parser:     b.Parser,
			origin:     OriginRule,
			confidence: 1,
		})
	}

	byPair := aggregate(assertions)

	// Per source: keep the winning capability at the strongest origin.
	bySource := make(map[device.SourceRef]*support)
	for _, s := range byPair {
		if cur, ok := bySource[s.source]; !ok || stronger(s, cur) {
			bySource[s.source] = s
		}
	}

	// Per capability: keep the best source.
	byCapability := make(map[device.Capability]*support)
	for _, s := range bySource {
		if cur, ok := byCapability[s.capability]; !ok || stronger(s, cur) {
			byCapability[s.capability] = s
		}
	}

	for _, c := range delta.Remove {
		delete(byCapability, c)
	}

	out := make(map[device.Capability]CapabilityBinding, len(byCapability))
	for c, s := range byCapability {
		parser := s.parser
		if parser == "" {
			parser = device.DefaultParser(c, s.source.Kind)
		}
		domains := make([]evidence.SourceDomain, 0, len(s.domains))
		for d := range s.domains {
			domains = append(domains, d)
		}
		sort.Strings(s.evidence)
		out[c] = CapabilityBinding{
			Source:     s.source,
			Parser:     parser,
			Origin:     s.origin,
			Confidence: s.confidence,
			Domains:    evidence.SortDomains(domains),
			Evidence:   s.evidence,
		}
	}
	return out
}

// aggregate folds assertions into one support per (source, capability,
// origin). Weight counts each domain once; confidence is the maximum.
func aggregate(assertions []assertion) []*support {
	type key struct {
		source     device.SourceRef
		capability device.Capability
		origin     BindingOrigin
	}
	byKey := make(map[key]*support)
	for _, a := range assertions {
		k := key{a.source, a.capability, a.origin}
		s := byKey[k]
		if s == nil {
			s = &support{
				capability: a.capability,
				source:     a.source,
				origin:     a.origin,
				domains:    make(map[evidence.SourceDomain]bool),
			}
			byKey[k] = s
		}
		if a.domain != "" && !s.domains[a.domain] {
			s.domains[a.domain] = true
			s.weight += a.weight
		}
		if a.confidence > s.confidence {
			s.confidence = a.confidence
		}
		if a.evidenceID != "" {
			s.evidence = append(s.evidence, a.evidenceID)
		}
		// An explicit parser from a heavier domain replaces a lighter one.
		if a.parser != "" && (s.parser == "" || a.weight > s.parserWeight) {
			s.parser, s.parserWeight = a.parser, a.weight
		}
	}

	out := make([]*support, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	// Deterministic input order for the selection passes.
	sort.Slice(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source.Less(out[j].source)
		}
		if out[i].capability != out[j].capability {
			return out[i].capability < out[j].capability
		}
		return out[i].origin.tier() > out[j].origin.tier()
	})
	return out
}

// stronger reports whether a beats b: origin tier, then domain weight,
// then confidence, then the lower source and capability name.
func stronger(a, b *support) bool {
	if a.origin.tier() != b.origin.tier() {
		return a.origin.tier() > b.origin.tier()
	}
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	if a.source != b.source {
		return a.source.Less(b.source)
	}
	return a.capability < b.capability
}
