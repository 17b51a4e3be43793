package fingerprint

import (
	"sort"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// Match is the rule selected for an identity.
type Match struct {
	Rule         Rule        `json:"rule"`
	Index        int         `json:"index"`
	Specificity  Specificity `json:"specificity"`
	TableVersion string      `json:"tableVersion"`
}

// candidate is a rule flowing through the pipeline.
type candidate struct {
	index int
	spec  Specificity
}

// stage narrows or reorders candidates. Stages are pure.
type stage func(t *Table, id device.Identity, in []candidate) []candidate

// pipeline is the resolution order. Exclusion runs first so it always
// beats specificity.
var pipeline = []stage{excludeStage, applicableStage, rankStage}

// Resolve returns the best rule for id, or false when none applies.
// No match is a normal outcome, not an error.
func Resolve(id device.Identity, t *Table) (Match, bool) {
	ranked := run(id, t)
	if len(ranked) == 0 {
		return Match{}, false
	}
	return t.match(ranked[0]), true
}

// Candidates returns every applicable, non-excluded rule in rank order.
// The first element is what Resolve returns.
func Candidates(id device.Identity, t *Table) []Match {
	ranked := run(id, t)
	out := make([]Match, len(ranked))
	for i, c := range ranked {
		out[i] = t.match(c)
	}
	return out
}

func run(id device.Identity, t *Table) []candidate {
	if t.Len() == 0 {
		return nil
	}
	id = id.Normalise()
	cands := make([]candidate, len(t.rules))
	for i := range t.rules {
		cands[i] = candidate{index: i}
	}
	for _, s := range pipeline {
		cands = s(t, id, cands)
		if len(cands) == 0 {
			return nil
		}
	}
	return cands
}

func (t *Table) match(c candidate) Match {
	return Match{
		Rule:         t.rules[c.index].normalise(),
		Index:        c.index,
		Specificity:  c.spec,
		TableVersion: t.version,
	}
}

// excludeStage drops rules whose exclude glob matches the identity.
func excludeStage(t *Table, id device.Identity, in []candidate) []candidate {
	out := in[:0:0]
	for _, c := range in {
		if !t.rules[c.index].excludes(id) {
			out = append(out, c)
		}
	}
	return out
}

// applicableStage keeps rules whose vendor, product and firmware match.
func applicableStage(t *Table, id device.Identity, in []candidate) []candidate {
	out := in[:0:0]
	for _, c := range in {
		r := t.rules[c.index]
		if r.applies(id) {
			c.spec = r.specificity()
			out = append(out, c)
		}
	}
	return out
}

// rankStage orders by specificity, most specific first. The sort is stable
// and the input is in declaration order, so the first-declared rule wins ties.
func rankStage(_ *Table, _ device.Identity, in []candidate) []candidate {
	out := append([]candidate(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].spec.Rank() > out[j].spec.Rank()
	})
	return out
}
