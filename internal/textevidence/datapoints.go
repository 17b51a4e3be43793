package textevidence

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// Datapoint inference confidence: base for one mapping, step per extra
// mapping, ceiling. Confidence depends only on how many datapoints were
// mapped, so more hits never lower it; broken ties are reported in Notes.
const (
	dpBaseConfidence = 0.35
	dpStepConfidence = 0.10
	dpMaxConfidence  = 0.75
)

var (
	// dpMention matches "dp1", "DP 4", "dp#2", "dpid=101", "datapoint 3".
	dpMention = regexp.MustCompile(`(?:\bdp\s*(?:id)?|\bdata\s?point(?:\s+id)?)\s*(?:[#:=]|no\.?)?\s*(\d{1,3})\b`)

	clauseBreak = regexp.MustCompile(`[.;,!?\n。；！？、]+`)
)

// DatapointInference is the result of InferDatapoints.
type DatapointInference struct {
	Map        map[int]device.Capability
	Confidence float64
	Notes      []string
}

// candidate accumulates keyword support for one capability at one datapoint.
type candidate struct {
	capability device.Capability
	score      int
	distance   int
}

// InferDatapoints reads "dp N means X" statements out of text. family
// only breaks ties between capabilities the text supports equally.
func InferDatapoints(text, family string) DatapointInference {
	return inferDatapoints(folded(text), family)
}

func inferDatapoints(s, family string) DatapointInference {
	support := make(map[int]map[device.Capability]*candidate)
	var notes []string

	for _, clause := range clauseBreak.Split(s, -1) {
		for _, seg := range segmentClause(clause) {
			dp, err := strconv.Atoi(seg.dp)
			if err == nil {
				dp, err = device.CheckDatapoint(dp)
			}
			if err != nil {
				notes = append(notes, fmt.Sprintf("ignored dp %s: out of range", seg.dp))
				continue
			}
			addSupport(support, dp, seg)
		}
	}

	result := DatapointInference{Map: make(map[int]device.Capability)}
	for _, dp := range sortedDatapoints(support) {
		c, tie := pick(support[dp], family)
		if c == "" {
			continue
		}
		result.Map[dp] = c
		if tie {
			notes = append(notes, fmt.Sprintf("dp%d: tie resolved to %s", dp, c))
		}
	}

	if n := len(result.Map); n > 0 {
		result.Confidence = round2(math.Min(dpBaseConfidence+dpStepConfidence*float64(n-1), dpMaxConfidence))
	}
	result.Notes = notes
	return result
}

// segment is the text attributed to one datapoint mention. before is true
// when the keywords precede the mention ("position is dp 2").
type segment struct {
	dp     string
	text   string
	before bool
}

// segmentClause splits a clause at each datapoint mention. Keywords are
// normally read after the mention ("dp1: on/off, dp2: brightness"); when
// only the text ahead of the first mention carries keywords, the clause is
// read the other way round.
func segmentClause(clause string) []segment {
	locs := dpMention.FindAllStringSubmatchIndex(clause, -1)
	if len(locs) == 0 {
		return nil
	}

	leading := clause[:locs[0][0]]
	trailing := clause[locs[len(locs)-1][1]:]
	prefix := hasAnyKeyword(leading) && !hasAnyKeyword(trailing)

	out := make([]segment, 0, len(locs))
	for i, loc := range locs {
		seg := segment{dp: clause[loc[2]:loc[3]], before: prefix}
		switch {
		case prefix && i == 0:
			seg.text = leading
		case prefix:
			seg.text = clause[locs[i-1][1]:loc[0]]
		case i+1 < len(locs):
			seg.text = clause[loc[1]:locs[i+1][0]]
		default:
			seg.text = trailing
		}
		out = append(out, seg)
	}
	return out
}

func hasAnyKeyword(s string) bool {
	p := plain(s)
	for c := range capabilityKeywords {
		if len(keywordHits(s, c)) > 0 || len(keywordHits(p, c)) > 0 {
			return true
		}
	}
	return false
}

func addSupport(support map[int]map[device.Capability]*candidate, dp int, seg segment) {
	p := plain(seg.text)
	for c := range capabilityKeywords {
		hits := mergeHits(keywordHits(seg.text, c), keywordHits(p, c))
		if len(hits) == 0 {
			continue
		}

		score, dist := 0, math.MaxInt
		for _, h := range hits {
			score += h.weight
			d := h.offset
			if seg.before {
				d = len(seg.text) - h.offset
			}
			dist = min(dist, d)
		}

		byCap := support[dp]
		if byCap == nil {
			byCap = make(map[device.Capability]*candidate)
			support[dp] = byCap
		}
		cand := byCap[c]
		if cand == nil {
			cand = &candidate{capability: c, distance: dist}
			byCap[c] = cand
		}
		cand.score += score
		cand.distance = min(cand.distance, dist)
	}
}

// mergeHits keeps the larger of the folded and plain readings, so an
// ASCII keyword is not counted twice.
func mergeHits(a, b []hit) []hit {
	if weight(b) > weight(a) {
		return b
	}
	return a
}

func weight(hits []hit) int {
	total := 0
	for _, h := range hits {
		total += h.weight
	}
	return total
}

// pick chooses the best-supported capability. The second result reports
// whether several capabilities shared the top score.
func pick(byCap map[device.Capability]*candidate, family string) (device.Capability, bool) {
	if len(byCap) == 0 {
		return "", false
	}
	cands := make([]*candidate, 0, len(byCap))
	for _, c := range byCap {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		pa, pb := Plausible(family, a.capability), Plausible(family, b.capability)
		if pa != pb {
			return pa
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.capability < b.capability
	})
	tie := len(cands) > 1 && cands[0].score == cands[1].score
	return cands[0].capability, tie
}

func sortedDatapoints(m map[int]map[device.Capability]*candidate) []int {
	out := make([]int, 0, len(m))
	for dp := range m {
		out = append(out, dp)
	}
	sort.Ints(out)
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// describeDatapoints renders "dp1=windowcoverings_set dp4=onoff".
func describeDatapoints(m map[int]device.Capability) string {
	dps := make([]int, 0, len(m))
	for dp := range m {
		dps = append(dps, dp)
	}
	sort.Ints(dps)
	parts := make([]string, 0, len(dps))
	for _, dp := range dps {
		parts = append(parts, fmt.Sprintf("dp%d=%s", dp, m[dp]))
	}
	return strings.Join(parts, " ")
}
