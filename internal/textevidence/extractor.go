package textevidence

import (
	"math"
	"strings"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

const (
	// EventBonus is added to the mapping confidence when any event was found.
	EventBonus = 0.05

	// MaxConfidence is the ceiling for anything inferred from text.
	MaxConfidence = 0.9
)

// ParsedEvidence is what the extractor reads out of one evidence text.
type ParsedEvidence struct {
	EvidenceID     string                       `json:"evidenceId,omitempty"`
	Language       string                       `json:"language"`
	DetectedEvents []Event                      `json:"detectedEvents"`
	DpMap          map[int]device.Capability    `json:"dpMap"`
	ZclMap         map[string]device.Capability `json:"zclMap"`
	Confidence     float64                      `json:"confidence"`
	Notes          string                       `json:"notes,omitempty"`
}

// Empty reports whether nothing was extracted.
func (p ParsedEvidence) Empty() bool {
	return len(p.DetectedEvents) == 0 && len(p.DpMap) == 0 && len(p.ZclMap) == 0
}

// Mappings flattens the dp and cluster maps into source references.
func (p ParsedEvidence) Mappings() map[device.SourceRef]device.Capability {
	out := make(map[device.SourceRef]device.Capability, len(p.DpMap)+len(p.ZclMap))
	for dp, c := range p.DpMap {
		out[device.DatapointRef(dp)] = c
	}
	for name, c := range p.ZclMap {
		out[device.ClusterRef(name)] = c
	}
	return out
}

// Extractor turns evidence text into ParsedEvidence. The zero value is
// ready to use and safe for concurrent use.
type Extractor struct{}

// Extract parses the raw text of e. Records without text yield an empty
// result in the default language.
func (Extractor) Extract(e evidence.Evidence, family string) ParsedEvidence {
	p := Extract(e.RawText, family)
	p.EvidenceID = e.ID
	if e.Origin != "" {
		p.Notes = joinNotes("origin="+e.Origin, p.Notes)
	}
	return p
}

// Extract parses free text. family is a tie-break hint only.
func Extract(text, family string) ParsedEvidence {
	if strings.TrimSpace(text) == "" {
		return ParsedEvidence{
			Language:       LangEnglish,
			DetectedEvents: []Event{},
			DpMap:          map[int]device.Capability{},
			ZclMap:         map[string]device.Capability{},
			Notes:          "no text",
		}
	}

	f := newForms(text)
	lang := detectLanguage(f)
	events := detectEvents(f, lang)
	dps := inferDatapoints(f.folded, family)
	zcl := InferClusters(text)

	conf := math.Max(dps.Confidence, zcl.Confidence)
	if len(events) > 0 {
		conf += EventBonus
	}
	conf = round2(math.Min(conf, MaxConfidence))

	notes := []string{"lang=" + lang}
	if len(events) > 0 {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = string(e)
		}
		notes = append(notes, "events="+strings.Join(names, ","))
	}
	if len(dps.Map) > 0 {
		notes = append(notes, describeDatapoints(dps.Map))
	}
	if len(zcl.Map) > 0 {
		notes = append(notes, describeClusters(zcl.Map))
	}
	notes = append(notes, dps.Notes...)
	notes = append(notes, zcl.Notes...)

	return ParsedEvidence{
		Language:       lang,
		DetectedEvents: events,
		DpMap:          dps.Map,
		ZclMap:         zcl.Map,
		Confidence:     conf,
		Notes:          strings.Join(notes, "; "),
	}
}

func joinNotes(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
