package scoring

import (
	"fmt"
	"strings"
)

// Lines renders the report as human-readable lines, base first.
func (r Result) Lines() []string {
	rep := r.Report
	lines := make([]string, 0, len(rep.Domains)+len(rep.Adjustments)+4)

	for _, d := range rep.Domains {
		lines = append(lines, fmt.Sprintf("%+6.1f  %s (%d evidence)", d.Weight, d.Domain, d.Evidence))
	}
	for _, a := range rep.Adjustments {
		lines = append(lines, fmt.Sprintf("%+6.1f  %s: %s", a.Points, a.Kind, a.Detail))
	}
	for _, c := range rep.Contradictions {
		caps := make([]string, len(c.Capabilities))
		for i, cp := range c.Capabilities {
			caps[i] = string(cp)
		}
		state := "conflict"
		if c.Overridden {
			state = "overridden"
		}
		lines = append(lines, fmt.Sprintf("        %s %s: %s", state, c.Source, strings.Join(caps, " vs ")))
	}
	if rep.Clamped {
		lines = append(lines, fmt.Sprintf("        clamped from %.1f", rep.Raw))
	}
	if rep.Gate != "" {
		lines = append(lines, "        "+rep.Gate)
	}
	for _, n := range rep.Notes {
		lines = append(lines, "        "+n)
	}
	lines = append(lines, fmt.Sprintf("= %.1f %s (%s)", r.Score, r.Status, r.ConfidenceLevel))
	return lines
}
