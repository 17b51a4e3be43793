package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/profile"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

func newResolveCmd(load configLoader) *cobra.Command {
	var (
		dryRun   bool
		jsonOnly bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <vendor> <product> [firmware]",
		Short: "Resolve one identity and print its profile",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			fw := ""
			if len(args) == 3 {
				fw = args[2]
			}
			id := device.NewIdentity(args[0], args[1], fw)
			if err := id.Validate(); err != nil {
				return err
			}

			a, err := openApp(ctx, load, appOptions{mqtt: !dryRun, influx: !dryRun})
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := a.newResolver()
			if err != nil {
				return err
			}

			var sinks []profile.Sink
			if !dryRun {
				sinks = a.sinks()
			}
			b := profile.NewBatch(resolver, a.batchConfig(), sinks...)
			b.SetLogger(a.log.With("component", "batch"))

			result, err := b.Run(ctx, []device.Identity{id})
			if err != nil {
				return err
			}
			for _, f := range result.Failures {
				if f.Stage == profile.StageResolve {
					return f.Err
				}
				a.log.Warn("profile not delivered", "stage", f.Stage, "error", f.Reason)
			}
			p := result.Profiles[0]

			out := cmd.OutOrStdout()
			if !jsonOnly {
				printProfileSummary(out, p)
			}
			doc, err := profile.Encode(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(doc))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not store or publish the profile")
	cmd.Flags().BoolVar(&jsonOnly, "json", false, "print only the JSON document")
	return cmd
}

// statusColor picks the terminal colour for a status.
func statusColor(st scoring.Status) *color.Color {
	switch st {
	case scoring.StatusConfirmed:
		return color.New(color.FgGreen, color.Bold)
	case scoring.StatusProposed:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed)
	}
}

func printProfileSummary(w io.Writer, p *profile.DeviceProfile) {
	dim := color.New(color.Faint)

	fmt.Fprintf(w, "%s  ", p.Key())
	statusColor(p.Status).Fprintf(w, "%s", p.Status)
	fmt.Fprintf(w, "  score %.1f (%s)\n", p.Score, p.ConfidenceLevel)

	if p.Fingerprint != nil {
		dim.Fprintf(w, "  rule %s [table %s]\n", p.Fingerprint.Rule, p.Fingerprint.TableVersion)
	}
	for _, c := range p.Capabilities() {
		b := p.CapabilityMap[c]
		fmt.Fprintf(w, "  %-22s %-24s %-16s ", c, b.Source, b.Parser)
		dim.Fprintf(w, "%s\n", b.Origin)
	}
	if len(p.Events) > 0 {
		fmt.Fprintf(w, "  events %v\n", p.Events)
	}
	for _, s := range p.Skipped {
		color.New(color.FgYellow).Fprintf(w, "  skipped %s: %s\n", s.EvidenceID, s.Reason)
	}
	for _, line := range (scoring.Result{Score: p.Score, Status: p.Status, ConfidenceLevel: p.ConfidenceLevel, Report: p.Report}).Lines() {
		dim.Fprintf(w, "  %s\n", line)
	}
}
