package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/profile"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

func newBatchCmd(load configLoader) *cobra.Command {
	var keys []string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve every identity with evidence and emit the profiles",
		Long: `Resolve every device identity in the evidence store (or only those given
with --device) in parallel. Profiles are stored, published on MQTT when
resolver.publish is set, and recorded in InfluxDB when enabled. A device
that fails is reported and never stops the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, load, appOptions{mqtt: true, influx: true})
			if err != nil {
				return err
			}
			defer a.close()

			resolver, err := a.newResolver()
			if err != nil {
				return err
			}

			ids, err := batchIdentities(cmd, a, keys)
			if err != nil {
				return err
			}

			b := profile.NewBatch(resolver, a.batchConfig(), a.sinks()...)
			b.SetLogger(a.log.With("component", "batch"))

			result, runErr := b.Run(ctx, ids)
			printBatchSummary(cmd.OutOrStdout(), result)
			if runErr != nil {
				return fmt.Errorf("batch interrupted: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&keys, "device", nil, "device key vendor|product[|firmware] (repeatable)")
	return cmd
}

// batchIdentities parses --device keys, or lists every identity in the store.
func batchIdentities(cmd *cobra.Command, a *app, keys []string) ([]device.Identity, error) {
	if len(keys) == 0 {
		ids, err := a.evidence.ListIdentities(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("listing identities: %w", err)
		}
		return ids, nil
	}
	ids := make([]device.Identity, 0, len(keys))
	for _, k := range keys {
		id, err := device.ParseKey(k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printBatchSummary(w io.Writer, r *profile.BatchResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "run %s (rules %s): resolved %d, failed %d in %s\n",
		r.RunID, r.TableVersion, len(r.Profiles), r.Failed(), r.Duration().Round(1e6))
	for _, st := range []scoring.Status{scoring.StatusConfirmed, scoring.StatusProposed, scoring.StatusTracking} {
		if n := r.StatusCounts[st]; n > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", st, n)
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s [%s]: %s\n", f.Device.Key(), f.Stage, f.Reason)
	}
}
