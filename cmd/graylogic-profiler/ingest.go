package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

// ingestFlags are the document defaults for inputs that do not carry them.
type ingestFlags struct {
	format   string
	domain   string
	vendor   string
	product  string
	firmware string
	origin   string
	observed string
}

func newIngestCmd(load configLoader) *cobra.Command {
	var f ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Normalise evidence documents into the evidence store",
		Long: `Read envelopes (YAML/JSON), Zigbee pairing or event logs, and plain text
and append the evidence records they contain. Plain text needs --domain,
--vendor and --product. Invalid records are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			base, err := f.document()
			if err != nil {
				return err
			}

			a, err := openApp(ctx, load, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			adapter := evidence.DefaultAdapter()
			out := cmd.OutOrStdout()
			var stored, rejected int
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				doc := base
				doc.Name = path
				doc.Content = content

				res, err := adapter.Ingest(ctx, doc, a.evidence)
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				for _, rej := range res.Rejected {
					a.log.Warn("evidence rejected", "file", path, "reason", rej.Error())
				}
				fmt.Fprintf(out, "%s: stored %d, rejected %d\n", path, len(res.Stored), len(res.Rejected))
				stored += len(res.Stored)
				rejected += len(res.Rejected)
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "total: stored %d, rejected %d\n", stored, rejected)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "", "format hint: yaml, json, log or text")
	cmd.Flags().StringVar(&f.domain, "domain", "", "default source domain")
	cmd.Flags().StringVar(&f.vendor, "vendor", "", "default device vendor")
	cmd.Flags().StringVar(&f.product, "product", "", "default device product")
	cmd.Flags().StringVar(&f.firmware, "firmware", "", "default device firmware")
	cmd.Flags().StringVar(&f.origin, "origin", "", "origin (URL or log path); defaults to the file name")
	cmd.Flags().StringVar(&f.observed, "observed", "", "observation time (RFC 3339 or YYYY-MM-DD); defaults to now")
	return cmd
}

// document builds the Document defaults from the flags.
func (f ingestFlags) document() (evidence.Document, error) {
	doc := evidence.Document{
		Format: f.format,
		Origin: f.origin,
	}
	if f.domain != "" {
		d := evidence.SourceDomain(f.domain)
		if !d.Valid() {
			return doc, fmt.Errorf("%w: %q", evidence.ErrUnknownDomain, f.domain)
		}
		doc.Domain = d
	}
	if f.vendor != "" || f.product != "" {
		id := device.NewIdentity(f.vendor, f.product, f.firmware)
		if err := id.Validate(); err != nil {
			return doc, err
		}
		doc.Device = &id
	}
	if f.observed != "" {
		t, err := evidence.ParseTimestamp(f.observed)
		if err != nil {
			return doc, err
		}
		doc.ObservedAt = t
	} else {
		doc.ObservedAt = time.Now().UTC()
	}
	return doc, nil
}
