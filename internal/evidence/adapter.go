package evidence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// Document is a raw input before normalisation: a file, an MQTT payload
// or a pasted forum post.
type Document struct {
	// Name is a file name or topic, used for format detection and as the
	// fallback origin.
	Name    string
	Content []byte

	// Format is an optional hint: "yaml", "json", "log" or "text".
	Format string

	// Defaults for normalisers whose input does not carry them.
	Domain     SourceDomain
	Device     *device.Identity
	Origin     string
	ObservedAt time.Time
}

// ext returns the lowercased file extension of the document name without the dot.
func (d Document) ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Name)), ".")
}

func (d Document) format() string {
	if d.Format != "" {
		return strings.ToLower(d.Format)
	}
	return d.ext()
}

func (d Document) origin() string {
	if d.Origin != "" {
		return d.Origin
	}
	return d.Name
}

// Normalizer turns one document format into evidence records.
type Normalizer interface {
	Name() string
	CanHandle(doc Document) bool
	Normalize(ctx context.Context, doc Document) ([]Evidence, error)
}

// Adapter selects the first normaliser that accepts a document.
type Adapter struct {
	normalizers []Normalizer
	now         func() time.Time
}

// NewAdapter creates an adapter trying normalizers in the given order.
func NewAdapter(normalizers ...Normalizer) *Adapter {
	return &Adapter{normalizers: normalizers, now: time.Now}
}

// DefaultAdapter handles envelopes, pairing logs and plain text, in that order.
func DefaultAdapter() *Adapter {
	return NewAdapter(&EnvelopeNormalizer{}, &PairingLogNormalizer{}, &TextNormalizer{})
}

// Normalizers returns the registered normaliser names.
func (a *Adapter) Normalizers() []string {
	names := make([]string, len(a.normalizers))
	for i, n := range a.normalizers {
		names[i] = n.Name()
	}
	return names
}

// Normalize converts doc into evidence records. Records without an
// observation time get the adapter clock.
func (a *Adapter) Normalize(ctx context.Context, doc Document) ([]Evidence, error) {
	n, err := a.selectNormalizer(doc)
	if err != nil {
		return nil, err
	}
	items, err := n.Normalize(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("normalizer %q: %w", n.Name(), err)
	}
	now := a.now().UTC()
	for i := range items {
		if items[i].ObservedAt.IsZero() {
			items[i].ObservedAt = now
		}
		items[i].Claim = NormaliseClaim(items[i].Claim)
	}
	return items, nil
}

func (a *Adapter) selectNormalizer(doc Document) (Normalizer, error) {
	for _, n := range a.normalizers {
		if n.CanHandle(doc) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (format hint %q)", ErrUnsupportedDocument, doc.Name, doc.Format)
}

// IngestResult summarises one Ingest call.
type IngestResult struct {
	Stored   []string
	Rejected []error
}

// Ingest normalises doc, validates every record and appends the valid ones.
// Invalid records are reported in Rejected and do not stop the rest; a
// store failure aborts.
func (a *Adapter) Ingest(ctx context.Context, doc Document, store Appender) (IngestResult, error) {
	var res IngestResult
	items, err := a.Normalize(ctx, doc)
	if err != nil {
		return res, err
	}
	for i := range items {
		if err := Validate(items[i]); err != nil {
			res.Rejected = append(res.Rejected, err)
			continue
		}
		if err := store.Append(ctx, &items[i]); err != nil {
			if errors.Is(err, device.ErrInvalidIdentity) {
				res.Rejected = append(res.Rejected, err)
				continue
			}
			return res, err
		}
		res.Stored = append(res.Stored, items[i].ID)
	}
	return res, nil
}
