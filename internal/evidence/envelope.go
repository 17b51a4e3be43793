package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// EnvelopeNormalizer reads YAML or JSON evidence envelopes. A YAML stream
// may hold several documents separated by "---".
//
//	source_domain: reputable_forum
//	origin: https://community.example/t/1234
//	observed_at: 2025-06-01
//	device: {vendor: _TZE284_aao6qtcs, product: TS0601}
//	text: "dp1 controls the curtain position"
//	datapoints:
//	  "1": {capability: windowcoverings_set, parser: divide_by_100}
type EnvelopeNormalizer struct{}

// envelope is the on-disk shape. Datapoint keys are strings so that both
// YAML and JSON inputs decode.
type envelope struct {
	SourceDomain string             `yaml:"source_domain"`
	Origin       string             `yaml:"origin"`
	ObservedAt   string             `yaml:"observed_at"`
	Device       *envelopeDevice    `yaml:"device"`
	Text         string             `yaml:"text"`
	Datapoints   map[string]Mapping `yaml:"datapoints"`
	Clusters     map[string]Mapping `yaml:"clusters"`
}

type envelopeDevice struct {
	Vendor   string `yaml:"vendor"`
	Product  string `yaml:"product"`
	Firmware string `yaml:"firmware"`
}

// Name implements Normalizer.
func (*EnvelopeNormalizer) Name() string { return "envelope" }

// CanHandle accepts yaml/json hints and content that declares a source domain.
func (*EnvelopeNormalizer) CanHandle(doc Document) bool {
	switch doc.format() {
	case "yaml", "yml", "json":
		return true
	}
	content := bytes.TrimSpace(doc.Content)
	if bytes.HasPrefix(content, []byte("{")) {
		return bytes.Contains(content, []byte(`"source_domain"`))
	}
	for _, line := range strings.SplitN(string(content), "\n", 20) {
		if strings.HasPrefix(strings.TrimSpace(line), "source_domain:") {
			return true
		}
	}
	return false
}

// Normalize implements Normalizer.
func (*EnvelopeNormalizer) Normalize(ctx context.Context, doc Document) ([]Evidence, error) {
	dec := yaml.NewDecoder(bytes.NewReader(doc.Content))
	var out []Evidence
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var env envelope
		err := dec.Decode(&env)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		e, err := env.toEvidence(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (env envelope) toEvidence(doc Document) (Evidence, error) {
	e := Evidence{
		Domain:     doc.Domain,
		Origin:     env.Origin,
		ObservedAt: doc.ObservedAt,
		RawText:    env.Text,
	}
	if env.SourceDomain != "" {
		e.Domain = SourceDomain(strings.ToLower(strings.TrimSpace(env.SourceDomain)))
	}
	if e.Origin == "" {
		e.Origin = doc.origin()
	}

	switch {
	case env.Device != nil:
		e.Device = device.NewIdentity(env.Device.Vendor, env.Device.Product, env.Device.Firmware)
	case doc.Device != nil:
		e.Device = doc.Device.Normalise()
	}

	if env.ObservedAt != "" {
		ts, err := ParseTimestamp(env.ObservedAt)
		if err != nil {
			return Evidence{}, err
		}
		e.ObservedAt = ts
	}

	if len(env.Datapoints) > 0 || len(env.Clusters) > 0 {
		c := &Claim{Clusters: env.Clusters}
		if len(env.Datapoints) > 0 {
			c.Datapoints = make(map[int]Mapping, len(env.Datapoints))
			for key, m := range env.Datapoints {
				dp, err := device.ParseDatapoint(strings.TrimPrefix(strings.ToLower(key), "dp"))
				if err != nil {
					return Evidence{}, err
				}
				c.Datapoints[dp] = m
			}
		}
		e.Claim = c
	}
	return e, nil
}

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, a naive date-time (UTC) or a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
