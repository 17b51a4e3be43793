package evidence

import (
	"context"
	"strings"
)

// TextNormalizer wraps plain forum, retailer or blog text into a single
// record. The caller supplies the device and domain.
type TextNormalizer struct{}

// Name implements Normalizer.
func (*TextNormalizer) Name() string { return "text" }

// CanHandle accepts any document whose device and domain are known.
func (*TextNormalizer) CanHandle(doc Document) bool {
	return doc.Device != nil && doc.Domain != ""
}

// Normalize implements Normalizer.
func (*TextNormalizer) Normalize(_ context.Context, doc Document) ([]Evidence, error) {
	text := strings.TrimSpace(string(doc.Content))
	if text == "" {
		return nil, nil
	}
	return []Evidence{{
		Device:     doc.Device.Normalise(),
		Domain:     doc.Domain,
		Origin:     doc.origin(),
		ObservedAt: doc.ObservedAt,
		RawText:    text,
	}}, nil
}
