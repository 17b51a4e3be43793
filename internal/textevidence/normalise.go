package textevidence

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folded returns text in NFKC with Unicode case folding applied. Full-width
// digits and letters become ASCII, so "２回" reads as "2回".
func folded(text string) string {
	// Casers and transformers keep state; build them per call.
	return cases.Fold().String(norm.NFKC.String(text))
}

// plain returns folded text with combining marks removed, so "appuyé" and
// "drücken" match the ASCII patterns "appuye" and "drucken". Only used for
// Latin-script matching: it would also strip kana voicing marks.
func plain(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, text)
	if err != nil {
		s = text
	}
	return cases.Fold().String(s)
}

// forms holds both normalisations of one piece of text.
type forms struct {
	folded string
	plain  string
}

func newForms(text string) forms {
	return forms{folded: folded(text), plain: plain(text)}
}
