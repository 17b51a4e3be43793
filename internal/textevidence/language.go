package textevidence

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Language codes (ISO 639-1) reported by DetectLanguage.
var (
	LangEnglish  = language.English.String()
	LangFrench   = language.French.String()
	LangGerman   = language.German.String()
	LangSpanish  = language.Spanish.String()
	LangRussian  = language.Russian.String()
	LangChinese  = language.Chinese.String()
	LangJapanese = language.Japanese.String()
	LangKorean   = language.Korean.String()
)

// scriptShare is the fraction of letters a script needs before it decides
// the language. Product codes and quoted names stay below it.
const scriptShare = 0.2

// minMarkerHits is how many marker words a text needs before it leaves
// English. One stray word ("taste", "con") is not enough.
const minMarkerHits = 2

// lexicalMarkers are function words and domain verbs specific to one
// language, in plain (accent-free, folded) form. Words shared with English
// or between the three languages are left out.
var lexicalMarkers = []struct {
	lang  string
	words map[string]bool
}{
	{LangSpanish, wordSet("el los las una pero esta cuando tambien porque muy doble pulsacion presionar mantener veces boton cortina persiana interruptor funciona encender apagar luz")},
	{LangGerman, wordSet("der das und ist nicht auf ein eine wenn auch bei noch oder drucken gedruckt doppelklick zweimal halten langer tastendruck schalter rollladen vorhang funktioniert licht gerat zuruck")},
	{LangFrench, wordSet("le les des une pas avec sur quand mais aussi tres je appuyer appui appuye deux fois maintenir bouton rideau volet interrupteur fonctionne allumer")},
}

func wordSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

// DetectLanguage returns the ISO 639-1 code of text, defaulting to "en".
//
// Order: kana (ja), Hangul (ko), Han (zh), Cyrillic (ru), then the
// es/de/fr marker set with the most hits, if it has at least
// minMarkerHits. Kana is checked before Han because Japanese text mixes
// both.
func DetectLanguage(text string) string {
	return detectLanguage(newForms(text))
}

func detectLanguage(f forms) string {
	var letters, han, kana, hangul, cyrillic int
	for _, r := range f.folded {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		}
	}
	if letters == 0 {
		return LangEnglish
	}

	share := func(n int) bool { return float64(n) >= scriptShare*float64(letters) }
	switch {
	case kana > 0 && share(kana+han):
		return LangJapanese
	case share(hangul):
		return LangKorean
	case share(han):
		return LangChinese
	case share(cyrillic):
		return LangRussian
	}

	best, bestHits := LangEnglish, minMarkerHits-1
	tokens := words(f.plain)
	for _, m := range lexicalMarkers {
		hits := 0
		for _, w := range tokens {
			if m.words[w] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = m.lang, hits
		}
	}
	return best
}

// words splits on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
