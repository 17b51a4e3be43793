package textevidence

import (
	"regexp"
	"sort"
)

// Event is a canonical discrete event tag.
type Event string

// Events recognised in text.
const (
	EventButtonPressed     Event = "button_pressed"
	EventButtonDouble      Event = "button_double"
	EventButtonHeld        Event = "button_held"
	EventWindowCoveringSet Event = "windowcoverings_set"
)

// eventOrder is the output order of DetectEvents.
var eventOrder = map[Event]int{
	EventButtonPressed:     0,
	EventButtonDouble:      1,
	EventButtonHeld:        2,
	EventWindowCoveringSet: 3,
}

// matcher contributes its event when the pattern matches. usePlain selects
// the accent-free form; scripts without Latin letters use the folded form.
type matcher struct {
	event    Event
	pattern  *regexp.Regexp
	usePlain bool
}

func latin(e Event, expr string) matcher {
	return matcher{event: e, pattern: regexp.MustCompile(expr), usePlain: true}
}

func script(e Event, expr string) matcher {
	return matcher{event: e, pattern: regexp.MustCompile(expr)}
}

// Press patterns only fire on an explicit single or short press so that
// "press twice" yields button_double alone. Go's \b is ASCII-only and is
// used only next to ASCII characters.
var eventDictionaries = map[string][]matcher{
	LangEnglish: {
		latin(EventButtonPressed, `\b(?:single|short)[\s-]?(?:press|click|tap|push)|\b(?:press|click|tap|push)(?:ed|es)?\s+once\b|\bone\s+(?:press|click|tap)\b`),
		latin(EventButtonDouble, `\bdouble[\s-]?(?:press|click|tap|push)|\b(?:press|click|tap|push)(?:ed|es)?\s+(?:it\s+)?twice\b|\btwo\s+(?:presses|clicks|taps)\b`),
		latin(EventButtonHeld, `\blong[\s-]?(?:press|click|push)|\b(?:press|push)(?:ed)?\s+and\s+hold|\bhold(?:ing)?\s+(?:it\s+|the\s+button\s+)?(?:down|for)\b|\bheld\s+down\b`),
		latin(EventWindowCoveringSet, `\b(?:set|move|open|close)s?\s+(?:the\s+)?(?:curtain|blind|shade|cover|shutter)s?\s+(?:to|at)\b|\b(?:curtain|blind|cover|shade|shutter)s?\s+position\b|\bposition\s+(?:to\s+)?\d{1,3}\s*%`),
	},
	LangFrench: {
		latin(EventButtonPressed, `\b(?:appui|pression)\s+courte?\b|\bsimple\s+(?:clic|appui|pression)\b|\bappuyer\s+une\s+(?:seule\s+)?fois\b`),
		latin(EventButtonDouble, `\bdeux\s+fois\b|\bdouble[\s-]?(?:clic|appui|pression)\b`),
		latin(EventButtonHeld, `\b(?:appui|pression)\s+longue?\b|\blongue\s+pression\b|\bmaintenir\s+(?:appuye|enfonce)|\brester\s+appuye\b`),
		latin(EventWindowCoveringSet, `\bposition\s+(?:du\s+|des\s+)?(?:rideau|volet|store)s?\b|\b(?:rideau|volet|store)s?\s+a\s+\d{1,3}\s*%|\b(?:regler|mettre|ouvrir)\s+(?:le\s+|les\s+)?(?:rideau|volet|store)s?\s+a\b`),
	},
	LangGerman: {
		latin(EventButtonPressed, `\bkurz(?:er|es|em)?\s+(?:tasten)?druck(?:en)?\b|\beinfach(?:er\s+)?klick\b|\beinmal\s+(?:drucken|gedruckt)\b`),
		latin(EventButtonDouble, `\bdoppel(?:klick|druck|tipp)\b|\bzweimal\b`),
		latin(EventButtonHeld, `\blang(?:e|er|es|em)?\s+(?:tasten)?druck(?:en)?\b|\bgedruckt\s+halten\b|\blanger\s+tastendruck\b`),
		latin(EventWindowCoveringSet, `\b(?:rollladen|rolladen|vorhang|jalousie|rollo)s?\s+(?:auf\s+\d{1,3}\s*%|position)|\bposition\s+(?:des\s+)?(?:rollladens?|vorhangs?)\b`),
	},
	LangSpanish: {
		latin(EventButtonPressed, `\bpulsacion\s+(?:corta|simple)\b|\buna\s+pulsacion\b|\b(?:pulsar|presionar)\s+una\s+vez\b|\bclic\s+simple\b`),
		latin(EventButtonDouble, `\bdoble\s+(?:pulsacion|clic|click|toque)\b|\bdos\s+veces\b`),
		latin(EventButtonHeld, `\bpulsacion\s+larga\b|\bmantener\s+(?:pulsado|presionado)\b|\bpresion\s+larga\b`),
		latin(EventWindowCoveringSet, `\bposicion\s+(?:de\s+la\s+|del\s+)?(?:cortina|persiana|estor)\b|\b(?:cortina|persiana|estor)\s+al\s+\d{1,3}\s*%`),
	},
	LangRussian: {
		script(EventButtonPressed, `одиночн\p{L}*\s+нажати|коротк\p{L}*\s+нажати|одно\s+нажатие|один\s+раз`),
		script(EventButtonDouble, `двойн\p{L}*\s+(?:нажати|клик|щелч)|дважды|два\s+раза`),
		script(EventButtonHeld, `долг\p{L}*\s+нажати|длительн\p{L}*\s+нажати|удержани|удерживать`),
		script(EventWindowCoveringSet, `позици\p{L}*\s+(?:штор|жалюзи|занавес)|(?:штор|жалюзи|занавес)\p{L}*\s+на\s+\d{1,3}\s*%`),
	},
	LangChinese: {
		script(EventButtonPressed, `单击|單擊|短按`),
		script(EventButtonDouble, `双击|雙擊|按两下|按兩下`),
		script(EventButtonHeld, `长按|長按`),
		script(EventWindowCoveringSet, `窗帘位置|窗簾位置|开合度|開合度|窗帘\s*\d{1,3}\s*%`),
	},
	LangJapanese: {
		script(EventButtonPressed, `シングルクリック|短押し|1回押`),
		script(EventButtonDouble, `ダブルクリック|ダブルタップ|2回押|二回押`),
		script(EventButtonHeld, `長押し`),
		script(EventWindowCoveringSet, `カーテンの?位置|開度`),
	},
	LangKorean: {
		script(EventButtonPressed, `한\s?번\s+누르|짧게\s+누르|단일\s+클릭`),
		script(EventButtonDouble, `더블\s*(?:클릭|탭)|두\s?번\s+누르`),
		script(EventButtonHeld, `길게\s+누르|길게\s+누름`),
		script(EventWindowCoveringSet, `(?:커튼|블라인드)\s*위치|개폐율`),
	},
}

// DetectEvents applies the dictionary of lang to text. Unknown languages
// use the English dictionary. The result is in canonical order.
func DetectEvents(text, lang string) []Event {
	return detectEvents(newForms(text), lang)
}

func detectEvents(f forms, lang string) []Event {
	dict, ok := eventDictionaries[lang]
	if !ok {
		dict = eventDictionaries[LangEnglish]
	}

	seen := make(map[Event]bool)
	for _, m := range dict {
		if seen[m.event] {
			continue
		}
		s := f.folded
		if m.usePlain {
			s = f.plain
		}
		if m.pattern.MatchString(s) {
			seen[m.event] = true
		}
	}

	out := make([]Event, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return eventOrder[out[i]] < eventOrder[out[j]] })
	return out
}

// Detection is the combined result of Detect.
type Detection struct {
	Language string  `json:"language"`
	Events   []Event `json:"events"`
}

// Detect identifies the language of text and the events it describes.
func Detect(text string) Detection {
	f := newForms(text)
	lang := detectLanguage(f)
	return Detection{Language: lang, Events: detectEvents(f, lang)}
}
