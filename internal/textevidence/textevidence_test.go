package textevidence

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", LangEnglish},
		{"english", "Double press the button to toggle the light", LangEnglish},
		{"french", "Pour allumer, appuyer deux fois sur le bouton", LangFrench},
		{"german", "Doppelklick auf die Taste schaltet das Licht", LangGerman},
		{"spanish", "Doble pulsación para encender la luz", LangSpanish},
		{"russian", "Двойное нажатие переключает свет", LangRussian},
		{"chinese", "双击开关可以切换灯光", LangChinese},
		{"japanese with kanji", "ボタンを長押しすると電源が切れます", LangJapanese},
		{"korean", "버튼을 길게 누르면 꺼집니다", LangKorean},
		{"product code in english", "Works with TS0601 _TZE284_aao6qtcs and 窗", LangEnglish},
		{"full width digits only", "１２３", LangEnglish},
		{"english with a german homograph", "The fur cover is nice", LangEnglish},
		{"one spanish word is not enough", "Pro and con: it is slow", LangEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLang string
		want     []Event
	}{
		{
			name:     "french double press only",
			text:     "Pour allumer, appuyer deux fois sur le bouton",
			wantLang: LangFrench,
			want:     []Event{EventButtonDouble},
		},
		{
			name:     "english press twice",
			text:     "Press it twice to switch scenes",
			wantLang: LangEnglish,
			want:     []Event{EventButtonDouble},
		},
		{
			name:     "english all button events",
			text:     "Single press toggles, double click dims, long press resets",
			wantLang: LangEnglish,
			want:     []Event{EventButtonPressed, EventButtonDouble, EventButtonHeld},
		},
		{
			name:     "english cover position",
			text:     "You can set the curtain to 40% from the app",
			wantLang: LangEnglish,
			want:     []Event{EventWindowCoveringSet},
		},
		{
			name:     "german long press",
			text:     "Langer Tastendruck auf die Taste setzt das Gerät zurück",
			wantLang: LangGerman,
			want:     []Event{EventButtonHeld},
		},
		{
			name:     "spanish double",
			text:     "Doble pulsación para encender la luz",
			wantLang: LangSpanish,
			want:     []Event{EventButtonDouble},
		},
		{
			name:     "russian double",
			text:     "Двойное нажатие переключает свет",
			wantLang: LangRussian,
			want:     []Event{EventButtonDouble},
		},
		{
			name:     "chinese double",
			text:     "双击开关可以切换灯光",
			wantLang: LangChinese,
			want:     []Event{EventButtonDouble},
		},
		{
			name:     "japanese held",
			text:     "ボタンを長押しすると電源が切れます",
			wantLang: LangJapanese,
			want:     []Event{EventButtonHeld},
		},
		{
			name:     "korean held",
			text:     "버튼을 길게 누르면 꺼집니다",
			wantLang: LangKorean,
			want:     []Event{EventButtonHeld},
		},
		{
			name:     "english keeps events despite a stray german word",
			text:     "Double press toggles the relay, long press pauses. The fur cover is nice.",
			wantLang: LangEnglish,
			want:     []Event{EventButtonDouble, EventButtonHeld},
		},
		{
			name:     "english keeps events despite a stray spanish word",
			text:     "Double press toggles the relay, long press pauses. Pro and con: it is slow.",
			wantLang: LangEnglish,
			want:     []Event{EventButtonDouble, EventButtonHeld},
		},
		{
			name:     "english taste is not german",
			text:     "Double press toggles the relay, long press pauses. The taste of this product is good",
			wantLang: LangEnglish,
			want:     []Event{EventButtonDouble, EventButtonHeld},
		},
		{
			name:     "nothing",
			text:     "Arrived quickly, well packaged",
			wantLang: LangEnglish,
			want:     []Event{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.text)
			if got.Language != tt.wantLang {
				t.Errorf("Language = %q, want %q", got.Language, tt.wantLang)
			}
			if !reflect.DeepEqual(got.Events, tt.want) {
				t.Errorf("Events = %v, want %v", got.Events, tt.want)
			}
		})
	}
}

func TestDetectEvents_UsesOnlyGivenDictionary(t *testing.T) {
	// The French phrase means nothing to the English dictionary.
	if got := DetectEvents("appuyer deux fois", LangEnglish); len(got) != 0 {
		t.Errorf("DetectEvents(en) = %v, want none", got)
	}
	if got := DetectEvents("appuyer deux fois", "xx"); len(got) != 0 {
		t.Errorf("unknown language should fall back to English, got %v", got)
	}
}

func TestInferDatapoints(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		family   string
		want     map[int]device.Capability
		wantConf float64
	}{
		{
			name: "listed after mentions",
			text: "dp1 is the curtain position, dp2 controls open/close/stop, dp13 is battery",
			want: map[int]device.Capability{
				1:  device.CapWindowCoveringsSet,
				2:  device.CapWindowCoveringsCmd,
				13: device.CapMeasureBattery,
			},
			wantConf: 0.55,
		},
		{
			name:     "keyword before mention",
			text:     "The position is reported on dp 2.",
			want:     map[int]device.Capability{2: device.CapWindowCoveringsSet},
			wantConf: 0.35,
		},
		{
			name:     "dpid syntax",
			text:     "dpid=101 child lock",
			want:     map[int]device.Capability{101: device.CapChildLock},
			wantConf: 0.35,
		},
		{
			name: "several in one clause",
			text: "DP1 on/off DP2 brightness",
			want: map[int]device.Capability{
				1: device.CapOnOff,
				2: device.CapDim,
			},
			wantConf: 0.45,
		},
		{
			name:     "french",
			text:     "Le dp 4 correspond à l'interrupteur",
			want:     map[int]device.Capability{4: device.CapOnOff},
			wantConf: 0.35,
		},
		{
			name:     "out of range ignored",
			text:     "dp 300 is temperature",
			want:     map[int]device.Capability{},
			wantConf: 0,
		},
		{
			name:     "mention without keyword",
			text:     "dp 9 does something odd",
			want:     map[int]device.Capability{},
			wantConf: 0,
		},
		{
			name: "capped",
			text: "dp1 on/off, dp2 brightness, dp3 temperature, dp4 humidity, dp5 battery, dp6 power, dp7 voltage",
			want: map[int]device.Capability{
				1: device.CapOnOff, 2: device.CapDim, 3: device.CapMeasureTemperature,
				4: device.CapMeasureHumidity, 5: device.CapMeasureBattery,
				6: device.CapMeasurePower, 7: device.CapMeasureVoltage,
			},
			wantConf: 0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferDatapoints(tt.text, tt.family)
			if !reflect.DeepEqual(got.Map, tt.want) {
				t.Errorf("Map = %v, want %v", got.Map, tt.want)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestInferDatapoints_FamilyOnlyBreaksTies(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		family string
		want   device.Capability
		tie    bool
	}{
		{"tie goes to motion family", "dp 6: hue or pir", "motion", device.CapAlarmMotion, true},
		{"tie goes to light family", "dp 6: pir or hue", "light", device.CapLightHue, true},
		{"tie without family goes to nearest", "dp 6: pir or hue", "", device.CapAlarmMotion, true},
		{"clear winner ignores family", "dp 6: brightness", "curtain", device.CapDim, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferDatapoints(tt.text, tt.family)
			if got.Map[6] != tt.want {
				t.Errorf("dp6 = %q, want %q", got.Map[6], tt.want)
			}
			if got.Confidence != dpBaseConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, dpBaseConfidence)
			}
			if gotTie := strings.Contains(strings.Join(got.Notes, " "), "tie resolved"); gotTie != tt.tie {
				t.Errorf("tie note = %v, want %v (notes %v)", gotTie, tt.tie, got.Notes)
			}
		})
	}
}

func TestInferClusters(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      map[string]device.Capability
		wantConf  float64
		wantNotes int
	}{
		{
			name: "name hex and alias",
			text: "Exposes genOnOff, 0x0008 and the IAS Zone cluster",
			want: map[string]device.Capability{
				"genOnOff":     device.CapOnOff,
				"genLevelCtrl": device.CapDim,
				"ssIasZone":    device.CapAlarmContact,
			},
			wantConf: 0.6,
		},
		{
			name:      "capability-less clusters skipped",
			text:      "Only manuSpecificTuya (0xEF00) and genBasic",
			want:      map[string]device.Capability{},
			wantNotes: 2,
		},
		{
			name:     "window covering alias",
			text:     "It implements the Window Covering cluster properly",
			want:     map[string]device.Capability{"closuresWindowCovering": device.CapWindowCoveringsSet},
			wantConf: 0.4,
		},
		{
			name: "no cluster",
			text: "great curtain motor",
			want: map[string]device.Capability{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferClusters(tt.text)
			if !reflect.DeepEqual(got.Map, tt.want) {
				t.Errorf("Map = %v, want %v", got.Map, tt.want)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if len(got.Notes) != tt.wantNotes {
				t.Errorf("Notes = %v, want %d", got.Notes, tt.wantNotes)
			}
		})
	}
}

func TestExtract_FrenchDoublePress(t *testing.T) {
	got := Extract("Pour allumer, appuyer deux fois sur le bouton", "light")

	if got.Language != LangFrench {
		t.Errorf("Language = %q, want fr", got.Language)
	}
	if !reflect.DeepEqual(got.DetectedEvents, []Event{EventButtonDouble}) {
		t.Errorf("DetectedEvents = %v, want [button_double]", got.DetectedEvents)
	}
	if len(got.DpMap) != 0 || len(got.ZclMap) != 0 {
		t.Errorf("unexpected mappings dp=%v zcl=%v", got.DpMap, got.ZclMap)
	}
	if got.Confidence != EventBonus {
		t.Errorf("Confidence = %v, want %v", got.Confidence, EventBonus)
	}
}

func TestExtract_Confidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "   ", 0},
		{"dp only", "dp1 reports position", 0.35},
		{"dp and event", "dp1 is the curtain position. Double click to stop", 0.4},
		{"zcl beats dp", "dp1 switch. Uses genOnOff, genLevelCtrl and 0x0102", 0.6},
		{
			"never above ceiling",
			"dp1 on/off, dp2 brightness, dp3 temperature, dp4 humidity, dp5 battery, dp6 power. " +
				"genOnOff genLevelCtrl hvacThermostat seMetering msRelativeHumidity. double press, long press",
			0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text, "")
			if got.Confidence != tt.want {
				t.Errorf("Confidence = %v, want %v (notes: %s)", got.Confidence, tt.want, got.Notes)
			}
		})
	}
}

func TestExtractor_CarriesProvenance(t *testing.T) {
	e := evidence.Evidence{
		ID:      "ev-1",
		Origin:  "https://forum.example/t/42",
		RawText: "dp1 controls position",
	}
	got := Extractor{}.Extract(e, "curtain")
	if got.EvidenceID != "ev-1" {
		t.Errorf("EvidenceID = %q", got.EvidenceID)
	}
	if !strings.HasPrefix(got.Notes, "origin=https://forum.example/t/42") {
		t.Errorf("Notes = %q, want origin first", got.Notes)
	}
	if got.DpMap[1] != device.CapWindowCoveringsSet {
		t.Errorf("DpMap = %v", got.DpMap)
	}
	refs := got.Mappings()
	if refs[device.DatapointRef(1)] != device.CapWindowCoveringsSet {
		t.Errorf("Mappings = %v", refs)
	}
}

// Adding hits to a text never lowers its confidence.
func TestExtract_MoreHitsNeverLowerConfidence(t *testing.T) {
	tests := []struct {
		name        string
		base, extra string
	}{
		{"extra keyword creates a tie", "dp1 switch. dp2 battery", "dp1 switch. dp2 battery voltage"},
		{"extra datapoint", "dp1 switch", "dp1 switch. dp2 battery"},
		{"extra cluster", "dp1 switch", "dp1 switch. Uses genOnOff"},
		{"extra event", "dp1 is the curtain position", "dp1 is the curtain position. Double click to stop"},
		{"tie between families", "dp 6: hue", "dp 6: hue or pir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, family := range append([]string{""}, Families()...) {
				base, extra := Extract(tt.base, family), Extract(tt.extra, family)
				if extra.Confidence < base.Confidence {
					t.Errorf("family %q: Confidence(%q) = %v < Confidence(%q) = %v",
						family, tt.extra, extra.Confidence, tt.base, base.Confidence)
				}
			}
		})
	}
}

// Arbitrary input must never panic and must stay within [0, MaxConfidence].
func TestExtract_ArbitraryInput(t *testing.T) {
	alphabet := []rune("dp 0123456789:=#,.;!?\n onffswitchpositionbattery温度双击長押しДвойноеé́１\x00")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := rng.Intn(200)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		text := b.String()
		got := Extract(text, Families()[rng.Intn(len(Families()))])
		if got.Confidence < 0 || got.Confidence > MaxConfidence {
			t.Fatalf("Extract(%q).Confidence = %v, outside [0, %v]", text, got.Confidence, MaxConfidence)
		}
		for dp := range got.DpMap {
			if _, err := device.CheckDatapoint(dp); err != nil {
				t.Fatalf("Extract(%q) produced invalid dp %d", text, dp)
			}
		}
	}
}

func TestNormalisation(t *testing.T) {
	tests := []struct {
		in         string
		wantFolded string
		wantPlain  string
	}{
		{"Appuyé", "appuyé", "appuye"},
		{"DRÜCKEN", "drücken", "drucken"},
		{"ＤＰ１", "dp1", "dp1"},
	}
	for _, tt := range tests {
		if got := folded(tt.in); got != tt.wantFolded {
			t.Errorf("folded(%q) = %q, want %q", tt.in, got, tt.wantFolded)
		}
		if got := plain(tt.in); got != tt.wantPlain {
			t.Errorf("plain(%q) = %q, want %q", tt.in, got, tt.wantPlain)
		}
	}
}

func TestPlausible(t *testing.T) {
	if !Plausible("Curtain", device.CapWindowCoveringsSet) {
		t.Error("curtain should accept windowcoverings_set")
	}
	if Plausible("curtain", device.CapDim) {
		t.Error("curtain should not accept dim")
	}
	if Plausible("spaceship", device.CapOnOff) {
		t.Error("unknown family should accept nothing")
	}
	if !KnownFamily("thermostat") || KnownFamily("") {
		t.Error("KnownFamily mismatch")
	}
}
