package textevidence

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// capabilityKeywords are the words that tie a datapoint mention to a
// capability. Latin entries are in plain form (folded, no accents).
// Cyrillic entries are stems matched at a word start; CJK entries are
// matched anywhere.
var capabilityKeywords = map[device.Capability][]string{
	device.CapOnOff: {
		"on/off", "onoff", "on-off", "switch", "relay", "power state", "toggle",
		"interrupteur", "marche/arret", "schalter", "ein/aus", "interruptor", "encendido",
		"выключател", "переключател", "开关", "開關", "オンオフ", "스위치",
	},
	device.CapDim: {
		"brightness", "dimming", "dimmer", "dim level",
		"luminosite", "variateur", "helligkeit", "dimmen", "brillo", "atenuacion",
		"яркост", "диммер", "亮度", "明るさ", "調光", "밝기",
	},
	device.CapWindowCoveringsSet: {
		"position", "percent", "percentage", "curtain position", "cover position", "blind position",
		"rideau", "volet", "pourcentage", "rollladen", "rolladen", "vorhang", "cortina", "persiana", "posicion",
		"положени", "позици", "штор", "窗帘位置", "窗簾位置", "开合度", "カーテン位置", "開度", "커튼 위치",
	},
	device.CapWindowCoveringsCmd: {
		"open/close", "open/close/stop", "motor control", "direction", "control",
		"ouvrir/fermer", "auf/ab", "abrir/cerrar", "открыть/закрыть", "控制", "开关窗帘",
	},
	device.CapMeasureTemperature: {
		"temperature", "temp", "temperatur", "temperatura",
		"температур", "温度", "온도",
	},
	device.CapTargetTemperature: {
		"setpoint", "set point", "target temperature", "set temperature", "target temp",
		"consigne", "solltemperatur", "sollwert", "consigna", "уставк", "设定温度", "設定温度", "목표 온도",
	},
	device.CapMeasureHumidity: {
		"humidity", "humidite", "feuchtigkeit", "luftfeuchte", "humedad",
		"влажност", "湿度", "습도",
	},
	device.CapMeasurePressure: {
		"pressure", "hpa", "pression", "luftdruck", "presion", "давлени", "气压", "気圧",
	},
	device.CapMeasureBattery: {
		"battery", "batterie", "bateria", "akku", "батаре", "电池", "電池", "배터리",
	},
	device.CapAlarmMotion: {
		"motion", "presence", "occupancy", "pir", "mouvement", "bewegung", "anwesenheit",
		"movimiento", "presencia", "движени", "присутстви", "人体", "人感", "모션",
	},
	device.CapAlarmContact: {
		"contact", "door sensor", "window sensor", "kontakt", "tur", "contacto", "puerta",
		"контакт", "门磁", "門磁", "開閉",
	},
	device.CapAlarmWater: {
		"leak", "water leak", "flood", "fuite", "wasserleck", "leck", "fuga",
		"протечк", "漏水", "水漏れ", "누수",
	},
	device.CapAlarmSmoke: {
		"smoke", "fumee", "rauch", "humo", "дым", "烟雾", "煙霧", "煙",
	},
	device.CapAlarmTamper: {
		"tamper", "sabotage", "manipulation", "вскрыти", "防拆",
	},
	device.CapMeasureLuminance: {
		"illuminance", "lux", "light level", "luminance", "eclairement", "beleuchtungsstarke",
		"iluminancia", "освещенност", "光照", "照度", "조도",
	},
	device.CapMeasurePower: {
		"power", "watt", "watts", "puissance", "leistung", "potencia",
		"мощност", "功率", "電力",
	},
	device.CapMeterPower: {
		"energy", "kwh", "consumption", "energie", "verbrauch", "energia", "consumo",
		"энерги", "电量", "電量", "消費電力量",
	},
	device.CapMeasureVoltage: {
		"voltage", "volt", "volts", "tension", "spannung", "voltaje",
		"напряжени", "电压", "電壓", "電圧",
	},
	device.CapMeasureCurrent: {
		"current", "ampere", "amps", "courant", "strom", "corriente",
		"ток", "电流", "電流",
	},
	device.CapChildLock: {
		"child lock", "childlock", "verrouillage enfant", "kindersicherung", "bloqueo infantil",
		"блокировк", "童锁", "童鎖", "チャイルドロック",
	},
	device.CapLightTemperature: {
		"color temperature", "colour temperature", "cct", "white temperature",
		"temperature de couleur", "farbtemperatur", "temperatura de color",
		"цветов", "色温", "色温度",
	},
	device.CapLightHue: {
		"hue", "colour", "color", "rgb", "couleur", "farbe", "farbton", "цвет", "颜色", "色相",
	},
	device.CapLightSaturation: {
		"saturation", "sattigung", "saturacion", "насыщенност", "饱和度",
	},
}

// hit is one keyword occurrence within a segment.
type hit struct {
	weight int // rune length of the keyword
	offset int // byte offset of the occurrence
}

// keywordHits returns every keyword of c found in s, at most one per keyword.
func keywordHits(s string, c device.Capability) []hit {
	var out []hit
	for _, kw := range capabilityKeywords[c] {
		if off := findKeyword(s, kw); off >= 0 {
			out = append(out, hit{weight: utf8.RuneCountInString(kw), offset: off})
		}
	}
	return out
}

// findKeyword returns the byte offset of the first acceptable occurrence
// of kw in s, or -1.
func findKeyword(s, kw string) int {
	first, _ := utf8.DecodeRuneInString(kw)
	cjk := isCJK(first)
	stem := unicode.Is(unicode.Cyrillic, first)

	for start := 0; start < len(s); {
		i := strings.Index(s[start:], kw)
		if i < 0 {
			return -1
		}
		i += start
		end := i + len(kw)
		if cjk || (boundaryBefore(s, i) && (stem || boundaryAfter(s, end))) {
			return i
		}
		start = i + 1
	}
	return -1
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// boundaryAfter also accepts a plural "s".
func boundaryAfter(s string, end int) bool {
	if end < len(s) && s[end] == 's' {
		end++
	}
	if end >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
