package device

import "sort"

// Capability is a semantic device function as the controller exposes it.
// Names follow the Homey capability vocabulary.
type Capability string

// Control capabilities.
const (
	CapOnOff              Capability = "onoff"
	CapDim                Capability = "dim"
	CapLightHue           Capability = "light_hue"
	CapLightSaturation    Capability = "light_saturation"
	CapLightTemperature   Capability = "light_temperature"
	CapTargetTemperature  Capability = "target_temperature"
	CapWindowCoveringsSet Capability = "windowcoverings_set"
	CapWindowCoveringsCmd Capability = "windowcoverings_state"
	CapChildLock          Capability = "child_lock"
)

// Measurement capabilities.
const (
	CapMeasureTemperature Capability = "measure_temperature"
	CapMeasureHumidity    Capability = "measure_humidity"
	CapMeasurePressure    Capability = "measure_pressure"
	CapMeasureLuminance   Capability = "measure_luminance"
	CapMeasurePower       Capability = "measure_power"
	CapMeasureVoltage     Capability = "measure_voltage"
	CapMeasureCurrent     Capability = "measure_current"
	CapMeterPower         Capability = "meter_power"
	CapMeasureBattery     Capability = "measure_battery"
)

// Alarm capabilities.
const (
	CapAlarmMotion  Capability = "alarm_motion"
	CapAlarmContact Capability = "alarm_contact"
	CapAlarmWater   Capability = "alarm_water"
	CapAlarmSmoke   Capability = "alarm_smoke"
	CapAlarmBattery Capability = "alarm_battery"
	CapAlarmTamper  Capability = "alarm_tamper"
)

// AllCapabilities returns every known capability in a stable order.
func AllCapabilities() []Capability {
	return []Capability{
		// Control
		CapOnOff, CapDim, CapLightHue, CapLightSaturation, CapLightTemperature,
		CapTargetTemperature, CapWindowCoveringsSet, CapWindowCoveringsCmd, CapChildLock,
		// Measurement
		CapMeasureTemperature, CapMeasureHumidity, CapMeasurePressure, CapMeasureLuminance,
		CapMeasurePower, CapMeasureVoltage, CapMeasureCurrent, CapMeterPower, CapMeasureBattery,
		// Alarm
		CapAlarmMotion, CapAlarmContact, CapAlarmWater, CapAlarmSmoke, CapAlarmBattery, CapAlarmTamper,
	}
}

var knownCapabilities = func() map[Capability]bool {
	m := make(map[Capability]bool)
	for _, c := range AllCapabilities() {
		m[c] = true
	}
	return m
}()

// Known reports whether c is part of the vocabulary.
func (c Capability) Known() bool {
	return knownCapabilities[c]
}

// SortCapabilities sorts in place by name and returns the slice.
func SortCapabilities(caps []Capability) []Capability {
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// ValueParser names the conversion applied to a raw protocol value before
// it is reported on a capability.
type ValueParser string

// Value parsers.
const (
	ParserRaw             ValueParser = "raw"
	ParserBoolean         ValueParser = "boolean"
	ParserEnum            ValueParser = "enum"
	ParserDivideBy2       ValueParser = "divide_by_2"
	ParserDivideBy10      ValueParser = "divide_by_10"
	ParserDivideBy100     ValueParser = "divide_by_100"
	ParserScale254        ValueParser = "scale_254"
	ParserScale1000       ValueParser = "scale_1000"
	ParserPercentInverted ValueParser = "percent_inverted"
)

// AllValueParsers returns every known value parser.
func AllValueParsers() []ValueParser {
	return []ValueParser{
		ParserRaw, ParserBoolean, ParserEnum, ParserDivideBy2, ParserDivideBy10,
		ParserDivideBy100, ParserScale254, ParserScale1000, ParserPercentInverted,
	}
}

// Known reports whether p is a recognised parser.
func (p ValueParser) Known() bool {
	for _, v := range AllValueParsers() {
		if v == p {
			return true
		}
	}
	return false
}

// Apply converts a raw numeric protocol value.
// Enum and raw values pass through unchanged.
func (p ValueParser) Apply(raw float64) float64 {
	switch p {
	case ParserBoolean:
		if raw != 0 {
			return 1
		}
		return 0
	case ParserDivideBy2:
		return raw / 2
	case ParserDivideBy10:
		return raw / 10
	case ParserDivideBy100:
		return raw / 100
	case ParserScale254:
		return raw / 254
	case ParserScale1000:
		return raw / 1000
	case ParserPercentInverted:
		return (100 - raw) / 100
	default:
		return raw
	}
}

// Tuya datapoints report scaled integers, ZCL attributes use their own units.
var (
	datapointParsers = map[Capability]ValueParser{
		CapOnOff:              ParserBoolean,
		CapDim:                ParserScale1000,
		CapLightTemperature:   ParserScale1000,
		CapTargetTemperature:  ParserDivideBy10,
		CapWindowCoveringsSet: ParserDivideBy100,
		CapWindowCoveringsCmd: ParserEnum,
		CapChildLock:          ParserBoolean,
		CapMeasureTemperature: ParserDivideBy10,
		CapMeasurePower:       ParserDivideBy10,
		CapMeasureVoltage:     ParserDivideBy10,
		CapMeterPower:         ParserDivideBy100,
		CapAlarmMotion:        ParserBoolean,
		CapAlarmContact:       ParserBoolean,
		CapAlarmWater:         ParserBoolean,
		CapAlarmSmoke:         ParserBoolean,
		CapAlarmBattery:       ParserBoolean,
		CapAlarmTamper:        ParserBoolean,
	}
	clusterParsers = map[Capability]ValueParser{
		CapOnOff:              ParserBoolean,
		CapDim:                ParserScale254,
		CapLightHue:           ParserScale254,
		CapLightSaturation:    ParserScale254,
		CapTargetTemperature:  ParserDivideBy100,
		CapWindowCoveringsSet: ParserDivideBy100,
		CapWindowCoveringsCmd: ParserEnum,
		CapMeasureTemperature: ParserDivideBy100,
		CapMeasureHumidity:    ParserDivideBy100,
		CapMeasureBattery:     ParserDivideBy2,
		CapAlarmMotion:        ParserBoolean,
		CapAlarmContact:       ParserBoolean,
		CapAlarmWater:         ParserBoolean,
		CapAlarmSmoke:         ParserBoolean,
	}
)

// DefaultParser returns the usual parser for a capability read from the given source kind.
func DefaultParser(c Capability, kind SourceKind) ValueParser {
	table := datapointParsers
	if kind == SourceCluster {
		table = clusterParsers
	}
	if p, ok := table[c]; ok {
		return p
	}
	return ParserRaw
}
