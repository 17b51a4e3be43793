package textevidence

import (
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// families lists the capabilities a device family plausibly exposes.
// Used only to break ties between equally supported text readings.
var families = map[string][]device.Capability{
	"curtain": {
		device.CapWindowCoveringsSet, device.CapWindowCoveringsCmd,
		device.CapMeasureBattery, device.CapChildLock,
	},
	"light": {
		device.CapOnOff, device.CapDim, device.CapLightTemperature,
		device.CapLightHue, device.CapLightSaturation,
	},
	"climate": {
		device.CapMeasureTemperature, device.CapMeasureHumidity,
		device.CapMeasurePressure, device.CapMeasureBattery,
	},
	"thermostat": {
		device.CapTargetTemperature, device.CapMeasureTemperature,
		device.CapChildLock, device.CapOnOff, device.CapMeasureBattery,
	},
	"motion": {
		device.CapAlarmMotion, device.CapMeasureLuminance,
		device.CapMeasureBattery, device.CapAlarmTamper,
	},
	"contact": {
		device.CapAlarmContact, device.CapMeasureBattery, device.CapAlarmTamper,
	},
	"plug": {
		device.CapOnOff, device.CapMeasurePower, device.CapMeterPower,
		device.CapMeasureVoltage, device.CapMeasureCurrent, device.CapChildLock,
	},
	"button": {
		device.CapMeasureBattery, device.CapAlarmBattery,
	},
	"leak": {
		device.CapAlarmWater, device.CapMeasureBattery, device.CapAlarmBattery,
	},
	"smoke": {
		device.CapAlarmSmoke, device.CapMeasureBattery, device.CapAlarmBattery,
	},
}

// Families returns the known family names in sorted order.
func Families() []string {
	out := make([]string, 0, len(families))
	for f := range families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// KnownFamily reports whether family has a plausibility entry.
func KnownFamily(family string) bool {
	_, ok := families[strings.ToLower(strings.TrimSpace(family))]
	return ok
}

// Plausible reports whether capability c fits family. Unknown families
// find nothing plausible, so they never influence a tie.
func Plausible(family string, c device.Capability) bool {
	for _, known := range families[strings.ToLower(strings.TrimSpace(family))] {
		if known == c {
			return true
		}
	}
	return false
}
