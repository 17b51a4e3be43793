package textevidence

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

const (
	zclBaseConfidence = 0.40
	zclStepConfidence = 0.10
	zclMaxConfidence  = 0.70
)

var clusterHexID = regexp.MustCompile(`\b0x([0-9a-f]{4})\b`)

// clusterAliases are the descriptive names people use for clusters in
// posts, keyed by canonical cluster name. Entries are plain form.
var clusterAliases = map[string][]string{
	"genOnOff":                 {"on/off cluster", "onoff cluster", "on off cluster"},
	"genLevelCtrl":             {"level control", "levelcontrol", "level cluster"},
	"genPowerCfg":              {"power configuration", "power config cluster"},
	"closuresWindowCovering":   {"window covering", "windowcovering", "window covering cluster"},
	"hvacThermostat":           {"thermostat cluster"},
	"lightingColorCtrl":        {"color control", "colour control", "colorcontrol"},
	"msIlluminanceMeasurement": {"illuminance measurement"},
	"msTemperatureMeasurement": {"temperature measurement"},
	"msPressureMeasurement":    {"pressure measurement"},
	"msRelativeHumidity":       {"relative humidity", "humidity measurement"},
	"msOccupancySensing":       {"occupancy sensing"},
	"ssIasZone":                {"ias zone", "iaszone"},
	"seMetering":               {"metering cluster", "simple metering"},
	"haElectricalMeasurement":  {"electrical measurement"},
}

// ClusterInference is the result of InferClusters.
type ClusterInference struct {
	Map        map[string]device.Capability
	Confidence float64
	Notes      []string
}

// InferClusters finds Zigbee clusters named in text by canonical name,
// hex ID or common alias, and maps each to its usual capability. Clusters
// with no capability of their own (genBasic, manuSpecificTuya) are noted
// and skipped.
func InferClusters(text string) ClusterInference {
	f := newForms(text)
	found := make(map[string]bool)

	for _, c := range device.Clusters() {
		if findKeyword(f.plain, strings.ToLower(c.Name)) >= 0 {
			found[c.Name] = true
		}
	}
	for _, m := range clusterHexID.FindAllStringSubmatch(f.plain, -1) {
		if c, ok := device.LookupCluster("0x" + m[1]); ok {
			found[c.Name] = true
		}
	}
	for name, aliases := range clusterAliases {
		for _, alias := range aliases {
			if findKeyword(f.plain, alias) >= 0 {
				found[name] = true
				break
			}
		}
	}

	result := ClusterInference{Map: make(map[string]device.Capability)}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, _ := device.LookupCluster(name)
		if c.Capability == "" {
			result.Notes = append(result.Notes, fmt.Sprintf("cluster %s has no capability", name))
			continue
		}
		result.Map[name] = c.Capability
	}

	if n := len(result.Map); n > 0 {
		result.Confidence = round2(math.Min(zclBaseConfidence+zclStepConfidence*float64(n-1), zclMaxConfidence))
	}
	return result
}

// describeClusters renders "zcl:genOnOff=onoff zcl:genLevelCtrl=dim".
func describeClusters(m map[string]device.Capability) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("zcl:%s=%s", name, m[name]))
	}
	return strings.Join(parts, " ")
}
