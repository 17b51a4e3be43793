package device

import (
	"strconv"
	"strings"
)

// Cluster describes a Zigbee Cluster Library cluster and the capability it
// usually carries. Capability is empty for clusters with no direct mapping.
type Cluster struct {
	Name       string
	ID         uint16
	Capability Capability
}

var clusters = []Cluster{
	{Name: "genBasic", ID: 0x0000},
	{Name: "genPowerCfg", ID: 0x0001, Capability: CapMeasureBattery},
	{Name: "genOnOff", ID: 0x0006, Capability: CapOnOff},
	{Name: "genLevelCtrl", ID: 0x0008, Capability: CapDim},
	{Name: "closuresWindowCovering", ID: 0x0102, Capability: CapWindowCoveringsSet},
	{Name: "hvacThermostat", ID: 0x0201, Capability: CapTargetTemperature},
	{Name: "lightingColorCtrl", ID: 0x0300, Capability: CapLightHue},
	{Name: "msIlluminanceMeasurement", ID: 0x0400, Capability: CapMeasureLuminance},
	{Name: "msTemperatureMeasurement", ID: 0x0402, Capability: CapMeasureTemperature},
	{Name: "msPressureMeasurement", ID: 0x0403, Capability: CapMeasurePressure},
	{Name: "msRelativeHumidity", ID: 0x0405, Capability: CapMeasureHumidity},
	{Name: "msOccupancySensing", ID: 0x0406, Capability: CapAlarmMotion},
	{Name: "ssIasZone", ID: 0x0500, Capability: CapAlarmContact},
	{Name: "seMetering", ID: 0x0702, Capability: CapMeterPower},
	{Name: "haElectricalMeasurement", ID: 0x0B04, Capability: CapMeasurePower},
	{Name: "manuSpecificTuya", ID: 0xEF00},
}

var (
	clustersByName = make(map[string]Cluster, len(clusters))
	clustersByID   = make(map[uint16]Cluster, len(clusters))
)

func init() {
	for _, c := range clusters {
		clustersByName[strings.ToLower(c.Name)] = c
		clustersByID[c.ID] = c
	}
}

// Clusters returns the known clusters ordered by ID.
func Clusters() []Cluster {
	out := make([]Cluster, len(clusters))
	copy(out, clusters)
	return out
}

// LookupCluster resolves a cluster by name (case-insensitive), hex ID
// ("0x0006") or decimal ID ("6").
func LookupCluster(ref string) (Cluster, bool) {
	ref = strings.TrimSpace(ref)
	if c, ok := clustersByName[strings.ToLower(ref)]; ok {
		return c, true
	}

	var (
		id  uint64
		err error
	)
	if hex, ok := strings.CutPrefix(strings.ToLower(ref), "0x"); ok {
		id, err = strconv.ParseUint(hex, 16, 16)
	} else {
		id, err = strconv.ParseUint(ref, 10, 16)
	}
	if err != nil {
		return Cluster{}, false
	}
	c, ok := clustersByID[uint16(id)]
	return c, ok
}

// HexID renders the ID as "0x0006".
func (c Cluster) HexID() string {
	return "0x" + strings.ToUpper(strconv.FormatUint(uint64(c.ID)|0x10000, 16)[1:])
}
