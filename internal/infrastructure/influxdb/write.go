package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the profiler.
const (
	MeasurementResolution = "profile_resolution"
	MeasurementBatchRun   = "batch_run"
)

// ResolutionPoint is the telemetry of one device resolution.
type ResolutionPoint struct {
	Vendor          string
	Product         string
	Status          string
	ConfidenceLevel string
	Rule            string
	RunID           string
	Score           float64
	Evidence        int
	Skipped         int
	Capabilities    int
	Time            time.Time
}

// RunPoint is the telemetry of one batch run.
type RunPoint struct {
	RunID        string
	TableVersion string
	Resolved     int
	Failed       int
	Duration     time.Duration
	Time         time.Time
}

// WriteResolution records one device resolution.
//
// Vendor, product, status and rule are tags; they have low cardinality
// within a fleet. The run ID is a field so runs do not multiply series.
func (c *Client) WriteResolution(p ResolutionPoint) {
	c.write(resolutionPoint(p))
}

// WriteRun records a finished batch run.
func (c *Client) WriteRun(p RunPoint) {
	c.write(runPoint(p))
}

func resolutionPoint(p ResolutionPoint) *write.Point {
	tags := map[string]string{
		"vendor":           p.Vendor,
		"product":          p.Product,
		"status":           p.Status,
		"confidence_level": p.ConfidenceLevel,
	}
	if p.Rule != "" {
		tags["rule"] = p.Rule
	}
	return write.NewPoint(MeasurementResolution, tags,
		map[string]any{
			"score":        p.Score,
			"evidence":     p.Evidence,
			"skipped":      p.Skipped,
			"capabilities": p.Capabilities,
			"run_id":       p.RunID,
		},
		pointTime(p.Time),
	)
}

func runPoint(p RunPoint) *write.Point {
	return write.NewPoint(MeasurementBatchRun,
		map[string]string{"rule_table": p.TableVersion},
		map[string]any{
			"run_id":      p.RunID,
			"resolved":    p.Resolved,
			"failed":      p.Failed,
			"duration_ms": p.Duration.Milliseconds(),
		},
		pointTime(p.Time),
	)
}

func pointTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
