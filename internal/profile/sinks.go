package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/mqtt"
)

// Publisher is the MQTT surface MQTTPublisher needs. *mqtt.Client implements it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher retains every emitted profile on
// graylogic/profiler/profile/{vendor}/{product}[/{firmware}] and publishes
// the run summary on graylogic/profiler/run/{runID}.
type MQTTPublisher struct {
	pub Publisher
	qos byte
}

// NewMQTTPublisher creates a publisher using qos for every message.
func NewMQTTPublisher(pub Publisher, qos byte) *MQTTPublisher {
	return &MQTTPublisher{pub: pub, qos: qos}
}

// Name implements Sink.
func (m *MQTTPublisher) Name() string { return "mqtt" }

// Emit implements Sink.
func (m *MQTTPublisher) Emit(_ context.Context, p *DeviceProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	topic := mqtt.Topics{}.Profile(p.DeviceKey.Vendor, p.DeviceKey.Product, p.DeviceKey.FirmwareString())
	return m.pub.Publish(topic, payload, m.qos, true)
}

// RecordRun implements RunRecorder.
func (m *MQTTPublisher) RecordRun(_ context.Context, r *BatchResult) error {
	payload, err := json.Marshal(runSummary(r))
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	return m.pub.Publish(mqtt.Topics{}.Run(r.RunID), payload, m.qos, false)
}

// runSummaryDoc is the published run summary.
type runSummaryDoc struct {
	*BatchResult
	Resolved   int   `json:"resolved"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"durationMs"`
}

func runSummary(r *BatchResult) runSummaryDoc {
	return runSummaryDoc{
		BatchResult: r,
		Resolved:    len(r.Profiles),
		Failed:      r.Failed(),
		DurationMS:  r.Duration().Milliseconds(),
	}
}

// MetricsWriter is the telemetry surface MetricsRecorder needs.
// *influxdb.Client implements it.
type MetricsWriter interface {
	WriteResolution(p influxdb.ResolutionPoint)
	WriteRun(p influxdb.RunPoint)
	Flush()
}

// MetricsRecorder writes a profile_resolution point per profile and a
// batch_run point per run.
type MetricsRecorder struct {
	w MetricsWriter
}

// NewMetricsRecorder creates a recorder over w.
func NewMetricsRecorder(w MetricsWriter) *MetricsRecorder {
	return &MetricsRecorder{w: w}
}

// Name implements Sink.
func (m *MetricsRecorder) Name() string { return "influxdb" }

// Emit implements Sink. Writes are asynchronous; errors surface through
// the client's error callback.
func (m *MetricsRecorder) Emit(_ context.Context, p *DeviceProfile) error {
	rule := ""
	if p.Fingerprint != nil {
		rule = p.Fingerprint.Rule
	}
	m.w.WriteResolution(influxdb.ResolutionPoint{
		Vendor:          p.DeviceKey.Vendor,
		Product:         p.DeviceKey.Product,
		Status:          string(p.Status),
		ConfidenceLevel: string(p.ConfidenceLevel),
		Rule:            rule,
		RunID:           p.RunID,
		Score:           p.Score,
		Evidence:        p.Report.EvidenceCount,
		Skipped:         len(p.Skipped),
		Capabilities:    len(p.CapabilityMap),
		Time:            p.ResolvedAt,
	})
	return nil
}

// RecordRun implements RunRecorder and flushes pending points.
func (m *MetricsRecorder) RecordRun(_ context.Context, r *BatchResult) error {
	m.w.WriteRun(influxdb.RunPoint{
		RunID:        r.RunID,
		TableVersion: r.TableVersion,
		Resolved:     len(r.Profiles),
		Failed:       r.Failed(),
		Duration:     r.Duration(),
		Time:         r.FinishedAt,
	})
	m.w.Flush()
	return nil
}
