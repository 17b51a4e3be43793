package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.msgs = append(f.msgs, published{topic, payload, qos, retained})
	return f.err
}

func TestMQTTPublisher_Emit(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMQTTPublisher(pub, 1)
	p := testProfile(device.NewIdentity("_TZE284_aao6qtcs", "TS0601", "1.0.3"), "run-1", scoring.StatusProposed, testNow)

	if err := m.Emit(context.Background(), p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.topic != "graylogic/profiler/profile/_TZE284_aao6qtcs/TS0601/1.0.3" {
		t.Errorf("topic = %q", msg.topic)
	}
	if !msg.retained || msg.qos != 1 {
		t.Errorf("retained=%v qos=%d, want retained qos 1", msg.retained, msg.qos)
	}

	var doc map[string]any
	if err := json.Unmarshal(msg.payload, &doc); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, field := range []string{"deviceKey", "capabilityMap", "score", "status", "confidenceLevel", "contributingSources"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("payload missing %q", field)
		}
	}
}

func TestMQTTPublisher_PropagatesError(t *testing.T) {
	boom := errors.New("not connected")
	m := NewMQTTPublisher(&fakePublisher{err: boom}, 0)

	err := m.Emit(context.Background(), testProfile(curtainID(), "run-1", scoring.StatusTracking, testNow))
	if !errors.Is(err, boom) {
		t.Errorf("Emit() error = %v, want %v", err, boom)
	}
}

func TestMQTTPublisher_RecordRun(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMQTTPublisher(pub, 1)
	r := &BatchResult{
		RunID:        "run-42",
		TableVersion: "test-v1",
		StartedAt:    testNow,
		FinishedAt:   testNow.Add(1500 * time.Millisecond),
		Profiles:     []*DeviceProfile{{}},
		StatusCounts: map[scoring.Status]int{scoring.StatusProposed: 1},
	}

	if err := m.RecordRun(context.Background(), r); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	msg := pub.msgs[0]
	if msg.topic != "graylogic/profiler/run/run-42" || msg.retained {
		t.Errorf("topic=%q retained=%v", msg.topic, msg.retained)
	}

	var doc struct {
		RunID      string `json:"runId"`
		Resolved   int    `json:"resolved"`
		Failed     int    `json:"failed"`
		DurationMS int64  `json:"durationMs"`
	}
	if err := json.Unmarshal(msg.payload, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.RunID != "run-42" || doc.Resolved != 1 || doc.Failed != 0 || doc.DurationMS != 1500 {
		t.Errorf("summary = %+v", doc)
	}
}

type fakeMetrics struct {
	resolutions []influxdb.ResolutionPoint
	runs        []influxdb.RunPoint
	flushes     int
}

func (f *fakeMetrics) WriteResolution(p influxdb.ResolutionPoint) { f.resolutions = append(f.resolutions, p) }
func (f *fakeMetrics) WriteRun(p influxdb.RunPoint)               { f.runs = append(f.runs, p) }
func (f *fakeMetrics) Flush()                                     { f.flushes++ }

func TestMetricsRecorder(t *testing.T) {
	w := &fakeMetrics{}
	m := NewMetricsRecorder(w)
	p := testProfile(curtainID(), "run-1", scoring.StatusProposed, testNow)
	p.Skipped = []SkippedEvidence{{EvidenceID: "e1", Reason: "bad"}}
	p.Report.EvidenceCount = 3

	if err := m.Emit(context.Background(), p); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	got := w.resolutions[0]
	if got.Vendor != "_TZE284_aao6qtcs" || got.Rule != "ts0601-generic" || got.Status != "proposed" {
		t.Errorf("ResolutionPoint = %+v", got)
	}
	if got.Evidence != 3 || got.Skipped != 1 || got.Capabilities != 1 || got.Score != 55 {
		t.Errorf("ResolutionPoint counts = %+v", got)
	}

	r := &BatchResult{RunID: "run-1", StartedAt: testNow, FinishedAt: testNow.Add(time.Second)}
	if err := m.RecordRun(context.Background(), r); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if len(w.runs) != 1 || w.runs[0].Duration != time.Second || w.flushes != 1 {
		t.Errorf("runs=%+v flushes=%d", w.runs, w.flushes)
	}
}
