package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

// stubResolver returns canned profiles, errors or panics per device key.
type stubResolver struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	panics map[string]bool
	status scoring.Status
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		panics: make(map[string]bool),
		status: scoring.StatusProposed,
	}
}

func (s *stubResolver) TableVersion() string { return "stub-v1" }

func (s *stubResolver) Resolve(ctx context.Context, id device.Identity) (*DeviceProfile, error) {
	s.mu.Lock()
	s.calls[id.Key()]++
	s.mu.Unlock()

	if s.panics[id.Key()] {
		panic("boom")
	}
	if err := s.fail[id.Key()]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &DeviceProfile{
		ID:              "p-" + id.Key(),
		DeviceKey:       id,
		Status:          s.status,
		ConfidenceLevel: scoring.LevelGood,
		ResolvedAt:      testNow,
	}, nil
}

// memorySink collects emitted profiles and run summaries.
type memorySink struct {
	name string
	err  error

	mu       sync.Mutex
	profiles []*DeviceProfile
	runs     []*BatchResult
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Emit(_ context.Context, p *DeviceProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, p)
	return m.err
}

func (m *memorySink) RecordRun(_ context.Context, r *BatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func ids(keys ...string) []device.Identity {
	out := make([]device.Identity, 0, len(keys))
	for _, k := range keys {
		id, err := device.ParseKey(k)
		if err != nil {
			panic(err)
		}
		out = append(out, id)
	}
	return out
}

func TestBatch_IsolatesFailures(t *testing.T) {
	r := newStubResolver()
	r.fail["_TZ3000_b|TS011F"] = errors.New("source unavailable")
	r.panics["_TZ3000_c|TS011F"] = true

	sink := &memorySink{name: "mem"}
	b := NewBatch(r, BatchConfig{Workers: 4}, sink)
	logger := &recordingLogger{}
	b.SetLogger(logger)

	result, err := b.Run(context.Background(), ids("_TZ3000_a|TS011F", "_TZ3000_b|TS011F", "_TZ3000_c|TS011F", "_TZ3000_d|TS011F"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Profiles) != 2 {
		t.Fatalf("Profiles = %d, want 2", len(result.Profiles))
	}
	if result.Profiles[0].Key() != "_TZ3000_a|TS011F" || result.Profiles[1].Key() != "_TZ3000_d|TS011F" {
		t.Errorf("profiles not sorted by key: %s, %s", result.Profiles[0].Key(), result.Profiles[1].Key())
	}
	if result.Failed() != 2 {
		t.Fatalf("Failed() = %d, want 2", result.Failed())
	}
	for _, f := range result.Failures {
		if !IsDeviceFailure(f.Err) {
			t.Errorf("failure %s: error %v is not a device failure", f.Device.Key(), f.Err)
		}
	}
	if !strings.Contains(result.Failures[1].Reason, "panic: boom") {
		t.Errorf("panic failure reason = %q", result.Failures[1].Reason)
	}
	for _, p := range result.Profiles {
		if p.RunID != result.RunID {
			t.Errorf("profile RunID = %q, want %q", p.RunID, result.RunID)
		}
	}
	if result.TableVersion != "stub-v1" {
		t.Errorf("TableVersion = %q", result.TableVersion)
	}
	if result.StatusCounts[scoring.StatusProposed] != 2 {
		t.Errorf("StatusCounts = %v", result.StatusCounts)
	}
	if len(sink.profiles) != 2 || len(sink.runs) != 1 {
		t.Errorf("sink got %d profiles and %d runs, want 2 and 1", len(sink.profiles), len(sink.runs))
	}
	if logger.warnCount() != 2 {
		t.Errorf("warnings = %d, want one per failed device", logger.warnCount())
	}
}

func TestBatch_DeduplicatesIdentities(t *testing.T) {
	r := newStubResolver()
	b := NewBatch(r, BatchConfig{Workers: 2})

	result, err := b.Run(context.Background(), ids("_TZ3000_a|TS011F", " _TZ3000_a | TS011F ", "_TZ3000_a|TS011F|1.0.0"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Profiles) != 2 {
		t.Errorf("Profiles = %d, want 2 (firmware makes a distinct key)", len(result.Profiles))
	}
	if r.calls["_TZ3000_a|TS011F"] != 1 {
		t.Errorf("resolver called %d times for the duplicate key, want 1", r.calls["_TZ3000_a|TS011F"])
	}
}

func TestBatch_SinkFailureKeepsProfile(t *testing.T) {
	broken := &memorySink{name: "broken", err: errors.New("disk full")}
	healthy := &memorySink{name: "healthy"}
	b := NewBatch(newStubResolver(), BatchConfig{}, broken, healthy)

	result, err := b.Run(context.Background(), ids("_TZ3000_a|TS011F"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Profiles) != 1 {
		t.Fatalf("Profiles = %d, want 1", len(result.Profiles))
	}
	if result.Failed() != 0 {
		t.Errorf("Failed() = %d, sink errors must not count as device failures", result.Failed())
	}
	if len(result.Failures) != 1 || result.Failures[0].Stage != "sink:broken" {
		t.Errorf("Failures = %+v, want one sink:broken", result.Failures)
	}
	if len(healthy.profiles) != 1 {
		t.Errorf("healthy sink got %d profiles, want 1", len(healthy.profiles))
	}
}

func TestBatch_DeviceTimeout(t *testing.T) {
	slow := &blockingResolver{}
	b := NewBatch(slow, BatchConfig{Workers: 1, DeviceTimeout: 10 * time.Millisecond})

	result, err := b.Run(context.Background(), ids("_TZ3000_a|TS011F"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Failed() != 1 || !errors.Is(result.Failures[0].Err, context.DeadlineExceeded) {
		t.Errorf("Failures = %+v, want a deadline failure", result.Failures)
	}
}

func TestBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{name: "mem"}
	b := NewBatch(newStubResolver(), BatchConfig{Workers: 2}, sink)
	result, err := b.Run(ctx, ids("_TZ3000_a|TS011F", "_TZ3000_b|TS011F"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if result == nil || result.Failed() != 2 {
		t.Fatalf("result = %+v, want 2 failures", result)
	}
	if len(sink.runs) != 1 {
		t.Errorf("run summary recorded %d times, want 1 even after cancellation", len(sink.runs))
	}
}

func TestBatch_WithResolver(t *testing.T) {
	r := newTestResolver(t, curtainTable(t),
		forumPost(curtainID(), "https://forum.example/t/1", "dp1 controls the curtain position", 10),
	)
	store := NewSQLiteStore(setupTestDB(t))
	b := NewBatch(r, BatchConfig{Workers: 2}, store)

	result, err := b.Run(context.Background(), []device.Identity{curtainID(), {Vendor: "", Product: "TS0601"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Profiles) != 1 || result.Failed() != 1 {
		t.Fatalf("resolved %d, failed %d; want 1 and 1", len(result.Profiles), result.Failed())
	}
	if !errors.Is(result.Failures[0].Err, device.ErrInvalidIdentity) {
		t.Errorf("failure = %v, want ErrInvalidIdentity", result.Failures[0].Err)
	}

	got, err := store.Current(context.Background(), curtainID())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.RunID != result.RunID {
		t.Errorf("stored RunID = %q, want %q", got.RunID, result.RunID)
	}
}

type blockingResolver struct{}

func (blockingResolver) TableVersion() string { return "" }

func (blockingResolver) Resolve(ctx context.Context, _ device.Identity) (*DeviceProfile, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
