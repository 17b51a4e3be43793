package profile

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

// DeviceResolver resolves one identity. *Resolver implements it.
type DeviceResolver interface {
	Resolve(ctx context.Context, id device.Identity) (*DeviceProfile, error)
	TableVersion() string
}

// Sink receives every profile a batch emits. Sinks are called from
// worker goroutines and must be safe for concurrent use.
type Sink interface {
	Name() string
	Emit(ctx context.Context, p *DeviceProfile) error
}

// RunRecorder is implemented by sinks that also want the batch summary.
type RunRecorder interface {
	RecordRun(ctx context.Context, result *BatchResult) error
}

// Failure is a device or sink error captured during a batch.
type Failure struct {
	Device device.Identity `json:"device"`
	Stage  string          `json:"stage"`
	Err    error           `json:"-"`
	Reason string          `json:"reason"`
}

// BatchResult summarises one run.
type BatchResult struct {
	RunID        string                 `json:"runId"`
	TableVersion string                 `json:"tableVersion"`
	StartedAt    time.Time              `json:"startedAt"`
	FinishedAt   time.Time              `json:"finishedAt"`
	Profiles     []*DeviceProfile       `json:"-"`
	Failures     []Failure              `json:"failures"`
	StatusCounts map[scoring.Status]int `json:"statusCounts"`
}

// Failed returns the number of devices that produced no profile.
func (r *BatchResult) Failed() int {
	n := 0
	for _, f := range r.Failures {
		if f.Stage == StageResolve {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run.
func (r *BatchResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure stages.
const (
	StageResolve = "resolve"
	StageSink    = "sink"
)

// BatchConfig tunes a batch run.
type BatchConfig struct {
	// Workers bounds concurrent device resolutions. Values below 1 mean 1.
	Workers int

	// DeviceTimeout bounds one resolution. Zero disables it.
	DeviceTimeout time.Duration
}

// Batch resolves many identities in parallel. One device's failure,
// including a panic, never affects the others.
type Batch struct {
	resolver DeviceResolver
	cfg      BatchConfig
	sinks    []Sink
	logger   Logger
	now      func() time.Time
}

// NewBatch creates a batch runner.
func NewBatch(resolver DeviceResolver, cfg BatchConfig, sinks ...Sink) *Batch {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Batch{
		resolver: resolver,
		cfg:      cfg,
		sinks:    sinks,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for run progress and failures.
func (b *Batch) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Run resolves every distinct identity in ids. Profiles are stamped with
// a fresh run ID, handed to every sink, and returned sorted by device key.
// The returned error is non-nil only when ctx ended before the run
// completed; the partial result is still returned.
func (b *Batch) Run(ctx context.Context, ids []device.Identity) (*BatchResult, error) {
	result := &BatchResult{
		RunID:        uuid.NewString(),
		TableVersion: b.resolver.TableVersion(),
		StartedAt:    b.now().UTC(),
		StatusCounts: make(map[scoring.Status]int),
	}
	ids = distinct(ids)

	b.logger.Info("batch started",
		"run_id", result.RunID,
		"devices", len(ids),
		"workers", b.cfg.Workers,
		"rule_table", result.TableVersion,
	)

	var mu sync.Mutex
	record := func(p *DeviceProfile, failures ...Failure) {
		mu.Lock()
		defer mu.Unlock()
		if p != nil {
			result.Profiles = append(result.Profiles, p)
			result.StatusCounts[p.Status]++
		}
		result.Failures = append(result.Failures, failures...)
	}

	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(nil, newFailure(id, StageResolve, err))
				return nil
			}
			p, err := b.resolveOne(ctx, id)
			if err != nil {
				b.logger.Warn("device resolution failed", "run_id", result.RunID, "device", id.Key(), "error", err)
				record(nil, newFailure(id, StageResolve, err))
				return nil
			}
			p.RunID = result.RunID
			record(p, b.emit(ctx, p)...)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	sort.Slice(result.Profiles, func(i, j int) bool { return result.Profiles[i].Key() < result.Profiles[j].Key() })
	sort.SliceStable(result.Failures, func(i, j int) bool { return result.Failures[i].Device.Key() < result.Failures[j].Device.Key() })
	result.FinishedAt = b.now().UTC()

	for _, s := range b.sinks {
		rec, ok := s.(RunRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordRun(context.WithoutCancel(ctx), result); err != nil {
			b.logger.Error("recording run failed", "run_id", result.RunID, "sink", s.Name(), "error", err)
		}
	}

	b.logger.Info("batch finished",
		"run_id", result.RunID,
		"resolved", len(result.Profiles),
		"failed", result.Failed(),
		"duration", result.Duration().String(),
	)
	return result, ctx.Err()
}

// resolveOne runs the resolver with the device timeout and converts a
// panic into an error.
func (b *Batch) resolveOne(ctx context.Context, id device.Identity) (p *DeviceProfile, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("panic during resolution", "device", id.Key(), "panic", rec, "stack", string(debug.Stack()))
			p, err = nil, fmt.Errorf("%w: panic: %v", ErrDeviceFailed, rec)
		}
	}()

	if b.cfg.DeviceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.DeviceTimeout)
		defer cancel()
	}
	p, err = b.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceFailed, err)
	}
	return p, nil
}

func (b *Batch) emit(ctx context.Context, p *DeviceProfile) []Failure {
	var failures []Failure
	for _, s := range b.sinks {
		if err := s.Emit(ctx, p); err != nil {
			b.logger.Warn("sink failed", "sink", s.Name(), "device", p.Key(), "error", err)
			failures = append(failures, newFailure(p.DeviceKey, StageSink+":"+s.Name(), err))
		}
	}
	return failures
}

func newFailure(id device.Identity, stage string, err error) Failure {
	return Failure{Device: id, Stage: stage, Err: err, Reason: err.Error()}
}

// distinct drops repeated device keys, keeping the first occurrence.
func distinct(ids []device.Identity) []device.Identity {
	seen := make(map[string]bool, len(ids))
	out := make([]device.Identity, 0, len(ids))
	for _, id := range ids {
		id = id.Normalise()
		if seen[id.Key()] {
			continue
		}
		seen[id.Key()] = true
		out = append(out, id)
	}
	return out
}

// IsDeviceFailure reports whether err came from a single device.
func IsDeviceFailure(err error) bool {
	return errors.Is(err, ErrDeviceFailed)
}
