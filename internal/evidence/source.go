package evidence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// Source lists the evidence that applies to a device identity.
type Source interface {
	ListEvidence(ctx context.Context, id device.Identity) ([]Evidence, error)
}

// IdentityLister enumerates every identity that has evidence.
type IdentityLister interface {
	ListIdentities(ctx context.Context) ([]device.Identity, error)
}

// Appender stores new evidence. Append assigns an ID when e.ID is empty.
type Appender interface {
	Append(ctx context.Context, e *Evidence) error
}

// Store is the full evidence store contract.
type Store interface {
	Source
	IdentityLister
	Appender
}

// MemorySource is an in-process Store for tests and one-shot resolutions.
type MemorySource struct {
	mu    sync.RWMutex
	items []Evidence
}

// NewMemorySource returns a store preloaded with items. Items without an
// ID are given one.
func NewMemorySource(items ...Evidence) *MemorySource {
	m := &MemorySource{}
	for i := range items {
		e := items[i]
		m.add(&e)
	}
	return m
}

func (m *MemorySource) add(e *Evidence) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Device = e.Device.Normalise()
	m.items = append(m.items, *e)
}

// Append stores e. Content is not validated; the resolver skips defects.
func (m *MemorySource) Append(ctx context.Context, e *Evidence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Device.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(e)
	return nil
}

// ListEvidence returns records covering id in insertion order.
func (m *MemorySource) ListEvidence(ctx context.Context, id device.Identity) ([]Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	target := id.Normalise()
	var out []Evidence
	for _, e := range m.items {
		if e.Device.Covers(target) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListIdentities returns the distinct recorded identities sorted by key.
func (m *MemorySource) ListIdentities(ctx context.Context) ([]device.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]device.Identity)
	for _, e := range m.items {
		seen[e.Device.Key()] = e.Device
	}
	return sortedIdentities(seen), nil
}

func sortedIdentities(byKey map[string]device.Identity) []device.Identity {
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]device.Identity, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out
}
