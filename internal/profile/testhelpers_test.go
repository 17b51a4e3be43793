package profile

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// setupTestDB creates an in-memory SQLite database with the profile schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)

	// Matches migrations/20260302_090000_profiles.up.sql
	schema := `
		CREATE TABLE profiles (
			id                 TEXT PRIMARY KEY,
			run_id             TEXT NOT NULL,
			device_key         TEXT NOT NULL,
			vendor             TEXT NOT NULL,
			product            TEXT NOT NULL,
			firmware           TEXT,
			score              REAL NOT NULL,
			status             TEXT NOT NULL,
			confidence_level   TEXT NOT NULL,
			rule_table_version TEXT NOT NULL DEFAULT '',
			document           TEXT NOT NULL,
			resolved_at        TEXT NOT NULL,
			superseded_at      TEXT
		) STRICT;
		CREATE UNIQUE INDEX idx_profiles_current ON profiles (device_key) WHERE superseded_at IS NULL;
		CREATE TABLE batch_runs (
			run_id             TEXT PRIMARY KEY,
			rule_table_version TEXT NOT NULL,
			started_at         TEXT NOT NULL,
			finished_at        TEXT NOT NULL,
			resolved           INTEGER NOT NULL,
			failed             INTEGER NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func curtainID() device.Identity {
	return device.NewIdentity("_TZE284_aao6qtcs", "TS0601", "")
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func forumPost(id device.Identity, origin, text string, age int) evidence.Evidence {
	return evidence.Evidence{
		Device:     id,
		Domain:     evidence.DomainReputableForum,
		Origin:     origin,
		ObservedAt: daysAgo(age),
		RawText:    text,
	}
}

func officialClaim(id device.Identity, dp int, c device.Capability) evidence.Evidence {
	return evidence.Evidence{
		Device:     id,
		Domain:     evidence.DomainOfficialManufacturer,
		Origin:     "https://vendor.example/ts0601.pdf",
		ObservedAt: daysAgo(5),
		Claim:      &evidence.Claim{Datapoints: map[int]evidence.Mapping{dp: {Capability: c}}},
	}
}

func strPtr(s string) *string { return &s }

// curtainTable has a generic TS0601 rule declared before the vendor
// specific one, and an unrelated wildcard rule.
func curtainTable(t *testing.T) *fingerprint.Table {
	t.Helper()
	table, err := fingerprint.NewTable("test-v1", []fingerprint.Rule{
		{
			Name:    "ts0601-generic",
			Vendor:  fingerprint.Wildcard,
			Product: "TS0601",
			Delta:   fingerprint.ProfileDelta{Family: "light"},
		},
		{
			Name:    "tze284-curtain",
			Vendor:  "_TZE284_aao6qtcs",
			Product: "TS0601",
			Delta: fingerprint.ProfileDelta{
				Family: "curtain",
				Capabilities: map[device.Capability]fingerprint.Binding{
					device.CapWindowCoveringsCmd: {Source: "dp:2", Parser: device.ParserEnum},
				},
				Remove: []device.Capability{device.CapMeasureBattery},
			},
		},
		{
			Name:     "legacy-plug",
			Vendor:   fingerprint.Wildcard,
			Product:  "TS011F",
			Firmware: strPtr("1.0.0"),
		},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func newTestResolver(t *testing.T, table *fingerprint.Table, items ...evidence.Evidence) *Resolver {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultConfig(), scoring.WithClock(testClock))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return NewResolver(evidence.NewMemorySource(items...), table, engine, WithClock(testClock))
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}
