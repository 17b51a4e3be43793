package evidence

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// setupTestDB creates an in-memory SQLite database with the evidence schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)

	// Matches migrations/20260301_120000_evidence.up.sql
	schema := `
		CREATE TABLE evidence (
			id               TEXT PRIMARY KEY,
			vendor           TEXT NOT NULL,
			product          TEXT NOT NULL,
			firmware         TEXT,
			source_domain    TEXT NOT NULL,
			origin           TEXT NOT NULL DEFAULT '',
			observed_at      TEXT NOT NULL,
			raw_text         TEXT,
			structured_claim TEXT,
			ingested_at      TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func curtainID() device.Identity {
	return device.NewIdentity("_TZE284_aao6qtcs", "TS0601", "")
}

func forumPost(origin, text string) Evidence {
	return Evidence{
		Device:     curtainID(),
		Domain:     DomainReputableForum,
		Origin:     origin,
		ObservedAt: testTime,
		RawText:    text,
	}
}

func officialClaim(dp int, c device.Capability) Evidence {
	return Evidence{
		Device:     curtainID(),
		Domain:     DomainOfficialManufacturer,
		Origin:     "https://vendor.example/ts0601.pdf",
		ObservedAt: testTime,
		Claim:      &Claim{Datapoints: map[int]Mapping{dp: {Capability: c}}},
	}
}
