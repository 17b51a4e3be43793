package evidence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
)

// SQLiteRepository implements Store using the evidence table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an opened, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const evidenceColumns = `id, vendor, product, firmware, source_domain, origin,
	observed_at, raw_text, structured_claim`

// Append inserts e, assigning an ID when empty. The identity must be valid;
// other defects are kept so resolution can report them.
func (r *SQLiteRepository) Append(ctx context.Context, e *Evidence) error {
	e.Device = e.Device.Normalise()
	if err := e.Device.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var claimJSON sql.NullString
	if e.Claim != nil {
		data, err := json.Marshal(e.Claim)
		if err != nil {
			return fmt.Errorf("marshal claim: %w", err)
		}
		claimJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evidence (`+evidenceColumns+`, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Device.Vendor,
		e.Device.Product,
		nullableString(e.Device.FirmwareString()),
		string(e.Domain),
		e.Origin,
		e.ObservedAt.UTC().Format(time.RFC3339Nano),
		nullableString(e.RawText),
		claimJSON,
		r.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

// Get returns one record by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Evidence, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = ?`, id)
	e, err := scanEvidence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Evidence{}, ErrNotFound
	}
	return e, err
}

// ListEvidence returns records covering id: same vendor and product, and
// either no firmware or the same firmware. Ordered by observation time.
func (r *SQLiteRepository) ListEvidence(ctx context.Context, id device.Identity) ([]Evidence, error) {
	id = id.Normalise()
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+evidenceColumns+`
		FROM evidence
		WHERE vendor = ? AND product = ? AND (firmware IS NULL OR firmware = ?)
		ORDER BY observed_at, id`,
		id.Vendor, id.Product, id.FirmwareString(),
	)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}

// ListIdentities returns every distinct recorded identity.
func (r *SQLiteRepository) ListIdentities(ctx context.Context) ([]device.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT vendor, product, firmware FROM evidence`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]device.Identity)
	for rows.Next() {
		var vendor, product string
		var firmware sql.NullString
		if err := rows.Scan(&vendor, &product, &firmware); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		id := device.NewIdentity(vendor, product, firmware.String)
		seen[id.Key()] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return sortedIdentities(seen), nil
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evidence`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count evidence: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvidence decodes a row. A corrupt claim or timestamp does not fail
// the scan; it is carried on the record and reported by Validate.
func scanEvidence(s scanner) (Evidence, error) {
	var (
		e                  Evidence
		vendor, product    string
		domain, observedAt string
		firmware, rawText  sql.NullString
		claimJSON          sql.NullString
	)
	if err := s.Scan(&e.ID, &vendor, &product, &firmware, &domain, &e.Origin,
		&observedAt, &rawText, &claimJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evidence{}, err
		}
		return Evidence{}, fmt.Errorf("scan evidence: %w", err)
	}

	e.Device = device.NewIdentity(vendor, product, firmware.String)
	e.Domain = SourceDomain(domain)
	e.RawText = rawText.String

	ts, err := time.Parse(time.RFC3339Nano, observedAt)
	if err != nil {
		e.decodeErr = fmt.Errorf("observed_at: %w", err)
	}
	e.ObservedAt = ts

	if claimJSON.Valid {
		var c Claim
		if err := json.Unmarshal([]byte(claimJSON.String), &c); err != nil {
			e.decodeErr = fmt.Errorf("structured_claim: %w", err)
		} else {
			e.Claim = &c
		}
	}
	return e, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
