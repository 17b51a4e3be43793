package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

// Store persists emitted profiles.
type Store interface {
	Save(ctx context.Context, p *DeviceProfile) error
	Current(ctx context.Context, id device.Identity) (*DeviceProfile, error)
	History(ctx context.Context, id device.Identity, limit int) ([]*DeviceProfile, error)
	ListCurrent(ctx context.Context, status scoring.Status) ([]*DeviceProfile, error)
}

// SQLiteStore implements Store over the profiles and batch_runs tables.
// It is also a batch Sink and RunRecorder.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over an opened, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Name implements Sink.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Emit implements Sink.
func (s *SQLiteStore) Emit(ctx context.Context, p *DeviceProfile) error {
	return s.Save(ctx, p)
}

// Save inserts p as the current profile of its device key and marks the
// previous current row superseded, in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, p *DeviceProfile) error {
	doc, err := Encode(p)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET superseded_at = ?
		WHERE device_key = ? AND superseded_at IS NULL`,
		s.now().UTC().Format(time.RFC3339Nano), p.Key(),
	); err != nil {
		return fmt.Errorf("supersede profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, run_id, device_key, vendor, product, firmware,
			score, status, confidence_level, rule_table_version, document, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.RunID,
		p.Key(),
		p.DeviceKey.Vendor,
		p.DeviceKey.Product,
		nullableString(p.DeviceKey.FirmwareString()),
		p.Score,
		string(p.Status),
		string(p.ConfidenceLevel),
		p.TableVersion,
		string(doc),
		p.ResolvedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

// Current returns the unsuperseded profile for the exact device key.
func (s *SQLiteStore) Current(ctx context.Context, id device.Identity) (*DeviceProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE device_key = ? AND superseded_at IS NULL`,
		id.Normalise().Key())
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// History returns every profile for the device key, newest first.
// A limit of 0 or less returns all.
func (s *SQLiteStore) History(ctx context.Context, id device.Identity, limit int) ([]*DeviceProfile, error) {
	query := `SELECT document FROM profiles WHERE device_key = ? ORDER BY resolved_at DESC, rowid DESC`
	args := []any{id.Normalise().Key()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// ListCurrent returns every current profile, optionally filtered by
// status, ordered by device key.
func (s *SQLiteStore) ListCurrent(ctx context.Context, status scoring.Status) ([]*DeviceProfile, error) {
	if status == "" {
		return s.query(ctx, `SELECT document FROM profiles WHERE superseded_at IS NULL ORDER BY device_key`)
	}
	return s.query(ctx,
		`SELECT document FROM profiles WHERE superseded_at IS NULL AND status = ? ORDER BY device_key`,
		string(status))
}

// RecordRun implements RunRecorder.
func (s *SQLiteStore) RecordRun(ctx context.Context, r *BatchResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs (run_id, rule_table_version, started_at, finished_at, resolved, failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.TableVersion,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		len(r.Profiles),
		r.Failed(),
	)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]*DeviceProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []*DeviceProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*DeviceProfile, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return Decode([]byte(doc))
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
