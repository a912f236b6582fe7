package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/firewatch/internal/domain/ensemble"
	"github.com/okian/firewatch/internal/domain/features"
	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
)

// migration is one schema step.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "create_assessments", `
		CREATE TABLE IF NOT EXISTS assessments (
			id          TEXT PRIMARY KEY,
			cell        TEXT NOT NULL,
			assessed_at INTEGER NOT NULL,
			reading     TEXT NOT NULL,
			models      TEXT NOT NULL,
			ensemble    REAL NOT NULL,
			category    TEXT NOT NULL,
			hotspot     INTEGER NOT NULL
		)`},
	{2, "index_cell_time", `
		CREATE INDEX IF NOT EXISTS idx_assessments_cell_time
		ON assessments (cell, assessed_at DESC)`},
}

// SQLiteHistory is an append-only assessment log backed by SQLite.
type SQLiteHistory struct {
	db *sql.DB
}

var _ History = (*SQLiteHistory)(nil)

// OpenSQLiteHistory opens (or creates) the database at path and applies
// pending migrations. ":memory:" gives a private in-memory database.
func OpenSQLiteHistory(ctx context.Context, path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	h := &SQLiteHistory{db: db}
	if err := h.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *SQLiteHistory) migrate(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := h.db.QueryContext(ctx, "SELECT version FROM migrations")
	if err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := h.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d_%s: %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Append stores an assessment. Features are not stored; they are rebuilt
// from the reading on read.
func (h *SQLiteHistory) Append(ctx context.Context, a model.Assessment) error {
	rj, err := json.Marshal(a.Reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	mj, err := json.Marshal(a.Result.Models)
	if err != nil {
		return fmt.Errorf("encode models: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO assessments (id, cell, assessed_at, reading, models, ensemble, category, hotspot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Cell, a.AssessedAt.UnixNano(), string(rj), string(mj),
		a.Result.Ensemble, string(a.Result.Category), a.Result.Hotspot,
	)
	if err != nil {
		return fmt.Errorf("insert assessment %s: %w", a.ID, err)
	}
	return nil
}

// ListByCell returns up to limit assessments of cell, newest first.
func (h *SQLiteHistory) ListByCell(ctx context.Context, cell string, limit int) ([]model.Assessment, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, assessed_at, reading, models, ensemble, category, hotspot
		FROM assessments
		WHERE cell = ?
		ORDER BY assessed_at DESC, id DESC
		LIMIT ?`, cell, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var (
			a        model.Assessment
			ts       int64
			rj, mj   string
			category string
		)
		if err := rows.Scan(&a.ID, &ts, &rj, &mj, &a.Result.Ensemble, &category, &a.Result.Hotspot); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var r reading.Reading
		if err := json.Unmarshal([]byte(rj), &r); err != nil {
			return nil, fmt.Errorf("decode reading %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(mj), &a.Result.Models); err != nil {
			return nil, fmt.Errorf("decode models %s: %w", a.ID, err)
		}
		a.Cell = cell
		a.AssessedAt = time.Unix(0, ts).UTC()
		a.Reading = r
		a.Features = features.Build(r)
		a.Result.Category = ensemble.Category(category)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
