package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	"github.com/ffbrank/ffbrank/pkg/logger"
)

//go:embed schema.sql
var schema string

// SQLiteRegistry stores the registry in a SQLite table keyed by the
// identity triple.
type SQLiteRegistry struct {
	db *sql.DB
	settings
}

// OpenSQLite opens (and creates) the database at path. ":memory:" is
// accepted for tests.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteRegistry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a ":memory:" database lives only as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteRegistry{db: db, settings: newSettings("sqlite_registry", opts)}, nil
}

// Close releases the database.
func (s *SQLiteRegistry) Close() error {
	return s.db.Close()
}

// Load reads every entry ordered by identity.
func (s *SQLiteRegistry) Load(ctx context.Context) ([]model.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT expert_id, expert_name, site, first_seen, last_seen, first_appearance, last_appearance
		FROM experts
		ORDER BY expert_id, expert_name, site`)
	if err != nil {
		return nil, fmt.Errorf("query experts: %w", err)
	}
	defer rows.Close()

	out := []model.RegistryEntry{}
	for rows.Next() {
		var (
			e           model.RegistryEntry
			first, last string
		)
		if err := rows.Scan(&e.ExpertID, &e.ExpertName, &e.Site, &first, &last, &e.FirstAppearance, &e.LastAppearance); err != nil {
			return nil, registry.Integrity("unreadable experts row", nil, err)
		}
		if e.FirstSeen, err = time.Parse(time.RFC3339Nano, first); err != nil {
			id := e.Identity()
			return nil, registry.Integrity("first_seen", &id, err)
		}
		if e.LastSeen, err = time.Parse(time.RFC3339Nano, last); err != nil {
			id := e.Identity()
			return nil, registry.Integrity("last_seen", &id, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experts: %w", err)
	}
	return out, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteRegistry) Save(ctx context.Context, entries []model.RegistryEntry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM experts"); err != nil {
		return fmt.Errorf("clear experts: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO experts (expert_id, expert_name, site, first_seen, last_seen, first_appearance, last_appearance)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx,
			e.ExpertID, e.ExpertName, e.Site,
			e.FirstSeen.UTC().Format(time.RFC3339Nano),
			e.LastSeen.UTC().Format(time.RFC3339Nano),
			e.FirstAppearance, e.LastAppearance,
		); err != nil {
			return fmt.Errorf("insert %d/%s/%s: %w", e.ExpertID, e.ExpertName, e.Site, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug(ctx, "registry written", logger.Int("entries", len(entries)))
	return nil
}
