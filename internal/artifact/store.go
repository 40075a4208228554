// Package artifact persists everything a pipeline run produces: unit
// metadata and state in a SQLite index, per-unit text and rendered files on
// disk, and the freshness records that make stage re-execution idempotent.
package artifact

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valpere/codextran/internal"
)

const dbName = "codextran.db"

// Subdirectories of the output root.
const (
	sourceDir = "chapters_src"
	targetDir = "chapters_tgt"
	renderDir = "render"
)

// Store is the artifact index plus the directory layout around it.
type Store struct {
	db   *sql.DB
	root string
}

// Open creates (if needed) the output directory layout under root and
// opens the SQLite index inside it.
func Open(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, sourceDir), filepath.Join(root, targetDir), filepath.Join(root, renderDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", filepath.Join(root, dbName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, root: root}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS units (
		number INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS unit_keywords (
		unit_number INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		source_phrase TEXT NOT NULL,
		target_phrase TEXT NOT NULL,
		score REAL NOT NULL,
		first_offset INTEGER NOT NULL,
		PRIMARY KEY (unit_number, rank),
		FOREIGN KEY (unit_number) REFERENCES units(number)
	);

	-- artifacts records one row per (stage, unit) output with the hash of
	-- the inputs it was generated from; a mismatched hash marks it stale
	CREATE TABLE IF NOT EXISTS artifacts (
		stage TEXT NOT NULL,
		unit_number INTEGER NOT NULL,
		path TEXT NOT NULL,
		input_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (stage, unit_number)
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT NOT NULL,
		stage TEXT NOT NULL,
		attempted INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id, stage)
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_unit ON artifacts(unit_number);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Root returns the output root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) unitFile(dir string, u internal.ChapterUnit, ext string) string {
	return filepath.Join(s.root, dir, fmt.Sprintf("%02d-%s%s", u.Number, u.Slug, ext))
}

// SourceTextPath is the cleaned source-language artifact for a unit.
func (s *Store) SourceTextPath(u internal.ChapterUnit) string {
	return s.unitFile(sourceDir, u, ".txt")
}

// TargetTextPath is the translated (and later keyword-annotated)
// target-language artifact for a unit.
func (s *Store) TargetTextPath(u internal.ChapterUnit) string {
	return s.unitFile(targetDir, u, ".txt")
}

// RenderPath is the per-unit rendered document.
func (s *Store) RenderPath(u internal.ChapterUnit) string {
	return s.unitFile(renderDir, u, ".html")
}

// CompiledPath is the single compiled document with the table of contents.
func (s *Store) CompiledPath() string {
	return filepath.Join(s.root, renderDir, "compiled.html")
}

// SaveUnits upserts unit metadata after segmentation. Existing units keep
// their status so a re-run without force does not reset pipeline state.
func (s *Store) SaveUnits(ctx context.Context, units []internal.ChapterUnit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range units {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO units (number, title, slug, status) VALUES (?, ?, ?, ?)
			 ON CONFLICT(number) DO UPDATE SET title = excluded.title, slug = excluded.slug, updated_at = CURRENT_TIMESTAMP`,
			u.Number, u.Title, u.Slug, internal.StatusPending)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadUnits returns all units in number order with their keyword lists.
// Text bodies live in files and are not loaded here.
func (s *Store) LoadUnits(ctx context.Context) ([]internal.ChapterUnit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, title, slug, status FROM units ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []internal.ChapterUnit
	for rows.Next() {
		var u internal.ChapterUnit
		if err := rows.Scan(&u.Number, &u.Title, &u.Slug, &u.Status); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range units {
		kws, err := s.loadKeywords(ctx, units[i].Number)
		if err != nil {
			return nil, err
		}
		units[i].Keywords = kws
	}
	return units, nil
}

func (s *Store) loadKeywords(ctx context.Context, number int) ([]internal.KeywordPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_phrase, target_phrase, score, first_offset
		 FROM unit_keywords WHERE unit_number = ? ORDER BY rank`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []internal.KeywordPair
	for rows.Next() {
		var p internal.KeywordPair
		if err := rows.Scan(&p.SourcePhrase, &p.TargetPhrase, &p.Score, &p.Offset); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// SaveKeywords replaces a unit's keyword list.
func (s *Store) SaveKeywords(ctx context.Context, number int, pairs []internal.KeywordPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM unit_keywords WHERE unit_number = ?`, number); err != nil {
		return err
	}
	for rank, p := range pairs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO unit_keywords (unit_number, rank, source_phrase, target_phrase, score, first_offset)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			number, rank, p.SourcePhrase, p.TargetPhrase, p.Score, p.Offset)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetStatus records a unit's state-machine transition.
func (s *Store) SetStatus(ctx context.Context, number int, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE units SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE number = ?`,
		status, number)
	return err
}

// ValidArtifact reports whether a fresh (stage, unit) artifact exists: a
// recorded row whose input hash matches inputHash and whose file is still
// present on disk.
func (s *Store) ValidArtifact(ctx context.Context, stage internal.Stage, number int, inputHash string) (bool, error) {
	var path, recorded string
	err := s.db.QueryRowContext(ctx,
		`SELECT path, input_hash FROM artifacts WHERE stage = ? AND unit_number = ?`,
		string(stage), number).Scan(&path, &recorded)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if recorded != inputHash {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	return true, nil
}

// RecordArtifact registers a freshly written (stage, unit) output.
func (s *Store) RecordArtifact(ctx context.Context, stage internal.Stage, number int, path, inputHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (stage, unit_number, path, input_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(stage), number, path, inputHash, time.Now())
	return err
}

// ArtifactPath returns the recorded path of a (stage, unit) artifact.
func (s *Store) ArtifactPath(ctx context.Context, stage internal.Stage, number int) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT path FROM artifacts WHERE stage = ? AND unit_number = ?`,
		string(stage), number).Scan(&path)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// ClearArtifacts drops every freshness record, forcing regeneration on the
// next run. Files on disk are left in place.
func (s *Store) ClearArtifacts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats summarises the artifact index.
type Stats struct {
	Units     int
	Artifacts int
	PerStage  map[string]int
}

// Stats returns counts of indexed units and artifacts per stage.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{PerStage: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&stats.Units); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(*) FROM artifacts GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		stats.PerStage[stage] = n
		stats.Artifacts += n
	}
	return stats, rows.Err()
}

// SaveRun persists one stage's aggregate counts for a run.
func (s *Store) SaveRun(ctx context.Context, runID string, stage internal.Stage, attempted, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, stage, attempted, succeeded, failed) VALUES (?, ?, ?, ?, ?)`,
		runID, string(stage), attempted, succeeded, failed)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InputHash derives the freshness key for a set of stage inputs.
func InputHash(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
