// Package duckdb exports finished gene models into a DuckDB database so that
// runs can be compared and queried with SQL. Tables are append-only; every
// run is keyed by a fresh UUID.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection holding exported runs.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for export progress.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		gene VARCHAR,
		program_version VARCHAR,
		sequence_id VARCHAR,
		strand VARCHAR,
		genome_length BIGINT,
		processed_transcripts BIGINT,
		predicted_isoforms BIGINT,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS run_inputs (
		run_id VARCHAR,
		role VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS isoforms (
		run_id VARCHAR,
		isoform BIGINT,
		number_of_exons BIGINT,
		length BIGINT,
		annotated_cds BOOLEAN,
		cds_start BIGINT,
		cds_end BIGINT,
		polya BOOLEAN,
		pas BOOLEAN,
		reference BOOLEAN,
		from_refseq BOOLEAN,
		nmd_flag BIGINT,
		refseq_id VARCHAR,
		variant_type VARCHAR,
		PRIMARY KEY (run_id, isoform)
	)`,
	`CREATE TABLE IF NOT EXISTS introns (
		run_id VARCHAR,
		intron BIGINT,
		relative_start BIGINT,
		relative_end BIGINT,
		absolute_start BIGINT,
		absolute_end BIGINT,
		length BIGINT,
		support_count BIGINT,
		intron_type VARCHAR,
		pattern VARCHAR,
		PRIMARY KEY (run_id, intron)
	)`,
	`CREATE TABLE IF NOT EXISTS features (
		run_id VARCHAR,
		seq BIGINT,
		isoform BIGINT,
		feature VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		strand VARCHAR,
		frame BIGINT
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
