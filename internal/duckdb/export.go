package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
	"github.com/pintron/pintron/internal/output"
)

// Run identifies one export.
type Run struct {
	ID        string
	Gene      string
	CreatedAt time.Time
	Inputs    []FileFingerprint
}

// NewRun creates a run with a fresh identifier.
func NewRun(gene string, inputs []FileFingerprint) Run {
	return Run{
		ID:        uuid.NewString(),
		Gene:      gene,
		CreatedAt: time.Now().UTC(),
		Inputs:    inputs,
	}
}

// WriteRun appends g and its GTF features under run. All tables are
// written with the Appender API on a single connection.
func (s *Store) WriteRun(ctx context.Context, run Run, g *model.Gene, features []output.Feature) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	steps := []struct {
		table string
		fill  func(*goduckdb.Appender) error
	}{
		{"runs", func(a *goduckdb.Appender) error {
			return a.AppendRow(run.ID, run.Gene, g.ProgramVersion,
				g.Genome.SequenceID, g.Genome.Strand, g.Genome.Length,
				int64(g.ProcessedTranscripts), int64(g.PredictedIsoforms), run.CreatedAt)
		}},
		{"run_inputs", func(a *goduckdb.Appender) error {
			for _, fp := range run.Inputs {
				if err := a.AppendRow(run.ID, fp.Role, fp.Path, fp.Size, fp.ModTime); err != nil {
					return err
				}
			}
			return nil
		}},
		{"isoforms", func(a *goduckdb.Appender) error {
			for _, idx := range g.Isoforms.Indexes() {
				iso := g.Isoforms[idx]
				if err := a.AppendRow(run.ID, int64(idx), int64(iso.NumberOfExons), int64(iso.Length),
					iso.AnnotatedCDS, nullInt(iso.CDSStart), nullInt(iso.CDSEnd),
					iso.PolyA, iso.PAS, iso.Reference, iso.FromRefSeq, int64(iso.NMDFlag),
					iso.RefSeqID, iso.VariantType); err != nil {
					return err
				}
			}
			return nil
		}},
		{"introns", func(a *goduckdb.Appender) error {
			for _, idx := range g.Introns.Indexes() {
				in := g.Introns[idx]
				if err := a.AppendRow(run.ID, int64(idx), in.RelativeStart, in.RelativeEnd,
					in.AbsoluteStart, in.AbsoluteEnd, in.Length, int64(in.SupportCount),
					in.Type, in.Pattern); err != nil {
					return err
				}
			}
			return nil
		}},
		{"features", func(a *goduckdb.Appender) error {
			for i, f := range features {
				if err := a.AppendRow(run.ID, int64(i), int64(f.Isoform), f.Type,
					f.Start, f.End, f.Strand, nullInt(f.Frame)); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, step := range steps {
		if err := appendTo(conn, step.table, step.fill); err != nil {
			return err
		}
	}

	s.logger.Info("exported run",
		zap.String("run_id", run.ID),
		zap.Int("isoforms", len(g.Isoforms)),
		zap.Int("introns", len(g.Introns)),
		zap.Int("features", len(features)))
	return nil
}

func appendTo(conn *sql.Conn, table string, fill func(*goduckdb.Appender) error) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}

	if err := fill(appender); err != nil {
		appender.Close()
		return fmt.Errorf("append %s: %w", table, err)
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", table, err)
	}
	return nil
}

// nullInt converts an optional value to an appender argument.
func nullInt[T int | int64](v *T) driver.Value {
	if v == nil {
		return nil
	}
	return int64(*v)
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID         string
	Gene       string
	SequenceID string
	Strand     string
	CreatedAt  time.Time
}

// Runs lists exported runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, gene, sequence_id, strand, created_at
		FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Gene, &r.SequenceID, &r.Strand, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Features returns the GTF features stored for a run, in emission order.
func (s *Store) Features(ctx context.Context, runID string) ([]output.Feature, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT f.isoform, f.feature, f.start_pos, f.end_pos,
		f.strand, f.frame, r.gene, r.sequence_id
		FROM features f JOIN runs r ON f.run_id = r.run_id
		WHERE f.run_id = ? ORDER BY f.seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var features []output.Feature
	for rows.Next() {
		var (
			f       output.Feature
			isoform int64
			frame   sql.NullInt64
		)
		if err := rows.Scan(&isoform, &f.Type, &f.Start, &f.End,
			&f.Strand, &frame, &f.Gene, &f.SequenceID); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		f.Isoform = int(isoform)
		if frame.Valid {
			f.Frame = model.Ptr(int(frame.Int64))
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return features, nil
}
