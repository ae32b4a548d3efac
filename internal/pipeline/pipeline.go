package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/annotate"
	"github.com/pintron/pintron/internal/duckdb"
	"github.com/pintron/pintron/internal/link"
	"github.com/pintron/pintron/internal/model"
	"github.com/pintron/pintron/internal/output"
	"github.com/pintron/pintron/internal/parse"
)

var errIsDir = errors.New("is a directory")

// Options configures a run.
type Options struct {
	Inputs         Inputs
	Output         string // structured record
	GTF            string // empty disables the GTF file
	Gene           string
	StrictGTF      bool // only CDS-annotated isoforms in the GTF file
	PASTolerance   int
	Workers        int
	Compress       bool   // gzip the structured record after the GTF file is written
	DuckDB         string // empty disables the export
	ProgramVersion string
}

// Filter returns the GTF inclusion filter selected by the options.
func (o Options) Filter() output.Filter {
	if o.StrictGTF {
		return output.CDSOnly
	}
	return output.AllIsoforms
}

// Result describes what a run produced.
type Result struct {
	Gene    *model.Gene
	Reports []annotate.Report
	Output  string // final path of the structured record
	GTF     string
	RunID   string // DuckDB run, if exported
}

// Pipeline wires the parser, linker, annotator and writers.
type Pipeline struct {
	logger *zap.Logger
}

// New creates a pipeline that logs nowhere.
func New() *Pipeline {
	return &Pipeline{logger: zap.NewNop()}
}

// SetLogger sets the logger passed down to every component.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Build parses the inputs and returns the linked, annotated gene model.
func (p *Pipeline) Build(opts Options) (*model.Gene, []annotate.Report, error) {
	in := opts.Inputs
	if err := in.Check(); err != nil {
		return nil, nil, err
	}

	parser := parse.New()
	parser.SetLogger(p.logger.Named("parse"))

	var genome model.Genome
	if err := readFile(in.Genome, func(r io.Reader) error {
		var err error
		genome, err = parser.ParseGenomeHeader(r, in.Genome)
		return err
	}); err != nil {
		return nil, nil, err
	}
	g := model.NewGene(genome)
	g.ProgramVersion = opts.ProgramVersion
	p.logger.Info("read genome",
		zap.String("sequence_id", genome.SequenceID), zap.String("strand", genome.Strand))

	steps := []struct {
		path  string
		parse func(io.Reader, string, *model.Gene) error
	}{
		{in.Variants, parser.ParseVariants},
		{in.CDS, parser.ParseCDS},
		{in.Factorizations, parser.ParseFactorizations},
		{in.Introns, parser.ParseIntrons},
	}
	for _, step := range steps {
		if err := readFile(step.path, func(r io.Reader) error {
			return step.parse(r, step.path, g)
		}); err != nil {
			return nil, nil, err
		}
	}
	p.logger.Info("parsed inputs",
		zap.Int("isoforms", len(g.Isoforms)),
		zap.Int("introns", len(g.Introns)),
		zap.Int("transcripts", g.ProcessedTranscripts))

	g.Canonicalize()
	for _, idx := range g.Isoforms.Indexes() {
		iso := g.Isoforms[idx]
		if n := iso.TranscriptLength(); n != int64(iso.Length) {
			p.logger.Warn("transcript length differs from declared length",
				zap.Int("isoform", idx), zap.Int64("exons", n), zap.Int("declared", iso.Length))
		}
	}

	linker := link.NewLinker()
	linker.SetLogger(p.logger.Named("link"))
	if err := linker.Link(g); err != nil {
		return nil, nil, err
	}

	ann := annotate.NewAnnotator()
	ann.SetLogger(p.logger.Named("annotate"))
	if opts.PASTolerance > 0 {
		ann.SetPASTolerance(opts.PASTolerance)
	}
	ann.SetWorkers(opts.Workers)
	reports, err := ann.Annotate(g)
	if err != nil {
		return nil, nil, err
	}
	return g, reports, nil
}

// Run builds the model and writes every configured output.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	g, reports, err := p.Build(opts)
	if err != nil {
		return nil, err
	}

	if err := output.WriteModelFile(opts.Output, g); err != nil {
		return nil, err
	}
	p.logger.Info("wrote structured record", zap.String("path", opts.Output))
	res := &Result{Gene: g, Reports: reports, Output: opts.Output}

	// The GTF file and the export are produced from the record as written.
	written, err := output.ReadModelFile(opts.Output)
	if err != nil {
		return nil, err
	}

	if opts.GTF != "" {
		if err := WriteGTFFile(opts.GTF, written, opts.Gene, opts.Filter()); err != nil {
			return nil, err
		}
		res.GTF = opts.GTF
		p.logger.Info("wrote GTF", zap.String("path", opts.GTF))
	}

	if opts.Compress {
		gz, err := CompressFile(opts.Output)
		if err != nil {
			return nil, err
		}
		res.Output = gz
		p.logger.Info("compressed structured record", zap.String("path", gz))
	}

	if opts.DuckDB != "" {
		id, err := p.export(ctx, opts, written)
		if err != nil {
			return nil, err
		}
		res.RunID = id
	}
	return res, nil
}

func (p *Pipeline) export(ctx context.Context, opts Options, g *model.Gene) (string, error) {
	inputs, err := duckdb.StatInputs(opts.Inputs.Roles())
	if err != nil {
		return "", fmt.Errorf("fingerprint inputs: %w", err)
	}

	store, err := duckdb.Open(opts.DuckDB)
	if err != nil {
		return "", err
	}
	defer store.Close()
	store.SetLogger(p.logger.Named("duckdb"))

	run := duckdb.NewRun(opts.Gene, inputs)
	features := output.Features(g, opts.Gene, opts.Filter())
	if err := store.WriteRun(ctx, run, g, features); err != nil {
		return "", fmt.Errorf("export to %s: %w", opts.DuckDB, err)
	}
	return run.ID, nil
}

// ConvertGTF writes the GTF file for an existing structured record.
func ConvertGTF(modelPath, gtfPath, gene string, filter output.Filter) error {
	g, err := output.ReadModelFile(modelPath)
	if err != nil {
		return err
	}
	return WriteGTFFile(gtfPath, g, gene, filter)
}

// WriteGTFFile writes the GTF features of g to path.
func WriteGTFFile(path string, g *model.Gene, gene string, filter output.Filter) error {
	f, err := os.Create(path)
	if err != nil {
		return &model.IOError{Path: path, Err: err}
	}
	w := output.NewGTFWriter(f, gene, filter)
	if err := w.Write(g); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// CompressFile replaces path with path.gz and returns the new name.
func CompressFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", &model.IOError{Path: path, Err: err}
	}
	defer src.Close()

	dst := path + ".gz"
	out, err := os.Create(dst)
	if err != nil {
		return "", &model.IOError{Path: dst, Err: err}
	}
	zw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		out.Close()
		return "", err
	}
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		out.Close()
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	src.Close()
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return dst, nil
}

func readFile(path string, fn func(io.Reader) error) error {
	rc, err := parse.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(rc)
}
