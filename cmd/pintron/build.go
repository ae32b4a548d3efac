package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/pipeline"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the gene model from the upstream artifacts",
		Long: `Build reads the genomic sequence, EST factorizations, isoform variants,
CDS annotation and predicted introns, links and annotates them, and writes the
structured JSON record and the GTF file.

Inputs default to their conventional names inside --workdir.`,
		Example: `  pintron build --workdir run1 --gene TP53
  pintron build -w run1 --strict-gtf --compress
  pintron build -w run1 --duckdb run1/pintron.duckdb`,
		Args: usageArgs(cobra.NoArgs),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"workdir":        "workdir",
				"genome":         "genome",
				"factorizations": "factorizations",
				"variants":       "variants",
				"cds":            "cds",
				"introns":        "introns",
				"output":         "output",
				"gtf":            "gtf",
				"gene":           "gene",
				"strict_gtf":     "strict-gtf",
				"pas_tolerance":  "pas-tolerance",
				"compress":       "compress",
				"duckdb":         "duckdb",
				"workers":        "workers",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringP("workdir", "w", ".", "Directory holding the input files")
	f.String("genome", "", "Genomic sequence file (default: <workdir>/"+pipeline.DefaultGenome+")")
	f.String("factorizations", "", "EST factorization file (default: <workdir>/"+pipeline.DefaultFactorizations+")")
	f.String("variants", "", "Isoform variant file (default: <workdir>/"+pipeline.DefaultVariants+")")
	f.String("cds", "", "CDS annotation file (default: <workdir>/"+pipeline.DefaultCDS+")")
	f.String("introns", "", "Predicted intron file (default: <workdir>/"+pipeline.DefaultIntrons+")")
	f.StringP("output", "o", "", "Structured record (default: <workdir>/"+pipeline.DefaultOutput+")")
	f.StringP("gtf", "t", "", "GTF file (default: <workdir>/"+pipeline.DefaultGTF+")")
	f.StringP("gene", "e", pipeline.DefaultGene, "Gene name for GTF attributes")
	f.Bool("strict-gtf", false, "Only write CDS-annotated isoforms to the GTF file")
	f.Int("pas-tolerance", 30, "Largest 3' end difference accepted for PAS evidence")
	f.BoolP("compress", "z", false, "Gzip the structured record after writing the GTF file")
	f.String("duckdb", "", "Append the run to this DuckDB database")
	f.Int("workers", 0, "Isoforms annotated concurrently (0 = all CPUs)")

	return cmd
}

// bindFlags binds viper keys to the flags of the running command only, so
// commands sharing a key do not shadow each other's flags.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// buildOptions resolves the pipeline options from flags, environment and
// config file. Unset paths fall back to their defaults inside workdir.
func buildOptions() pipeline.Options {
	dir := viper.GetString("workdir")
	defaults := pipeline.DefaultInputs(dir)

	pick := func(key, fallback string) string {
		if v := viper.GetString(key); v != "" {
			return v
		}
		return fallback
	}

	return pipeline.Options{
		Inputs: pipeline.Inputs{
			Genome:         pick("genome", defaults.Genome),
			Factorizations: pick("factorizations", defaults.Factorizations),
			Variants:       pick("variants", defaults.Variants),
			CDS:            pick("cds", defaults.CDS),
			Introns:        pick("introns", defaults.Introns),
		},
		Output:         pick("output", filepath.Join(dir, pipeline.DefaultOutput)),
		GTF:            pick("gtf", filepath.Join(dir, pipeline.DefaultGTF)),
		Gene:           pick("gene", pipeline.DefaultGene),
		StrictGTF:      viper.GetBool("strict_gtf"),
		PASTolerance:   viper.GetInt("pas_tolerance"),
		Workers:        viper.GetInt("workers"),
		Compress:       viper.GetBool("compress"),
		DuckDB:         viper.GetString("duckdb"),
		ProgramVersion: version,
	}
}

func runBuild(ctx context.Context) error {
	logger, err := newLogger(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts := buildOptions()
	logger.Info("building gene model",
		zap.String("workdir", viper.GetString("workdir")),
		zap.String("gene", opts.Gene),
		zap.Bool("strict_gtf", opts.StrictGTF))

	p := pipeline.New()
	p.SetLogger(logger)

	res, err := p.Run(ctx, opts)
	if err != nil {
		return err
	}

	withCDS := 0
	for _, idx := range res.Gene.Isoforms.Indexes() {
		if res.Gene.Isoforms[idx].HasCDS() {
			withCDS++
		}
	}
	fields := []zap.Field{
		zap.Int("isoforms", len(res.Gene.Isoforms)),
		zap.Int("with_cds", withCDS),
		zap.Int("introns", len(res.Gene.Introns)),
		zap.String("output", res.Output),
		zap.String("gtf", res.GTF),
	}
	if res.RunID != "" {
		fields = append(fields, zap.String("run_id", res.RunID))
	}
	logger.Info("done", fields...)
	return nil
}
