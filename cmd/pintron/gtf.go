package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/output"
	"github.com/pintron/pintron/internal/pipeline"
)

func newGTFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gtf [record.json]",
		Short: "Convert a structured record to GTF",
		Long: `Convert reads a structured record written by 'pintron build' (plain or
gzipped) and writes the GTF annotation of its isoforms.

The record defaults to <workdir>/` + pipeline.DefaultOutput + `.`,
		Example: `  pintron gtf run1/pintron-full-output.json -t run1/isoforms.gtf
  pintron gtf run1/pintron-full-output.json.gz --strict-gtf --gene TP53`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"workdir":    "workdir",
				"gtf":        "gtf",
				"gene":       "gene",
				"strict_gtf": "strict-gtf",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			record := ""
			if len(args) == 1 {
				record = args[0]
			}
			return runGTF(record)
		},
	}

	f := cmd.Flags()
	f.StringP("workdir", "w", ".", "Directory holding the structured record")
	f.StringP("gtf", "t", "", "GTF file (default: <workdir>/"+pipeline.DefaultGTF+")")
	f.StringP("gene", "e", pipeline.DefaultGene, "Gene name for GTF attributes")
	f.Bool("strict-gtf", false, "Only write CDS-annotated isoforms")

	return cmd
}

func runGTF(record string) error {
	logger, err := newLogger(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	dir := viper.GetString("workdir")
	if record == "" {
		record = filepath.Join(dir, pipeline.DefaultOutput)
	}
	gtfPath := viper.GetString("gtf")
	if gtfPath == "" {
		gtfPath = filepath.Join(dir, pipeline.DefaultGTF)
	}
	gene := viper.GetString("gene")
	if gene == "" {
		gene = pipeline.DefaultGene
	}
	filter := output.AllIsoforms
	if viper.GetBool("strict_gtf") {
		filter = output.CDSOnly
	}

	if err := pipeline.ConvertGTF(record, gtfPath, gene, filter); err != nil {
		return err
	}
	logger.Info("wrote GTF", zap.String("record", record), zap.String("gtf", gtfPath))
	return nil
}
