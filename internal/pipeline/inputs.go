// Package pipeline runs the back end end to end: parse the upstream
// artifacts, link introns, annotate isoforms and write the structured
// record, the GTF file and the optional DuckDB export.
package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pintron/pintron/internal/model"
)

// Default file names inside a working directory.
const (
	DefaultGenome         = "genomic.txt"
	DefaultFactorizations = "out-after-intron-agree.txt"
	DefaultVariants       = "VariantGTF.txt"
	DefaultCDS            = "CCDS_transcripts.txt"
	DefaultIntrons        = "predicted-introns.txt"
	DefaultOutput         = "pintron-full-output.json"
	DefaultGTF            = "pintron-all-isoforms.gtf"
	DefaultGene           = "unknown"
)

// Inputs names the five upstream artifacts.
type Inputs struct {
	Genome         string
	Factorizations string
	Variants       string
	CDS            string
	Introns        string
}

// DefaultInputs returns the conventional input paths inside dir.
func DefaultInputs(dir string) Inputs {
	return Inputs{
		Genome:         filepath.Join(dir, DefaultGenome),
		Factorizations: filepath.Join(dir, DefaultFactorizations),
		Variants:       filepath.Join(dir, DefaultVariants),
		CDS:            filepath.Join(dir, DefaultCDS),
		Introns:        filepath.Join(dir, DefaultIntrons),
	}
}

// Roles maps each input role to its path.
func (in Inputs) Roles() map[string]string {
	return map[string]string{
		"genome":         in.Genome,
		"factorizations": in.Factorizations,
		"variants":       in.Variants,
		"cds":            in.CDS,
		"introns":        in.Introns,
	}
}

// Check verifies that every input is a readable regular file, in a fixed
// order, so that a missing file is reported before any parsing starts.
func (in Inputs) Check() error {
	for _, path := range []string{in.Genome, in.Factorizations, in.Variants, in.CDS, in.Introns} {
		f, err := os.Open(path)
		if err != nil {
			return &model.IOError{Path: path, Err: err}
		}
		info, err := f.Stat()
		f.Close()
		if err != nil {
			return &model.IOError{Path: path, Err: err}
		}
		if info.IsDir() {
			return &model.IOError{Path: path, Err: errIsDir}
		}
	}
	return nil
}
