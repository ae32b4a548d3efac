package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pintron/pintron/internal/model"
	"github.com/pintron/pintron/internal/parse"
)

// WriteModel writes g as an indented JSON document.
func WriteModel(w io.Writer, g *model.Gene) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode gene model: %w", err)
	}
	return nil
}

// WriteModelFile writes g to path, replacing any existing file.
func WriteModelFile(path string, g *model.Gene) error {
	f, err := os.Create(path)
	if err != nil {
		return &model.IOError{Path: path, Err: err}
	}
	if err := WriteModel(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadModel decodes a document produced by WriteModel. Isoform and intron
// indexes are restored from the mapping keys.
func ReadModel(r io.Reader) (*model.Gene, error) {
	var g model.Gene
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode gene model: %w", err)
	}
	if g.Isoforms == nil {
		g.Isoforms = make(model.Isoforms)
	}
	if g.Introns == nil {
		g.Introns = make(model.Introns)
	}
	for idx, iso := range g.Isoforms {
		if iso == nil {
			return nil, fmt.Errorf("decode gene model: isoform %d is null", idx)
		}
		iso.Index = idx
		for i, e := range iso.Exons {
			e.FileOrder = i
		}
	}
	for idx, in := range g.Introns {
		if in == nil {
			return nil, fmt.Errorf("decode gene model: intron %d is null", idx)
		}
		in.Index = idx
	}
	return &g, nil
}

// ReadModelFile reads a structured record from path; gzip input is
// detected and decompressed.
func ReadModelFile(path string) (*model.Gene, error) {
	rc, err := parse.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	g, err := ReadModel(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
