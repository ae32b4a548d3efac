package parse

import (
	"errors"
	"io"
	"regexp"

	"github.com/pintron/pintron/internal/model"
)

// >chr7:100:2000:-1
var genomeHeaderRE = regexp.MustCompile(`^>(chr)?(X|Y|x|y|\d+):\d+:\d+:(\+1|-1|\+|-|1)`)

// ParseGenomeHeader reads the sequence identifier and strand from the first
// line of the genomic FASTA file. The genome length is filled in later from
// the CDS-geometry preamble.
func (p *Parser) ParseGenomeHeader(r io.Reader, name string) (model.Genome, error) {
	lr := newLineReader(r, name)
	if !lr.next() {
		if err := lr.err(); err != nil {
			return model.Genome{}, err
		}
		return model.Genome{}, &model.ParseError{File: name, Reason: "empty genomic sequence file", Err: errors.New("no header line")}
	}

	m := genomeHeaderRE.FindStringSubmatch(trimEOL(lr.text))
	if m == nil {
		return model.Genome{}, lr.fail("malformed genomic header", nil)
	}

	genome := model.Genome{
		SequenceID: "chr" + m[2],
		Strand:     normalizeStrand(m[3]),
	}
	return genome, nil
}

func normalizeStrand(s string) string {
	if s == "-" || s == "-1" {
		return "-"
	}
	return "+"
}
