package parse

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	basesRE      = regexp.MustCompile(`^[acgtnACGTN]+$`)
)

// ParseCDS reads the CDS/exon-geometry file. Every isoform it references
// must already exist in g.Isoforms.
//
//	12            predicted isoforms
//	45000         genome length
//	>3:4:1:0:0    index:exons:reference:fromRefSeq:NMD
//	1001:1100:1001:1100:0:40:-1
//	acgt...
func (p *Parser) ParseCDS(r io.Reader, name string, g *model.Gene) error {
	lr := newLineReader(r, name)

	predicted, err := readPreambleInt(lr, "predicted isoform count")
	if err != nil {
		return err
	}
	length, err := readPreambleInt(lr, "genome length")
	if err != nil {
		return err
	}
	g.PredictedIsoforms = int(predicted)
	g.Genome.Length = length

	// current is scoped to the block opened by the last header line; exon
	// and sequence lines never reach back past it.
	var current *model.Isoform
	for lr.next() {
		line := whitespaceRE.ReplaceAllString(lr.text, "")
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, ">"):
			if missingSequence(current) {
				return lr.fail("exon geometry without sequence", nil)
			}
			iso, err := p.openCDSBlock(lr, line[1:], g)
			if err != nil {
				return err
			}
			current = iso

		case strings.Contains(line, ":"):
			if current == nil {
				return lr.fail("exon geometry outside isoform block", nil)
			}
			if missingSequence(current) {
				return lr.fail("exon geometry without sequence", nil)
			}
			exon, polyA, err := parseExonGeometry(line)
			if err != nil {
				return lr.fail("malformed exon geometry", err)
			}
			if len(current.Exons) >= current.NumberOfExons {
				return model.Inconsistent(model.ExonCount,
					"%s:%d: isoform %d declares %d exons but geometry supplies more",
					name, lr.num, current.Index, current.NumberOfExons)
			}
			exon.FileOrder = len(current.Exons)
			current.Exons = append(current.Exons, exon)
			if polyA {
				current.PolyA = true
			}

		case basesRE.MatchString(line):
			if current == nil || len(current.Exons) == 0 {
				return lr.fail("exon sequence without exon geometry", nil)
			}
			last := current.Exons[len(current.Exons)-1]
			last.Sequence = line
			last.LengthOnTranscript = int64(len(line))

		default:
			return lr.fail("unrecognized CDS geometry line", nil)
		}
	}
	if err := lr.err(); err != nil {
		return err
	}
	if missingSequence(current) {
		return lr.fail("exon geometry without sequence", nil)
	}

	p.logger.Debug("read exon geometry",
		zap.String("file", name),
		zap.Int("predicted_isoforms", g.PredictedIsoforms),
		zap.Int64("genome_length", g.Genome.Length))
	return nil
}

// missingSequence reports whether the last exon of iso has no sequence line
// yet. Its transcript length would otherwise count as zero.
func missingSequence(iso *model.Isoform) bool {
	return iso != nil && len(iso.Exons) > 0 && iso.Exons[len(iso.Exons)-1].Sequence == ""
}

func readPreambleInt(lr *lineReader, what string) (int64, error) {
	if !lr.next() {
		if err := lr.err(); err != nil {
			return 0, err
		}
		return 0, lr.fail("missing "+what, errors.New("unexpected end of file"))
	}
	v, err := strconv.ParseInt(strings.TrimSpace(lr.text), 10, 64)
	if err != nil {
		return 0, lr.fail("malformed "+what, err)
	}
	return v, nil
}

// openCDSBlock handles "idx:nex:ref:fromRef:nmd". Negative sub-fields are
// clamped to zero.
func (p *Parser) openCDSBlock(lr *lineReader, header string, g *model.Gene) (*model.Isoform, error) {
	parts := strings.Split(header, ":")
	if len(parts) != 5 {
		return nil, lr.fail("malformed isoform header", errFieldCount(len(parts), "5"))
	}
	var fields [5]int
	for i, s := range parts {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, lr.fail("malformed isoform header", err)
		}
		fields[i] = max(0, v)
	}

	index := fields[0]
	iso, ok := g.Isoforms[index]
	if !ok {
		return nil, model.Inconsistent(model.UnknownIsoform,
			"%s:%d: isoform %d is not declared in the variant file", lr.name, lr.num, index)
	}
	if fields[1] > iso.NumberOfExons {
		return nil, model.Inconsistent(model.ExonCount,
			"%s:%d: isoform %d has %d exons in geometry but %d declared",
			lr.name, lr.num, index, fields[1], iso.NumberOfExons)
	}

	iso.Reference = fields[2] != 0
	iso.FromRefSeq = fields[3] != 0
	iso.NMDFlag = fields[4]
	return iso, nil
}

// parseExonGeometry parses "absStart:absEnd:relStart:relEnd:polyA[:utr5[:utr3]]".
// Negative UTR lengths mean "not applicable" and leave the field unset.
func parseExonGeometry(line string) (*model.Exon, bool, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 6 && len(parts) != 7 {
		return nil, false, errFieldCount(len(parts), "6 or 7")
	}

	values := make([]int64, len(parts))
	for i, s := range parts {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false, err
		}
		if i < 5 && v < 0 {
			return nil, false, errors.New("negative coordinate")
		}
		values[i] = v
	}

	exon := &model.Exon{
		AbsoluteStart: values[0],
		AbsoluteEnd:   values[1],
		RelativeStart: values[2],
		RelativeEnd:   values[3],
	}
	exon.Length = model.SpanLength(exon.AbsoluteStart, exon.AbsoluteEnd)
	if values[5] >= 0 {
		exon.UTR5Length = model.Ptr(values[5])
	}
	if len(values) == 7 && values[6] >= 0 {
		exon.UTR3Length = model.Ptr(values[6])
	}
	return exon, values[4] == 1, nil
}
