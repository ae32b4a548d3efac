package parse

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

var (
	estIDRE    = regexp.MustCompile(`/gb=([A-Z_0-9]+)`)
	cloneEndRE = regexp.MustCompile(`/clone_end=([35])`)
	pasRE      = regexp.MustCompile(`^#polyad\S*=1`)
)

// ParseFactorizations reads the per-EST factorization blocks into
// g.Factorizations and counts processed transcripts.
//
// Block layout:
//
//	>/gb=AB000001 /clone_end=3
//	#polya=1
//	#polyad_signal=1
//	1 120 501 620 ACGT... ACGT...
func (p *Parser) ParseFactorizations(r io.Reader, name string, g *model.Gene) error {
	lr := newLineReader(r, name)

	var (
		current    *model.Factorization
		pasPending bool
	)
	for lr.next() {
		line := trimEOL(lr.text)

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, ">"):
			m := estIDRE.FindStringSubmatch(line)
			if m == nil {
				return lr.fail("factorization header without /gb= identifier", nil)
			}
			current = &model.Factorization{EST: m[1]}
			if cm := cloneEndRE.FindStringSubmatch(line); cm != nil {
				current.CloneEnd = cm[1]
			}
			if _, dup := g.Factorizations[current.EST]; dup {
				p.logger.Warn("duplicate factorization replaces earlier block",
					zap.String("file", name), zap.String("est", current.EST))
			}
			g.Factorizations[current.EST] = current
			g.ProcessedTranscripts++
			pasPending = false

		case strings.HasPrefix(line, "#polya=1"):
			if current == nil {
				return lr.fail("polyA marker outside factorization block", nil)
			}
			current.PolyA = true

		case pasRE.MatchString(line):
			if current == nil {
				return lr.fail("PAS marker outside factorization block", nil)
			}
			current.PAS = true
			pasPending = true

		case strings.HasPrefix(line, "#"):
			continue

		default:
			fr, err := parseFragment(line)
			if err != nil {
				return lr.fail("malformed factorization fragment", err)
			}
			if current == nil {
				return lr.fail("fragment outside factorization block", nil)
			}
			current.Fragments = append(current.Fragments, fr)
			if pasPending {
				// The last fragment after the marker is the 3' end.
				current.PASFragment = fr
			}
		}
	}
	if err := lr.err(); err != nil {
		return err
	}

	p.logger.Debug("read factorizations",
		zap.String("file", name),
		zap.Int("transcripts", g.ProcessedTranscripts))
	return nil
}

// parseFragment parses "estStart estEnd relStart relEnd [estSeq] genomeSeq".
// With five fields the single sequence stands for both sides.
func parseFragment(line string) (*model.Fragment, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 && len(fields) != 6 {
		return nil, errFieldCount(len(fields), "5 or 6")
	}

	var coords [4]int64
	for i := range coords {
		v, err := strconv.ParseUint(fields[i], 10, 63)
		if err != nil {
			return nil, err
		}
		coords[i] = int64(v)
	}

	fr := &model.Fragment{
		ESTStart:      coords[0],
		ESTEnd:        coords[1],
		RelativeStart: coords[2],
		RelativeEnd:   coords[3],
	}
	if len(fields) == 6 {
		fr.ESTSequence, fr.GenomeSequence = fields[4], fields[5]
	} else {
		fr.ESTSequence, fr.GenomeSequence = fields[4], fields[4]
	}
	return fr, nil
}
