package parse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

const intronFieldCount = 20

// Intron file columns.
const (
	colRelStart = iota
	colRelEnd
	colAbsStart
	colAbsEnd
	colLength
	colSupport
	colESTs
	colDonorErr
	colAcceptorErr
	colDonorScore
	colAcceptorScore
	colBPSScore
	colBPSPosition
	colType
	colPattern
	colRepeat
	colDonorSuffix
	colPrefix
	colSuffix
	colAcceptorPrefix
)

// ParseIntrons reads the tab-separated predicted introns. Introns are
// numbered from 1 in file order.
func (p *Parser) ParseIntrons(r io.Reader, name string, g *model.Gene) error {
	lr := newLineReader(r, name)

	index := 1
	for lr.next() {
		line := strings.TrimRight(lr.text, "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != intronFieldCount {
			return lr.fail("malformed intron record", errFieldCount(len(fields), strconv.Itoa(intronFieldCount)))
		}

		in, err := parseIntronFields(fields)
		if err != nil {
			return lr.fail("malformed intron record", err)
		}
		in.Index = index
		g.Introns[index] = in
		index++
	}
	if err := lr.err(); err != nil {
		return err
	}

	p.logger.Debug("read introns", zap.String("file", name), zap.Int("introns", len(g.Introns)))
	return nil
}

func parseIntronFields(fields []string) (*model.Intron, error) {
	var ints [7]int64
	for i, col := range []int{colRelStart, colRelEnd, colAbsStart, colAbsEnd, colLength, colSupport, colBPSPosition} {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[col]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col+1, err)
		}
		ints[i] = v
	}

	var floats [5]float64
	for i, col := range []int{colDonorErr, colAcceptorErr, colDonorScore, colAcceptorScore, colBPSScore} {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col+1, err)
		}
		floats[i] = v
	}

	in := &model.Intron{
		RelativeStart:          ints[0],
		RelativeEnd:            ints[1],
		AbsoluteStart:          ints[2],
		AbsoluteEnd:            ints[3],
		Length:                 ints[4],
		SupportCount:           int(ints[5]),
		SupportingTranscripts:  make(map[string]*model.SupportDetail),
		DonorAlignmentError:    floats[0],
		AcceptorAlignmentError: floats[1],
		DonorScore:             floats[2],
		AcceptorScore:          floats[3],
		BPSScore:               floats[4],
		Type:                   fields[colType],
		Pattern:                fields[colPattern],
		RepeatSequence:         fields[colRepeat],
		DonorExonSuffix:        fields[colDonorSuffix],
		Prefix:                 fields[colPrefix],
		Suffix:                 fields[colSuffix],
		AcceptorExonPrefix:     fields[colAcceptorPrefix],
	}
	if bps := ints[6]; bps >= 0 {
		in.BPSPosition = model.Ptr(bps)
	}
	for _, est := range strings.Split(fields[colESTs], ",") {
		if est != "" {
			in.SupportingTranscripts[est] = nil
		}
	}
	return in, nil
}
