// Package output serializes the gene model as a JSON structured record and
// as GTF annotation lines.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pintron/pintron/internal/model"
)

// Source is the GTF source column of every feature line.
const Source = "PIntron"

// Filter selects which isoforms are emitted.
type Filter int

const (
	AllIsoforms Filter = iota
	CDSOnly            // only isoforms with an annotated CDS
)

// Includes reports whether iso passes the filter.
func (f Filter) Includes(iso *model.Isoform) bool {
	return f == AllIsoforms || iso.AnnotatedCDS
}

// Feature is one GTF line. Start <= End.
type Feature struct {
	SequenceID string
	Type       string
	Start      int64
	End        int64
	Strand     string
	Frame      *int
	Gene       string
	Isoform    int
}

// TranscriptID returns the transcript identifier used in the attributes.
func (f Feature) TranscriptID() string {
	return f.Gene + "." + strconv.Itoa(f.Isoform)
}

// String renders the feature as a GTF line without the trailing newline.
func (f Feature) String() string {
	frame := "."
	if f.Frame != nil {
		frame = strconv.Itoa(*f.Frame)
	}
	return strings.Join([]string{
		f.SequenceID,
		Source,
		f.Type,
		strconv.FormatInt(f.Start, 10),
		strconv.FormatInt(f.End, 10),
		".",
		f.Strand,
		frame,
		`gene_id "` + f.Gene + `"; transcript_id "` + f.TranscriptID() + `";`,
	}, "\t")
}

// Features lists the GTF features of g for the isoforms passing filter, in
// ascending isoform order and stored exon order. Each exon yields an exon
// line followed by 5UTR, start_codon, CDS, stop_codon and 3UTR lines for
// the spans it carries.
func Features(g *model.Gene, gene string, filter Filter) []Feature {
	var out []Feature
	for _, idx := range g.Isoforms.Indexes() {
		iso := g.Isoforms[idx]
		if !filter.Includes(iso) {
			continue
		}
		add := func(typ string, start, end int64, frame *int) {
			if end < start {
				start, end = end, start
			}
			out = append(out, Feature{
				SequenceID: g.Genome.SequenceID,
				Type:       typ,
				Start:      start,
				End:        end,
				Strand:     g.Genome.Strand,
				Frame:      frame,
				Gene:       gene,
				Isoform:    idx,
			})
		}
		for _, e := range iso.Exons {
			add("exon", e.AbsoluteStart, e.AbsoluteEnd, nil)
			if e.UTR5Start != nil && e.UTR5End != nil {
				add("5UTR", *e.UTR5Start, *e.UTR5End, nil)
			}
			if e.HasStartCodon() {
				add("start_codon", *e.StartCodonStart, *e.StartCodonEnd, e.StartCodonFrame)
			}
			if e.HasCDS() {
				add("CDS", *e.CDSStart, *e.CDSEnd, e.CDSFrame)
			}
			if e.HasStopCodon() {
				add("stop_codon", *e.StopCodonStart, *e.StopCodonEnd, e.StopCodonFrame)
			}
			if e.UTR3Start != nil && e.UTR3End != nil {
				add("3UTR", *e.UTR3Start, *e.UTR3End, nil)
			}
		}
	}
	return out
}

// GTFWriter writes gene models as GTF.
type GTFWriter struct {
	w      *bufio.Writer
	gene   string
	filter Filter
}

// NewGTFWriter creates a GTF writer naming features after gene.
func NewGTFWriter(w io.Writer, gene string, filter Filter) *GTFWriter {
	return &GTFWriter{
		w:      bufio.NewWriter(w),
		gene:   gene,
		filter: filter,
	}
}

// Write writes every feature of g.
func (gw *GTFWriter) Write(g *model.Gene) error {
	for _, f := range Features(g, gw.gene, gw.filter) {
		if _, err := gw.w.WriteString(f.String() + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (gw *GTFWriter) Flush() error {
	return gw.w.Flush()
}
