package model

import (
	"slices"
	"sort"
	"strings"
)

// Isoform is one predicted transcript variant of the gene.
type Isoform struct {
	Index         int  `json:"-"`
	NumberOfExons int  `json:"number_of_exons"`
	Length        int  `json:"length"`
	AnnotatedCDS  bool `json:"annotated_CDS?"`
	CDSStart      *int `json:"CDS_start,omitempty"` // 1-based, transcript-relative
	CDSEnd        *int `json:"CDS_end,omitempty"`
	CDSLength     *int `json:"CDS_length,omitempty"`

	StartCodon          *bool  `json:"start_codon?,omitempty"`
	StopCodon           *bool  `json:"stop_codon?,omitempty"`
	ReferenceStartCodon *bool  `json:"reference_start_codon?,omitempty"`
	ReferenceStopCodon  *bool  `json:"reference_stop_codon?,omitempty"`
	RefSeqID            string `json:"RefSeqID,omitempty"`
	ProteinLength       *int   `json:"protein_length,omitempty"`
	ProteinIncomplete   *bool  `json:"protein_incomplete?,omitempty"`
	ReferenceFrame      bool   `json:"reference_frame?"`
	VariantType         string `json:"variant_type,omitempty"`

	PolyA      bool `json:"polyA?"`
	PAS        bool `json:"PAS?"`
	Reference  bool `json:"reference?"`
	FromRefSeq bool `json:"from_RefSeq?"`
	NMDFlag    int  `json:"NMD_flag"`

	Exons    []*Exon `json:"exons"`
	Introns  []int   `json:"introns"`
	Sequence string  `json:"sequence"`
}

// NewIsoform creates an isoform with no exons.
func NewIsoform(index int) *Isoform {
	return &Isoform{
		Index:   index,
		Exons:   []*Exon{},
		Introns: []int{},
	}
}

// HasCDS returns true if the isoform carries an annotated CDS span.
func (iso *Isoform) HasCDS() bool {
	return iso.AnnotatedCDS && iso.CDSStart != nil && iso.CDSEnd != nil
}

// Canonicalize sorts exons by ascending transcript-relative end and, on the
// minus strand, reverses the result so that exons run 5'->3'. The
// transcript sequence is reassembled from the new order.
func (iso *Isoform) Canonicalize(reverse bool) {
	sort.SliceStable(iso.Exons, func(i, j int) bool {
		return iso.Exons[i].RelativeEnd < iso.Exons[j].RelativeEnd
	})
	if reverse {
		slices.Reverse(iso.Exons)
	}

	var sb strings.Builder
	for _, e := range iso.Exons {
		sb.WriteString(e.Sequence)
	}
	iso.Sequence = sb.String()
}

// TranscriptLength sums the exons' lengths on transcript.
func (iso *Isoform) TranscriptLength() int64 {
	var n int64
	for _, e := range iso.Exons {
		n += e.LengthOnTranscript
	}
	return n
}

// ExonsInFileOrder returns the exons in the order they were read.
func (iso *Isoform) ExonsInFileOrder() []*Exon {
	exons := slices.Clone(iso.Exons)
	sort.SliceStable(exons, func(i, j int) bool {
		return exons[i].FileOrder < exons[j].FileOrder
	})
	return exons
}

// Exon is a single exon of an isoform. Fields after FileOrder are derived
// by the annotator and present only where they apply.
type Exon struct {
	AbsoluteStart      int64  `json:"absolute_start"` // may exceed AbsoluteEnd
	AbsoluteEnd        int64  `json:"absolute_end"`
	RelativeStart      int64  `json:"relative_start"`
	RelativeEnd        int64  `json:"relative_end"`
	Length             int64  `json:"length"` // genomic
	LengthOnTranscript int64  `json:"length_on_transcript"`
	Sequence           string `json:"sequence"`
	UTR5Length         *int64 `json:"5UTR_length,omitempty"`
	UTR3Length         *int64 `json:"3UTR_length,omitempty"`

	FileOrder int `json:"-"`

	CumulativeLength             *int64 `json:"cumulative_length,omitempty"`
	CumulativeLengthOnTranscript *int64 `json:"cumulative_length_on_transcript,omitempty"`

	UTR5Start *int64 `json:"absolute_5UTR_start,omitempty"`
	UTR5End   *int64 `json:"absolute_5UTR_end,omitempty"`
	UTR3Start *int64 `json:"absolute_3UTR_start,omitempty"`
	UTR3End   *int64 `json:"absolute_3UTR_end,omitempty"`

	StartCodonStart *int64 `json:"start_codon_absolute_start,omitempty"`
	StartCodonEnd   *int64 `json:"start_codon_absolute_end,omitempty"`
	StartCodonFrame *int   `json:"start_codon_frame,omitempty"`

	StopCodonStart *int64 `json:"stop_codon_absolute_start,omitempty"`
	StopCodonEnd   *int64 `json:"stop_codon_absolute_end,omitempty"`
	StopCodonFrame *int   `json:"stop_codon_frame,omitempty"`

	CDSStart *int64 `json:"CDS_absolute_start,omitempty"`
	CDSEnd   *int64 `json:"CDS_absolute_end,omitempty"`
	CDSFrame *int   `json:"CDS_frame,omitempty"`
}

// UTR5 returns the 5'UTR length hint, 0 when absent.
func (e *Exon) UTR5() int64 {
	if e.UTR5Length == nil {
		return 0
	}
	return *e.UTR5Length
}

// UTR3 returns the 3'UTR length hint, 0 when absent.
func (e *Exon) UTR3() int64 {
	if e.UTR3Length == nil {
		return 0
	}
	return *e.UTR3Length
}

// HasCDS returns true if a CDS span was attributed to the exon.
func (e *Exon) HasCDS() bool {
	return e.CDSStart != nil && e.CDSEnd != nil
}

// HasStartCodon returns true if the exon holds part of the start codon.
func (e *Exon) HasStartCodon() bool {
	return e.StartCodonStart != nil && e.StartCodonEnd != nil
}

// HasStopCodon returns true if the exon holds part of the stop codon.
func (e *Exon) HasStopCodon() bool {
	return e.StopCodonStart != nil && e.StopCodonEnd != nil
}

// SpanLength returns the inclusive length of a span given in either order.
func SpanLength(start, end int64) int64 {
	if end < start {
		return start - end + 1
	}
	return end - start + 1
}
