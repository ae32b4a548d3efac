package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintron/pintron/internal/model"
)

// exonDef is an exon as read from the geometry file.
type exonDef struct {
	start, end int64 // absolute; relative coordinates are the same
	utr5, utr3 int64 // -1 = absent
	seq        string
}

func buildIsoform(index, cdsStart, cdsEnd int, exons ...exonDef) *model.Isoform {
	iso := model.NewIsoform(index)
	iso.AnnotatedCDS = true
	iso.CDSStart, iso.CDSEnd = model.Ptr(cdsStart), model.Ptr(cdsEnd)
	for i, s := range exons {
		e := &model.Exon{
			AbsoluteStart:      s.start,
			AbsoluteEnd:        s.end,
			RelativeStart:      s.start,
			RelativeEnd:        s.end,
			Length:             model.SpanLength(s.start, s.end),
			LengthOnTranscript: int64(len(s.seq)),
			Sequence:           s.seq,
			FileOrder:          i,
		}
		if s.utr5 >= 0 {
			e.UTR5Length = model.Ptr(s.utr5)
		}
		if s.utr3 >= 0 {
			e.UTR3Length = model.Ptr(s.utr3)
		}
		iso.Exons = append(iso.Exons, e)
	}
	iso.NumberOfExons = len(iso.Exons)
	return iso
}

func geneOf(strand string, isoforms ...*model.Isoform) *model.Gene {
	g := model.NewGene(model.Genome{SequenceID: "chr1", Strand: strand, Length: 1000})
	for _, iso := range isoforms {
		g.Isoforms[iso.Index] = iso
	}
	g.Canonicalize()
	return g
}

func span(start, end *int64) []int64 {
	if start == nil || end == nil {
		return nil
	}
	return []int64{*start, *end}
}

func frame(f *int) int {
	if f == nil {
		return -1
	}
	return *f
}

func TestAnnotate_PlusStrand(t *testing.T) {
	// cccATGAAACCCGGTTAAgg
	iso := buildIsoform(1, 4, 18,
		exonDef{101, 110, 3, -1, "cccATGAAAC"},
		exonDef{201, 210, 0, 2, "CCGGTTAAgg"},
	)
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "ATG", reports[0].StartCodon)
	assert.Equal(t, "TAA", reports[0].StopCodon)
	assert.Empty(t, reports[0].Warnings)

	a, b := iso.Exons[0], iso.Exons[1]
	assert.Equal(t, int64(10), *a.CumulativeLength)
	assert.Equal(t, int64(20), *b.CumulativeLengthOnTranscript)

	assert.Equal(t, []int64{101, 103}, span(a.UTR5Start, a.UTR5End))
	assert.Equal(t, []int64{104, 106}, span(a.StartCodonStart, a.StartCodonEnd))
	assert.Equal(t, []int64{104, 110}, span(a.CDSStart, a.CDSEnd))
	assert.Nil(t, span(a.StopCodonStart, a.StopCodonEnd))
	assert.Nil(t, span(a.UTR3Start, a.UTR3End))
	assert.Equal(t, 0, frame(a.StartCodonFrame))
	assert.Equal(t, 0, frame(a.CDSFrame))

	assert.Nil(t, span(b.UTR5Start, b.UTR5End))
	assert.Nil(t, span(b.StartCodonStart, b.StartCodonEnd))
	assert.Equal(t, []int64{201, 205}, span(b.CDSStart, b.CDSEnd))
	assert.Equal(t, []int64{206, 208}, span(b.StopCodonStart, b.StopCodonEnd))
	assert.Equal(t, []int64{209, 210}, span(b.UTR3Start, b.UTR3End))
	assert.Equal(t, 2, frame(b.CDSFrame))
	assert.Equal(t, 0, frame(b.StopCodonFrame))
}

func TestAnnotate_MinusStrand(t *testing.T) {
	// Exons listed in genomic order; canonical order puts 901-910 first.
	iso := buildIsoform(1, 4, 18,
		exonDef{801, 810, 0, 2, "CCGGTTAAgg"},
		exonDef{901, 910, 3, -1, "cccATGAAAC"},
	)
	// File order follows the transcript.
	iso.Exons[0].FileOrder, iso.Exons[1].FileOrder = 1, 0
	g := geneOf("-", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.Equal(t, "ATG", reports[0].StartCodon)
	assert.Equal(t, "TAA", reports[0].StopCodon)
	assert.Empty(t, reports[0].Warnings)

	a, b := iso.Exons[0], iso.Exons[1]
	require.Equal(t, int64(901), a.AbsoluteStart)

	assert.Equal(t, []int64{910, 908}, span(a.UTR5Start, a.UTR5End))
	assert.Equal(t, []int64{905, 907}, span(a.StartCodonStart, a.StartCodonEnd))
	assert.Equal(t, []int64{907, 901}, span(a.CDSStart, a.CDSEnd))
	assert.Equal(t, 0, frame(a.CDSFrame))

	assert.Equal(t, []int64{810, 806}, span(b.CDSStart, b.CDSEnd))
	assert.Equal(t, []int64{803, 805}, span(b.StopCodonStart, b.StopCodonEnd))
	assert.Equal(t, []int64{801, 802}, span(b.UTR3Start, b.UTR3End))
	assert.Equal(t, 2, frame(b.CDSFrame))
	assert.Equal(t, 0, frame(b.StopCodonFrame))
}

func TestAnnotate_SplitStartCodon(t *testing.T) {
	// ccccAT|GAAACCCTAAgg
	iso := buildIsoform(1, 5, 16,
		exonDef{101, 106, 4, -1, "ccccAT"},
		exonDef{201, 212, 0, 2, "GAAACCCTAAgg"},
	)
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.Len(t, reports[0].StartCodon, 3)
	assert.Equal(t, "ATG", reports[0].StartCodon)
	assert.Equal(t, "TAA", reports[0].StopCodon)

	a, b := iso.Exons[0], iso.Exons[1]
	assert.Equal(t, []int64{105, 106}, span(a.StartCodonStart, a.StartCodonEnd))
	assert.Equal(t, []int64{201, 201}, span(b.StartCodonStart, b.StartCodonEnd))
	assert.Equal(t, []int64{105, 106}, span(a.CDSStart, a.CDSEnd))
	assert.Equal(t, []int64{201, 207}, span(b.CDSStart, b.CDSEnd))
	assert.Equal(t, []int64{208, 210}, span(b.StopCodonStart, b.StopCodonEnd))

	// Only the exon holding the first base carries a start codon frame.
	withFrame := 0
	for _, e := range iso.Exons {
		if e.StartCodonFrame != nil {
			withFrame++
		}
	}
	assert.Equal(t, 1, withFrame)
	assert.Equal(t, 0, frame(a.StartCodonFrame))
	assert.Equal(t, 1, frame(b.CDSFrame))
}

func TestAnnotate_SplitStopCodon(t *testing.T) {
	// ATGCCCTA|Agggg
	iso := buildIsoform(1, 1, 9,
		exonDef{101, 108, 0, -1, "ATGCCCTA"},
		exonDef{201, 205, 0, 4, "Agggg"},
	)
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.Equal(t, "TAA", reports[0].StopCodon)

	a, b := iso.Exons[0], iso.Exons[1]
	assert.Equal(t, []int64{101, 103}, span(a.StartCodonStart, a.StartCodonEnd))
	assert.Equal(t, []int64{101, 106}, span(a.CDSStart, a.CDSEnd))
	assert.Equal(t, []int64{107, 108}, span(a.StopCodonStart, a.StopCodonEnd))
	assert.Equal(t, []int64{201, 201}, span(b.StopCodonStart, b.StopCodonEnd))
	assert.Equal(t, []int64{202, 205}, span(b.UTR3Start, b.UTR3End))
	assert.False(t, b.HasCDS())

	assert.Equal(t, 0, frame(a.StopCodonFrame))
	assert.Equal(t, 2, frame(b.StopCodonFrame))
}

func TestAnnotate_FramesFollowFileOrder(t *testing.T) {
	iso := buildIsoform(1, 4, 18,
		exonDef{101, 110, 3, -1, "cccATGAAAC"},
		exonDef{201, 210, 0, 2, "CCGGTTAAgg"},
	)
	iso.Exons[0].FileOrder, iso.Exons[1].FileOrder = 1, 0
	g := geneOf("+", iso)

	_, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)

	// The second exon is visited first: 5 CDS bases before the first exon.
	assert.Equal(t, 0, frame(iso.Exons[1].CDSFrame))
	assert.Equal(t, 1, frame(iso.Exons[0].CDSFrame))
	assert.Equal(t, 1, frame(iso.Exons[0].StartCodonFrame))
}

func TestAnnotate_CodonWarnings(t *testing.T) {
	iso := buildIsoform(7, 4, 18,
		exonDef{101, 110, 3, -1, "cccCTGAAAC"},
		exonDef{201, 210, 0, 2, "CCGGTTGAgg"},
	)
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	require.Len(t, reports[0].Warnings, 1)

	w := reports[0].Warnings[0]
	assert.Equal(t, 7, w.Isoform)
	assert.Equal(t, "first", w.Position)
	assert.Equal(t, "CTG", w.Found)
	assert.Equal(t, "isoform 7: found CTG instead of ATG as first codon", w.String())

	// Coordinates are derived regardless.
	assert.True(t, iso.Exons[0].HasStartCodon())
}

func TestAnnotate_MissingUTRHint(t *testing.T) {
	iso := buildIsoform(1, 4, 18,
		exonDef{101, 110, -1, -1, "cccATGAAAC"},
		exonDef{201, 210, -1, -1, "CCGGTTAAgg"},
	)
	g := geneOf("+", iso)

	_, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.Nil(t, iso.Exons[0].UTR5Start)
	assert.Nil(t, iso.Exons[1].UTR3Start)
	assert.True(t, iso.Exons[0].HasCDS())
}

func TestAnnotate_UTROnlyExons(t *testing.T) {
	// ccccc|ccATGAAACC|CGGTTAAgg|ggggg
	iso := buildIsoform(1, 8, 22,
		exonDef{51, 55, 5, -1, "ccccc"},
		exonDef{101, 110, 2, -1, "ccATGAAACC"},
		exonDef{201, 209, 0, 2, "CGGTTAAgg"},
		exonDef{301, 305, -1, 5, "ggggg"},
	)
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.Equal(t, "ATG", reports[0].StartCodon)
	assert.Equal(t, "TAA", reports[0].StopCodon)
	assert.Empty(t, reports[0].Warnings)

	first, last := iso.Exons[0], iso.Exons[3]
	assert.Equal(t, []int64{51, 55}, span(first.UTR5Start, first.UTR5End))
	assert.False(t, first.HasCDS())
	assert.Nil(t, first.CDSFrame)
	assert.Equal(t, []int64{301, 305}, span(last.UTR3Start, last.UTR3End))
	assert.False(t, last.HasCDS())

	assert.Equal(t, []int64{101, 102}, span(iso.Exons[1].UTR5Start, iso.Exons[1].UTR5End))
	assert.Equal(t, []int64{103, 110}, span(iso.Exons[1].CDSStart, iso.Exons[1].CDSEnd))
	assert.Equal(t, []int64{201, 204}, span(iso.Exons[2].CDSStart, iso.Exons[2].CDSEnd))
	assert.Equal(t, []int64{205, 207}, span(iso.Exons[2].StopCodonStart, iso.Exons[2].StopCodonEnd))
	assert.Equal(t, []int64{208, 209}, span(iso.Exons[2].UTR3Start, iso.Exons[2].UTR3End))

	assert.Equal(t, 0, frame(iso.Exons[1].CDSFrame))
	assert.Equal(t, 1, frame(iso.Exons[2].CDSFrame))
}

func TestAnnotate_NoCDS(t *testing.T) {
	iso := model.NewIsoform(3)
	iso.Exons = []*model.Exon{{AbsoluteStart: 1, AbsoluteEnd: 10, RelativeStart: 1, RelativeEnd: 10, Sequence: "acgtacgtac"}}
	g := geneOf("+", iso)

	reports, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].StartCodon)
	assert.Nil(t, iso.Exons[0].CumulativeLength)
	assert.Nil(t, iso.Exons[0].CDSStart)
}

func TestAnnotate_PAS(t *testing.T) {
	tests := []struct {
		name      string
		fragment  model.Fragment
		tolerance int
		want      bool
	}{
		{"within tolerance", model.Fragment{RelativeStart: 301, RelativeEnd: 318}, DefaultPASTolerance, true},
		{"shorter fragment", model.Fragment{RelativeStart: 301, RelativeEnd: 290}, DefaultPASTolerance, true},
		{"outside tolerance", model.Fragment{RelativeStart: 301, RelativeEnd: 318}, 2, false},
		{"different start", model.Fragment{RelativeStart: 300, RelativeEnd: 315}, DefaultPASTolerance, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iso := model.NewIsoform(2)
			iso.PolyA = true
			iso.Exons = []*model.Exon{
				{AbsoluteStart: 101, AbsoluteEnd: 110, RelativeStart: 101, RelativeEnd: 110},
				{AbsoluteStart: 301, AbsoluteEnd: 315, RelativeStart: 301, RelativeEnd: 315},
			}
			g := geneOf("+", iso)
			fr := tt.fragment
			g.Factorizations["EST2"] = &model.Factorization{
				EST: "EST2", PAS: true, Fragments: []*model.Fragment{&fr}, PASFragment: &fr,
			}

			a := NewAnnotator()
			a.SetPASTolerance(tt.tolerance)
			_, err := a.Annotate(g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, iso.PAS)
		})
	}
}

func TestAnnotate_PASRequiresPolyA(t *testing.T) {
	iso := model.NewIsoform(2)
	iso.Exons = []*model.Exon{{RelativeStart: 301, RelativeEnd: 315}}
	g := geneOf("+", iso)
	fr := &model.Fragment{RelativeStart: 301, RelativeEnd: 315}
	g.Factorizations["E"] = &model.Factorization{EST: "E", PAS: true, Fragments: []*model.Fragment{fr}, PASFragment: fr}

	_, err := NewAnnotator().Annotate(g)
	require.NoError(t, err)
	assert.False(t, iso.PAS)
}

func TestAnnotate_ReportsInIndexOrder(t *testing.T) {
	var isoforms []*model.Isoform
	for _, idx := range []int{12, 3, 40, 7, 1} {
		isoforms = append(isoforms, buildIsoform(idx, 4, 18,
			exonDef{101, 110, 3, -1, "cccATGAAAC"},
			exonDef{201, 210, 0, 2, "CCGGTTAAgg"},
		))
	}
	g := geneOf("+", isoforms...)

	a := NewAnnotator()
	a.SetWorkers(3)
	reports, err := a.Annotate(g)
	require.NoError(t, err)

	var got []int
	for _, r := range reports {
		got = append(got, r.Isoform)
		assert.Equal(t, "ATG", r.StartCodon)
	}
	assert.Equal(t, []int{1, 3, 7, 12, 40}, got)
}
