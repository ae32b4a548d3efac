package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exon(relStart, relEnd int64, seq string) *Exon {
	return &Exon{RelativeStart: relStart, RelativeEnd: relEnd, Sequence: seq, LengthOnTranscript: int64(len(seq))}
}

func TestIsoformCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		reverse bool
		want    []int64
		seq     string
	}{
		{"plus strand", false, []int64{10, 20, 30}, "aaccgg"},
		{"minus strand", true, []int64{30, 20, 10}, "ggccaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iso := NewIsoform(1)
			iso.Exons = []*Exon{exon(21, 30, "gg"), exon(1, 10, "aa"), exon(11, 20, "cc")}
			for i, e := range iso.Exons {
				e.FileOrder = i
			}
			iso.Canonicalize(tt.reverse)

			var ends []int64
			for _, e := range iso.Exons {
				ends = append(ends, e.RelativeEnd)
			}
			assert.Equal(t, tt.want, ends)
			assert.Equal(t, tt.seq, iso.Sequence)
			assert.Equal(t, int64(6), iso.TranscriptLength())

			var order []int
			for _, e := range iso.ExonsInFileOrder() {
				order = append(order, e.FileOrder)
			}
			assert.Equal(t, []int{0, 1, 2}, order)
		})
	}
}

func TestGeneCanonicalize(t *testing.T) {
	g := NewGene(Genome{SequenceID: "chr7", Strand: "-"})
	iso := NewIsoform(3)
	iso.Exons = []*Exon{exon(1, 10, "a"), exon(11, 20, "c")}
	g.Isoforms[3] = iso

	g.Canonicalize()
	assert.Equal(t, "ca", iso.Sequence)
	assert.True(t, g.Genome.IsReverseStrand())
}

func TestIsoformsMarshalNumericOrder(t *testing.T) {
	s := Isoforms{}
	for _, idx := range []int{10, 2, 1} {
		s[idx] = NewIsoform(idx)
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var keys []string
	dec := json.NewDecoder(bytes.NewReader(data))
	_, err = dec.Token() // {
	require.NoError(t, err)
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	assert.Equal(t, []string{"1", "2", "10"}, keys)

	var back Isoforms
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []int{1, 2, 10}, back.Indexes())
}

func TestIntronsMarshalEmpty(t *testing.T) {
	data, err := json.Marshal(Introns{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestSupportJSON_UnresolvedAsEmptyObject(t *testing.T) {
	in := &Intron{SupportingTranscripts: Support{
		"EST1": {DonorFactorSuffix: "AAAC", DonorFactorStart: 1, DonorFactorEnd: 10},
		"EST2": nil,
	}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"EST2":{}`)
	assert.NotContains(t, string(data), "null")

	var out Intron
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.SupportingTranscripts, 2)
	assert.Nil(t, out.SupportingTranscripts["EST2"])
	assert.Equal(t, in.SupportingTranscripts["EST1"], out.SupportingTranscripts["EST1"])
}

func TestGeneJSONOmitsFactorizations(t *testing.T) {
	g := NewGene(Genome{SequenceID: "chr1", Strand: "+", Length: 10})
	g.Factorizations["E1"] = &Factorization{EST: "E1"}
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "E1")
	assert.Contains(t, string(data), `"file_format_version":5`)
}

func TestExonHelpers(t *testing.T) {
	e := &Exon{UTR5Length: Ptr[int64](4)}
	assert.Equal(t, int64(4), e.UTR5())
	assert.Equal(t, int64(0), e.UTR3())
	assert.False(t, e.HasCDS())

	e.CDSStart, e.CDSEnd = Ptr[int64](10), Ptr[int64](5)
	assert.True(t, e.HasCDS())

	assert.Equal(t, int64(6), SpanLength(10, 5))
	assert.Equal(t, int64(6), SpanLength(5, 10))
	assert.Equal(t, int64(1), SpanLength(7, 7))
}

func TestFactorizationLookup(t *testing.T) {
	f := &Factorization{Fragments: []*Fragment{
		{RelativeStart: 1, RelativeEnd: 10},
		{RelativeStart: 21, RelativeEnd: 30},
	}}
	assert.Len(t, f.FragmentsEndingAt(10), 1)
	assert.Empty(t, f.FragmentsEndingAt(11))
	assert.Len(t, f.FragmentsStartingAt(21), 1)
}

func TestErrors(t *testing.T) {
	ioErr := &IOError{Path: "a.txt", Err: errors.New("boom")}
	assert.Equal(t, "cannot read a.txt: boom", ioErr.Error())

	pe := &ParseError{File: "b.txt", Line: 3, Text: "xx", Reason: "bad line"}
	assert.Equal(t, `b.txt:3: bad line (line "xx")`, pe.Error())

	ce := Inconsistent(IntronSupport, "intron %d", 4)
	wrapped := fmt.Errorf("link: %w", ce)
	var target *ConsistencyError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, IntronSupport, target.Kind)
	assert.Equal(t, "intron 4", target.Detail)
}
