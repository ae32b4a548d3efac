// Package model holds the gene-locus model assembled from the upstream
// alignment artifacts: genome, isoforms with their exons, predicted introns
// and the per-EST factorizations used to justify them.
package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// FormatVersion is the schema version of the structured record.
const FormatVersion = 5

// Genome describes the genomic region the locus was reconstructed on.
type Genome struct {
	SequenceID string `json:"sequence_id"` // e.g. chr7
	Strand     string `json:"strand"`      // "+" or "-"
	Length     int64  `json:"length"`      // bases
}

// IsReverseStrand returns true if the locus is on the minus strand.
func (g Genome) IsReverseStrand() bool {
	return g.Strand == "-"
}

// Gene is the aggregate built once per run. Factorizations are an
// intermediate used only for linking and PAS detection and are never
// serialized.
type Gene struct {
	FormatVersion        int      `json:"file_format_version"`
	ProgramVersion       string   `json:"program_version"`
	Genome               Genome   `json:"genome"`
	Isoforms             Isoforms `json:"isoforms"`
	Introns              Introns  `json:"introns"`
	ProcessedTranscripts int      `json:"number_of_processed_transcripts"`
	PredictedIsoforms    int      `json:"number_of_predicted_isoforms"`

	Factorizations map[string]*Factorization `json:"-"`
}

// NewGene creates an empty gene model on the given genome.
func NewGene(genome Genome) *Gene {
	return &Gene{
		FormatVersion:  FormatVersion,
		Genome:         genome,
		Isoforms:       make(Isoforms),
		Introns:        make(Introns),
		Factorizations: make(map[string]*Factorization),
	}
}

// Canonicalize orders every isoform's exons 5'->3' and assembles the
// transcript sequences.
func (g *Gene) Canonicalize() {
	for _, iso := range g.Isoforms {
		iso.Canonicalize(g.Genome.IsReverseStrand())
	}
}

// Isoforms maps isoform index to isoform. It serializes with keys in
// ascending numeric order.
type Isoforms map[int]*Isoform

// Indexes returns the isoform indexes in ascending order.
func (s Isoforms) Indexes() []int {
	return sortedIndexes(s)
}

// MarshalJSON implements json.Marshaler.
func (s Isoforms) MarshalJSON() ([]byte, error) {
	return marshalIndexed(s)
}

// Introns maps the 1-based intron index to intron.
type Introns map[int]*Intron

// Indexes returns the intron indexes in ascending order.
func (s Introns) Indexes() []int {
	return sortedIndexes(s)
}

// MarshalJSON implements json.Marshaler.
func (s Introns) MarshalJSON() ([]byte, error) {
	return marshalIndexed(s)
}

func sortedIndexes[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// marshalIndexed renders an int-keyed map as a JSON object. encoding/json
// would order the keys as strings ("10" before "2").
func marshalIndexed[T any](m map[int]T) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedIndexes(m) {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(k)))
		buf.WriteByte(':')
		v, err := json.Marshal(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Ptr returns a pointer to v, for populating optional fields.
func Ptr[T any](v T) *T {
	return &v
}
