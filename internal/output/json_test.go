package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintron/pintron/internal/model"
)

func TestWriteModel_Keys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, testGene()))
	doc := buf.String()

	assert.Contains(t, doc, `"file_format_version": 5`)
	assert.Contains(t, doc, `"annotated_CDS?": true`)
	assert.Contains(t, doc, `"start_codon_frame": 0`)
	assert.NotContains(t, doc, "factorizations")

	// Isoform 2 precedes isoform 10.
	assert.Less(t, strings.Index(doc, `"2": {`), strings.Index(doc, `"10": {`))
	// Absent derived fields are omitted on the noncoding exon.
	assert.Equal(t, 1, strings.Count(doc, "absolute_5UTR_start"))
}

func TestReadModel_RoundTrip(t *testing.T) {
	in := testGene()
	in.Introns[1] = &model.Intron{Index: 1, AbsoluteStart: 890, AbsoluteEnd: 801, SupportCount: 1}

	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, in))

	out, err := ReadModel(&buf)
	require.NoError(t, err)

	assert.Equal(t, in.Genome, out.Genome)
	assert.Equal(t, []int{2, 10}, out.Isoforms.Indexes())
	assert.Equal(t, 2, out.Isoforms[2].Index)
	assert.Equal(t, 1, out.Introns[1].Index)
	require.Len(t, out.Isoforms[2].Exons, 2)
	assert.Equal(t, int64(800), out.Isoforms[2].Exons[1].AbsoluteStart)
	assert.Equal(t, Features(in, "G", AllIsoforms), Features(out, "G", AllIsoforms))
}

func TestGTF_OneExonLinePerStoredExon(t *testing.T) {
	var doc bytes.Buffer
	require.NoError(t, WriteModel(&doc, testGene()))
	g, err := ReadModel(&doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewGTFWriter(&buf, "G", AllIsoforms)
	require.NoError(t, w.Write(g))
	require.NoError(t, w.Flush())

	var exons []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		cols := strings.Split(line, "\t")
		if cols[2] == "exon" {
			exons = append(exons, cols[3]+"-"+cols[4])
		}
	}
	assert.Equal(t, []string{"891-900", "791-800", "941-950"}, exons)
}

func TestReadModelFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	require.NoError(t, WriteModel(zw, testGene()))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	g, err := ReadModelFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chr7", g.Genome.SequenceID)
	assert.Len(t, g.Isoforms, 2)
}

func TestReadModelFile_Missing(t *testing.T) {
	_, err := ReadModelFile(filepath.Join(t.TempDir(), "absent.json"))
	var ioErr *model.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestReadModel_Invalid(t *testing.T) {
	_, err := ReadModel(strings.NewReader("{not json"))
	assert.Error(t, err)
}
