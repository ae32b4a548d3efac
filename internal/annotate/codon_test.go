package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCodon(t *testing.T) {
	tests := []struct {
		codon string
		want  byte
	}{
		{"ATG", 'M'},
		{"atg", 'M'},
		{"TAA", '*'},
		{"GGC", 'G'},
		{"NNN", 'X'},
		{"AT", 'X'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TranslateCodon(tt.codon), tt.codon)
	}
}

func TestDelimiterCodons(t *testing.T) {
	assert.True(t, IsStartCodon("atg"))
	assert.False(t, IsStartCodon("GTG"))
	for _, c := range StopCodons {
		assert.True(t, IsStopCodon(c), c)
	}
	assert.True(t, IsStopCodon("tga"))
	assert.False(t, IsStopCodon("TGG"))
}

func TestSubstr(t *testing.T) {
	assert.Equal(t, "cg", substr("acgt", 1, 3))
	assert.Equal(t, "ac", substr("acgt", -2, 2))
	assert.Equal(t, "gt", substr("acgt", 2, 10))
	assert.Equal(t, "", substr("acgt", 3, 1))
	assert.Equal(t, "", substr("acgt", 7, 9))
}
