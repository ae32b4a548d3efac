// Package link associates predicted introns with the isoforms whose
// adjacent exons bound them and with the EST factorizations that support
// them.
package link

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

// Linker cross-references introns, isoforms and factorizations.
type Linker struct {
	logger *zap.Logger
}

// NewLinker creates a linker that logs nowhere.
func NewLinker() *Linker {
	return &Linker{logger: zap.NewNop()}
}

// SetLogger sets the logger for debug messages.
func (l *Linker) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// Link runs both linking steps. Exons must already be in canonical order.
func (l *Linker) Link(g *model.Gene) error {
	l.AttachIntrons(g)
	return l.ResolveSupport(g)
}

// gap is an unordered pair of genomic coordinates.
type gap struct {
	lo, hi int64
}

func newGap(a, b int64) gap {
	if a > b {
		a, b = b, a
	}
	return gap{lo: a, hi: b}
}

// AttachIntrons fills each isoform's intron list with the introns lying
// exactly between two consecutive exons.
func (l *Linker) AttachIntrons(g *model.Gene) {
	byGap := make(map[gap][]int)
	for _, idx := range g.Introns.Indexes() {
		in := g.Introns[idx]
		k := newGap(in.AbsoluteStart, in.AbsoluteEnd)
		byGap[k] = append(byGap[k], idx)
	}

	for _, isoIdx := range g.Isoforms.Indexes() {
		iso := g.Isoforms[isoIdx]
		iso.Introns = []int{}
		for i := 1; i < len(iso.Exons); i++ {
			left, right := Borders(iso.Exons[i-1], iso.Exons[i])
			iso.Introns = append(iso.Introns, byGap[newGap(left, right)]...)
		}
		l.logger.Debug("attached introns",
			zap.Int("isoform", isoIdx), zap.Ints("introns", iso.Introns))
	}
}

// Borders returns the first and last base of the gap between two exons,
// independent of exon order and coordinate direction.
func Borders(a, b *model.Exon) (left, right int64) {
	ext := []int64{a.AbsoluteStart, a.AbsoluteEnd, b.AbsoluteStart, b.AbsoluteEnd}
	slices.Sort(ext)
	return ext[1] + 1, ext[2] - 1
}

// ResolveSupport finds, for every supporting EST of every intron, the
// factorization fragments ending right before and starting right after the
// intron, and records their alignment. The number of ESTs resolved this way
// must equal the declared support count.
func (l *Linker) ResolveSupport(g *model.Gene) error {
	for _, idx := range g.Introns.Indexes() {
		in := g.Introns[idx]

		var resolved, unresolved []string
		for _, est := range in.SupportingESTs() {
			detail, ok := resolveEST(g.Factorizations[est], in)
			if !ok {
				unresolved = append(unresolved, est)
				continue
			}
			in.SupportingTranscripts[est] = detail
			resolved = append(resolved, est)
		}

		if len(resolved) != in.SupportCount {
			return model.Inconsistent(model.IntronSupport,
				"intron %d (%d-%d) declares %d supporting transcripts but %d resolve (unresolved: %s)",
				idx, in.RelativeStart, in.RelativeEnd, in.SupportCount, len(resolved),
				strings.Join(unresolved, ","))
		}
		l.logger.Debug("resolved intron support",
			zap.Int("intron", idx), zap.Strings("ests", resolved))
	}
	return nil
}

func resolveEST(f *model.Factorization, in *model.Intron) (*model.SupportDetail, bool) {
	if f == nil {
		return nil, false
	}
	donors := f.FragmentsEndingAt(in.RelativeStart - 1)
	acceptors := f.FragmentsStartingAt(in.RelativeEnd + 1)
	if len(donors) != 1 || len(acceptors) != 1 {
		return nil, false
	}
	donor, acceptor := donors[0], acceptors[0]

	return &model.SupportDetail{
		DonorFactorSuffix:    suffix(donor.ESTSequence, len(in.DonorExonSuffix)),
		AcceptorFactorPrefix: prefix(acceptor.ESTSequence, len(in.AcceptorExonPrefix)),
		DonorFactorStart:     donor.ESTStart,
		DonorFactorEnd:       donor.ESTEnd,
		AcceptorFactorStart:  acceptor.ESTStart,
		AcceptorFactorEnd:    acceptor.ESTEnd,
	}, true
}

func suffix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

func prefix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:n]
}
