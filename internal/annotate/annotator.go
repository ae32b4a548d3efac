// Package annotate derives UTR, codon and CDS coordinates with reading
// frames for every CDS-annotated isoform, and flags polyadenylated isoforms
// whose 3' end is backed by a polyadenylation signal.
package annotate

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

// DefaultPASTolerance is the largest relative-end difference between an
// isoform's last exon and a PAS-bearing fragment.
const DefaultPASTolerance = 30

// Annotator adds derived coordinates to a gene model in place.
type Annotator struct {
	pasTolerance int64
	workers      int
	logger       *zap.Logger
}

// NewAnnotator creates an annotator with the default PAS tolerance.
func NewAnnotator() *Annotator {
	return &Annotator{
		pasTolerance: DefaultPASTolerance,
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger for codon warnings and debug messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetPASTolerance sets the allowed relative-end difference for PAS matching.
func (a *Annotator) SetPASTolerance(n int) {
	a.pasTolerance = int64(n)
}

// SetWorkers sets the number of isoforms annotated concurrently (0 = NumCPU).
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// Locus is the state shared read-only by all isoform workers.
type Locus struct {
	Reverse      bool
	PASFragments []*model.Fragment
}

// NewLocus collects the strand and the PAS-bearing fragments of g.
func NewLocus(g *model.Gene) *Locus {
	ests := make([]string, 0, len(g.Factorizations))
	for est := range g.Factorizations {
		ests = append(ests, est)
	}
	sort.Strings(ests)

	l := &Locus{Reverse: g.Genome.IsReverseStrand()}
	for _, est := range ests {
		f := g.Factorizations[est]
		if f.PAS && f.PASFragment != nil {
			l.PASFragments = append(l.PASFragments, f.PASFragment)
		}
	}
	return l
}

// CodonWarning reports a CDS that does not begin or end with a valid codon.
type CodonWarning struct {
	Isoform  int
	Position string // "first" or "last"
	Found    string
	Expected []string
}

func (w CodonWarning) String() string {
	return fmt.Sprintf("isoform %d: found %s instead of %s as %s codon",
		w.Isoform, w.Found, strings.Join(w.Expected, "/"), w.Position)
}

// Report summarizes the annotation of one isoform.
type Report struct {
	Isoform    int
	StartCodon string // start codon read across exons, in transcript order
	StopCodon  string
	Warnings   []CodonWarning
}

// Annotate annotates every isoform of g. Exons must already be in
// canonical order. Reports are returned in ascending isoform order.
func (a *Annotator) Annotate(g *model.Gene) ([]Report, error) {
	locus := NewLocus(g)
	indexes := g.Isoforms.Indexes()

	items := make(chan WorkItem, len(indexes))
	for seq, idx := range indexes {
		items <- WorkItem{Seq: seq, Isoform: g.Isoforms[idx]}
	}
	close(items)

	reports := make([]Report, 0, len(indexes))
	err := OrderedCollect(a.ParallelAnnotate(items, locus, a.workers), func(r WorkResult) error {
		for _, w := range r.Report.Warnings {
			a.logger.Warn("wrong CDS delimiter",
				zap.Int("isoform", w.Isoform),
				zap.String("position", w.Position),
				zap.String("found", w.Found),
				zap.Strings("expected", w.Expected))
		}
		reports = append(reports, r.Report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *Annotator) annotateIsoform(iso *model.Isoform, locus *Locus) Report {
	report := Report{Isoform: iso.Index}

	if iso.HasCDS() {
		p := a.classify(iso, locus.Reverse)
		assignFrames(iso, p.leadingStart)
		report.StartCodon = p.startCodon
		report.StopCodon = p.stopCodon
		report.Warnings = checkDelimiters(iso)
	}

	if iso.PolyA && hasPAS(iso, locus.PASFragments, a.pasTolerance) {
		iso.PAS = true
	}
	return report
}

// checkDelimiters compares the first and last CDS codons on the assembled
// transcript against the accepted start and stop codons.
func checkDelimiters(iso *model.Isoform) []CodonWarning {
	start, end := int64(*iso.CDSStart), int64(*iso.CDSEnd)
	first := strings.ToUpper(substr(iso.Sequence, start-1, start+2))
	last := strings.ToUpper(substr(iso.Sequence, end-3, end))

	var warnings []CodonWarning
	if !IsStartCodon(first) {
		warnings = append(warnings, CodonWarning{Isoform: iso.Index, Position: "first", Found: first, Expected: StartCodons})
	}
	if !IsStopCodon(last) {
		warnings = append(warnings, CodonWarning{Isoform: iso.Index, Position: "last", Found: last, Expected: StopCodons})
	}
	return warnings
}

// hasPAS reports whether a PAS-bearing fragment starts where the isoform's
// last exon starts and ends within tolerance of it.
func hasPAS(iso *model.Isoform, fragments []*model.Fragment, tolerance int64) bool {
	if len(iso.Exons) == 0 {
		return false
	}
	last := iso.Exons[len(iso.Exons)-1]
	for _, fr := range fragments {
		d := fr.RelativeEnd - last.RelativeEnd
		if fr.RelativeStart == last.RelativeStart && d <= tolerance && d >= -tolerance {
			return true
		}
	}
	return false
}
