package annotate

import (
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

// placement is what the positional pass learns beyond the exon fields.
type placement struct {
	startCodon   string
	stopCodon    string
	leadingStart *model.Exon // exon holding the first base of the start codon
}

// classify walks the exons 5'->3' keeping running genomic and transcript
// lengths, and assigns UTR, codon and CDS spans to each exon. Transcript
// positions are compared against the CDS bounds; genomic spans are anchored
// at the exon's 5' end (AbsoluteStart on +, AbsoluteEnd on -) and offset
// by the exon's UTR length hints.
func (a *Annotator) classify(iso *model.Isoform, reverse bool) placement {
	cdsStart, cdsEnd := int64(*iso.CDSStart), int64(*iso.CDSEnd)

	var (
		p             placement
		cumGenome     int64
		cumTranscript int64
	)
	for _, e := range iso.Exons {
		prev := cumTranscript
		cumGenome += e.Length
		cumTranscript += e.LengthOnTranscript
		e.CumulativeLength = model.Ptr(cumGenome)
		e.CumulativeLengthOnTranscript = model.Ptr(cumTranscript)

		if cumTranscript < cdsStart-1 {
			e.UTR5Start, e.UTR5End = fivePrimeOrdered(e, reverse)
			continue
		}
		if prev > cdsEnd+1 {
			e.UTR3Start, e.UTR3End = fivePrimeOrdered(e, reverse)
			continue
		}

		if prev+1 <= cdsStart-1 && cdsStart-1 <= cumTranscript {
			a.setPartialUTR5(iso, e, reverse)
		}
		if prev+1 <= cdsEnd+1 && cdsEnd+1 <= cumTranscript {
			a.setPartialUTR3(iso, e, reverse)
		}

		// Start codon
		var n int64
		switch {
		case prev < cdsStart && cdsStart <= cumTranscript:
			n = min(3, cumTranscript-cdsStart+1)
			pos := cdsStart - prev - 1
			p.startCodon += substr(e.Sequence, pos, pos+n)
			p.leadingStart = e
		case (prev < cdsStart+1 && cdsStart+1 <= cumTranscript) ||
			(prev < cdsStart+2 && cdsStart+2 <= cumTranscript):
			// Continuation: the codon's first base is in an earlier exon.
			n = min(cdsStart+2-prev, cumTranscript-prev)
			p.startCodon += substr(e.Sequence, 0, n)
		}
		if n > 0 {
			utr5 := e.UTR5()
			if !reverse {
				e.StartCodonStart = model.Ptr(e.AbsoluteStart + utr5)
				e.StartCodonEnd = model.Ptr(e.AbsoluteStart + utr5 + n - 1)
			} else {
				e.StartCodonStart = model.Ptr(e.AbsoluteEnd - utr5 - n + 1)
				e.StartCodonEnd = model.Ptr(e.AbsoluteEnd - utr5)
			}
		}

		// Stop codon
		n = 0
		switch {
		case prev < cdsEnd && cdsEnd <= cumTranscript:
			n = 3 - int64(len(p.stopCodon))
			final := cdsEnd - prev
			p.stopCodon += substr(e.Sequence, final-n, final)
		case prev < cdsEnd-2 && cdsEnd-2 <= cumTranscript:
			// Only the leading bases of the stop codon.
			n = cumTranscript - (cdsEnd - 3)
			p.stopCodon += substr(e.Sequence, int64(len(e.Sequence))-n, int64(len(e.Sequence)))
		case prev < cdsEnd-1 && cdsEnd-1 <= cumTranscript:
			// Single-base exon holding the middle base.
			n = 1
			p.stopCodon += substr(e.Sequence, 0, 1)
		}
		if n > 0 {
			utr3 := e.UTR3()
			if !reverse {
				e.StopCodonStart = model.Ptr(e.AbsoluteEnd - utr3 - n + 1)
				e.StopCodonEnd = model.Ptr(e.AbsoluteEnd - utr3)
			} else {
				e.StopCodonStart = model.Ptr(e.AbsoluteStart + utr3)
				e.StopCodonEnd = model.Ptr(e.AbsoluteStart + utr3 + n - 1)
			}
		}

		if cumTranscript >= cdsStart && prev < cdsEnd-3 {
			setCDS(e, reverse)
		}
	}

	a.logger.Debug("placed codons",
		zap.Int("isoform", iso.Index),
		zap.String("start_codon", p.startCodon),
		zap.String("stop_codon", p.stopCodon))
	return p
}

// fivePrimeOrdered returns the exon bounds ordered 5'->3'.
func fivePrimeOrdered(e *model.Exon, reverse bool) (*int64, *int64) {
	if reverse {
		return model.Ptr(e.AbsoluteEnd), model.Ptr(e.AbsoluteStart)
	}
	return model.Ptr(e.AbsoluteStart), model.Ptr(e.AbsoluteEnd)
}

func (a *Annotator) setPartialUTR5(iso *model.Isoform, e *model.Exon, reverse bool) {
	n := e.UTR5()
	if n <= 0 {
		a.logger.Debug("exon spans CDS start without 5'UTR length",
			zap.Int("isoform", iso.Index), zap.Int64("relative_start", e.RelativeStart))
		return
	}
	if !reverse {
		e.UTR5Start = model.Ptr(e.AbsoluteStart)
		e.UTR5End = model.Ptr(e.AbsoluteStart + n - 1)
	} else {
		e.UTR5Start = model.Ptr(e.AbsoluteEnd)
		e.UTR5End = model.Ptr(e.AbsoluteEnd - n + 1)
	}
}

func (a *Annotator) setPartialUTR3(iso *model.Isoform, e *model.Exon, reverse bool) {
	n := e.UTR3()
	if n <= 0 {
		a.logger.Debug("exon spans CDS end without 3'UTR length",
			zap.Int("isoform", iso.Index), zap.Int64("relative_start", e.RelativeStart))
		return
	}
	if !reverse {
		e.UTR3Start = model.Ptr(e.AbsoluteEnd - n + 1)
		e.UTR3End = model.Ptr(e.AbsoluteEnd)
	} else {
		e.UTR3Start = model.Ptr(e.AbsoluteStart)
		e.UTR3End = model.Ptr(e.AbsoluteStart + n - 1)
	}
}

// setCDS attributes the coding part of the exon, ending just before the
// stop codon when the exon holds one.
func setCDS(e *model.Exon, reverse bool) {
	utr5 := e.UTR5()
	if !reverse {
		e.CDSStart = model.Ptr(e.AbsoluteStart + utr5)
		if e.HasStopCodon() {
			e.CDSEnd = model.Ptr(*e.StopCodonStart - 1)
		} else {
			e.CDSEnd = model.Ptr(e.AbsoluteEnd)
		}
		return
	}
	e.CDSStart = model.Ptr(e.AbsoluteEnd - utr5)
	if e.HasStopCodon() {
		e.CDSEnd = model.Ptr(*e.StopCodonEnd + 1)
	} else {
		e.CDSEnd = model.Ptr(e.AbsoluteStart)
	}
}
