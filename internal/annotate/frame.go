package annotate

import "github.com/pintron/pintron/internal/model"

// assignFrames sets the reading frame of each exon's CDS, start codon and
// stop codon segments. Exons are visited in file order. The CDS frame
// depends on the CDS length consumed before the exon, which differs from
// the transcript length used by classify as soon as an exon is UTR-only,
// so the two walks are kept apart.
//
// Only the exon holding the first base of the start codon gets a start
// codon frame; stop codon segments get the stop codon length read so far.
func assignFrames(iso *model.Isoform, leadingStart *model.Exon) {
	var cdsConsumed, stopConsumed int64
	for _, e := range iso.ExonsInFileOrder() {
		frame := int((3 - cdsConsumed%3) % 3)
		if e == leadingStart && e.HasStartCodon() {
			e.StartCodonFrame = model.Ptr(frame)
		}
		if e.HasCDS() {
			e.CDSFrame = model.Ptr(frame)
			cdsConsumed += model.SpanLength(*e.CDSStart, *e.CDSEnd)
		}
		if e.HasStopCodon() {
			e.StopCodonFrame = model.Ptr(int(stopConsumed))
			stopConsumed += model.SpanLength(*e.StopCodonStart, *e.StopCodonEnd)
		}
	}
}
