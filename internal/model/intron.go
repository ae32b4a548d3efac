package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Intron is a predicted intron of the locus.
type Intron struct {
	Index         int   `json:"-"`
	RelativeStart int64 `json:"relative_start"`
	RelativeEnd   int64 `json:"relative_end"`
	AbsoluteStart int64 `json:"absolute_start"`
	AbsoluteEnd   int64 `json:"absolute_end"`
	Length        int64 `json:"length"`
	SupportCount  int   `json:"number_of_supporting_transcripts"`

	// SupportingTranscripts is keyed by EST identifier. Entries the linker
	// could not resolve stay nil.
	SupportingTranscripts Support `json:"supporting_transcripts"`

	DonorAlignmentError    float64 `json:"donor_alignment_error"`
	AcceptorAlignmentError float64 `json:"acceptor_alignment_error"`
	DonorScore             float64 `json:"donor_score"`
	AcceptorScore          float64 `json:"acceptor_score"`
	BPSScore               float64 `json:"BPS_score"`
	BPSPosition            *int64  `json:"BPS_position,omitempty"`

	Type               string `json:"type"`
	Pattern            string `json:"pattern"`
	RepeatSequence     string `json:"repeat_sequence"`
	DonorExonSuffix    string `json:"donor_exon_suffix"`
	Prefix             string `json:"prefix"`
	Suffix             string `json:"suffix"`
	AcceptorExonPrefix string `json:"acceptor_exon_prefix"`
}

// SupportingESTs returns the supporting EST identifiers in sorted order.
func (in *Intron) SupportingESTs() []string {
	ests := make([]string, 0, len(in.SupportingTranscripts))
	for est := range in.SupportingTranscripts {
		ests = append(ests, est)
	}
	sort.Strings(ests)
	return ests
}

// SupportDetail records how one EST's factorization aligns the exons
// flanking an intron.
type SupportDetail struct {
	DonorFactorSuffix    string `json:"donor_factor_suffix"`
	AcceptorFactorPrefix string `json:"acceptor_factor_prefix"`
	DonorFactorStart     int64  `json:"donor_factor_start"`
	DonorFactorEnd       int64  `json:"donor_factor_end"`
	AcceptorFactorStart  int64  `json:"acceptor_factor_start"`
	AcceptorFactorEnd    int64  `json:"acceptor_factor_end"`
}

// Support maps EST identifiers to their support detail. Unresolved entries
// are nil in memory and written as empty objects.
type Support map[string]*SupportDetail

var emptyObject = json.RawMessage("{}")

func (s Support) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s))
	for est, d := range s {
		if d == nil {
			out[est] = emptyObject
			continue
		}
		out[est] = d
	}
	return json.Marshal(out)
}

func (s *Support) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(Support, len(raw))
	for est, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if bytes.Equal(msg, []byte("null")) || bytes.Equal(bytes.Join(bytes.Fields(msg), nil), emptyObject) {
			out[est] = nil
			continue
		}
		var d SupportDetail
		if err := json.Unmarshal(msg, &d); err != nil {
			return err
		}
		out[est] = &d
	}
	*s = out
	return nil
}
