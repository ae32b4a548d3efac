package model

// Fragment is one genome-aligned piece of an EST factorization.
type Fragment struct {
	ESTStart       int64
	ESTEnd         int64
	RelativeStart  int64 // genome-relative
	RelativeEnd    int64
	ESTSequence    string
	GenomeSequence string
}

// Factorization is an EST decomposed into genome-aligned fragments.
type Factorization struct {
	EST       string
	CloneEnd  string // "3", "5" or empty
	PolyA     bool
	PAS       bool
	Fragments []*Fragment

	// PASFragment is the last fragment read after the PAS marker.
	PASFragment *Fragment
}

// FragmentsEndingAt returns the fragments whose relative end equals pos.
func (f *Factorization) FragmentsEndingAt(pos int64) []*Fragment {
	var out []*Fragment
	for _, fr := range f.Fragments {
		if fr.RelativeEnd == pos {
			out = append(out, fr)
		}
	}
	return out
}

// FragmentsStartingAt returns the fragments whose relative start equals pos.
func (f *Factorization) FragmentsStartingAt(pos int64) []*Fragment {
	var out []*Fragment
	for _, fr := range f.Fragments {
		if fr.RelativeStart == pos {
			out = append(out, fr)
		}
	}
	return out
}
