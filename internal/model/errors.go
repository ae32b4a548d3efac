package model

import "fmt"

// IOError reports a required input that is missing or unreadable.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError reports a line that matches no grammar rule of its file type.
type ParseError struct {
	File   string // input file name
	Line   int    // 1-based line number, 0 if unknown
	Text   string // offending raw line
	Reason string // parser context
	Err    error  // underlying conversion error, if any
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s (line %q)", msg, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConsistencyKind classifies cross-file mismatches.
type ConsistencyKind string

// Consistency error kinds.
const (
	UnknownIsoform   ConsistencyKind = "unknown_isoform"
	DuplicateIsoform ConsistencyKind = "duplicate_isoform"
	ExonCount        ConsistencyKind = "exon_count"
	IntronSupport    ConsistencyKind = "intron_support"
)

// ConsistencyError reports independently produced inputs that disagree.
type ConsistencyError struct {
	Kind   ConsistencyKind
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent input (%s): %s", e.Kind, e.Detail)
}

// Inconsistent builds a ConsistencyError with a formatted detail.
func Inconsistent(kind ConsistencyKind, format string, args ...any) *ConsistencyError {
	return &ConsistencyError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
