// Package parse turns the line-oriented artifacts of the upstream alignment
// tools into gene model entities.
package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/pintron/pintron/internal/model"
)

// Parser reads the upstream artifacts into a gene model. Each input type has
// its own method; they share only the diagnostics sink.
type Parser struct {
	logger *zap.Logger
}

// New creates a parser that logs nowhere.
func New() *Parser {
	return &Parser{logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and debug messages.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Open opens an input file, transparently decompressing gzip content.
// Failures are reported as *model.IOError.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, &model.IOError{Path: path, Err: fmt.Errorf("open gzip reader: %w", err)}
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}

	return &plainFile{Reader: br, file: file}, nil
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (f *plainFile) Close() error {
	return f.file.Close()
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (f *gzipFile) Close() error {
	gzErr := f.Reader.Close()
	if err := f.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// lineReader scans lines and tracks position for error reporting.
type lineReader struct {
	scanner *bufio.Scanner
	name    string
	num     int
	text    string
}

func newLineReader(r io.Reader, name string) *lineReader {
	scanner := bufio.NewScanner(r)
	// Sequence lines can be long
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)
	return &lineReader{scanner: scanner, name: name}
}

func (lr *lineReader) next() bool {
	if !lr.scanner.Scan() {
		return false
	}
	lr.num++
	lr.text = lr.scanner.Text()
	return true
}

func (lr *lineReader) err() error {
	if err := lr.scanner.Err(); err != nil {
		return &model.IOError{Path: lr.name, Err: err}
	}
	return nil
}

func (lr *lineReader) fail(reason string, err error) *model.ParseError {
	return &model.ParseError{
		File:   lr.name,
		Line:   lr.num,
		Text:   lr.text,
		Reason: reason,
		Err:    err,
	}
}

// trimEOL strips trailing whitespace, including the line terminator.
func trimEOL(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

func errFieldCount(got int, want string) error {
	return fmt.Errorf("got %d fields, want %s", got, want)
}
