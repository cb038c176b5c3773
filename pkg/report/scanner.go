package report

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// lineScanner is the report's forward-only line cursor. It tracks 1-based
// line numbers and is never rewound; continuation lines are fetched with one
// extra Next call by the parser.
type lineScanner struct {
	sc *bufio.Scanner
	ln int
}

func newLineScanner(r io.Reader) *lineScanner {
	sc := bufio.NewScanner(r)
	// Long hierarchical pin names can make for very wide lines.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &lineScanner{sc: sc}
}

// Next returns the next line without its terminator, or ok=false at EOF.
func (s *lineScanner) Next() (string, bool) {
	if !s.sc.Scan() {
		return "", false
	}
	s.ln++
	return s.sc.Text(), true
}

// Line returns the number of the line most recently returned by Next.
func (s *lineScanner) Line() int { return s.ln }

type gzFile struct {
	io.Reader
	gz *gzip.Reader
	f  *os.File
}

func (g *gzFile) Close() error {
	gerr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gerr
}

// Open opens a report file for reading, transparently decompressing
// gzip-compressed reports (.gz extension).
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".gz" {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzFile{Reader: gz, gz: gz, f: f}, nil
}
