// Package report parses report_timing text dumps into structured timing
// paths. The report is consumed through a forward-only line cursor: the
// header option set is detected once, then each requested range is scanned
// path by path.
package report

import (
	"io"
	"log/slog"
	"regexp"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
)

// DriveTable classifies cell types into driving-strength values. Re must
// contain one capture group naming the class.
type DriveTable struct {
	Re      *regexp.Regexp
	Classes map[string]float64
}

// Config is the caller-supplied parsing configuration. It is read-only to
// the parser; all patterns must be anchored to match the full name.
type Config struct {
	// CellClockPins are leaf pin names that identify a clock pin (e.g. CP).
	CellClockPins map[string]bool
	// InstClockPins are full instance pin names that identify a clock pin.
	InstClockPins map[string]bool
	// InstClockRe are patterns that identify instance clock pins.
	InstClockRe []*regexp.Regexp
	// HCD maps cell type -> "in:out" leaf pin pair -> highlight tag.
	HCD map[string]map[string]string
	// Drive is the optional driving-strength classification.
	Drive *DriveTable
}

// Range selects one parsing window: skip to Start (1-based line number),
// then parse until End is passed (0 = no limit) or Count paths were read
// (0 = no limit).
type Range struct {
	Start int
	End   int
	Count int
}

// TimeReport drives path parsing and owns the resulting path list. One
// instance parses at most one report section at a time; analyses run on the
// accumulated Paths afterwards.
type TimeReport struct {
	Log *slog.Logger

	Opts  Options
	Paths []*timing.TimePath

	cfg  *Config
	head []string // remembered column-header tokens of the Point row
}

// NewTimeReport returns a parser bound to cfg. A nil cfg is treated as an
// empty configuration.
func NewTimeReport(cfg *Config) *TimeReport {
	if cfg == nil {
		cfg = &Config{}
	}
	return &TimeReport{Log: slog.Default(), cfg: cfg}
}

// ParseFile parses the ranges of the named report file, which may be
// gzip-compressed.
func (r *TimeReport) ParseFile(path string, ranges []Range) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Parse(f, ranges)
}

// Parse detects the report options, then parses each requested range in
// order, appending completed paths to r.Paths. A nil ranges slice parses one
// path from the top. EOF is a normal stop, not an error.
func (r *TimeReport) Parse(rd io.Reader, ranges []Range) error {
	if ranges == nil {
		ranges = []Range{{Start: 0, End: 0, Count: 1}}
	}
	ls := newLineScanner(rd)
	r.Opts = detectOptions(ls)

	for _, rg := range ranges {
		for ls.Line() < rg.Start-1 {
			if _, ok := ls.Next(); !ok {
				return nil
			}
		}
		count := 0
		for {
			if eof := r.parsePath(ls); eof {
				return nil
			}
			count++
			if rg.End != 0 && ls.Line() >= rg.End {
				break
			}
			if rg.Count != 0 && count == rg.Count {
				break
			}
		}
	}
	return nil
}
