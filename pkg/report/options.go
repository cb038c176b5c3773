package report

import (
	"io"
	"strings"
)

// Options records which optional columns and path-type variants a report was
// generated with. The header is scanned once; the resulting set configures
// pin decoding for the remainder of the report.
type Options uint16

const (
	// OptFull is set for -path_type full reports.
	OptFull Options = 1 << iota
	// OptFullClock is set for -path_type full_clock reports.
	OptFullClock
	// OptFullClockExpanded is set for -path_type full_clock_expanded reports.
	OptFullClockExpanded
	// OptInputPins is set when -input_pins was given.
	OptInputPins
	// OptFanout is set when -nets was given (fanout column present).
	OptFanout
	// OptTransition is set when -transition_time was given.
	OptTransition
	// OptCapacitance is set when -capacitance was given.
	OptCapacitance
	// OptDelta is set when -show_delta or -crosstalk_delta was given.
	OptDelta
	// OptDerate is set when -derate was given.
	OptDerate
	// OptPhysical is set when -physical was given (coordinate pair present).
	OptPhysical
	// OptDeltaTransition is derived: transition and delta both present.
	OptDeltaTransition
	// OptIncrement is always present in the format.
	OptIncrement
)

// Has reports whether every flag in f is set.
func (o Options) Has(f Options) bool { return o&f == f }

// PathType returns the report path-type variant name.
func (o Options) PathType() string {
	switch {
	case o.Has(OptFull):
		return "full"
	case o.Has(OptFullClock):
		return "full_clock"
	case o.Has(OptFullClockExpanded):
		return "full_clock_expanded"
	}
	return "unknown"
}

var pathTypeOpts = map[string]Options{
	"full":                OptFull,
	"full_clock":          OptFullClock,
	"full_clock_expanded": OptFullClockExpanded,
}

var switchOpts = map[string]Options{
	"-input_pins":      OptInputPins,
	"-nets":            OptFanout,
	"-transition_time": OptTransition,
	"-capacitance":     OptCapacitance,
	"-show_delta":      OptDelta,
	"-crosstalk_delta": OptDelta,
	"-derate":          OptDerate,
	"-physical":        OptPhysical,
}

// DetectOptions scans a report header from the top of the stream and returns
// the recognized option set together with the number of lines consumed.
// Detection stops at the first rule line after the Report banner; reaching
// EOF first yields whatever was collected.
func DetectOptions(r io.Reader) (Options, int) {
	ls := newLineScanner(r)
	opts := detectOptions(ls)
	return opts, ls.Line()
}

func detectOptions(ls *lineScanner) Options {
	var opts Options

	for {
		line, ok := ls.Next()
		if !ok {
			return opts.finish()
		}
		if strings.HasPrefix(strings.TrimSpace(line), "Report") {
			break
		}
	}

	for {
		line, ok := ls.Next()
		if !ok {
			break
		}
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if toks[0][0] == '*' {
			break
		}
		if toks[0] == "-path_type" && len(toks) > 1 {
			opts |= pathTypeOpts[toks[1]]
		} else {
			opts |= switchOpts[toks[0]]
		}
	}
	return opts.finish()
}

func (o Options) finish() Options {
	if o.Has(OptTransition | OptDelta) {
		o |= OptDeltaTransition
	}
	return o | OptIncrement
}
