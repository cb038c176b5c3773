package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/clockcheck"
	"github.com/klauspost/compress/gzip"
)

func fxBanner() []string {
	return []string{
		"****************************************",
		"Report : timing",
		"        -path_type full_clock_expanded",
		"        -transition_time",
		"        -delay_type max",
		"****************************************",
		"",
	}
}

func fxPointRow() string {
	return fmt.Sprintf("%s%45s%10s%10s", "  Point", "Trans", "Incr", "Path")
}

func fxPin(left, trans, incr, path, edge string) string {
	s := fmt.Sprintf("%-40s%12s%10s%10s", left, trans, incr, path)
	if edge != "" {
		s += " " + edge
	}
	return s
}

// fxPath builds one two-flop path clocked through a divided clock. The launch
// and capture traces differ only in the mux level before the divider.
func fxPath(ffa, ffb string, withNet bool) []string {
	lines := []string{
		"  Startpoint: " + ffa,
		"              (rising edge-triggered flip-flop clocked by vclk)",
		"  Endpoint: " + ffb,
		"            (rising edge-triggered flip-flop clocked by vclk)",
		"  Scenario: func_ss",
		"  Path Group: vclk",
		"  Path Type: max",
		"",
		fxPointRow(),
		"  " + strings.Repeat("-", 70),
		"  clock vclk (rise edge)                        0.0000    0.0000",
		"  clock source latency                          0.1000    0.1000",
		fxPin("  ckroot/Y (CKBUF)", "0.0500", "0.1000", "0.2000", "r"),
		fxPin("  u_cg/mux_a/Y (CKMUX)", "0.0500", "0.1000", "0.3000", "r"),
		fxPin("  u_cg/div/q2 (DFFDIV) (gclock source)", "0.0500", "0.1000", "0.4000", "r"),
		fxPin("  u_core/ckb/Y (CKBUF)", "0.0500", "0.1000", "0.5000", "r"),
		fxPin("  "+ffa+"/CP (DFF)", "0.0500", "0.0000", "0.5000", "r"),
	}
	if withNet {
		lines = append(lines,
			"  u_core/a_rather_long_instance_label/Q (DFF)",
			"       0.0500    0.4000    0.9000 f",
			fxPin("  n123 (net)", "0.0500", "0.0000", "0.9000", ""),
		)
	} else {
		lines = append(lines, fxPin("  "+ffa+"/Q (DFF)", "0.0500", "0.4000", "0.9000", "f"))
	}
	lines = append(lines,
		fxPin("  "+ffb+"/D (DFF) <-", "0.0500", "0.3000", "1.2000", "f"),
		"  data arrival time                                       1.2000",
		"",
		"  clock vclk (rise edge)                        1.0000    1.0000",
		"  clock source latency                          0.1000    1.1000",
		fxPin("  ckroot/Y (CKBUF)", "0.0500", "0.1000", "1.2000", "r"),
		fxPin("  u_cg/mux_b/Y (CKMUX)", "0.0500", "0.1000", "1.3000", "r"),
		fxPin("  u_cg/div/q2 (DFFDIV) (gclock source)", "0.0500", "0.1000", "1.4000", "r"),
		fxPin("  u_core/ckb/Y (CKBUF)", "0.0500", "0.1000", "1.5000", "r"),
		fxPin("  "+ffb+"/CP (DFF)", "0.0500", "0.1000", "1.6000", "r"),
		"  clock reconvergence pessimism                 0.0500    1.6500",
		"  clock uncertainty                            -0.0500    1.6000",
		"  library setup time                           -0.1000    1.5000",
		"  data required time                                      1.5000",
		"  "+strings.Repeat("-", 70),
		"  data required time                                      1.5000",
		"  data arrival time                                      -1.2000",
		"  "+strings.Repeat("-", 70),
		"  slack (MET)                                             0.3000",
		"",
	)
	return lines
}

func fxConfig() *Config {
	return &Config{CellClockPins: map[string]bool{"CP": true}}
}

func fxReport() (string, int) {
	lines := fxBanner()
	lines = append(lines, fxPath("u_core/ffa", "u_core/ffb", false)...)
	p2 := len(lines)
	lines = append(lines, fxPath("u_core/ffc", "u_core/ffd", true)...)
	return strings.Join(lines, "\n") + "\n", p2
}

func TestParseTwoPaths(t *testing.T) {
	in, _ := fxReport()
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(in), []Range{{Count: 2}}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 2 {
		t.Fatalf("parsed %d paths, want 2", len(r.Paths))
	}
	if !r.Opts.Has(OptTransition) || r.Opts.PathType() != "full_clock_expanded" {
		t.Fatalf("options = %b, path type %q", r.Opts, r.Opts.PathType())
	}

	p := r.Paths[0]
	if p.Start != "u_core/ffa" || p.End != "u_core/ffb" {
		t.Errorf("endpoints = %q -> %q", p.Start, p.End)
	}
	if p.Scenario != "func_ss" || p.Group != "vclk" || p.Type != "max" {
		t.Errorf("scenario/group/type = %q/%q/%q", p.Scenario, p.Group, p.Type)
	}
	if p.StartClk != "vclk" || p.StartEd != "rise" || p.EndClk != "vclk" || p.EndEd != "rise" {
		t.Errorf("clocks = %s (%s) / %s (%s)", p.StartClk, p.StartEd, p.EndClk, p.EndEd)
	}
	if p.SPin != 4 || p.SGPin != 2 || p.EGPin != 2 {
		t.Errorf("SPin/SGPin/EGPin = %d/%d/%d, want 4/2/2", p.SPin, p.SGPin, p.EGPin)
	}
	if len(p.LPath) != 7 || len(p.CPath) != 5 {
		t.Fatalf("pin counts = %d/%d, want 7/5", len(p.LPath), len(p.CPath))
	}

	if !near(p.SEV, 0) || !near(p.SSLat, 0.1) || !near(p.EEV, 1.0) || !near(p.ESLat, 0.1) {
		t.Errorf("clock values = %v/%v/%v/%v", p.SEV, p.SSLat, p.EEV, p.ESLat)
	}
	if !near(p.Arrival, 1.2) || !near(p.Required, 1.5) || !near(p.Slack, 0.3) {
		t.Errorf("arrival/required/slack = %v/%v/%v", p.Arrival, p.Required, p.Slack)
	}
	if !near(p.CRPR, 0.05) || !near(p.Unc, -0.05) || !near(p.Lib, -0.1) {
		t.Errorf("crpr/unc/lib = %v/%v/%v", p.CRPR, p.Unc, p.Lib)
	}
	if !near(p.LLat, 0.5) || !near(p.CLat, 0.6) {
		t.Errorf("llat/clat = %v/%v, want 0.5/0.6", p.LLat, p.CLat)
	}
	if !near(p.ClockSkew(), -0.15) || !near(p.DataLatency(), 0.7) {
		t.Errorf("skew/data = %v/%v", p.ClockSkew(), p.DataLatency())
	}

	for i := 1; i < len(p.LPath); i++ {
		want := p.LPath[i-1].Path + p.LPath[i].Incr
		if !near(p.LPath[i].Path, want) {
			t.Errorf("LPath[%d].Path = %v, want %v", i, p.LPath[i].Path, want)
		}
	}
	for _, pin := range p.LPath {
		if !near(pin.Tran, 0.05) {
			t.Errorf("pin %s Tran = %v, want 0.05", pin.Name, pin.Tran)
		}
	}
	if len(p.Through) != 1 || p.Through[0] != "u_core/ffb/D" {
		t.Errorf("Through = %v", p.Through)
	}
}

func TestParseContinuationAndNetFold(t *testing.T) {
	in, _ := fxReport()
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(in), []Range{{Count: 2}}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := r.Paths[1]
	if len(p.LPath) != 7 {
		t.Fatalf("pin count = %d, want 7 (net row must fold)", len(p.LPath))
	}
	pin := p.LPath[5]
	if pin.Name != "u_core/a_rather_long_instance_label/Q" || pin.Cell != "DFF" {
		t.Fatalf("spilled pin = %q (%q)", pin.Name, pin.Cell)
	}
	// The net row overwrites the spilled pin's columns.
	if !near(pin.Incr, 0) || !near(pin.Path, 0.9) || !near(pin.Tran, 0.05) {
		t.Errorf("after net fold incr/path/tran = %v/%v/%v", pin.Incr, pin.Path, pin.Tran)
	}
}

func TestParseRangeSelection(t *testing.T) {
	in, p2 := fxReport()
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(in), []Range{{Start: p2, Count: 1}}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 1 {
		t.Fatalf("parsed %d paths, want 1", len(r.Paths))
	}
	if r.Paths[0].Start != "u_core/ffc" {
		t.Errorf("Start = %q, want the second path", r.Paths[0].Start)
	}
}

func TestParseDefaultRange(t *testing.T) {
	in, _ := fxReport()
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(in), nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 1 {
		t.Fatalf("parsed %d paths, want 1 by default", len(r.Paths))
	}
}

func TestParseMaxDelayPath(t *testing.T) {
	lines := fxBanner()
	lines = append(lines,
		"  Startpoint: in1 (input port)",
		"  Endpoint: out1 (output port)",
		"  Path Group: default",
		"  Path Type: max",
		"",
		fxPointRow(),
		"  "+strings.Repeat("-", 70),
		"  input external delay                          0.5000    0.5000 f",
		fxPin("  in1 (in)", "0.0500", "0.0000", "0.5000", "f"),
		fxPin("  u_buf/Y (BUFX2)", "0.0500", "0.2000", "0.7000", "f"),
		fxPin("  out1 (out)", "0.0500", "0.0000", "0.7000", "f"),
		"  data arrival time                                       0.7000",
		"",
		"  max_delay                                     2.0000    2.0000",
		"  output external delay                        -0.3000    1.7000",
		"  data required time                                      1.7000",
		"  "+strings.Repeat("-", 70),
		"  data required time                                      1.7000",
		"  data arrival time                                      -0.7000",
		"  "+strings.Repeat("-", 70),
		"  slack (MET)                                             1.0000",
		"",
	)
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(strings.Join(lines, "\n")), nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 1 {
		t.Fatalf("parsed %d paths, want 1", len(r.Paths))
	}
	p := r.Paths[0]
	if !p.IDlyEn || !near(p.IDly, 0.5) {
		t.Errorf("input delay = %v (enabled %v), want 0.5", p.IDly, p.IDlyEn)
	}
	if p.SPin != 0 {
		t.Errorf("SPin = %d, want 0 (pin after the input delay)", p.SPin)
	}
	if !near(p.LLat, 0) {
		t.Errorf("LLat = %v, want 0", p.LLat)
	}
	if !p.MaxDlyEn || !near(p.MaxDly, 2.0) {
		t.Errorf("max delay = %v (enabled %v), want 2.0", p.MaxDly, p.MaxDlyEn)
	}
	if !p.ODlyEn || !near(p.ODly, -0.3) {
		t.Errorf("output delay = %v (enabled %v), want -0.3", p.ODly, p.ODlyEn)
	}
	if !near(p.Required, 1.7) || !near(p.Slack, 1.0) {
		t.Errorf("required/slack = %v/%v", p.Required, p.Slack)
	}
	// Max-delay paths carry no capture clock: these stay at their defaults.
	if p.CLat != 0 || p.EEV != 0 || len(p.CPath) != 0 {
		t.Errorf("capture fields = %v/%v/%d pins, want defaults", p.CLat, p.EEV, len(p.CPath))
	}
}

func TestParseUnconstrainedPath(t *testing.T) {
	lines := fxBanner()
	lines = append(lines,
		"  Startpoint: u_core/ffa",
		"  Endpoint: out2 (output port)",
		"  Path Group: (none)",
		"",
		fxPointRow(),
		"  "+strings.Repeat("-", 70),
		"  clock vclk (rise edge)                        0.0000    0.0000",
		"  clock source latency                          0.1000    0.1000",
		fxPin("  u_core/ffa/CP (DFF)", "0.0500", "0.1000", "0.2000", "r"),
		fxPin("  u_core/ffa/Q (DFF)", "0.0500", "0.4000", "0.6000", "f"),
		"  data arrival time                                       0.6000",
		"",
		"  "+strings.Repeat("-", 70),
		"  (Path is unconstrained)",
		"",
	)
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(strings.Join(lines, "\n")), nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 1 {
		t.Fatalf("parsed %d paths, want 1", len(r.Paths))
	}
	p := r.Paths[0]
	if !math.IsInf(p.Slack, 1) {
		t.Errorf("Slack = %v, want +Inf", p.Slack)
	}
	if !near(p.Arrival, 0.6) {
		t.Errorf("Arrival = %v, want 0.6", p.Arrival)
	}
}

// The launch and capture traces of the fixture reach the divider through
// different muxes, so the clock check on a parsed path must fail unless a
// module pattern covers the detour.
func TestParsedPathClockCheck(t *testing.T) {
	in, _ := fxReport()
	r := NewTimeReport(fxConfig())
	if err := r.Parse(strings.NewReader(in), []Range{{Count: 2}}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Paths) != 2 {
		t.Fatalf("parsed %d paths, want 2", len(r.Paths))
	}

	rules := &clockcheck.Rules{
		Modules: []*regexp.Regexp{regexp.MustCompile(`^(?:u_cg/.*)$`)},
	}
	res := clockcheck.Check(r.Paths[0], rules)

	if res.GClock.Status != clockcheck.Fail {
		t.Fatalf("gclock = %q, want FAIL on the mux detour", res.GClock.Status)
	}
	if res.GClock.Reason != clockcheck.ReasonModules {
		t.Errorf("reason = %q, want %q", res.GClock.Reason, clockcheck.ReasonModules)
	}
	if len(res.Rows) != 4 {
		t.Errorf("compare rows = %d, want 4", len(res.Rows))
	}
	if res.Fork.Levels != 1 {
		t.Errorf("fork levels = %d, want 1 (the shared buffer)", res.Fork.Levels)
	}
	if res.Types.Status != clockcheck.NA {
		t.Errorf("types = %q, want N/A without rules", res.Types.Status)
	}
}

func TestParseFileGzip(t *testing.T) {
	in, _ := fxReport()
	name := filepath.Join(t.TempDir(), "timing.rpt.gz")
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(in)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := NewTimeReport(fxConfig())
	if err := r.ParseFile(name, []Range{{Count: 2}}); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(r.Paths) != 2 {
		t.Fatalf("parsed %d paths, want 2", len(r.Paths))
	}
}
