// Package setup loads the caller configuration consumed by the report parser
// and the path analyses. Two on-disk forms load to the same Setup value: the
// line-oriented directive form (.setup) and YAML.
package setup

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/clockcheck"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/report"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/segment"
)

// CellTypeRule is one ordered cell-type allow/deny pattern.
type CellTypeRule struct {
	Allow   bool   `yaml:"allow"`
	Pattern string `yaml:"pattern"`
}

// SegmentTag maps pins matching Pattern to a path-segment tag.
type SegmentTag struct {
	Tag     string `yaml:"tag"`
	Pattern string `yaml:"pattern"`
}

// HighlightDelay names one cell-to-cell arc whose incremental latency is
// reported under Tag. Pins is the "in:out" leaf pin pair on the arc's sink.
type HighlightDelay struct {
	FromCell string `yaml:"from_cell"`
	ToCell   string `yaml:"to_cell"`
	Pins     string `yaml:"pins"`
	Tag      string `yaml:"tag"`
}

// Drive is the driving-strength classification table.
type Drive struct {
	Pattern string             `yaml:"pattern"`
	Classes map[string]float64 `yaml:"classes"`
}

// Setup is the loaded configuration. Patterns are kept as written; the
// conversion methods compile them anchored, so a pattern must cover the whole
// pin name or cell type.
type Setup struct {
	ClockCheck           bool `yaml:"clock_check"`
	DeltaSum             bool `yaml:"delta_sum"`
	PathSegment          bool `yaml:"path_segment"`
	ModuleCoversNonClock bool `yaml:"ckm_with_non_clock_cell"`

	CellClockPins []string `yaml:"cellpin"`
	InstClockPins []string `yaml:"instpin"`
	InstClockRe   []string `yaml:"instpin_re"`

	ClockModules []string       `yaml:"ckm"`
	CellTypes    []CellTypeRule `yaml:"ckt"`

	SegmentTags []SegmentTag `yaml:"pc"`
	DefaultTag  string       `yaml:"dpc"`

	Highlights []HighlightDelay `yaml:"cdh"`
	Drive      *Drive           `yaml:"drive"`

	// BarDataSets group segment tags for external presentation tools; they
	// are carried through untouched.
	BarDataSets map[string][]string `yaml:"bds"`
}

// Load reads a configuration file, picking the format by extension: .yaml and
// .yml load as YAML, anything else as the directive form.
func Load(path string) (*Setup, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadDirectives(path)
	}
}

// ReportConfig compiles the parsing-related settings.
func (s *Setup) ReportConfig() (*report.Config, error) {
	cfg := &report.Config{
		CellClockPins: toSet(s.CellClockPins),
		InstClockPins: toSet(s.InstClockPins),
		HCD:           map[string]map[string]string{},
	}
	for _, pat := range s.InstClockRe {
		re, err := compileAnchored(pat)
		if err != nil {
			return nil, fmt.Errorf("setup: instpin_re: %w", err)
		}
		cfg.InstClockRe = append(cfg.InstClockRe, re)
	}
	for _, h := range s.Highlights {
		if cfg.HCD[h.FromCell] == nil {
			cfg.HCD[h.FromCell] = map[string]string{}
		}
		if cfg.HCD[h.ToCell] == nil {
			cfg.HCD[h.ToCell] = map[string]string{}
		}
		cfg.HCD[h.ToCell][h.Pins] = h.Tag
	}
	if len(cfg.HCD) == 0 {
		cfg.HCD = nil
	}
	if s.Drive != nil {
		re, err := compileAnchored(s.Drive.Pattern)
		if err != nil {
			return nil, fmt.Errorf("setup: drive: %w", err)
		}
		cfg.Drive = &report.DriveTable{Re: re, Classes: s.Drive.Classes}
	}
	return cfg, nil
}

// Rules compiles the clock-check settings.
func (s *Setup) Rules() (*clockcheck.Rules, error) {
	rules := &clockcheck.Rules{ModuleCoversNonClock: s.ModuleCoversNonClock}
	for _, ct := range s.CellTypes {
		re, err := compileAnchored(ct.Pattern)
		if err != nil {
			return nil, fmt.Errorf("setup: ckt: %w", err)
		}
		rules.Types = append(rules.Types, clockcheck.TypeRule{Allow: ct.Allow, Re: re})
	}
	for _, pat := range s.ClockModules {
		re, err := compileAnchored(pat)
		if err != nil {
			return nil, fmt.Errorf("setup: ckm: %w", err)
		}
		rules.Modules = append(rules.Modules, re)
	}
	return rules, nil
}

// TagTable compiles the path-segment settings.
func (s *Setup) TagTable() (*segment.TagTable, error) {
	tt := &segment.TagTable{Default: s.DefaultTag}
	for _, st := range s.SegmentTags {
		re, err := compileAnchored(st.Pattern)
		if err != nil {
			return nil, fmt.Errorf("setup: pc: %w", err)
		}
		tt.Rules = append(tt.Rules, segment.TagRule{Tag: st.Tag, Re: re})
	}
	return tt, nil
}

// compileAnchored compiles pat to match the whole subject string.
func compileAnchored(pat string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pat + `)$`)
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
