package setup

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// setupLexer tokenizes the directive form: one "key: arg..." entry per line,
// hash comments, double-quoted arguments for patterns with spaces.
var setupLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Key", Pattern: `[a-z_]+:`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Word", Pattern: `[^\s"#]+`},
})

type directiveFile struct {
	Entries []*directive `parser:"( @@ | EOL )*"`
}

type directive struct {
	Key  string   `parser:"@Key"`
	Args []string `parser:"( @Word | @String )* ( EOL | EOF )"`
}

// String tokens hold regular expressions, so the usual escape-aware unquote
// would mangle them; the quotes are stripped verbatim instead.
var directiveParser = participle.MustBuild[directiveFile](
	participle.Lexer(setupLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Map(func(t lexer.Token) (lexer.Token, error) {
		t.Value = strings.Trim(t.Value, `"`)
		return t, nil
	}, "String"),
)

// LoadDirectives loads the directive (.setup) configuration form.
func LoadDirectives(path string) (*Setup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	defer f.Close()
	s, err := ParseDirectives(f)
	if err != nil {
		return nil, fmt.Errorf("setup: %s: %w", path, err)
	}
	return s, nil
}

// ParseDirectives parses the directive form from a reader.
func ParseDirectives(r io.Reader) (*Setup, error) {
	file, err := directiveParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	s := &Setup{}
	for _, d := range file.Entries {
		if err := s.apply(strings.TrimSuffix(d.Key, ":"), d.Args); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Setup) apply(key string, args []string) error {
	switch key {
	case "clock_check_default_on":
		return parseFlag(key, args, &s.ClockCheck)
	case "delta_sum_default_on":
		return parseFlag(key, args, &s.DeltaSum)
	case "path_segment_default_on":
		return parseFlag(key, args, &s.PathSegment)
	case "ckm_with_non_clock_cell":
		return parseFlag(key, args, &s.ModuleCoversNonClock)

	case "cellpin":
		s.CellClockPins = append(s.CellClockPins, args...)
	case "instpin":
		s.InstClockPins = append(s.InstClockPins, args...)
	case "instpin_re":
		s.InstClockRe = append(s.InstClockRe, args...)
	case "ckm":
		s.ClockModules = append(s.ClockModules, args...)

	case "ckt":
		if len(args) != 2 {
			return fmt.Errorf("ckt: want \"y|n pattern\", got %q", args)
		}
		allow, err := parseYN(args[0])
		if err != nil {
			return fmt.Errorf("ckt: %w", err)
		}
		s.CellTypes = append(s.CellTypes, CellTypeRule{Allow: allow, Pattern: args[1]})

	case "pc":
		if len(args) != 2 {
			return fmt.Errorf("pc: want \"tag pattern\", got %q", args)
		}
		s.SegmentTags = append(s.SegmentTags, SegmentTag{Tag: args[0], Pattern: args[1]})
	case "dpc":
		if len(args) != 1 {
			return fmt.Errorf("dpc: want one tag, got %q", args)
		}
		s.DefaultTag = args[0]

	case "cdh":
		if len(args) != 4 {
			return fmt.Errorf("cdh: want \"from_cell to_cell in:out tag\", got %q", args)
		}
		s.Highlights = append(s.Highlights, HighlightDelay{
			FromCell: args[0], ToCell: args[1], Pins: args[2], Tag: args[3]})

	case "dc":
		if len(args) != 2 {
			return fmt.Errorf("dc: want \"re pattern\" or \"class value\", got %q", args)
		}
		if s.Drive == nil {
			s.Drive = &Drive{Classes: map[string]float64{}}
		}
		if args[0] == "re" {
			s.Drive.Pattern = args[1]
			return nil
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("dc: %s: %w", args[0], err)
		}
		s.Drive.Classes[args[0]] = v

	case "bds":
		if len(args) < 2 {
			return fmt.Errorf("bds: want \"name tag...\", got %q", args)
		}
		if s.BarDataSets == nil {
			s.BarDataSets = map[string][]string{}
		}
		s.BarDataSets[args[0]] = append(s.BarDataSets[args[0]], args[1:]...)

	default:
		return fmt.Errorf("unknown directive %q", key)
	}
	return nil
}

func parseFlag(key string, args []string, dst *bool) error {
	if len(args) != 1 {
		return fmt.Errorf("%s: want y or n, got %q", key, args)
	}
	v, err := parseYN(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func parseYN(arg string) (bool, error) {
	switch arg {
	case "y":
		return true, nil
	case "n":
		return false, nil
	}
	return false, fmt.Errorf("want y or n, got %q", arg)
}
