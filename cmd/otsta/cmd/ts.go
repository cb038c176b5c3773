package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/clockcheck"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/report"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/segment"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/setup"
	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	noConfig    bool
	rangeSpec   string
	clockCheck  bool
	clockDump   bool
	deltaSum    bool
	pathSegment bool
)

var tsCmd = &cobra.Command{
	Use:   "ts <report-file>",
	Short: "Parse a report_timing dump and summarize its paths",
	Long: `Parse one or more paths from a report_timing text dump (optionally
gzip-compressed) and print a per-path summary. Optional analyses compare the
launch and capture clock networks and break the path into tagged segments.

Range selections pick paths by report line number:
  -r 120       one path starting at line 120
  -r 120+5     five paths starting at line 120
  -r 120-340   paths between lines 120 and 340
Multiple selections are comma-separated and processed in order.

Examples:
  otsta ts timing.rpt
  otsta ts -c chip.setup -r 1+20 timing.rpt
  otsta ts -k -d -r 120-340,900 timing.rpt.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runTs,
}

func init() {
	rootCmd.AddCommand(tsCmd)

	tsCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "configuration file (.setup or .yaml)")
	tsCmd.Flags().BoolVar(&noConfig, "no-config", false, "ignore the configuration file")
	tsCmd.Flags().StringVarP(&rangeSpec, "range", "r", "", "path range selections")
	tsCmd.Flags().BoolVarP(&clockCheck, "clock-check", "k", false, "compare launch/capture clock networks")
	tsCmd.Flags().BoolVarP(&clockDump, "clock-check-dump", "d", false, "write clock_check<N>.dump files")
	tsCmd.Flags().BoolVarP(&deltaSum, "delta-sum", "t", false, "print crosstalk delta totals")
	tsCmd.Flags().BoolVarP(&pathSegment, "segment", "s", false, "print path segments")
}

func runTs(cmd *cobra.Command, args []string) error {
	cfg := &setup.Setup{}
	if cfgPath != "" && !noConfig {
		var err error
		if cfg, err = setup.Load(cfgPath); err != nil {
			return err
		}
	}
	doCheck := clockCheck || cfg.ClockCheck || clockDump
	doDelta := deltaSum || cfg.DeltaSum
	doSegment := pathSegment || cfg.PathSegment

	rcfg, err := cfg.ReportConfig()
	if err != nil {
		return err
	}
	ranges, err := parseRanges(rangeSpec)
	if err != nil {
		return err
	}

	rpt := report.NewTimeReport(rcfg)
	if err := rpt.ParseFile(args[0], ranges); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if len(rpt.Paths) == 0 {
		return fmt.Errorf("%s: no timing path found", args[0])
	}

	var rules *clockcheck.Rules
	if doCheck {
		if rules, err = cfg.Rules(); err != nil {
			return err
		}
	}
	var tags *segment.TagTable
	if doSegment {
		if tags, err = cfg.TagTable(); err != nil {
			return err
		}
	}

	for i, path := range rpt.Paths {
		printPath(i, path)
		if doDelta {
			fmt.Printf("  delta:    launch %.4f  capture %.4f  data %.4f\n",
				path.LDelta, path.CDelta, path.DDelta)
		}
		if doCheck {
			res := clockcheck.Check(path, rules)
			fmt.Printf("  clock check: gclock %s %s  split %d  type %s %s\n",
				res.GClock.Status, res.GClock.Reason,
				res.Fork.Levels, res.Types.Status, res.Types.Reason)
			if clockDump {
				name := fmt.Sprintf("clock_check%d.dump", i)
				if err := res.DumpFile(name); err != nil {
					return err
				}
				fmt.Printf("  clock check dump: %s\n", name)
			}
		}
		if doSegment {
			res := segment.Classify(path, tags)
			printSegments("launch", res.LaunchLat, res.LaunchDelta, doDelta)
			printSegments("data", res.DataLat, res.DataDelta, doDelta)
			printSegments("capture", res.CaptureLat, res.CaptureDelta, doDelta)
		}
		fmt.Println()
	}
	return nil
}

func printPath(i int, path *timing.TimePath) {
	fmt.Printf("#%d (line %d)\n", i+1, path.Ln)
	fmt.Printf("  start:    %s (%s %s)\n", path.Start, path.StartClk, path.StartEd)
	fmt.Printf("  end:      %s (%s %s)\n", path.End, path.EndClk, path.EndEd)
	if path.Scenario != "" {
		fmt.Printf("  scenario: %s\n", path.Scenario)
	}
	fmt.Printf("  group:    %s  type: %s\n", path.Group, path.Type)
	fmt.Printf("  arrival:  %.4f  required: %.4f  slack: %.4f\n",
		path.Arrival, path.Required, path.Slack)
	fmt.Printf("  latency:  launch %.4f  capture %.4f  skew %.4f  data %.4f\n",
		path.LLat, path.CLat, path.ClockSkew(), path.DataLatency())
	if path.MaxDlyEn {
		fmt.Printf("  max delay: %.4f\n", path.MaxDly)
	}
	for _, tag := range sortedKeys(path.HCD) {
		fmt.Printf("  %s: %.4f\n", tag, path.HCD[tag])
	}
}

func printSegments(name string, lat, delta []segment.Segment, withDelta bool) {
	if len(lat) == 0 {
		return
	}
	var sb strings.Builder
	for i, s := range lat {
		fmt.Fprintf(&sb, "  %s %.4f", s.Tag, s.Value)
		if withDelta && i < len(delta) {
			fmt.Fprintf(&sb, " (%.4f)", delta[i].Value)
		}
	}
	fmt.Printf("  segment %-7s%s\n", name+":", sb.String())
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseRanges decodes the comma-separated range selections.
func parseRanges(spec string) ([]report.Range, error) {
	if spec == "" {
		return nil, nil
	}
	var ranges []report.Range
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		var rg report.Range
		var err error
		switch {
		case strings.Contains(item, "+"):
			lhs, rhs, _ := strings.Cut(item, "+")
			if rg.Start, err = strconv.Atoi(lhs); err == nil {
				rg.Count, err = strconv.Atoi(rhs)
			}
		case strings.Contains(item, "-"):
			lhs, rhs, _ := strings.Cut(item, "-")
			if rg.Start, err = strconv.Atoi(lhs); err == nil {
				rg.End, err = strconv.Atoi(rhs)
			}
		default:
			rg.Start, err = strconv.Atoi(item)
			rg.Count = 1
		}
		if err != nil {
			return nil, fmt.Errorf("bad range %q: %w", item, err)
		}
		ranges = append(ranges, rg)
	}
	return ranges, nil
}
