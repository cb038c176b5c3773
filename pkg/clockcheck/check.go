// Package clockcheck verifies that a parsed path's launch and capture clock
// networks are structurally consistent: the generated-clock source trace, the
// clock-network split point, and the cell types along both traces.
package clockcheck

import (
	"regexp"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
)

// Check statuses.
const (
	Pass = "PASS"
	Fail = "FAIL"
	NA   = "N/A"
)

// ReasonModules annotates a failure fully explained by configured clock
// module equivalences.
const ReasonModules = "(caused by user-defined clk modules)"

// Per-pin cell-type statuses as printed in the dump: pass, ignorable via a
// clock-module pattern, hard fail.
const (
	StatusOK     = ""
	StatusIgnore = "IG"
	StatusFail   = "FA"
)

// TypeRule is one ordered cell-type rule; the first matching rule decides.
type TypeRule struct {
	Allow bool
	Re    *regexp.Regexp
}

// Rules configures the check. All patterns must be anchored to match the
// full cell type or pin name.
type Rules struct {
	// Types is the ordered cell-type allow/deny list.
	Types []TypeRule
	// Modules are clock-module equivalence patterns: pins matched by one
	// common pattern are treated as interchangeable.
	Modules []*regexp.Regexp
	// ModuleCoversNonClock lets a failing cell type be downgraded to
	// ignorable when the pin name matches a module pattern.
	ModuleCoversNonClock bool
}

// Row is one aligned pair from the generated-clock comparison. Placeholder
// pins (empty, or the shared clock-module marker) fill the absent side.
type Row struct {
	L, C *timing.Pin
}

// CellCheck is one clock-network pin with its cell-type status.
type CellCheck struct {
	Pin    *timing.Pin
	Status string
}

// Verdict is a check outcome plus its optional annotation.
type Verdict struct {
	Status string
	Reason string
}

// Split reports how deep the two clock networks stay identical and where the
// last common level sits in the report.
type Split struct {
	Levels    int
	LaunchLn  string
	CaptureLn string
}

// Result aggregates the three checks over one path.
type Result struct {
	GClock Verdict
	Fork   Split
	Types  Verdict

	// Dump material.
	Rows     []Row       // merged generated-clock comparison
	RowStats [][2]string // per-side cell-type status per row
	Launch   []CellCheck // launch clock-network pins
	Capture  []CellCheck // capture clock-network pins
}

var (
	emptyPin      = &timing.Pin{}
	sameModulePin = &timing.Pin{Name: "... same clock module ..."}
)

// Check runs the clock path checks over one fully parsed path. It is a pure
// function of the path and rules and can be repeated freely.
func Check(path *timing.TimePath, rules *Rules) *Result {
	if rules == nil {
		rules = &Rules{}
	}

	var sgpath, spath, egpath, epath []*timing.Pin
	if path.SGPin >= 0 {
		sgpath = path.LPath[:path.SGPin+1]
		spath = path.LPath[path.SGPin+1 : path.SPin+1]
	} else {
		spath = path.LPath[:path.SPin+1]
	}
	if path.EGPin >= 0 {
		egpath = path.CPath[:path.EGPin+1]
		epath = path.CPath[path.EGPin+1:]
	} else {
		epath = path.CPath
	}

	res := &Result{}
	matchGClock(sgpath, egpath, rules, res)

	// The launch network may end on a tri-state/input-only pin that has no
	// capture counterpart; it takes no part in the fork comparison.
	if n := len(spath); n > 0 && (spath[n-1].Cell == "in" || spath[n-1].Cell == "inout") {
		spath = spath[:n-1]
	}
	res.Fork = matchFork(spath, epath)

	checkTypes(spath, epath, rules, res)
	return res
}

// matchGClock walks the two generated-clock traces with one cursor per side.
// Matching names advance both; a mismatch is retried against the module
// equivalence patterns (most recently successful first) and tolerated as a
// detour when one pattern covers both names.
func matchGClock(sgpath, egpath []*timing.Pin, rules *Rules, res *Result) {
	res.GClock = Verdict{Status: Pass}
	failByModule := true

	if len(sgpath) == 0 || len(egpath) == 0 {
		res.GClock.Status = NA
		return
	}

	egset := make(map[string]bool, len(egpath))
	for _, p := range egpath {
		egset[p.Name] = true
	}

	sglen, eglen := len(sgpath), len(egpath)
	var pvRe *regexp.Regexp // most recently successful equivalence pattern
	sp, ep, si, ei := sgpath[0], egpath[0], 1, 1

walk:
	for {
		if sp.Name == ep.Name {
			res.Rows = append(res.Rows, Row{L: sp, C: ep})
			switch {
			case si < sglen && ei < eglen:
				sp, ep = sgpath[si], egpath[ei]
				si, ei = si+1, ei+1
			case si < sglen:
				res.GClock.Status, failByModule = Fail, false
				for ; si < sglen; si++ {
					res.Rows = append(res.Rows, Row{L: sgpath[si], C: emptyPin})
				}
				break walk
			case ei < eglen:
				res.GClock.Status, failByModule = Fail, false
				for ; ei < eglen; ei++ {
					res.Rows = append(res.Rows, Row{L: emptyPin, C: egpath[ei]})
				}
				break walk
			default:
				break walk
			}
			continue
		}

		res.GClock.Status = Fail
		matched := false
		for _, re := range candidates(pvRe, rules.Modules) {
			if re.MatchString(sp.Name) && re.MatchString(ep.Name) {
				pvRe, matched = re, true
				break
			}
		}
		if !matched {
			pvRe = nil
		}
		failByModule = failByModule && matched

		dummy := emptyPin
		if matched {
			dummy = sameModulePin
		}
		if egset[sp.Name] {
			res.Rows = append(res.Rows, Row{L: dummy, C: ep})
			if ei == eglen {
				// Capture side exhausted mid-detour: the rest of the launch
				// trace has nothing left to re-sync with.
				failByModule = false
				for i := si - 1; i < sglen; i++ {
					res.Rows = append(res.Rows, Row{L: sgpath[i], C: emptyPin})
				}
				break walk
			}
			ep, ei = egpath[ei], ei+1
		} else {
			res.Rows = append(res.Rows, Row{L: sp, C: dummy})
			if si == sglen {
				failByModule = false
				for i := ei - 1; i < eglen; i++ {
					res.Rows = append(res.Rows, Row{L: emptyPin, C: egpath[i]})
				}
				break walk
			}
			sp, si = sgpath[si], si+1
		}
	}

	if res.GClock.Status == Fail && failByModule {
		res.GClock.Reason = ReasonModules
	}
}

// matchFork walks the two clock-network traces level by level and stops at
// the first divergence, with no recovery.
func matchFork(spath, epath []*timing.Pin) Split {
	fork := Split{LaunchLn: NA, CaptureLn: NA}
	if len(spath) == 0 || len(epath) == 0 {
		return fork
	}
	sp, ep, si, ei := spath[0], epath[0], 1, 1
	for {
		if sp.Name != ep.Name {
			return fork
		}
		fork.Levels++
		fork.LaunchLn, fork.CaptureLn = sp.Ln, ep.Ln
		if si == len(spath) || ei == len(epath) {
			return fork
		}
		sp, ep = spath[si], epath[ei]
		si, ei = si+1, ei+1
	}
}

// checkTypes classifies every compared pin's cell type against the ordered
// rule list. Placeholder rows carry an empty cell type and auto-pass. The
// module-pattern downgrade search keeps its own recency state, independent
// of the generated-clock walk, and its annotation tracking starts fresh.
func checkTypes(spath, epath []*timing.Pin, rules *Rules, res *Result) {
	if len(rules.Types) == 0 {
		res.Types = Verdict{Status: NA}
		res.RowStats = make([][2]string, len(res.Rows))
		for i := range res.RowStats {
			res.RowStats[i] = [2]string{"--", "--"}
		}
		return
	}

	failByModule := rules.ModuleCoversNonClock
	pass := true
	var pvRe *regexp.Regexp

	for _, row := range res.Rows {
		lPass := cellAllowed(rules.Types, row.L.Cell)
		cPass := cellAllowed(rules.Types, row.C.Cell)
		pass = pass && lPass && cPass

		lCkm, cCkm := lPass, cPass
		if !(lPass && cPass) && rules.ModuleCoversNonClock {
			for _, re := range candidates(pvRe, rules.Modules) {
				lCkm = lCkm || re.MatchString(row.L.Name)
				cCkm = cCkm || re.MatchString(row.C.Name)
				if lCkm && cCkm {
					pvRe = re
					break
				}
			}
			if !(lCkm && cCkm) {
				pvRe = nil
			}
			failByModule = failByModule && lCkm && cCkm
		}
		res.RowStats = append(res.RowStats, [2]string{
			cellStatus(lPass, lCkm), cellStatus(cPass, cCkm)})
	}

	sides := []struct {
		pins []*timing.Pin
		out  *[]CellCheck
	}{
		{spath, &res.Launch},
		{epath, &res.Capture},
	}
	for _, side := range sides {
		for _, pin := range side.pins {
			ok := false
			for _, tr := range rules.Types {
				if tr.Re.MatchString(pin.Cell) {
					ok = tr.Allow
					break
				}
			}
			pass = pass && ok

			ckm := false
			if !ok && rules.ModuleCoversNonClock {
				for _, re := range candidates(pvRe, rules.Modules) {
					if re.MatchString(pin.Name) {
						ckm, pvRe = true, re
						break
					}
				}
				if !ckm {
					pvRe = nil
				}
				failByModule = failByModule && ckm
			}
			*side.out = append(*side.out, CellCheck{Pin: pin, Status: cellStatus(ok, ckm)})
		}
	}

	res.Types = Verdict{Status: Pass}
	if !pass {
		res.Types.Status = Fail
		if failByModule {
			res.Types.Reason = ReasonModules
		}
	}
}

// cellAllowed applies the ordered rule list to one cell type; the empty cell
// type of a placeholder row always passes.
func cellAllowed(rules []TypeRule, cell string) bool {
	if cell == "" {
		return true
	}
	for _, tr := range rules {
		if tr.Re.MatchString(cell) {
			return tr.Allow
		}
	}
	return false
}

// candidates returns the pattern list biased by the most recently successful
// pattern, which repeated local matches tend to hit first.
func candidates(pv *regexp.Regexp, pats []*regexp.Regexp) []*regexp.Regexp {
	if pv == nil {
		return pats
	}
	out := make([]*regexp.Regexp, 0, len(pats)+1)
	out = append(out, pv)
	return append(out, pats...)
}
