package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
)

// per-side scan states: clock edge line, clock source latency line, data.
const (
	stClockEdge = iota
	stClockLat
	stData
)

var libArcLabels = map[string]bool{
	"setup":    true,
	"hold":     true,
	"removal":  true,
	"recovery": true,
	"gating":   true,
}

// parsePath consumes one path section. It returns true when EOF was reached
// before the path completed; a completed path is appended to r.Paths.
// Structural violations beyond the documented recoverable cases are format
// invariants and are allowed to surface as index faults.
func (r *TimeReport) parsePath(ls *lineScanner) bool {
	path := timing.NewTimePath()

	// Prefix: Startpoint/Endpoint/Scenario/Group/Type and the column header.
	// EOF before a Startpoint means the report holds no further paths.
	started := false
	for {
		line, ok := ls.Next()
		if !ok {
			return true
		}
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if started && toks[0][0] == '-' {
			break
		}
		switch {
		case toks[0] == "Startpoint:":
			path.Ln = ls.Line()
			path.Start = toks[1]
			started = true
		case toks[0] == "Endpoint:":
			path.End = toks[1]
		case toks[0] == "Scenario:":
			path.Scenario = toks[1]
		case toks[0] == "Verbose" && len(toks) > 3:
			path.Scenario = strings.Trim(toks[3], "{}") + " (remote)"
		case len(toks) > 2 && toks[1] == "Group:":
			path.Group = toks[2]
		case len(toks) > 2 && toks[1] == "Type:":
			path.Type = toks[2]
		case toks[0] == "Point":
			r.head = tokenize(line)
		}
	}

	if eof := r.parseLaunch(ls, path); eof {
		return true
	}
	if eof := r.parseCapture(ls, path); eof {
		return true
	}

	// Trailing slack line; an unconstrained endpoint has no finite slack.
	for {
		line, ok := ls.Next()
		if !ok {
			return true
		}
		toks := strings.Fields(line)
		switch {
		case len(toks) == 0:
			continue
		case toks[0] == "slack":
			path.Slack = mustFloat(toks[len(toks)-1])
		case len(toks) >= 3 && strings.HasPrefix(toks[2], "unconstrain"):
			path.Slack = math.Inf(1)
		default:
			continue
		}
		break
	}

	r.Paths = append(r.Paths, path)
	return false
}

// parseLaunch scans the launch clock and data pins up to the arrival line.
// Max-delay paths carry no clock lines here; their pins are decoded directly.
func (r *TimeReport) parseLaunch(ls *lineScanner, path *timing.TimePath) bool {
	state := stClockEdge
	afterExternal := false
	pvPin := &timing.Pin{Drive: -1.0}

	for {
		line, ok := ls.Next()
		if !ok {
			return true
		}
		toks := tokenize(line)
		if len(toks) == 0 {
			continue
		}
		tag0 := strings.TrimSpace(toks[0])
		tag1 := strings.TrimSpace(toks[1])

		switch {
		case tag1 == "arrival":
			path.Arrival = mustFloat(toks[len(toks)-1])
			if path.SPin < 0 {
				path.SPin = 0
				r.Log.Warn("cannot detect the startpoint clock pin, using the first pin",
					"startpoint", path.Start, "line", ls.Line())
			}
			path.LLat = path.LPath[path.SPin].Path - path.SEV - path.IDly
			path.DDelta -= path.LDelta
			return false

		case tag1 == "external":
			path.IDlyEn = true
			path.IDly = mustFloat(toks[len(toks)-3])
			afterExternal = true

		case state == stClockEdge && tag0 == "clock":
			path.StartClk = tag1
			path.StartEd = strings.TrimSpace(toks[2])[1:]
			if len(toks) == 4 {
				toks = r.continuation(ls)
			}
			path.SEV = mustFloat(toks[len(toks)-2])
			state = stClockLat

		case state == stClockLat && tag0 == "clock":
			if len(toks) == 4 {
				toks = r.continuation(ls)
			}
			path.SSLat = mustFloat(toks[len(toks)-2])
			state = stData

		default:
			r.launchPin(ls, path, toks, tag0, tag1, &afterExternal, &pvPin)
		}
	}
}

// launchPin decodes one launch-side pin or net line and applies the
// clock-pin boundary detection rules.
func (r *TimeReport) launchPin(ls *lineScanner, path *timing.TimePath,
	toks []string, tag0, tag1 string, afterExternal *bool, pvPin **timing.Pin) {

	pin := timing.NewPin(strconv.Itoa(ls.Line()))
	tokLen := len(toks)

	var vals []string
	var start int
	if tokLen == 2 ||
		(tokLen == 3 && strings.HasSuffix(toks[2], "<-")) ||
		(tokLen == 4 && strings.HasSuffix(toks[2], "(gclock")) {
		// Pin name too wide: the value columns spilled to the next line.
		vals = r.nextTokens(ls)
	} else {
		vals = toks
		switch strings.TrimSpace(toks[2]) {
		case "<-":
			start = 3
		case "(gclock":
			start = 4
		default:
			start = 2
		}
	}

	if tokLen >= 3 && strings.TrimSpace(toks[2]) == "<-" {
		path.Through = append(path.Through, tag0)
	}

	if tag1 == "(net)" {
		// Net columns fold into the preceding cell pin.
		r.decodePin(path.LPath[len(path.LPath)-1], vals, start)
		return
	}

	pin.Name = tag0
	pin.Cell = innerText(tag1)
	r.classifyDrive(pin)
	r.decodePin(pin, vals, start)
	path.DDelta += pin.Delta

	gclock := tokLen > 2 && strings.HasSuffix(toks[2], "(gclock")
	idx := len(path.LPath)
	switch {
	case *afterExternal:
		*afterExternal = false
		r.markClockPin(path, idx)
	case r.cfg.CellClockPins[pin.LeafName()]:
		r.markClockPin(path, idx)
	case r.cfg.InstClockPins[pin.Name]:
		r.markClockPin(path, idx)
	case matchAny(r.cfg.InstClockRe, pin.Name):
		r.markClockPin(path, idx)
	case gclock:
		r.markClockPin(path, idx)
	}
	if gclock {
		path.SGPin = idx
	}
	path.LPath = append(path.LPath, pin)

	r.highlightDelay(path, *pvPin, pin)
	*pvPin = pin
}

func (r *TimeReport) markClockPin(path *timing.TimePath, idx int) {
	path.SPin = idx
	path.LDelta = path.DDelta
}

// parseCapture scans the capture clock path up to the required line. Pins
// are only accepted once both clock lines were seen, so max-delay paths
// leave every capture clock field at its default.
func (r *TimeReport) parseCapture(ls *lineScanner, path *timing.TimePath) bool {
	state := stClockEdge

	for {
		line, ok := ls.Next()
		if !ok {
			return true
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "---") {
			return false
		}
		toks := tokenize(line)
		if len(toks) == 0 {
			continue
		}
		tag0 := strings.TrimSpace(toks[0])
		tag1 := strings.TrimSpace(toks[1])

		switch {
		case tag1 == "required":
			path.Required = mustFloat(toks[len(toks)-1])
			if !path.MaxDlyEn {
				path.CLat = path.Required - path.EEV - path.CRPR -
					path.PMarg - path.Unc - path.ODly - path.Lib
			}
			return false

		case tag1 == "reconvergence":
			path.CRPR = mustFloat(toks[len(toks)-2])

		case tag1 == "margin":
			path.PMargEn = true
			path.PMarg = mustFloat(toks[len(toks)-2])

		case tag1 == "uncertainty":
			path.Unc = mustFloat(toks[len(toks)-2])

		case tag1 == "external":
			path.ODlyEn = true
			path.ODly = mustFloat(toks[len(toks)-2])

		case libArcLabels[tag1]:
			path.Lib = mustFloat(toks[len(toks)-2])

		case tag0 == "max_delay":
			path.MaxDlyEn = true
			path.MaxDly = mustFloat(toks[len(toks)-2])

		case state == stClockEdge && tag0 == "clock":
			path.EndClk = tag1
			path.EndEd = strings.TrimSpace(toks[2])[1:]
			if len(toks) == 4 {
				toks = r.continuation(ls)
			}
			path.EEV = mustFloat(toks[len(toks)-2])
			state = stClockLat

		case state == stClockLat && tag0 == "clock":
			if len(toks) == 4 {
				toks = r.continuation(ls)
			}
			path.ESLat = mustFloat(toks[len(toks)-2])
			state = stData

		case state == stData:
			r.capturePin(ls, path, toks, tag0, tag1)
		}
	}
}

func (r *TimeReport) capturePin(ls *lineScanner, path *timing.TimePath,
	toks []string, tag0, tag1 string) {

	pin := timing.NewPin(strconv.Itoa(ls.Line()))
	tokLen := len(toks)

	var vals []string
	var start int
	if tokLen == 2 || (tokLen == 4 && strings.HasSuffix(toks[2], "(gclock")) {
		vals = r.nextTokens(ls)
	} else {
		vals = toks
		start = 2
		if strings.HasSuffix(toks[2], "(gclock") {
			start = 4
		}
	}

	if tag1 == "(net)" {
		r.decodePin(path.CPath[len(path.CPath)-1], vals, start)
		return
	}

	pin.Name = tag0
	pin.Cell = innerText(tag1)
	r.decodePin(pin, vals, start)
	path.CDelta += pin.Delta
	if tokLen > 2 && strings.HasSuffix(toks[2], "(gclock") {
		path.EGPin = len(path.CPath)
	}
	path.CPath = append(path.CPath, pin)
}

// continuation fetches the spilled value columns of a clock line.
func (r *TimeReport) continuation(ls *lineScanner) []string {
	line, _ := ls.Next()
	return strings.Fields(line)
}

// nextTokens fetches the spilled value columns of a pin line, preserving
// column offsets.
func (r *TimeReport) nextTokens(ls *lineScanner) []string {
	line, _ := ls.Next()
	return tokenize(line)
}

// highlightDelay records the current pin's incremental latency under the
// configured tag when the previous/current leaf pin pair is highlighted for
// this cell type.
func (r *TimeReport) highlightDelay(path *timing.TimePath, pv, pin *timing.Pin) {
	if len(r.cfg.HCD) == 0 || pv.Cell == "" {
		return
	}
	if _, ok := r.cfg.HCD[pv.Cell]; !ok {
		return
	}
	pairs, ok := r.cfg.HCD[pin.Cell]
	if !ok {
		return
	}
	pair := pv.LeafName() + ":" + pin.LeafName()
	if tag, ok := pairs[pair]; ok {
		path.HCD[tag] = pin.Incr
	}
}

func (r *TimeReport) classifyDrive(pin *timing.Pin) {
	dt := r.cfg.Drive
	if dt == nil || dt.Re == nil {
		return
	}
	m := dt.Re.FindStringSubmatch(pin.Cell)
	if len(m) < 2 {
		return
	}
	if v, ok := dt.Classes[m[1]]; ok {
		pin.Drive = v
	}
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// innerText strips the enclosing parentheses of a cell-type token.
func innerText(tok string) string {
	if len(tok) >= 2 && tok[0] == '(' {
		return tok[1 : len(tok)-1]
	}
	return tok
}

// mustFloat parses a numeric column. The surrounding lines are format
// invariants, so a bad value decodes as zero rather than aborting the path.
func mustFloat(tok string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	return v
}
