package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
)

// tokenRe splits a report line into whitespace-preserving tokens: each token
// keeps its leading spaces so byte offsets can be compared against the
// remembered column-header row.
var tokenRe = regexp.MustCompile(`\s*\S+`)

func tokenize(line string) []string {
	return tokenRe.FindAllString(line, -1)
}

// annotation runes that may trail the incremental-latency column.
const annoSyms = "H^*&$+@"

// tokCursor walks a tokenized line while tracking the end byte offset of the
// current token. It is the decoder's peek/consume abstraction: decoding stops
// as soon as the cursor runs out, which keeps the best-effort contract in one
// place instead of scattered index arithmetic.
type tokCursor struct {
	toks []string
	idx  int
	end  int // byte offset one past the current token
}

func newTokCursor(toks []string, start int) tokCursor {
	c := tokCursor{toks: toks, idx: start}
	if start >= len(toks) {
		return c
	}
	for i := 0; i <= start; i++ {
		c.end += len(toks[i])
	}
	return c
}

func (c *tokCursor) ok() bool { return c.idx < len(c.toks) }

func (c *tokCursor) peek() string { return c.toks[c.idx] }

// advance moves to the next token, reporting false when the line is out.
func (c *tokCursor) advance() bool {
	c.idx++
	if c.idx >= len(c.toks) {
		return false
	}
	c.end += len(c.toks[c.idx])
	return true
}

// optional columns in their fixed report order.
var pinColumns = []struct {
	opt Options
	set func(*timing.Pin, float64)
}{
	{OptFanout, func(p *timing.Pin, v float64) { p.Fanout = int(v) }},
	{OptCapacitance, func(p *timing.Pin, v float64) { p.Cap = v }},
	{OptDeltaTransition, func(p *timing.Pin, v float64) { p.DeltaTran = v }},
	{OptTransition, func(p *timing.Pin, v float64) { p.Tran = v }},
	{OptDerate, func(p *timing.Pin, v float64) { p.Derate = v }},
	{OptDelta, func(p *timing.Pin, v float64) { p.Delta = v }},
}

// decodePin fills pin from the value tokens of one report line, starting at
// token index start. Only columns whose option is active are consumed; which
// token belongs to which column is decided by comparing token end offsets
// against the header row. Decoding is best-effort: a short or malformed line
// leaves the remaining fields at their zero values.
func (r *TimeReport) decodePin(pin *timing.Pin, toks []string, start int) {
	cur := newTokCursor(toks, start)
	if !cur.ok() || len(r.head) == 0 {
		return
	}

	tid, tpos := 0, len(r.head[0])
	for _, col := range pinColumns {
		if !r.Opts.Has(col.opt) {
			continue
		}
		tid++
		if tid >= len(r.head) {
			return
		}
		tpos += len(r.head[tid])
		if tpos < cur.end {
			continue // column empty on this line
		}
		v, err := parseFloat(cur.peek())
		if err != nil {
			return
		}
		col.set(pin, v)
		if !cur.advance() {
			return
		}
	}

	v, err := parseFloat(cur.peek())
	if err != nil {
		return
	}
	pin.Incr = v
	if !cur.advance() {
		return
	}
	if strings.ContainsRune(annoSyms, lastRune(cur.peek())) {
		if !cur.advance() {
			return
		}
	}
	if v, err = parseFloat(cur.peek()); err != nil {
		return
	}
	pin.Path = v
	if !cur.advance() {
		return
	}
	if edge := lastRune(cur.peek()); edge == 'r' || edge == 'f' {
		if !cur.advance() {
			return
		}
	}
	if r.Opts.Has(OptPhysical) {
		pin.Coord = parseCoord(cur.peek())
	}
}

func parseFloat(tok string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(tok), 64)
}

func lastRune(tok string) rune {
	if tok == "" {
		return 0
	}
	return rune(tok[len(tok)-1])
}

// parseCoord decodes a trailing "(x,y)" coordinate token.
func parseCoord(tok string) timing.Coord {
	s := strings.TrimSpace(tok)
	if len(s) < 2 {
		return timing.Coord{}
	}
	x, y, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return timing.Coord{}
	}
	xv, err := strconv.Atoi(x)
	if err != nil {
		return timing.Coord{}
	}
	yv, err := strconv.Atoi(y)
	if err != nil {
		return timing.Coord{}
	}
	return timing.Coord{X: xv, Y: yv, Valid: true}
}
