// Package segment splits a timing path into named segments by grouping
// consecutive pins under tags and summing their incremental latencies and
// crosstalk deltas.
package segment

import (
	"regexp"

	"github.com/OpenTraceLab/OpenTraceSTA/pkg/timing"
)

// TotalPath labels runs of pins that no tag claims.
const TotalPath = "TP"

// TagRule maps pins fully matching Re to Tag.
type TagRule struct {
	Tag string
	Re  *regexp.Regexp
}

// TagTable is the ordered rule list plus an optional fallback tag applied to
// pins no rule matches. A tag stays in force while its own pattern keeps
// matching; a fallback tag without a rule of its own is re-evaluated on every
// pin instead.
type TagTable struct {
	Rules   []TagRule
	Default string
}

func (t *TagTable) match(name string) string {
	for _, tr := range t.Rules {
		if tr.Re.MatchString(name) {
			return tr.Tag
		}
	}
	return t.Default
}

func (t *TagTable) pattern(tag string) *regexp.Regexp {
	for _, tr := range t.Rules {
		if tr.Tag == tag {
			return tr.Re
		}
	}
	return nil
}

// Segment is one run of same-tagged consecutive pins with its summed value.
type Segment struct {
	Tag   string
	Value float64
}

// Result holds the segment breakdowns of one path: clock latency and data
// parts of the launch side, and the capture clock side, each split into an
// incremental-latency and a crosstalk-delta sequence. Matching positions of
// a lat/delta pair always carry the same tag.
type Result struct {
	LaunchLat    []Segment
	LaunchDelta  []Segment
	DataLat      []Segment
	DataDelta    []Segment
	CaptureLat   []Segment
	CaptureDelta []Segment
}

// scanState is the walk state of one pin sequence: the active tag and the
// sums accumulated since the last flush.
type scanState struct {
	tags  *TagTable
	tag   string
	first bool
	lat   float64
	delta float64
}

func (s *scanState) reset() {
	s.tag, s.first, s.lat, s.delta = "", true, 0, 0
}

// feed accounts one pin, flushing the finished run into lat/delta when the
// active tag ends. An untagged run flushes under the TotalPath label.
func (s *scanState) feed(pin *timing.Pin, lat, delta *[]Segment) {
	switch re := s.tags.pattern(s.tag); {
	case s.tag == "":
		s.tag = s.tags.match(pin.Name)
		switch {
		case s.first:
			s.first = false
			s.lat, s.delta = pin.Incr, pin.Delta
		case s.tag != "":
			*lat = append(*lat, Segment{Tag: TotalPath, Value: s.lat})
			*delta = append(*delta, Segment{Tag: TotalPath, Value: s.delta})
			s.lat, s.delta = pin.Incr, pin.Delta
		default:
			s.lat += pin.Incr
			s.delta += pin.Delta
		}
	case re == nil || !re.MatchString(pin.Name):
		newTag := s.tags.match(pin.Name)
		if newTag != s.tag {
			*lat = append(*lat, Segment{Tag: s.tag, Value: s.lat})
			*delta = append(*delta, Segment{Tag: s.tag, Value: s.delta})
			s.tag, s.lat, s.delta = newTag, pin.Incr, pin.Delta
		} else {
			s.lat += pin.Incr
			s.delta += pin.Delta
		}
	default:
		s.lat += pin.Incr
		s.delta += pin.Delta
	}
}

func (s *scanState) key() string {
	if s.tag == "" {
		return TotalPath
	}
	return s.tag
}

// Classify walks the path's pin lists and builds the segment breakdowns.
// The launch walk flushes at the clock pin, where the clock latency part
// ends and the data part begins with fresh state; the trailing data and
// capture runs flush under the last active tag.
func Classify(path *timing.TimePath, tags *TagTable) *Result {
	if tags == nil {
		tags = &TagTable{}
	}

	res := &Result{}
	st := &scanState{tags: tags}
	st.reset()
	key, clk := TotalPath, true

	for cid, pin := range path.LPath {
		if clk {
			st.feed(pin, &res.LaunchLat, &res.LaunchDelta)
		} else {
			st.feed(pin, &res.DataLat, &res.DataDelta)
		}
		key = st.key()
		if cid == path.SPin {
			res.LaunchLat = append(res.LaunchLat, Segment{Tag: key, Value: st.lat})
			res.LaunchDelta = append(res.LaunchDelta, Segment{Tag: key, Value: st.delta})
			st.reset()
			clk = false
		}
	}
	if len(path.LPath) > 0 {
		res.DataLat = append(res.DataLat, Segment{Tag: key, Value: st.lat})
		res.DataDelta = append(res.DataDelta, Segment{Tag: key, Value: st.delta})
	}

	st.reset()
	for _, pin := range path.CPath {
		st.feed(pin, &res.CaptureLat, &res.CaptureDelta)
	}
	res.CaptureLat = append(res.CaptureLat, Segment{Tag: st.key(), Value: st.lat})
	res.CaptureDelta = append(res.CaptureDelta, Segment{Tag: st.key(), Value: st.delta})

	return res
}

// Sum totals one segment list.
func Sum(segs []Segment) float64 {
	var v float64
	for _, s := range segs {
		v += s.Value
	}
	return v
}
