package timing

// Path carries the identification header shared by every reported path.
type Path struct {
	Ln       int    // line number of the Startpoint label
	Start    string // startpoint name
	StartClk string // startpoint clock
	StartEd  string // startpoint clock edge type
	End      string // endpoint name
	EndClk   string // endpoint clock
	EndEd    string // endpoint clock edge type
	Group    string // path group
	Type     string // delay type
	Scenario string

	Arrival  float64
	Required float64
	Slack    float64 // +Inf for an unconstrained endpoint
}

// TimePath is one fully parsed path from a report_timing dump. It is built
// incrementally by the parser and read-only afterwards.
type TimePath struct {
	Path

	SPin  int // index of the clock pin in LPath, 0 by fallback
	SGPin int // launch generated-clock boundary index, -1 when absent
	EGPin int // capture generated-clock boundary index, -1 when absent

	HCD     map[string]float64 // highlighted cell delays, tag -> incr
	Through []string           // pin names flagged as through points (<-)

	IDlyEn bool    // input delay present
	IDly   float64 // input delay
	SEV    float64 // launch clock edge value
	SSLat  float64 // launch clock source latency
	LLat   float64 // launch clock network latency
	LPath  []*Pin  // launch path: origin to clock pin, then data pins

	ODlyEn bool    // output delay present
	ODly   float64 // output delay
	EEV    float64 // capture clock edge value
	ESLat  float64 // capture clock source latency
	CLat   float64 // capture clock network latency
	CPath  []*Pin  // capture path: origin to endpoint clock pin

	MaxDlyEn bool // max-delay mode, clock handling bypassed
	MaxDly   float64
	PMargEn  bool // path margin present
	PMarg    float64

	Unc  float64 // clock uncertainty
	CRPR float64 // clock reconvergence pessimism removal
	Lib  float64 // library arc time

	LDelta float64 // launch clock delta sum
	CDelta float64 // capture clock delta sum
	DDelta float64 // data path delta sum
}

// NewTimePath returns an empty path with the undetected index markers set.
func NewTimePath() *TimePath {
	return &TimePath{
		SPin:  -1,
		SGPin: -1,
		EGPin: -1,
		HCD:   make(map[string]float64),
	}
}

// ClockSkew is the launch/capture latency difference net of CRPR.
func (p *TimePath) ClockSkew() float64 {
	return p.LLat - p.CLat - p.CRPR
}

// DataLatency is the pure data delay: arrival net of the launch clock
// contribution and any input delay.
func (p *TimePath) DataLatency() float64 {
	return p.Arrival - p.IDly - p.LLat - p.SEV
}
