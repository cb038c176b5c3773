package timing

// Coord is a physical placement coordinate reported next to a pin when the
// report was generated with the physical option.
type Coord struct {
	X, Y  int
	Valid bool
}

// Pin is one annotated arc on a timing path: a cell pin, or the net columns
// folded into the preceding cell pin. All numeric columns are optional in the
// report; absent columns keep their zero value.
type Pin struct {
	Ln    string // source line reference in the report
	Name  string // full hierarchical pin name
	Cell  string // cell type, empty for net arcs
	Coord Coord  // physical coordinate, when reported

	Drive float64 // driving-strength class, -1 when unclassified

	Fanout    int
	Cap       float64
	DeltaTran float64
	Tran      float64
	Derate    float64
	Delta     float64 // crosstalk delta
	Incr      float64 // incremental latency
	Path      float64 // cumulative path latency
}

// NewPin returns a Pin with the unclassified drive marker set. Every other
// field starts at its zero value and is filled in by the decoder.
func NewPin(ln string) *Pin {
	return &Pin{Ln: ln, Drive: -1.0}
}

// LeafName returns the last segment of the hierarchical pin name.
func (p *Pin) LeafName() string {
	for i := len(p.Name) - 1; i >= 0; i-- {
		if p.Name[i] == '/' {
			return p.Name[i+1:]
		}
	}
	return p.Name
}
