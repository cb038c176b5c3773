package timing

import (
	"math"
	"testing"
)

func TestLeafName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"u_core/u_ffa/CP", "CP"},
		{"u_core/Q", "Q"},
		{"clk", "clk"},
		{"", ""},
	}
	for _, tt := range tests {
		pin := &Pin{Name: tt.name}
		if got := pin.LeafName(); got != tt.want {
			t.Errorf("LeafName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNewPinDefaults(t *testing.T) {
	pin := NewPin("12")
	if pin.Ln != "12" {
		t.Errorf("Ln = %q, want %q", pin.Ln, "12")
	}
	if pin.Drive != -1.0 {
		t.Errorf("Drive = %v, want -1", pin.Drive)
	}
	if pin.Coord.Valid {
		t.Error("Coord.Valid = true, want false")
	}
}

func TestNewTimePathDefaults(t *testing.T) {
	path := NewTimePath()
	if path.SPin != -1 || path.SGPin != -1 || path.EGPin != -1 {
		t.Errorf("index markers = %d/%d/%d, want -1/-1/-1",
			path.SPin, path.SGPin, path.EGPin)
	}
	if path.HCD == nil {
		t.Error("HCD map not initialized")
	}
}

func TestDerivedLatencies(t *testing.T) {
	path := NewTimePath()
	path.LLat = 0.5
	path.CLat = 0.6
	path.CRPR = 0.05
	path.Arrival = 1.2
	path.IDly = 0.0
	path.SEV = 0.0

	if got, want := path.ClockSkew(), -0.15; math.Abs(got-want) > 1e-9 {
		t.Errorf("ClockSkew() = %v, want %v", got, want)
	}
	if got, want := path.DataLatency(), 0.7; math.Abs(got-want) > 1e-9 {
		t.Errorf("DataLatency() = %v, want %v", got, want)
	}
}
