package units

import (
	"math"
	"testing"
)

func TestScaleToNative(t *testing.T) {
	tests := []struct {
		unit     string
		expected float64
		wantErr  bool
	}{
		{UnitMeV, 1, false},
		{"GeV", 1000, false},
		{UnitTeV, 1e6, false},
		{"furlong", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, err := ScaleToNative(tt.unit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ScaleToNative(%q) error = %v, wantErr %v", tt.unit, err, tt.wantErr)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ScaleToNative(%q) = %f, want %f", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit     string
		expected bool
	}{
		{UnitMeV, true},
		{UnitGeV, true},
		{"GeV", true},
		{UnitTeV, true},
		{"eV", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.expected {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

func TestGeVRoundTrip(t *testing.T) {
	if GeV != 1000 {
		t.Fatalf("GeV = %v, want 1000", GeV)
	}
	if got := ToGeV(FromGeV(42.5)); got != 42.5 {
		t.Errorf("ToGeV(FromGeV(42.5)) = %v", got)
	}
}
