// Package units provides shared constants and conversions for energy units.
//
// Event records carry energies, momenta and masses in MeV, the native unit
// of the simulation. Thresholds are configured and results reported in GeV.
package units

import (
	"fmt"
	"strings"
)

// Energy scale factors relative to the native unit.
const (
	MeV = 1.0
	GeV = 1000 * MeV
	TeV = 1000 * GeV
)

// Unit names accepted by ScaleToNative.
const (
	UnitMeV = "mev"
	UnitGeV = "gev"
	UnitTeV = "tev"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UnitMeV, UnitGeV, UnitTeV}

// IsValid checks if the given unit is in the list of valid units.
// Matching is case-insensitive so "GeV" and "gev" are equivalent.
func IsValid(unit string) bool {
	unit = strings.ToLower(unit)
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "MeV, GeV, TeV"
}

// ScaleToNative returns the factor that converts a value expressed in unit
// into the native unit.
func ScaleToNative(unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case UnitMeV:
		return MeV, nil
	case UnitGeV:
		return GeV, nil
	case UnitTeV:
		return TeV, nil
	}
	return 0, fmt.Errorf("unknown energy unit %q (valid: %s)", unit, GetValidUnitsString())
}

// ToGeV converts a native-unit value to GeV for reporting.
func ToGeV(valueMeV float64) float64 {
	return valueMeV / GeV
}

// FromGeV converts a GeV threshold to the native unit.
func FromGeV(valueGeV float64) float64 {
	return valueGeV * GeV
}
