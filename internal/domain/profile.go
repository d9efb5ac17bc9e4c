package domain

import (
	"fmt"
	"strings"
)

// ProbeKind selects what the module regulates on.
type ProbeKind int

const (
	ProbeTemperature ProbeKind = iota
	ProbePressure
)

// String returns a human-readable representation of the probe kind.
func (k ProbeKind) String() string {
	switch k {
	case ProbeTemperature:
		return "Temperature"
	case ProbePressure:
		return "Pressure"
	default:
		return "Unknown"
	}
}

// ParseProbeKind accepts the spellings used in catalog files.
// Matching is case-insensitive.
func ParseProbeKind(s string) (ProbeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp", "t":
		return ProbeTemperature, nil
	case "pressure", "press", "p":
		return ProbePressure, nil
	default:
		return 0, fmt.Errorf("unknown probe type %q", s)
	}
}

// Allowed parameter ranges, inclusive.
const (
	TemperatureMin = 70
	TemperatureMax = 140
	PressureMin    = 50
	PressureMax    = 500
	HardStartMin   = 1
	HardStartMax   = 50
	MinOutputMin   = 17
	MinOutputMax   = 48
)

// Profile is the set of parameters programmed into one unit.
// Profiles are built at catalog load time and not modified afterwards.
type Profile struct {
	// Model is the catalog key, e.g. "YB180"
	Model string

	// Probe selects temperature or pressure regulation
	Probe ProbeKind

	// SetPoint is in degrees F for temperature probes and psi for pressure probes
	SetPoint int

	// HardStart is the hard-start duration in tenths of a second
	HardStart int

	// MinimumOutput is the minimum output level in percent
	MinimumOutput int
}

// Validate checks every range invariant and returns a *ValidationError for
// the first violation found.
func (p Profile) Validate() error {
	if p.Model == "" {
		return &ValidationError{Field: "Model"}
	}

	switch p.Probe {
	case ProbeTemperature:
		if err := checkRange(p.Model, "SetPoint", p.SetPoint, TemperatureMin, TemperatureMax); err != nil {
			return err
		}
	case ProbePressure:
		if err := checkRange(p.Model, "SetPoint", p.SetPoint, PressureMin, PressureMax); err != nil {
			return err
		}
	default:
		return &ValidationError{Model: p.Model, Field: "ProbeType", Value: int(p.Probe), Min: 0, Max: 1}
	}

	if err := checkRange(p.Model, "HardStart", p.HardStart, HardStartMin, HardStartMax); err != nil {
		return err
	}
	return checkRange(p.Model, "MinimumOutputVoltage", p.MinimumOutput, MinOutputMin, MinOutputMax)
}

// Valid reports whether the profile satisfies every range invariant.
func (p Profile) Valid() bool {
	return p.Validate() == nil
}

func checkRange(model, field string, v, min, max int) error {
	if v < min || v > max {
		return &ValidationError{Model: model, Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}

// Summary returns the audit record text written for a programmed unit.
func (p Profile) Summary() string {
	return fmt.Sprintf("%s ProbeType: %s SetPoint: %d HardStart: %d MinimumOutputVoltage: %d",
		p.Model, p.Probe, p.SetPoint, p.HardStart, p.MinimumOutput)
}

// SetPointDisplay renders the set point with its unit.
func (p Profile) SetPointDisplay() string {
	if p.Probe == ProbePressure {
		return fmt.Sprintf("%d psi", p.SetPoint)
	}
	return fmt.Sprintf("%d F", p.SetPoint)
}

// HardStartDisplay renders the hard-start duration in seconds.
func (p Profile) HardStartDisplay() string {
	return fmt.Sprintf("%.1f s", float64(p.HardStart)/10)
}

// MinimumOutputDisplay renders the minimum output level.
func (p Profile) MinimumOutputDisplay() string {
	return fmt.Sprintf("%d %%", p.MinimumOutput)
}
