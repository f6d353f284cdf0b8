package training

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// PlateIncrement is the smallest load step available with standard plates.
const PlateIncrement = 2.5

// NotAvailable is the display value of a load range without a one-rep-max.
const NotAvailable = "N/A"

// LoadRange is a prescribed working load in kilograms. A zero value is "N/A".
type LoadRange struct {
	Min       float64
	Max       float64
	Available bool
}

// Single reports whether rounding collapsed the range to one value.
func (r LoadRange) Single() bool {
	return r.Available && r.Min == r.Max
}

// String renders the range as "N/A", "80kg" or "60kg - 72.5kg".
func (r LoadRange) String() string {
	if !r.Available {
		return NotAvailable
	}
	if r.Single() {
		return formatKg(r.Max)
	}
	return formatKg(r.Min) + " - " + formatKg(r.Max)
}

type loadRangeJSON struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Available bool     `json:"available"`
	Display   string   `json:"display"`
}

// MarshalJSON includes the rendered display string next to the numbers.
func (r LoadRange) MarshalJSON() ([]byte, error) {
	out := loadRangeJSON{Available: r.Available, Display: r.String()}
	if r.Available {
		out.Min, out.Max = &r.Min, &r.Max
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the form produced by MarshalJSON.
func (r *LoadRange) UnmarshalJSON(data []byte) error {
	var in loadRangeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = LoadRange{Available: in.Available}
	if in.Min != nil {
		r.Min = *in.Min
	}
	if in.Max != nil {
		r.Max = *in.Max
	}
	return nil
}

// WorkingLoad resolves the working-load range for a one-rep-max in a phase.
// A zero one-rep-max or an unknown phase gives an unavailable range.
func WorkingLoad(oneRepMax float64, phase Phase) (LoadRange, error) {
	if math.IsNaN(oneRepMax) || math.IsInf(oneRepMax, 0) || oneRepMax < 0 {
		return LoadRange{}, fmt.Errorf("one-rep-max %v: %w", oneRepMax, ErrInvalidArgument)
	}
	cfg, ok := phaseConfigs[phase]
	if !ok || oneRepMax == 0 {
		return LoadRange{}, nil
	}
	return LoadRange{
		Min:       RoundToPlate(oneRepMax * cfg.Intensity.Min),
		Max:       RoundToPlate(oneRepMax * cfg.Intensity.Max),
		Available: true,
	}, nil
}

// RoundToPlate rounds half-up to the nearest PlateIncrement.
func RoundToPlate(kg float64) float64 {
	return math.Floor(kg/PlateIncrement+0.5) * PlateIncrement
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "kg"
}
