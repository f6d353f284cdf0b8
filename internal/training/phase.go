package training

import "time"

// Phase is one segment of the 3-week undulating periodization cycle.
type Phase string

const (
	HighVolume   Phase = "highVolume"
	MediumVolume Phase = "mediumVolume"
	LowVolume    Phase = "lowVolume"
)

// IntensityBand is the working-load window as fractions of one-rep-max.
type IntensityBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PhaseConfig holds the display and loading parameters of a phase.
type PhaseConfig struct {
	Phase       Phase         `json:"phase"`
	Name        string        `json:"name"`
	Color       string        `json:"color"`
	RestSeconds int           `json:"rest_seconds"`
	Intensity   IntensityBand `json:"intensity"`
}

// Prescription is the default volume for a date: which phase, how many sets
// and which rep range.
type Prescription struct {
	Phase Phase  `json:"phase"`
	Sets  int    `json:"sets"`
	Reps  string `json:"reps"`
}

// cycle lists phases in rotation order. Index is (week-1) mod 3.
var cycle = [...]Phase{HighVolume, MediumVolume, LowVolume}

var prescriptions = map[Phase]Prescription{
	HighVolume:   {Phase: HighVolume, Sets: 3, Reps: "12-15"},
	MediumVolume: {Phase: MediumVolume, Sets: 3, Reps: "8-10"},
	LowVolume:    {Phase: LowVolume, Sets: 4, Reps: "4-6"},
}

var phaseConfigs = map[Phase]PhaseConfig{
	HighVolume: {
		Phase:       HighVolume,
		Name:        "Workout 1",
		Color:       "#3B82F6",
		RestSeconds: 180,
		Intensity:   IntensityBand{Min: 0.60, Max: 0.70},
	},
	MediumVolume: {
		Phase:       MediumVolume,
		Name:        "Workout 2",
		Color:       "#10B981",
		RestSeconds: 180,
		Intensity:   IntensityBand{Min: 0.70, Max: 0.80},
	},
	LowVolume: {
		Phase:       LowVolume,
		Name:        "Workout 3",
		Color:       "#EF4444",
		RestSeconds: 240,
		Intensity:   IntensityBand{Min: 0.80, Max: 0.90},
	},
}

// Phases returns the phases in cycle order.
func Phases() []Phase {
	return []Phase{cycle[0], cycle[1], cycle[2]}
}

// ParsePhase validates a phase key.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(s)
	_, ok := phaseConfigs[p]
	return p, ok
}

// Valid reports whether p is one of the three known phases.
func (p Phase) Valid() bool {
	_, ok := phaseConfigs[p]
	return ok
}

// Config returns the configuration of a phase.
func Config(p Phase) (PhaseConfig, bool) {
	c, ok := phaseConfigs[p]
	return c, ok
}

// DefaultPrescription returns the sets/reps a phase prescribes.
func DefaultPrescription(p Phase) (Prescription, bool) {
	rx, ok := prescriptions[p]
	return rx, ok
}

// WeekOfYear numbers the weeks of date's calendar year starting at 1, where
// weeks run Sunday to Saturday and the first week is the one holding Jan 1.
// Only the calendar fields of date in its own location are used, so time of
// day and DST shifts never move a date into another week.
func WeekOfYear(date time.Time) int {
	jan1 := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
	days := date.YearDay() - 1
	n := days + int(jan1.Weekday()) + 1
	return (n + 6) / 7
}

// PhaseFor maps a calendar date to its phase and default prescription.
func PhaseFor(date time.Time) Prescription {
	idx := (WeekOfYear(date) - 1) % len(cycle)
	return prescriptions[cycle[idx]]
}

// TableEntry is one row of the phase reference table.
type TableEntry struct {
	PhaseConfig
	Sets int    `json:"sets"`
	Reps string `json:"reps"`
}

// Table lists every phase with its default volume, in cycle order.
func Table() []TableEntry {
	out := make([]TableEntry, 0, len(cycle))
	for _, p := range cycle {
		rx := prescriptions[p]
		out = append(out, TableEntry{PhaseConfig: phaseConfigs[p], Sets: rx.Sets, Reps: rx.Reps})
	}
	return out
}
