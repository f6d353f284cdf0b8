package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/catalog"
)

// ExerciseMode selects which field group of an Exercise is authoritative.
type ExerciseMode string

const (
	ModeCalibrated ExerciseMode = "calibrated"
	ModeManual     ExerciseMode = "manual"
)

// ErrInvalidDocument wraps every structural problem found by Validate.
var ErrInvalidDocument = errors.New("invalid document")

// CalibrationTest is the last strength test entered for an exercise. Weight
// is always the total load; per-side entry is converted before storing.
type CalibrationTest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// ManualPrescription is free text typed by the user for manual exercises.
type ManualPrescription struct {
	Sets string `json:"sets"`
	Reps string `json:"reps"`
	Load string `json:"load"`
}

// Exercise is one entry of a day's plan.
type Exercise struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	MasterID string       `json:"master_id,omitempty"`
	Mode     ExerciseMode `json:"mode"`

	// Calibrated mode.
	Calibration *CalibrationTest `json:"calibration,omitempty"`
	OneRepMax   float64          `json:"one_rep_max,omitempty"`

	// Manual mode.
	Manual *ManualPrescription `json:"manual,omitempty"`
}

// Validate checks that exactly the field group selected by Mode is set.
func (e *Exercise) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exercise without id: %w", ErrInvalidDocument)
	}
	switch e.Mode {
	case ModeCalibrated:
		if e.Manual != nil {
			return fmt.Errorf("exercise %s: calibrated exercise has manual fields: %w", e.ID, ErrInvalidDocument)
		}
		if e.OneRepMax < 0 {
			return fmt.Errorf("exercise %s: negative one-rep-max: %w", e.ID, ErrInvalidDocument)
		}
	case ModeManual:
		if e.Calibration != nil || e.OneRepMax != 0 {
			return fmt.Errorf("exercise %s: manual exercise has calibration fields: %w", e.ID, ErrInvalidDocument)
		}
	default:
		return fmt.Errorf("exercise %s: unknown mode %q: %w", e.ID, e.Mode, ErrInvalidDocument)
	}
	if e.MasterID != "" {
		if _, ok := catalog.Lookup(e.MasterID); !ok {
			return fmt.Errorf("exercise %s: unknown master exercise %q: %w", e.ID, e.MasterID, ErrInvalidDocument)
		}
	}
	return nil
}

// DayPlan is the named list of exercises for one weekday.
type DayPlan struct {
	Name      string     `json:"dayName"`
	Exercises []Exercise `json:"exercises"`
}

// Plan holds one entry per weekday, index 0 = Sunday. A nil entry is a rest day.
type Plan [7]*DayPlan

// Day returns the plan for a weekday, nil on rest days.
func (p Plan) Day(d time.Weekday) *DayPlan {
	if d < time.Sunday || d > time.Saturday {
		return nil
	}
	return p[d]
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	var out Plan
	for i, day := range p {
		if day == nil {
			continue
		}
		cp := &DayPlan{Name: day.Name, Exercises: make([]Exercise, len(day.Exercises))}
		for j, ex := range day.Exercises {
			cp.Exercises[j] = ex.clone()
		}
		out[i] = cp
	}
	return out
}

func (e Exercise) clone() Exercise {
	if e.Calibration != nil {
		c := *e.Calibration
		e.Calibration = &c
	}
	if e.Manual != nil {
		m := *e.Manual
		e.Manual = &m
	}
	return e
}

// Validate checks every exercise and that exercise ids are unique.
func (p *Plan) Validate() error {
	seen := make(map[string]bool)
	for d, day := range p {
		if day == nil {
			continue
		}
		for i := range day.Exercises {
			ex := &day.Exercises[i]
			if err := ex.Validate(); err != nil {
				return fmt.Errorf("%s: %w", time.Weekday(d), err)
			}
			if seen[ex.ID] {
				return fmt.Errorf("%s: duplicate exercise id %s: %w", time.Weekday(d), ex.ID, ErrInvalidDocument)
			}
			seen[ex.ID] = true
		}
	}
	return nil
}

// Calibration is a profile-level strength test for a master exercise.
type Calibration struct {
	MasterID     string          `json:"master_id"`
	Test         CalibrationTest `json:"test"`
	OneRepMax    float64         `json:"one_rep_max"`
	CalibratedAt time.Time       `json:"calibrated_at"`
}

// LoggedSet is one performed set.
type LoggedSet struct {
	Reps int     `json:"reps"`
	Load float64 `json:"load"`
}

// WorkoutLog records the sets performed for one exercise on one date.
type WorkoutLog struct {
	Date       string      `json:"date"`
	ExerciseID string      `json:"exercise_id"`
	Phase      string      `json:"phase,omitempty"`
	Sets       []LoggedSet `json:"sets"`
}

// Validate checks the date format and set values.
func (l *WorkoutLog) Validate() error {
	if _, err := time.Parse("2006-01-02", l.Date); err != nil {
		return fmt.Errorf("workout log date %q: %w", l.Date, ErrInvalidDocument)
	}
	if l.ExerciseID == "" {
		return fmt.Errorf("workout log without exercise id: %w", ErrInvalidDocument)
	}
	for i, s := range l.Sets {
		if s.Reps < 0 || s.Load < 0 {
			return fmt.Errorf("workout log set %d: negative value: %w", i+1, ErrInvalidDocument)
		}
	}
	return nil
}

// Profile is one training profile.
type Profile struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Plan         Plan                   `json:"plan"`
	Calibrations map[string]Calibration `json:"calibrations,omitempty"`
	History      []WorkoutLog           `json:"history,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// NewProfile creates a profile with a blank plan: every day is a rest day.
func NewProfile(id, name string, now time.Time) *Profile {
	return &Profile{
		ID:           id,
		Name:         name,
		Calibrations: make(map[string]Calibration),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the profile and its plan.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile without id: %w", ErrInvalidDocument)
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s without name: %w", p.ID, ErrInvalidDocument)
	}
	if err := p.Plan.Validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.ID, err)
	}
	for key, c := range p.Calibrations {
		if key != c.MasterID {
			return fmt.Errorf("profile %s: calibration key %q holds %q: %w", p.ID, key, c.MasterID, ErrInvalidDocument)
		}
	}
	for i := range p.History {
		if err := p.History[i].Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
	}
	return nil
}

// FindExercise locates an exercise anywhere in the plan.
func (p *Profile) FindExercise(id string) (*Exercise, time.Weekday, bool) {
	for d, day := range p.Plan {
		if day == nil {
			continue
		}
		for i := range day.Exercises {
			if day.Exercises[i].ID == id {
				return &day.Exercises[i], time.Weekday(d), true
			}
		}
	}
	return nil, 0, false
}

// DefaultProfileID is the id of the profile in a fresh document.
const DefaultProfileID = "default"

// ProfilesData is the whole persisted document.
type ProfilesData struct {
	ActiveProfileID string              `json:"activeProfileId"`
	Profiles        map[string]*Profile `json:"profiles"`
}

// DefaultProfilesData is the document used when nothing has been saved yet.
func DefaultProfilesData(now time.Time) *ProfilesData {
	return &ProfilesData{
		ActiveProfileID: DefaultProfileID,
		Profiles: map[string]*Profile{
			DefaultProfileID: NewProfile(DefaultProfileID, "Default Plan", now),
		},
	}
}

// Active returns the active profile, nil when none is active.
func (d *ProfilesData) Active() *Profile {
	if d.ActiveProfileID == "" {
		return nil
	}
	return d.Profiles[d.ActiveProfileID]
}

// Validate checks every profile and the active id.
func (d *ProfilesData) Validate() error {
	for key, p := range d.Profiles {
		if p == nil {
			return fmt.Errorf("profile %q is null: %w", key, ErrInvalidDocument)
		}
		if p.ID != key {
			return fmt.Errorf("profile key %q holds id %q: %w", key, p.ID, ErrInvalidDocument)
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if d.ActiveProfileID != "" {
		if _, ok := d.Profiles[d.ActiveProfileID]; !ok {
			return fmt.Errorf("active profile %q does not exist: %w", d.ActiveProfileID, ErrInvalidDocument)
		}
	}
	return nil
}
