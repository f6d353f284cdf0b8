// Package schedule turns a profile's weekly plan into the prescription for
// a single calendar date.
package schedule

import (
	"strconv"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/training"
)

// Load placeholders shown instead of a weight.
const (
	LoadCalibrate = "Calibrate"
	LoadUnset     = "Set"
)

// Item is one exercise as it should be performed on the day.
type Item struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	MasterID    string              `json:"master_id,omitempty"`
	Mode        models.ExerciseMode `json:"mode"`
	Sets        string              `json:"sets"`
	Reps        string              `json:"reps"`
	Load        string              `json:"load"`
	LoadRange   *training.LoadRange `json:"load_range,omitempty"`
	OneRepMax   float64             `json:"one_rep_max,omitempty"`
	RestSeconds int                 `json:"rest_seconds"`
}

// Day is the prescription for one date.
type Day struct {
	Date        string                `json:"date"`
	Weekday     time.Weekday          `json:"weekday"`
	Rest        bool                  `json:"rest"`
	Name        string                `json:"name"`
	Phase       training.Prescription `json:"phase"`
	PhaseConfig training.PhaseConfig  `json:"phase_config"`
	Exercises   []Item                `json:"exercises"`
}

// Build computes the prescription for date. A nil profile, an empty day or
// a day without exercises is a rest day; the phase is filled in regardless.
func Build(profile *models.Profile, date time.Time) Day {
	rx := training.PhaseFor(date)
	cfg, _ := training.Config(rx.Phase)

	d := Day{
		Date:        date.Format("2006-01-02"),
		Weekday:     date.Weekday(),
		Rest:        true,
		Name:        "Rest",
		Phase:       rx,
		PhaseConfig: cfg,
		Exercises:   []Item{},
	}
	if profile == nil {
		return d
	}
	plan := profile.Plan.Day(date.Weekday())
	if plan == nil {
		return d
	}
	if plan.Name != "" {
		d.Name = plan.Name
	}
	if len(plan.Exercises) == 0 {
		return d
	}

	d.Rest = false
	for _, ex := range plan.Exercises {
		d.Exercises = append(d.Exercises, item(ex, rx, cfg))
	}
	return d
}

func item(ex models.Exercise, rx training.Prescription, cfg training.PhaseConfig) Item {
	it := Item{
		ID:          ex.ID,
		Name:        ex.Name,
		MasterID:    ex.MasterID,
		Mode:        ex.Mode,
		RestSeconds: cfg.RestSeconds,
	}

	if ex.Mode == models.ModeManual {
		var m models.ManualPrescription
		if ex.Manual != nil {
			m = *ex.Manual
		}
		it.Sets, it.Reps, it.Load = m.Sets, m.Reps, m.Load
		if it.Load == "" {
			it.Load = LoadUnset
		}
		return it
	}

	it.Sets = strconv.Itoa(rx.Sets)
	it.Reps = rx.Reps
	it.Load = LoadCalibrate
	if ex.OneRepMax > 0 {
		lr, err := training.WorkingLoad(ex.OneRepMax, rx.Phase)
		if err == nil && lr.Available {
			it.OneRepMax = ex.OneRepMax
			it.LoadRange = &lr
			it.Load = lr.String()
		}
	}
	return it
}
