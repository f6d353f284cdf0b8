package profiles

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/training"
)

// PlanDraft is a caller-held copy of a profile's plan. Edits only touch the
// copy; Service.Commit stores it. A draft is not safe for concurrent use.
type PlanDraft struct {
	profileID    string
	plan         models.Plan
	calibrations map[string]models.Calibration
	newID        func() string
}

// ProfileID returns the id of the profile the draft was taken from.
func (d *PlanDraft) ProfileID() string {
	return d.profileID
}

// Plan returns a copy of the edited plan.
func (d *PlanDraft) Plan() models.Plan {
	return d.plan.Clone()
}

func (d *PlanDraft) day(wd time.Weekday, create bool) (*models.DayPlan, error) {
	if wd < time.Sunday || wd > time.Saturday {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDay, wd)
	}
	if d.plan[wd] == nil && create {
		d.plan[wd] = &models.DayPlan{Name: wd.String(), Exercises: []models.Exercise{}}
	}
	return d.plan[wd], nil
}

func (d *PlanDraft) exercise(wd time.Weekday, id string) (*models.Exercise, error) {
	day, err := d.day(wd, false)
	if err != nil {
		return nil, err
	}
	if day != nil {
		for i := range day.Exercises {
			if day.Exercises[i].ID == id {
				return &day.Exercises[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrExerciseNotFound, id, wd)
}

// SetDayName names a weekday, turning a rest day into an empty training day.
func (d *PlanDraft) SetDayName(wd time.Weekday, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	day, err := d.day(wd, true)
	if err != nil {
		return err
	}
	day.Name = name
	return nil
}

// ClearDay turns a weekday into a rest day.
func (d *PlanDraft) ClearDay(wd time.Weekday) error {
	if _, err := d.day(wd, false); err != nil {
		return err
	}
	d.plan[wd] = nil
	return nil
}

// AddCalibrated appends a calibrated exercise for a master exercise and
// returns its id. A profile-level calibration for the same master exercise
// seeds the one-rep-max.
func (d *PlanDraft) AddCalibrated(wd time.Weekday, masterID string) (string, error) {
	master, ok := catalog.Lookup(masterID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownExercise, masterID)
	}
	day, err := d.day(wd, true)
	if err != nil {
		return "", err
	}
	ex := models.Exercise{
		ID:       d.newID(),
		Name:     master.Name,
		MasterID: master.ID,
		Mode:     models.ModeCalibrated,
	}
	if cal, ok := d.calibrations[masterID]; ok {
		test := cal.Test
		ex.Calibration = &test
		ex.OneRepMax = cal.OneRepMax
	}
	day.Exercises = append(day.Exercises, ex)
	return ex.ID, nil
}

// AddManual appends a manual exercise and returns its id. The name defaults
// to the master exercise name when masterID is set.
func (d *PlanDraft) AddManual(wd time.Weekday, name, masterID string, rx models.ManualPrescription) (string, error) {
	name = strings.TrimSpace(name)
	if masterID != "" {
		master, ok := catalog.Lookup(masterID)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownExercise, masterID)
		}
		if name == "" {
			name = master.Name
		}
	}
	if name == "" {
		return "", ErrInvalidName
	}
	day, err := d.day(wd, true)
	if err != nil {
		return "", err
	}
	ex := models.Exercise{
		ID:       d.newID(),
		Name:     name,
		MasterID: masterID,
		Mode:     models.ModeManual,
		Manual:   &rx,
	}
	day.Exercises = append(day.Exercises, ex)
	return ex.ID, nil
}

// Remove deletes an exercise from a weekday.
func (d *PlanDraft) Remove(wd time.Weekday, id string) error {
	if _, err := d.exercise(wd, id); err != nil {
		return err
	}
	day := d.plan[wd]
	kept := day.Exercises[:0]
	for _, ex := range day.Exercises {
		if ex.ID != id {
			kept = append(kept, ex)
		}
	}
	day.Exercises = kept
	return nil
}

// Calibrate switches an exercise to calibrated mode and stores the test and
// the resulting one-rep-max. Per-side weights are converted to the total
// load using the master exercise's bar weight; exercises without a master
// exercise only accept total entries.
func (d *PlanDraft) Calibrate(wd time.Weekday, id string, weight float64, reps int, entry catalog.WeightEntry) (float64, error) {
	ex, err := d.exercise(wd, id)
	if err != nil {
		return 0, err
	}
	total, err := catalog.EnteredTotal(ex.MasterID, weight, entry)
	if err != nil {
		return 0, err
	}
	orm, err := training.EstimateOneRepMax(total, reps)
	if err != nil {
		return 0, err
	}
	ex.Mode = models.ModeCalibrated
	ex.Manual = nil
	ex.Calibration = &models.CalibrationTest{Weight: total, Reps: reps}
	ex.OneRepMax = orm
	return orm, nil
}

// SetManual switches an exercise to manual mode with the given prescription,
// dropping any calibration data.
func (d *PlanDraft) SetManual(wd time.Weekday, id string, rx models.ManualPrescription) error {
	ex, err := d.exercise(wd, id)
	if err != nil {
		return err
	}
	ex.Mode = models.ModeManual
	ex.Calibration = nil
	ex.OneRepMax = 0
	ex.Manual = &rx
	return nil
}
