// Package catalog is the static master-exercise lookup table.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/claude/liftplan/internal/training"
)

// ErrPerSideWithoutBar is returned for a per-side entry on an exercise that
// has no master exercise, so there is no bar weight to add.
var ErrPerSideWithoutBar = fmt.Errorf("per-side weight needs a master exercise: %w", training.ErrInvalidArgument)

// ErrUnknownExercise is returned for a master exercise id not in the table.
var ErrUnknownExercise = errors.New("unknown master exercise")

// InputType says how an exercise is loaded.
type InputType string

const (
	// Bilateral exercises take plates on two sides of a bar.
	Bilateral InputType = "bilateral"
	// Unilateral exercises take a single combined load (machines, single dumbbell).
	Unilateral InputType = "unilateral"
)

// WeightEntry is how the user typed a test weight. It is transient input,
// never part of a persisted exercise.
type WeightEntry string

const (
	EntryTotal   WeightEntry = "total"
	EntryPerSide WeightEntry = "perSide"
)

// ParseWeightEntry defaults to EntryTotal for an empty string.
func ParseWeightEntry(s string) (WeightEntry, bool) {
	switch WeightEntry(s) {
	case "", EntryTotal:
		return EntryTotal, true
	case EntryPerSide:
		return EntryPerSide, true
	}
	return "", false
}

// Exercise is a master exercise definition.
type Exercise struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MuscleGroup   string    `json:"muscle_group"`
	InputType     InputType `json:"input_type"`
	BarbellWeight float64   `json:"barbell_weight"`
}

// TotalWeight converts an entered test weight to the total load lifted.
// Per-side entries on bilateral exercises count both sides plus the bar.
// The entered weight is checked before conversion.
func (e Exercise) TotalWeight(weight float64, entry WeightEntry) (float64, error) {
	if err := checkWeight(weight); err != nil {
		return 0, err
	}
	if e.InputType == Bilateral && entry == EntryPerSide {
		return weight*2 + e.BarbellWeight, nil
	}
	return weight, nil
}

// EnteredTotal is TotalWeight for an exercise that may have no master
// exercise. Without one, only total entries are accepted.
func EnteredTotal(masterID string, weight float64, entry WeightEntry) (float64, error) {
	if masterID == "" {
		if entry == EntryPerSide {
			return 0, ErrPerSideWithoutBar
		}
		if err := checkWeight(weight); err != nil {
			return 0, err
		}
		return weight, nil
	}
	e, ok := Lookup(masterID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownExercise, masterID)
	}
	return e.TotalWeight(weight, entry)
}

func checkWeight(weight float64) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("weight %v: %w", weight, training.ErrInvalidArgument)
	}
	return nil
}

var exercises = []Exercise{
	{ID: "barbell_bench_press", Name: "Barbell Bench Press", MuscleGroup: "chest", InputType: Bilateral, BarbellWeight: 20},
	{ID: "barbell_back_squat", Name: "Barbell Back Squat", MuscleGroup: "legs", InputType: Bilateral, BarbellWeight: 20},
	{ID: "barbell_bent_over_row", Name: "Barbell Bent-Over Row", MuscleGroup: "back", InputType: Bilateral, BarbellWeight: 20},
	{ID: "barbell_overhead_press", Name: "Barbell Overhead Press", MuscleGroup: "shoulders", InputType: Bilateral, BarbellWeight: 20},
	{ID: "barbell_curl", Name: "Barbell Curl", MuscleGroup: "biceps", InputType: Bilateral, BarbellWeight: 10},

	{ID: "incline_dumbbell_press", Name: "Incline Dumbbell Press", MuscleGroup: "chest", InputType: Unilateral},
	{ID: "leg_press_45", Name: "45° Leg Press", MuscleGroup: "legs", InputType: Unilateral},
	{ID: "triceps_pushdown", Name: "Triceps Pushdown", MuscleGroup: "triceps", InputType: Unilateral},
	{ID: "pull_up", Name: "Pull-Up", MuscleGroup: "back", InputType: Unilateral},
}

var byID = func() map[string]Exercise {
	m := make(map[string]Exercise, len(exercises))
	for _, e := range exercises {
		m[e.ID] = e
	}
	return m
}()

// Lookup finds a master exercise by id.
func Lookup(id string) (Exercise, bool) {
	e, ok := byID[id]
	return e, ok
}

// All returns a copy of the table ordered by muscle group, then name.
func All() []Exercise {
	out := make([]Exercise, len(exercises))
	copy(out, exercises)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MuscleGroup != out[j].MuscleGroup {
			return out[i].MuscleGroup < out[j].MuscleGroup
		}
		return out[i].Name < out[j].Name
	})
	return out
}
