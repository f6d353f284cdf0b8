package training

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for inputs outside a function's domain,
// such as a negative weight. Missing data is not an error.
var ErrInvalidArgument = errors.New("invalid argument")

// EstimateOneRepMax estimates the maximal single-repetition load from a
// strength test. totalWeight must already include any barbell weight.
//
// The estimate is the linear approximation totalWeight * (1 + reps/30),
// rounded to 2 decimals. A single rep is returned as-is. A zero weight or
// non-positive reps yields 0, meaning the exercise is not calibrated yet.
func EstimateOneRepMax(totalWeight float64, reps int) (float64, error) {
	if math.IsNaN(totalWeight) || math.IsInf(totalWeight, 0) || totalWeight < 0 {
		return 0, fmt.Errorf("weight %v: %w", totalWeight, ErrInvalidArgument)
	}
	if totalWeight == 0 || reps <= 0 {
		return 0, nil
	}
	if reps == 1 {
		return totalWeight, nil
	}
	return round2(totalWeight * (1 + float64(reps)/30)), nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
