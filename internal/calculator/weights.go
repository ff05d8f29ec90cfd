package calculator

import (
	"fmt"
	"math"

	"github.com/sdfghub/property-sub001/internal/models"
)

// Epsilon is the floor applied to every raw value before normalization.
// It keeps the denominator positive when all raws are zero and gives
// zero-valued units a vanishing, non-zero share.
const Epsilon = 1e-12

// Weight is the raw measured value and normalized weight of one unit.
type Weight struct {
	UnitID string
	Raw    float64
	Weight float64
}

// Normalize computes weight_i = max(Epsilon, raw_i) / Σ max(Epsilon, raw_j)
// and returns a copy of items with Weight filled in. Order is preserved.
// Non-finite raws, and raws whose sum overflows, fail with
// models.ErrInvalidMeasure.
func Normalize(items []Weight) ([]Weight, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("must have at least one unit")
	}

	var sum float64
	for _, it := range items {
		if !finite(it.Raw) {
			return nil, fmt.Errorf("%w: unit %s has raw value %v", models.ErrInvalidMeasure, it.UnitID, it.Raw)
		}
		sum += floor(it.Raw)
	}
	if !finite(sum) || sum <= 0 {
		return nil, fmt.Errorf("%w: raw values sum to %v", models.ErrInvalidMeasure, sum)
	}

	out := make([]Weight, len(items))
	for i, it := range items {
		out[i] = Weight{
			UnitID: it.UnitID,
			Raw:    it.Raw,
			Weight: floor(it.Raw) / sum,
		}
	}
	return out, nil
}

func floor(raw float64) float64 {
	if raw > Epsilon {
		return raw
	}
	return Epsilon
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
