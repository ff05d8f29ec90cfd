package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sdfghub/property-sub001/internal/models"
)

var cent = decimal.New(1, -2)

// Share is one unit's rounded part of a split amount.
type Share struct {
	UnitID string
	Amount decimal.Decimal
}

// SplitAmount distributes total across weights so that the shares add up to
// total exactly.
//
// Algorithm:
//   - unrounded_i = total × weight_i, rounded half away from zero to cents
//   - diff = total − Σ rounded
//   - if |diff| >= 0.01 the whole diff is added to the share of the unit with
//     the largest weight (the first one when weights tie)
//
// Only one share absorbs the residue; this is not a largest-remainder method.
func SplitAmount(total decimal.Decimal, weights []Weight) ([]Share, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("must have at least one weight")
	}

	shares := make([]Share, len(weights))
	sum := decimal.Zero
	top := 0
	for i, w := range weights {
		if !finite(w.Weight) {
			return nil, fmt.Errorf("%w: unit %s has weight %v", models.ErrInvalidMeasure, w.UnitID, w.Weight)
		}
		amount := total.Mul(decimal.NewFromFloat(w.Weight)).Round(2)
		shares[i] = Share{UnitID: w.UnitID, Amount: amount}
		sum = sum.Add(amount)
		if w.Weight > weights[top].Weight {
			top = i
		}
	}

	diff := total.Sub(sum)
	if diff.Abs().GreaterThanOrEqual(cent) {
		shares[top].Amount = shares[top].Amount.Add(diff)
	}

	return shares, nil
}
