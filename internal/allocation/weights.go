package allocation

import (
	"context"
	"fmt"

	"github.com/sdfghub/property-sub001/internal/calculator"
	"github.com/sdfghub/property-sub001/internal/models"
)

// MeasureReader reads per-period unit measurements.
type MeasureReader interface {
	MeasureValues(ctx context.Context, periodID, typeCode string) (map[string]float64, error)
}

// Builder computes raw values and normalized weights for a list of units.
type Builder struct {
	measures MeasureReader
}

// NewBuilder creates a Builder reading measurements from measures.
func NewBuilder(measures MeasureReader) *Builder {
	return &Builder{measures: measures}
}

// BuildWeights returns one weight per unit, in the order of unitIDs.
// Units without a reading for a required measure type contribute raw 0.
func (b *Builder) BuildWeights(ctx context.Context, periodID string, unitIDs []string, rule *models.AllocationRule) ([]calculator.Weight, error) {
	basis, err := rule.Basis()
	if err != nil {
		return nil, err
	}

	raws := make([]calculator.Weight, len(unitIDs))
	for i, id := range unitIDs {
		raws[i].UnitID = id
	}

	switch basis := basis.(type) {
	case models.EqualBasis:
		for i := range raws {
			raws[i].Raw = 1
		}

	case models.MeasureBasis:
		values, err := b.measures.MeasureValues(ctx, periodID, basis.TypeCode)
		if err != nil {
			return nil, err
		}
		for i := range raws {
			raws[i].Raw = values[raws[i].UnitID]
		}

	case models.MixedBasis:
		for _, part := range basis.Parts {
			values, err := b.measures.MeasureValues(ctx, periodID, part.TypeCode)
			if err != nil {
				return nil, err
			}
			for i := range raws {
				raws[i].Raw += part.Weight * values[raws[i].UnitID]
			}
		}

	default:
		return nil, fmt.Errorf("%w: %T", models.ErrUnsupportedMethod, basis)
	}

	return calculator.Normalize(raws)
}
