package models

import (
	"encoding/json"
	"fmt"
)

// Method is the allocation method of a rule.
type Method string

const (
	MethodEqual         Method = "EQUAL"
	MethodBySqm         Method = "BY_SQM"
	MethodByResidents   Method = "BY_RESIDENTS"
	MethodByConsumption Method = "BY_CONSUMPTION"
	MethodMixed         Method = "MIXED"
)

// Measure-type codes implied by the measure-based methods.
const (
	MeasureSqm         = "SQM"
	MeasureResidents   = "RESIDENTS"
	MeasureConsumption = "CONSUMPTION"
)

// AllocationRule describes how an expense is distributed across units.
type AllocationRule struct {
	// ID is the unique identifier for the rule.
	ID string

	// CommunityID is the community that configured the rule.
	CommunityID string

	// Code is a short human-readable name (e.g., "water-by-meter").
	Code string

	// Method selects the weighting strategy.
	Method Method

	// Params carries the method-specific parameters. Only the part matching
	// Method is meaningful; the rest is ignored.
	Params RuleParams
}

// RuleParams is the stored parameter payload of a rule.
type RuleParams struct {
	Single *SingleParams `json:"single,omitempty"`
	Mixed  *MixedParams  `json:"mixed,omitempty"`
}

// SingleParams selects one measure type.
type SingleParams struct {
	TypeCode string `json:"typeCode"`
}

// MixedParams combines several measure types.
type MixedParams struct {
	Parts []MixedPart `json:"parts"`
}

// MixedPart is one weighted measure type of a MIXED rule.
type MixedPart struct {
	TypeCode string  `json:"typeCode"`
	Weight   float64 `json:"weight"`
}

// ParseRuleParams decodes the stored JSON payload. An empty payload yields
// zero params.
func ParseRuleParams(raw string) (RuleParams, error) {
	var p RuleParams
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}

// Encode returns the JSON form of the params for storage.
func (p RuleParams) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode rule params: %w", err)
	}
	return string(b), nil
}

// Basis is the resolved weighting strategy of a rule. It is one of
// EqualBasis, MeasureBasis or MixedBasis.
type Basis interface {
	isBasis()
}

// EqualBasis gives every unit raw value 1.
type EqualBasis struct{}

// MeasureBasis uses the unit's reading for a single measure type.
type MeasureBasis struct {
	TypeCode string
}

// MixedBasis sums weighted readings of several measure types.
type MixedBasis struct {
	Parts []MixedPart
}

func (EqualBasis) isBasis()   {}
func (MeasureBasis) isBasis() {}
func (MixedBasis) isBasis()   {}

// Basis resolves the rule's method and params into a Basis.
func (r *AllocationRule) Basis() (Basis, error) {
	switch r.Method {
	case MethodEqual:
		return EqualBasis{}, nil
	case MethodBySqm:
		return MeasureBasis{TypeCode: MeasureSqm}, nil
	case MethodByResidents:
		return MeasureBasis{TypeCode: MeasureResidents}, nil
	case MethodByConsumption:
		code := MeasureConsumption
		if r.Params.Single != nil && r.Params.Single.TypeCode != "" {
			code = r.Params.Single.TypeCode
		}
		return MeasureBasis{TypeCode: code}, nil
	case MethodMixed:
		if r.Params.Mixed == nil || len(r.Params.Mixed.Parts) == 0 {
			return EqualBasis{}, nil
		}
		return MixedBasis{Parts: r.Params.Mixed.Parts}, nil
	default:
		return nil, fmt.Errorf("%w: %q (rule %s)", ErrUnsupportedMethod, r.Method, r.ID)
	}
}
