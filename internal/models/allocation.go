package models

import "github.com/shopspring/decimal"

// WeightVector is the cached weight computation for one
// (community, period, rule, scope) key. Expenses sharing the key share the vector.
type WeightVector struct {
	ID          string
	CommunityID string
	PeriodID    string
	RuleID      string
	ScopeType   TargetType
	ScopeID     string
	Items       []WeightItem
}

// WeightItem records the raw measured value and normalized weight of one unit.
type WeightItem struct {
	VectorID string
	UnitID   string
	Raw      float64
	Weight   float64
}

// AllocationLine is one unit's share of one expense.
type AllocationLine struct {
	ID          string
	CommunityID string
	PeriodID    string
	ExpenseID   string
	UnitID      string
	Amount      decimal.Decimal
}
