package models

// Unit is the atomic cost-bearing entity of a community (e.g., an apartment).
type Unit struct {
	ID          string
	CommunityID string
	Code        string
}

// UnitGroup is a rule-based set of units whose membership changes over time.
type UnitGroup struct {
	ID          string
	CommunityID string
	Code        string
}

// UnitGroupMember places a unit in a group for a window of periods.
type UnitGroupMember struct {
	GroupID string
	UnitID  string
	Window
}

// ExpenseTargetSet is a fixed, non-temporal enumeration of units.
type ExpenseTargetSet struct {
	ID          string
	CommunityID string
	Code        string
}

// ExpenseTargetMember lists one unit of an ExpenseTargetSet.
type ExpenseTargetMember struct {
	SetID  string
	UnitID string
}

// Measure is a numeric reading for one unit in one period (area, residents,
// consumption, ...), keyed by a measure-type code.
type Measure struct {
	PeriodID string
	UnitID   string
	TypeCode string
	Value    float64
}
