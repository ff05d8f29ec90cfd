package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TargetType identifies how an expense's unit scope is determined.
type TargetType string

const (
	TargetCommunity   TargetType = "COMMUNITY"
	TargetUnit        TargetType = "UNIT"
	TargetExplicitSet TargetType = "EXPLICIT_SET"
	TargetGroup       TargetType = "GROUP"
)

// ExpenseType classifies expenses and optionally carries a default rule.
type ExpenseType struct {
	ID          string
	CommunityID string
	Code        string
	Name        string

	// RuleID is the default allocation rule, empty if none is configured.
	RuleID string
}

// Expense is a single cost of a community in one period.
type Expense struct {
	// ID is the unique identifier for the expense.
	ID string

	// CommunityID and PeriodID place the expense in a billing cycle.
	CommunityID string
	PeriodID    string

	// ExpenseTypeID links to the type (and hence the rule). May be empty.
	ExpenseTypeID string

	// Description is a free-form label (e.g., "Elevator maintenance").
	Description string

	// AllocatableAmount is the amount to distribute, at cent precision.
	AllocatableAmount decimal.Decimal

	// Currency is an opaque tag carried alongside the amount.
	Currency string

	// TargetType and TargetID identify the unit scope.
	TargetType TargetType
	TargetID   string

	// WeightVectorID records the vector that produced the current lines.
	// Empty until the expense is allocated.
	WeightVectorID string
}

// ScopeID returns the identifier used to key the weight vector of the
// expense. Community-wide expenses may leave TargetID empty.
func (e *Expense) ScopeID() string {
	if e.TargetType == TargetCommunity && e.TargetID == "" {
		return e.CommunityID
	}
	return e.TargetID
}

// ValidateAmount checks that the allocatable amount is expressed in whole cents.
func (e *Expense) ValidateAmount() error {
	if !e.AllocatableAmount.Equal(e.AllocatableAmount.Round(2)) {
		return fmt.Errorf("%w: %s has sub-cent precision (expense %s)",
			ErrInvalidAmount, e.AllocatableAmount.String(), e.ID)
	}
	return nil
}
