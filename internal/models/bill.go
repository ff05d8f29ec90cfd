package models

import "github.com/shopspring/decimal"

// Bill is the per-period statement of one billing entity.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// CommunityID, PeriodID and BillingEntityID form the natural key.
	CommunityID     string
	PeriodID        string
	BillingEntityID string

	// Total is the sum of all Lines.
	Total decimal.Decimal

	// Lines itemize the expenses that contributed to the bill.
	Lines []BillLine

	// UpdatedAt is the Unix timestamp of the last rebill that touched the bill.
	UpdatedAt int64
}

// BillLine is one expense's contribution to a bill.
type BillLine struct {
	BillID    string
	ExpenseID string
	Amount    decimal.Decimal
}
