// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/sdfghub/property-sub001/internal/models"
)

// Store defines the storage operations of the billing engine.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the engine.
type Store interface {
	ReferenceReader
	AllocationWriter
	BillWriter
	Admin

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// ReferenceReader reads the upstream data the engine consumes.
// Single-row getters return an error wrapping models.ErrNotFound when the row
// does not exist.
type ReferenceReader interface {
	GetPeriod(ctx context.Context, periodID string) (*models.Period, error)
	GetUnit(ctx context.Context, unitID string) (*models.Unit, error)
	ListUnits(ctx context.Context, communityID string) ([]models.Unit, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]models.UnitGroupMember, error)
	ListTargetSetMembers(ctx context.Context, setID string) ([]models.ExpenseTargetMember, error)
	ListBillingEntityMembers(ctx context.Context, communityID string) ([]models.BillingEntityMember, error)
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	GetExpenseType(ctx context.Context, typeID string) (*models.ExpenseType, error)
	GetRule(ctx context.Context, ruleID string) (*models.AllocationRule, error)
	ListRules(ctx context.Context, communityID string) ([]models.AllocationRule, error)

	// MeasureValues returns the readings of one measure type for every unit
	// measured in the period, keyed by unit ID.
	MeasureValues(ctx context.Context, periodID, typeCode string) (map[string]float64, error)
}

// AllocationWriter persists and reads allocation results.
type AllocationWriter interface {
	// ReplaceAllocation atomically upserts the weight vector (by its natural
	// key), replaces its items, deletes the expense's previous lines, points the
	// expense at the vector and inserts lines. vector.ID, expense.WeightVectorID
	// and missing line IDs are populated by the store.
	ReplaceAllocation(ctx context.Context, expense *models.Expense, vector *models.WeightVector, lines []models.AllocationLine) error

	GetWeightVector(ctx context.Context, vectorID string) (*models.WeightVector, error)
	ListAllocationLines(ctx context.Context, expenseID string) ([]models.AllocationLine, error)
	ListAllocationLinesByPeriod(ctx context.Context, periodID, communityID string) ([]models.AllocationLine, error)

	// PeriodCommunity returns the community of any allocation line that
	// references the period. ok is false when the period has no lines.
	PeriodCommunity(ctx context.Context, periodID string) (communityID string, ok bool, err error)
}

// BillWriter persists and reads bills.
type BillWriter interface {
	// ReplaceBills atomically upserts each bill by (community, period, billing
	// entity) and replaces its lines. bill.ID is populated by the store.
	ReplaceBills(ctx context.Context, bills []*models.Bill) error

	// ListBills returns the bills of a period with their lines, ordered by
	// billing entity.
	ListBills(ctx context.Context, periodID string) ([]models.Bill, error)
}

// Admin inserts upstream records. The administrative subsystem owns these
// tables; the methods exist for seeding and tests.
type Admin interface {
	CreatePeriod(ctx context.Context, p *models.Period) error
	CreateUnit(ctx context.Context, u *models.Unit) error
	CreateUnitGroup(ctx context.Context, g *models.UnitGroup) error
	AddGroupMember(ctx context.Context, m models.UnitGroupMember) error
	CreateBillingEntity(ctx context.Context, e *models.BillingEntity) error
	AddBillingEntityMember(ctx context.Context, m models.BillingEntityMember) error
	CloseBillingEntityMember(ctx context.Context, billingEntityID, unitID string, endSeq int64) error
	CreateTargetSet(ctx context.Context, s *models.ExpenseTargetSet) error
	AddTargetSetMember(ctx context.Context, m models.ExpenseTargetMember) error
	CreateRule(ctx context.Context, r *models.AllocationRule) error
	CreateExpenseType(ctx context.Context, t *models.ExpenseType) error
	CreateExpense(ctx context.Context, e *models.Expense) error
	SetMeasure(ctx context.Context, m models.Measure) error
}
