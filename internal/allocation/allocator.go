// Package allocation implements the weighted expense allocation engine:
// scope resolution, weight building and the allocator that persists
// reconciled per-unit lines.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sdfghub/property-sub001/internal/calculator"
	"github.com/sdfghub/property-sub001/internal/metrics"
	"github.com/sdfghub/property-sub001/internal/models"
)

// Store is the storage the Allocator reads from and writes to.
type Store interface {
	ScopeReader
	MeasureReader
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	GetExpenseType(ctx context.Context, typeID string) (*models.ExpenseType, error)
	GetRule(ctx context.Context, ruleID string) (*models.AllocationRule, error)
	ListRules(ctx context.Context, communityID string) ([]models.AllocationRule, error)
	ReplaceAllocation(ctx context.Context, expense *models.Expense, vector *models.WeightVector, lines []models.AllocationLine) error
}

// Line is one unit's allocated amount.
type Line struct {
	UnitID string          `json:"unitId"`
	Amount decimal.Decimal `json:"amount"`
}

// Result is the outcome of allocating one expense.
type Result struct {
	ExpenseID      string `json:"expenseId"`
	Currency       string `json:"currency,omitempty"`
	WeightVectorID string `json:"weightVectorId"`
	Lines          []Line `json:"lines"`
}

// Allocator splits expenses across their units and persists the lines.
type Allocator struct {
	store    Store
	resolver *Resolver
	builder  *Builder
	metrics  *metrics.Metrics
}

// NewAllocator creates an Allocator. m may be nil.
func NewAllocator(store Store, m *metrics.Metrics) *Allocator {
	return &Allocator{
		store:    store,
		resolver: NewResolver(store),
		builder:  NewBuilder(store),
		metrics:  m,
	}
}

// Allocate (re)computes the allocation of one expense. The previous lines of
// the expense are replaced atomically; on error they are left untouched.
func (a *Allocator) Allocate(ctx context.Context, expenseID string) (*Result, error) {
	start := time.Now()
	res, err := a.allocate(ctx, expenseID)

	lines := 0
	if res != nil {
		lines = len(res.Lines)
	}
	a.metrics.ObserveAllocation(start, lines, err)

	if err != nil {
		slog.Error("Allocation failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	slog.Info("Expense allocated",
		"expense_id", expenseID,
		"weight_vector_id", res.WeightVectorID,
		"lines", lines,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (a *Allocator) allocate(ctx context.Context, expenseID string) (*Result, error) {
	expense, err := a.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := expense.ValidateAmount(); err != nil {
		return nil, err
	}

	rule, err := a.effectiveRule(ctx, expense)
	if err != nil {
		return nil, err
	}

	unitIDs, err := a.resolver.ResolveUnits(ctx, expense.CommunityID, expense.PeriodID, expense.TargetType, expense.TargetID)
	if err != nil {
		return nil, err
	}
	if len(unitIDs) == 0 {
		return nil, fmt.Errorf("%w: expense %s (%s %s)", models.ErrEmptyScope, expense.ID, expense.TargetType, expense.TargetID)
	}
	slog.Debug("Scope resolved", "expense_id", expense.ID, "target_type", expense.TargetType, "units", len(unitIDs))

	weights, err := a.builder.BuildWeights(ctx, expense.PeriodID, unitIDs, rule)
	if err != nil {
		return nil, err
	}

	shares, err := calculator.SplitAmount(expense.AllocatableAmount, weights)
	if err != nil {
		return nil, err
	}

	vector := &models.WeightVector{
		CommunityID: expense.CommunityID,
		PeriodID:    expense.PeriodID,
		RuleID:      rule.ID,
		ScopeType:   expense.TargetType,
		ScopeID:     expense.ScopeID(),
		Items:       make([]models.WeightItem, len(weights)),
	}
	for i, w := range weights {
		vector.Items[i] = models.WeightItem{UnitID: w.UnitID, Raw: w.Raw, Weight: w.Weight}
	}

	lines := make([]models.AllocationLine, len(shares))
	for i, s := range shares {
		lines[i] = models.AllocationLine{
			CommunityID: expense.CommunityID,
			PeriodID:    expense.PeriodID,
			ExpenseID:   expense.ID,
			UnitID:      s.UnitID,
			Amount:      s.Amount,
		}
	}

	if err := a.store.ReplaceAllocation(ctx, expense, vector, lines); err != nil {
		return nil, err
	}

	res := &Result{
		ExpenseID:      expense.ID,
		Currency:       expense.Currency,
		WeightVectorID: vector.ID,
		Lines:          make([]Line, len(shares)),
	}
	for i, s := range shares {
		res.Lines[i] = Line{UnitID: s.UnitID, Amount: s.Amount}
	}
	return res, nil
}

// effectiveRule returns the expense type's rule, or else the single rule
// configured for the community. Several candidate rules are an error.
func (a *Allocator) effectiveRule(ctx context.Context, expense *models.Expense) (*models.AllocationRule, error) {
	if expense.ExpenseTypeID != "" {
		et, err := a.store.GetExpenseType(ctx, expense.ExpenseTypeID)
		if err != nil {
			return nil, err
		}
		if et.RuleID != "" {
			return a.store.GetRule(ctx, et.RuleID)
		}
	}

	rules, err := a.store.ListRules(ctx, expense.CommunityID)
	if err != nil {
		return nil, err
	}
	switch len(rules) {
	case 0:
		return nil, fmt.Errorf("%w: community %s has no rules (expense %s)", models.ErrRuleNotFound, expense.CommunityID, expense.ID)
	case 1:
		return &rules[0], nil
	default:
		return nil, fmt.Errorf("%w: community %s has %d rules and expense %s names none",
			models.ErrAmbiguousRule, expense.CommunityID, len(rules), expense.ID)
	}
}
