package allocation_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfghub/property-sub001/internal/allocation"
	"github.com/sdfghub/property-sub001/internal/models"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore/sqlstoretest"
)

func amounts(lines []allocation.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Amount.StringFixed(2)
	}
	return out
}

func TestAllocateEqualSplit(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	units := c.Units("A", "B", "C")
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	expenseID := c.Expense("cleaning", period.ID, "", "100.00", models.TargetCommunity, "")

	a := allocation.NewAllocator(store, nil)
	res, err := a.Allocate(ctx, expenseID)
	require.NoError(t, err)

	assert.Equal(t, expenseID, res.ExpenseID)
	assert.Equal(t, "RON", res.Currency)
	assert.Equal(t, []string{"33.34", "33.33", "33.33"}, amounts(res.Lines))
	for i, l := range res.Lines {
		assert.Equal(t, units[i], l.UnitID)
	}

	stored, err := store.ListAllocationLines(ctx, expenseID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	sum := decimal.Zero
	for _, l := range stored {
		sum = sum.Add(l.Amount)
	}
	assert.Equal(t, "100.00", sum.StringFixed(2))

	expense, err := store.GetExpense(ctx, expenseID)
	require.NoError(t, err)
	assert.Equal(t, res.WeightVectorID, expense.WeightVectorID)

	vector, err := store.GetWeightVector(ctx, res.WeightVectorID)
	require.NoError(t, err)
	assert.Equal(t, models.TargetCommunity, vector.ScopeType)
	assert.Equal(t, "c1", vector.ScopeID)
	require.Len(t, vector.Items, 3)
	var weights float64
	for _, it := range vector.Items {
		assert.Equal(t, 1.0, it.Raw)
		weights += it.Weight
	}
	assert.InDelta(t, 1.0, weights, 1e-9)
}

func TestAllocateIsIdempotent(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	units := c.Units("A", "B")
	c.Rule("sqm", models.MethodBySqm, models.RuleParams{})
	c.Measure(period.ID, units[0], models.MeasureSqm, 40)
	c.Measure(period.ID, units[1], models.MeasureSqm, 60)
	expenseID := c.Expense("heating", period.ID, "", "250.00", models.TargetCommunity, "")

	a := allocation.NewAllocator(store, nil)
	first, err := a.Allocate(ctx, expenseID)
	require.NoError(t, err)
	second, err := a.Allocate(ctx, expenseID)
	require.NoError(t, err)

	assert.Equal(t, first.WeightVectorID, second.WeightVectorID)
	assert.Equal(t, []string{"100.00", "150.00"}, amounts(second.Lines))

	stored, err := store.ListAllocationLines(ctx, expenseID)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "recompute does not duplicate lines")

	t.Run("changed measures replace lines", func(t *testing.T) {
		c.Measure(period.ID, units[0], models.MeasureSqm, 60)

		res, err := a.Allocate(ctx, expenseID)
		require.NoError(t, err)
		assert.Equal(t, []string{"125.00", "125.00"}, amounts(res.Lines))
		assert.Equal(t, first.WeightVectorID, res.WeightVectorID)
	})
}

func TestAllocateSharesVectorAcrossExpenses(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	c.Units("A", "B", "C")
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	e1 := c.Expense("cleaning", period.ID, "", "90.00", models.TargetCommunity, "")
	e2 := c.Expense("lighting", period.ID, "", "30.00", models.TargetCommunity, "")

	a := allocation.NewAllocator(store, nil)
	r1, err := a.Allocate(ctx, e1)
	require.NoError(t, err)
	r2, err := a.Allocate(ctx, e2)
	require.NoError(t, err)

	assert.Equal(t, r1.WeightVectorID, r2.WeightVectorID)
	assert.Equal(t, []string{"10.00", "10.00", "10.00"}, amounts(r2.Lines))

	lines, err := store.ListAllocationLines(ctx, e1)
	require.NoError(t, err)
	assert.Len(t, lines, 3, "reallocating another expense keeps these lines")
}

func TestAllocateMixedRule(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	units := c.Units("A", "B")
	ruleID := c.Rule("mixed", models.MethodMixed, models.RuleParams{Mixed: &models.MixedParams{Parts: []models.MixedPart{
		{TypeCode: "A", Weight: 0.5},
		{TypeCode: "B", Weight: 0.5},
	}}})
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	typeID := c.ExpenseType("repairs", ruleID)
	c.Measure(period.ID, units[0], "A", 10)
	c.Measure(period.ID, units[1], "B", 10)
	setID := c.TargetSet("both", units...)
	expenseID := c.Expense("roof", period.ID, typeID, "75.01", models.TargetExplicitSet, setID)

	res, err := allocation.NewAllocator(store, nil).Allocate(ctx, expenseID)
	require.NoError(t, err)
	assert.Equal(t, []string{"37.50", "37.51"}, amounts(res.Lines), "residue goes to the first of tied weights")

	vector, err := store.GetWeightVector(ctx, res.WeightVectorID)
	require.NoError(t, err)
	assert.Equal(t, ruleID, vector.RuleID)
	for _, it := range vector.Items {
		assert.InDelta(t, 5.0, it.Raw, 1e-9)
		assert.InDelta(t, 0.5, it.Weight, 1e-9)
	}
}

func TestAllocateErrors(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	bare := sqlstoretest.NewCommunity(t, store, "c2")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	barePeriod := bare.Period("2024-03", 7)
	units := c.Units("A")
	bare.Units("X")
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	c.Rule("sqm", models.MethodBySqm, models.RuleParams{})
	badRule := c.Rule("floor", "BY_FLOOR", models.RuleParams{})
	equalType := c.ExpenseType("equal", c.ID+"-r-equal")
	badType := c.ExpenseType("floor", badRule)
	overflowRule := c.Rule("overflow", models.MethodMixed, models.RuleParams{Mixed: &models.MixedParams{Parts: []models.MixedPart{
		{TypeCode: models.MeasureSqm, Weight: 10},
	}}})
	overflowType := c.ExpenseType("overflow", overflowRule)
	c.Measure(period.ID, units[0], models.MeasureSqm, 1.7e308)
	emptyGroup := c.Group("nobody", models.UnitGroupMember{UnitID: units[0], Window: models.ClosedWindow(1, 3)})

	a := allocation.NewAllocator(store, nil)

	tests := []struct {
		name   string
		id     string
		target error
		config bool
	}{
		{
			name:   "unknown expense",
			id:     "missing",
			target: models.ErrNotFound,
		},
		{
			name:   "no expense type and several rules",
			id:     c.Expense("ambiguous", period.ID, "", "10.00", models.TargetCommunity, ""),
			target: models.ErrAmbiguousRule,
			config: true,
		},
		{
			name:   "community without rules",
			id:     bare.Expense("norule", barePeriod.ID, "", "10.00", models.TargetCommunity, ""),
			target: models.ErrRuleNotFound,
		},
		{
			name:   "group with no active members",
			id:     c.Expense("empty", period.ID, equalType, "10.00", models.TargetGroup, emptyGroup),
			target: models.ErrEmptyScope,
			config: true,
		},
		{
			name:   "sub-cent amount",
			id:     c.Expense("subcent", period.ID, equalType, "10.005", models.TargetCommunity, ""),
			target: models.ErrInvalidAmount,
			config: true,
		},
		{
			name:   "unsupported target type",
			id:     c.Expense("floor", period.ID, equalType, "10.00", "FLOOR", "1"),
			target: models.ErrUnsupportedTargetType,
			config: true,
		},
		{
			name:   "measurement overflows",
			id:     c.Expense("overflow", period.ID, overflowType, "10.00", models.TargetCommunity, ""),
			target: models.ErrInvalidMeasure,
			config: true,
		},
		{
			name:   "unsupported method",
			id:     c.Expense("badrule", period.ID, badType, "10.00", models.TargetCommunity, ""),
			target: models.ErrUnsupportedMethod,
			config: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Allocate(ctx, tt.id)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.config, models.IsConfigError(err))

			lines, err := store.ListAllocationLines(ctx, tt.id)
			require.NoError(t, err)
			assert.Empty(t, lines)
		})
	}
}
