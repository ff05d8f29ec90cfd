package billing_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfghub/property-sub001/internal/allocation"
	"github.com/sdfghub/property-sub001/internal/billing"
	"github.com/sdfghub/property-sub001/internal/metrics"
	"github.com/sdfghub/property-sub001/internal/models"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore/sqlstoretest"
)

func line(expenseID, unitID, amount string) models.AllocationLine {
	return models.AllocationLine{ExpenseID: expenseID, UnitID: unitID, Amount: decimal.RequireFromString(amount)}
}

func TestActiveOwners(t *testing.T) {
	members := []models.BillingEntityMember{
		{BillingEntityID: "be-old", UnitID: "u1", Window: models.ClosedWindow(1, 5)},
		{BillingEntityID: "be-new", UnitID: "u1", Window: models.OpenWindow(5)},
		{BillingEntityID: "be-z", UnitID: "u2", Window: models.OpenWindow(1)},
		{BillingEntityID: "be-a", UnitID: "u2", Window: models.OpenWindow(1)},
		{BillingEntityID: "be-later", UnitID: "u3", Window: models.OpenWindow(9)},
	}

	tests := []struct {
		seq  int64
		want map[string]string
	}{
		{4, map[string]string{"u1": "be-old", "u2": "be-a"}},
		{5, map[string]string{"u1": "be-new", "u2": "be-a"}},
		{9, map[string]string{"u1": "be-new", "u2": "be-a", "u3": "be-later"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.ActiveOwners(members, tt.seq), "seq %d", tt.seq)
	}
}

func TestGroup(t *testing.T) {
	lines := []models.AllocationLine{
		line("e1", "u1", "10.00"),
		line("e1", "u2", "20.00"),
		line("e2", "u1", "1.50"),
		line("e2", "u2", "2.50"),
		line("e2", "u3", "3.00"),
		line("e1", "u9", "7.00"),
	}
	owners := map[string]string{"u1": "be-b", "u2": "be-a", "u3": "be-a"}

	bills, dropped := billing.Group("c1", "p1", lines, owners)

	assert.Equal(t, map[string]int{"u9": 1}, dropped)
	require.Len(t, bills, 2)

	assert.Equal(t, "be-a", bills[0].BillingEntityID)
	assert.Equal(t, "25.50", bills[0].Total.StringFixed(2))
	require.Len(t, bills[0].Lines, 2)
	assert.Equal(t, "e1", bills[0].Lines[0].ExpenseID)
	assert.Equal(t, "20.00", bills[0].Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "e2", bills[0].Lines[1].ExpenseID)
	assert.Equal(t, "5.50", bills[0].Lines[1].Amount.StringFixed(2), "lines of the same expense are summed")

	assert.Equal(t, "be-b", bills[1].BillingEntityID)
	assert.Equal(t, "11.50", bills[1].Total.StringFixed(2))
	assert.Equal(t, "c1", bills[1].CommunityID)
	assert.Equal(t, "p1", bills[1].PeriodID)
}

func TestStaleEntities(t *testing.T) {
	existing := []models.Bill{
		{BillingEntityID: "be-c"},
		{BillingEntityID: "be-a"},
		{BillingEntityID: "be-b"},
	}
	fresh := []*models.Bill{{BillingEntityID: "be-b"}, {BillingEntityID: "be-d"}}

	assert.Equal(t, []string{"be-a", "be-c"}, billing.StaleEntities(existing, fresh))
	assert.Empty(t, billing.StaleEntities(nil, fresh))
}

func TestRebillAfterOwnershipChange(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	units := c.Units("A")
	seller := c.Entity("seller", models.OpenWindow(1), units[0])
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	expenseID := c.Expense("cleaning", period.ID, "", "60.00", models.TargetCommunity, "")

	_, err := allocation.NewAllocator(store, nil).Allocate(ctx, expenseID)
	require.NoError(t, err)

	agg := billing.NewAggregator(store, nil)
	_, err = agg.Rebill(ctx, period.ID)
	require.NoError(t, err)

	// The seller's bill stays with its old total once the unit changes hands.
	require.NoError(t, store.CloseBillingEntityMember(ctx, seller, units[0], 7))
	buyer := c.Entity("buyer", models.OpenWindow(7), units[0])

	res, err := agg.Rebill(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	bills, err := store.ListBills(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, []string{seller}, billing.StaleEntities(bills, []*models.Bill{{BillingEntityID: buyer}}))
	for _, b := range bills {
		assert.Equal(t, "60.00", b.Total.StringFixed(2), b.BillingEntityID)
	}
}

func TestRebill(t *testing.T) {
	store := sqlstoretest.New(t)
	c := sqlstoretest.NewCommunity(t, store, "c1")
	ctx := context.Background()

	period := c.Period("2024-03", 7)
	empty := c.Period("2024-04", 8)
	units := c.Units("A", "B", "C", "D")
	ownerAB := c.Entity("alice", models.OpenWindow(1), units[0], units[1])
	ownerC := c.Entity("carol", models.ClosedWindow(1, 9), units[2])
	c.Entity("dave", models.OpenWindow(8), units[3])
	c.Rule("equal", models.MethodEqual, models.RuleParams{})
	e1 := c.Expense("cleaning", period.ID, "", "100.00", models.TargetCommunity, "")
	e2 := c.Expense("lighting", period.ID, "", "40.00", models.TargetCommunity, "")

	alloc := allocation.NewAllocator(store, nil)
	_, err := alloc.Allocate(ctx, e1)
	require.NoError(t, err)
	_, err = alloc.Allocate(ctx, e2)
	require.NoError(t, err)

	agg := billing.NewAggregator(store, metrics.New(prometheus.NewRegistry()))

	res, err := agg.Rebill(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, &billing.RebillResult{OK: true, Created: 2, Dropped: 2}, res)

	bills, err := store.ListBills(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, bills, 2)

	assert.Equal(t, ownerAB, bills[0].BillingEntityID)
	assert.Equal(t, "70.00", bills[0].Total.StringFixed(2))
	require.Len(t, bills[0].Lines, 2)
	assert.Equal(t, ownerC, bills[1].BillingEntityID)
	assert.Equal(t, "35.00", bills[1].Total.StringFixed(2))

	t.Run("rebill is idempotent", func(t *testing.T) {
		again, err := agg.Rebill(ctx, period.ID)
		require.NoError(t, err)
		assert.Equal(t, res, again)

		bills, err := store.ListBills(ctx, period.ID)
		require.NoError(t, err)
		assert.Len(t, bills, 2)
	})

	t.Run("period without lines is a no-op", func(t *testing.T) {
		res, err := agg.Rebill(ctx, empty.ID)
		require.NoError(t, err)
		assert.Equal(t, &billing.RebillResult{OK: true}, res)
	})

	t.Run("unknown period without lines is a no-op", func(t *testing.T) {
		res, err := agg.Rebill(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, 0, res.Created)
	})
}
