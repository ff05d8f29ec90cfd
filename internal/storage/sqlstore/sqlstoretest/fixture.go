// Package sqlstoretest provides a temporary SQLite store and a small builder
// for seeding community reference data in tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sdfghub/property-sub001/internal/models"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore"
)

// New opens a fresh SQLite store in the test's temp directory. The store is
// closed when the test finishes.
func New(t testing.TB) *sqlstore.SQLStore {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Community seeds reference data for one community. IDs are derived from the
// community ID and the given codes so tests can predict ordering.
type Community struct {
	t     testing.TB
	ctx   context.Context
	Store *sqlstore.SQLStore
	ID    string
}

// NewCommunity returns a builder for community id backed by store.
func NewCommunity(t testing.TB, store *sqlstore.SQLStore, id string) *Community {
	return &Community{t: t, ctx: context.Background(), Store: store, ID: id}
}

func (c *Community) id(kind, code string) string {
	return c.ID + "-" + kind + "-" + code
}

// Period creates a period with the given code and sequence number.
func (c *Community) Period(code string, seq int64) *models.Period {
	c.t.Helper()
	p := &models.Period{ID: c.id("p", code), CommunityID: c.ID, Code: code, Seq: seq}
	require.NoError(c.t, c.Store.CreatePeriod(c.ctx, p))
	return p
}

// Units creates one unit per code and returns their IDs in order.
func (c *Community) Units(codes ...string) []string {
	c.t.Helper()
	ids := make([]string, len(codes))
	for i, code := range codes {
		u := &models.Unit{ID: c.id("u", code), CommunityID: c.ID, Code: code}
		require.NoError(c.t, c.Store.CreateUnit(c.ctx, u))
		ids[i] = u.ID
	}
	return ids
}

// Group creates a unit group and adds the given members.
func (c *Community) Group(code string, members ...models.UnitGroupMember) string {
	c.t.Helper()
	g := &models.UnitGroup{ID: c.id("g", code), CommunityID: c.ID, Code: code}
	require.NoError(c.t, c.Store.CreateUnitGroup(c.ctx, g))
	for _, m := range members {
		m.GroupID = g.ID
		require.NoError(c.t, c.Store.AddGroupMember(c.ctx, m))
	}
	return g.ID
}

// TargetSet creates an explicit target set listing unitIDs.
func (c *Community) TargetSet(code string, unitIDs ...string) string {
	c.t.Helper()
	ts := &models.ExpenseTargetSet{ID: c.id("s", code), CommunityID: c.ID, Code: code}
	require.NoError(c.t, c.Store.CreateTargetSet(c.ctx, ts))
	for _, id := range unitIDs {
		require.NoError(c.t, c.Store.AddTargetSetMember(c.ctx, models.ExpenseTargetMember{SetID: ts.ID, UnitID: id}))
	}
	return ts.ID
}

// Entity creates a billing entity owning the given units over w.
func (c *Community) Entity(code string, w models.Window, unitIDs ...string) string {
	c.t.Helper()
	e := &models.BillingEntity{ID: c.id("be", code), CommunityID: c.ID, Code: code, Name: code}
	require.NoError(c.t, c.Store.CreateBillingEntity(c.ctx, e))
	for _, id := range unitIDs {
		require.NoError(c.t, c.Store.AddBillingEntityMember(c.ctx, models.BillingEntityMember{
			BillingEntityID: e.ID,
			UnitID:          id,
			Window:          w,
		}))
	}
	return e.ID
}

// Rule creates an allocation rule.
func (c *Community) Rule(code string, method models.Method, params models.RuleParams) string {
	c.t.Helper()
	r := &models.AllocationRule{ID: c.id("r", code), CommunityID: c.ID, Code: code, Method: method, Params: params}
	require.NoError(c.t, c.Store.CreateRule(c.ctx, r))
	return r.ID
}

// ExpenseType creates an expense type. ruleID may be empty.
func (c *Community) ExpenseType(code, ruleID string) string {
	c.t.Helper()
	et := &models.ExpenseType{ID: c.id("t", code), CommunityID: c.ID, Code: code, Name: code, RuleID: ruleID}
	require.NoError(c.t, c.Store.CreateExpenseType(c.ctx, et))
	return et.ID
}

// Expense creates an expense of amount in periodID. typeID may be empty.
func (c *Community) Expense(code, periodID, typeID, amount string, targetType models.TargetType, targetID string) string {
	c.t.Helper()
	e := &models.Expense{
		ID:                c.id("e", code),
		CommunityID:       c.ID,
		PeriodID:          periodID,
		ExpenseTypeID:     typeID,
		Description:       code,
		AllocatableAmount: decimal.RequireFromString(amount),
		Currency:          "RON",
		TargetType:        targetType,
		TargetID:          targetID,
	}
	require.NoError(c.t, c.Store.CreateExpense(c.ctx, e))
	return e.ID
}

// Measure records a reading of typeCode for unitID in periodID.
func (c *Community) Measure(periodID, unitID, typeCode string, value float64) {
	c.t.Helper()
	require.NoError(c.t, c.Store.SetMeasure(c.ctx, models.Measure{
		PeriodID: periodID,
		UnitID:   unitID,
		TypeCode: typeCode,
		Value:    value,
	}))
}
