// Package billing rolls allocation lines up into per-billing-entity bills.
package billing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sdfghub/property-sub001/internal/metrics"
	"github.com/sdfghub/property-sub001/internal/models"
)

// Store is the storage the Aggregator reads from and writes to.
type Store interface {
	GetPeriod(ctx context.Context, periodID string) (*models.Period, error)
	PeriodCommunity(ctx context.Context, periodID string) (string, bool, error)
	ListBillingEntityMembers(ctx context.Context, communityID string) ([]models.BillingEntityMember, error)
	ListAllocationLinesByPeriod(ctx context.Context, periodID, communityID string) ([]models.AllocationLine, error)
	ListBills(ctx context.Context, periodID string) ([]models.Bill, error)
	ReplaceBills(ctx context.Context, bills []*models.Bill) error
}

// RebillResult is the outcome of a rebill run.
type RebillResult struct {
	OK      bool `json:"ok"`
	Created int  `json:"created"`

	// Dropped counts allocation lines whose unit had no active billing
	// entity at the period's sequence number.
	Dropped int `json:"dropped"`
}

// Aggregator regenerates bills from persisted allocation lines.
type Aggregator struct {
	store   Store
	metrics *metrics.Metrics
}

// NewAggregator creates an Aggregator. m may be nil.
func NewAggregator(store Store, m *metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, metrics: m}
}

// Rebill replaces the bills of every billing entity that receives at least
// one allocation line in the period. A period without lines is a no-op.
func (a *Aggregator) Rebill(ctx context.Context, periodID string) (*RebillResult, error) {
	start := time.Now()
	res, err := a.rebill(ctx, periodID)
	if err != nil {
		a.metrics.ObserveRebill(start, 0, 0, err)
		slog.Error("Rebill failed", "period_id", periodID, "error", err)
		return nil, err
	}
	a.metrics.ObserveRebill(start, res.Created, res.Dropped, nil)
	slog.Info("Period rebilled",
		"period_id", periodID,
		"created", res.Created,
		"dropped", res.Dropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (a *Aggregator) rebill(ctx context.Context, periodID string) (*RebillResult, error) {
	communityID, ok, err := a.store.PeriodCommunity(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &RebillResult{OK: true}, nil
	}

	period, err := a.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	members, err := a.store.ListBillingEntityMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	owners := ActiveOwners(members, period.Seq)

	lines, err := a.store.ListAllocationLinesByPeriod(ctx, periodID, communityID)
	if err != nil {
		return nil, err
	}

	bills, dropped := Group(communityID, periodID, lines, owners)
	if len(dropped) > 0 {
		units := make([]string, 0, len(dropped))
		for unitID := range dropped {
			units = append(units, unitID)
		}
		sort.Strings(units)
		slog.Warn("Allocation lines dropped: units have no active billing entity",
			"period_id", periodID,
			"period_seq", period.Seq,
			"units", units,
		)
	}

	existing, err := a.store.ListBills(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if stale := StaleEntities(existing, bills); len(stale) > 0 {
		slog.Warn("Existing bills not refreshed: billing entities received no lines",
			"period_id", periodID,
			"billing_entities", stale,
		)
	}

	if err := a.store.ReplaceBills(ctx, bills); err != nil {
		return nil, err
	}

	n := 0
	for _, c := range dropped {
		n += c
	}
	return &RebillResult{OK: true, Created: len(bills), Dropped: n}, nil
}

// ActiveOwners maps each unit to the billing entity whose membership window
// contains seq. When a unit has several active memberships the lowest
// billing entity ID wins.
func ActiveOwners(members []models.BillingEntityMember, seq int64) map[string]string {
	owners := make(map[string]string)
	for _, m := range members {
		if !m.Contains(seq) {
			continue
		}
		current, exists := owners[m.UnitID]
		switch {
		case !exists:
			owners[m.UnitID] = m.BillingEntityID
		case current == m.BillingEntityID:
		default:
			kept, ignored := current, m.BillingEntityID
			if ignored < kept {
				kept, ignored = ignored, kept
			}
			owners[m.UnitID] = kept
			slog.Warn("Unit has several active billing entities",
				"unit_id", m.UnitID,
				"kept", kept,
				"ignored", ignored,
			)
		}
	}
	return owners
}

// StaleEntities returns the sorted billing entity IDs that have an existing
// bill but no bill in fresh. Their bills keep the totals of an earlier run.
func StaleEntities(existing []models.Bill, fresh []*models.Bill) []string {
	refreshed := make(map[string]bool, len(fresh))
	for _, b := range fresh {
		refreshed[b.BillingEntityID] = true
	}
	var stale []string
	for _, b := range existing {
		if !refreshed[b.BillingEntityID] {
			stale = append(stale, b.BillingEntityID)
		}
	}
	sort.Strings(stale)
	return stale
}

// Group rolls lines up per billing entity. Amounts of the same expense for the
// same entity are summed into one bill line. Lines of units missing from
// owners are returned as dropped counts per unit. Bills are ordered by
// billing entity ID and their lines by expense ID.
func Group(communityID, periodID string, lines []models.AllocationLine, owners map[string]string) ([]*models.Bill, map[string]int) {
	type acc struct {
		total    decimal.Decimal
		expenses map[string]decimal.Decimal
	}
	byEntity := make(map[string]*acc)
	dropped := make(map[string]int)

	for _, l := range lines {
		entityID, ok := owners[l.UnitID]
		if !ok {
			dropped[l.UnitID]++
			continue
		}
		e, ok := byEntity[entityID]
		if !ok {
			e = &acc{total: decimal.Zero, expenses: make(map[string]decimal.Decimal)}
			byEntity[entityID] = e
		}
		e.total = e.total.Add(l.Amount)
		e.expenses[l.ExpenseID] = e.expenses[l.ExpenseID].Add(l.Amount)
	}

	entityIDs := make([]string, 0, len(byEntity))
	for id := range byEntity {
		entityIDs = append(entityIDs, id)
	}
	sort.Strings(entityIDs)

	bills := make([]*models.Bill, 0, len(entityIDs))
	for _, id := range entityIDs {
		e := byEntity[id]
		bill := &models.Bill{
			CommunityID:     communityID,
			PeriodID:        periodID,
			BillingEntityID: id,
			Total:           e.total,
		}
		expenseIDs := make([]string, 0, len(e.expenses))
		for expID := range e.expenses {
			expenseIDs = append(expenseIDs, expID)
		}
		sort.Strings(expenseIDs)
		for _, expID := range expenseIDs {
			bill.Lines = append(bill.Lines, models.BillLine{ExpenseID: expID, Amount: e.expenses[expID]})
		}
		bills = append(bills, bill)
	}
	return bills, dropped
}
