package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/sdfghub/property-sub001/internal/models"
)

// ScopeReader is the read access the Resolver needs.
type ScopeReader interface {
	GetPeriod(ctx context.Context, periodID string) (*models.Period, error)
	GetUnit(ctx context.Context, unitID string) (*models.Unit, error)
	ListUnits(ctx context.Context, communityID string) ([]models.Unit, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]models.UnitGroupMember, error)
	ListTargetSetMembers(ctx context.Context, setID string) ([]models.ExpenseTargetMember, error)
}

// Resolver turns an expense target into the list of units it applies to.
type Resolver struct {
	store ScopeReader
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store ScopeReader) *Resolver {
	return &Resolver{store: store}
}

// ResolveUnits returns the unique, sorted unit IDs targeted by
// (targetType, targetID) in the given community and period.
func (r *Resolver) ResolveUnits(ctx context.Context, communityID, periodID string, targetType models.TargetType, targetID string) ([]string, error) {
	switch targetType {
	case models.TargetCommunity:
		units, err := r.store.ListUnits(ctx, communityID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(units))
		for i, u := range units {
			ids[i] = u.ID
		}
		return uniqueSorted(ids), nil

	case models.TargetUnit:
		unit, err := r.store.GetUnit(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if unit.CommunityID != communityID {
			return nil, models.NotFound("unit", targetID)
		}
		return []string{unit.ID}, nil

	case models.TargetExplicitSet:
		members, err := r.store.ListTargetSetMembers(ctx, targetID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.UnitID
		}
		return uniqueSorted(ids), nil

	case models.TargetGroup:
		period, err := r.store.GetPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		members, err := r.store.ListGroupMembers(ctx, targetID)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, m := range members {
			if m.Contains(period.Seq) {
				ids = append(ids, m.UnitID)
			}
		}
		return uniqueSorted(ids), nil

	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedTargetType, targetType)
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
