package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sdfghub/property-sub001/internal/models"
)

func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// CreatePeriod inserts a period. The ID is generated when empty.
func (s *SQLStore) CreatePeriod(ctx context.Context, p *models.Period) error {
	newID(&p.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO periods (id, community_id, code, seq) VALUES (?, ?, ?, ?)"),
		p.ID, p.CommunityID, p.Code, p.Seq,
	)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

// CreateUnit inserts a unit. The ID is generated when empty.
func (s *SQLStore) CreateUnit(ctx context.Context, u *models.Unit) error {
	newID(&u.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO units (id, community_id, code) VALUES (?, ?, ?)"),
		u.ID, u.CommunityID, u.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// CreateUnitGroup inserts a unit group. The ID is generated when empty.
func (s *SQLStore) CreateUnitGroup(ctx context.Context, g *models.UnitGroup) error {
	newID(&g.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO unit_groups (id, community_id, code) VALUES (?, ?, ?)"),
		g.ID, g.CommunityID, g.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit group: %w", err)
	}
	return nil
}

// AddGroupMember inserts a membership row for a unit group.
func (s *SQLStore) AddGroupMember(ctx context.Context, m models.UnitGroupMember) error {
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO unit_group_members (group_id, unit_id, start_seq, end_seq) VALUES (?, ?, ?, ?)"),
		m.GroupID, m.UnitID, m.StartSeq, nullInt64(m.EndSeq),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

// CreateBillingEntity inserts a billing entity. The ID is generated when empty.
func (s *SQLStore) CreateBillingEntity(ctx context.Context, e *models.BillingEntity) error {
	newID(&e.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO billing_entities (id, community_id, code, name) VALUES (?, ?, ?, ?)"),
		e.ID, e.CommunityID, e.Code, e.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert billing entity: %w", err)
	}
	return nil
}

// AddBillingEntityMember inserts a membership row for a billing entity.
func (s *SQLStore) AddBillingEntityMember(ctx context.Context, m models.BillingEntityMember) error {
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO billing_entity_members (billing_entity_id, unit_id, start_seq, end_seq) VALUES (?, ?, ?, ?)"),
		m.BillingEntityID, m.UnitID, m.StartSeq, nullInt64(m.EndSeq),
	)
	if err != nil {
		return fmt.Errorf("failed to insert billing entity member: %w", err)
	}
	return nil
}

// CloseBillingEntityMember ends the open membership of unitID in a billing
// entity at endSeq.
func (s *SQLStore) CloseBillingEntityMember(ctx context.Context, billingEntityID, unitID string, endSeq int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE billing_entity_members SET end_seq = ?
		 WHERE billing_entity_id = ? AND unit_id = ? AND end_seq IS NULL`),
		endSeq, billingEntityID, unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to close billing entity member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to close billing entity member: %w", err)
	}
	if n == 0 {
		return models.NotFound("open billing entity membership", billingEntityID+"/"+unitID)
	}
	return nil
}

// CreateTargetSet inserts an explicit target set. The ID is generated when empty.
func (s *SQLStore) CreateTargetSet(ctx context.Context, ts *models.ExpenseTargetSet) error {
	newID(&ts.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO expense_target_sets (id, community_id, code) VALUES (?, ?, ?)"),
		ts.ID, ts.CommunityID, ts.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to insert target set: %w", err)
	}
	return nil
}

// AddTargetSetMember adds a unit to an explicit target set.
func (s *SQLStore) AddTargetSetMember(ctx context.Context, m models.ExpenseTargetMember) error {
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO expense_target_members (set_id, unit_id) VALUES (?, ?)"),
		m.SetID, m.UnitID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert target set member: %w", err)
	}
	return nil
}

// CreateRule inserts an allocation rule. The ID is generated when empty.
func (s *SQLStore) CreateRule(ctx context.Context, r *models.AllocationRule) error {
	newID(&r.ID)
	params, err := r.Params.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		s.q("INSERT INTO allocation_rules (id, community_id, code, method, params) VALUES (?, ?, ?, ?, ?)"),
		r.ID, r.CommunityID, r.Code, string(r.Method), params,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// CreateExpenseType inserts an expense type. The ID is generated when empty.
func (s *SQLStore) CreateExpenseType(ctx context.Context, t *models.ExpenseType) error {
	newID(&t.ID)
	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO expense_types (id, community_id, code, name, rule_id) VALUES (?, ?, ?, ?, ?)"),
		t.ID, t.CommunityID, t.Code, t.Name, nullString(t.RuleID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense type: %w", err)
	}
	return nil
}

// CreateExpense inserts an expense. The ID is generated when empty.
func (s *SQLStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	newID(&e.ID)
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO expenses (id, community_id, period_id, expense_type_id, description,
		        allocatable_amount, currency, target_type, target_id, weight_vector_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.CommunityID, e.PeriodID, nullString(e.ExpenseTypeID), e.Description,
		e.AllocatableAmount.String(), e.Currency, string(e.TargetType), e.TargetID,
		nullString(e.WeightVectorID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// SetMeasure inserts or updates a reading.
func (s *SQLStore) SetMeasure(ctx context.Context, m models.Measure) error {
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO measures (period_id, unit_id, type_code, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (period_id, unit_id, type_code) DO UPDATE SET value = excluded.value`),
		m.PeriodID, m.UnitID, m.TypeCode, m.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to set measure: %w", err)
	}
	return nil
}
