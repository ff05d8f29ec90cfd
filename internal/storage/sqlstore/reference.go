package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sdfghub/property-sub001/internal/models"
)

// GetPeriod retrieves a period by ID.
func (s *SQLStore) GetPeriod(ctx context.Context, periodID string) (*models.Period, error) {
	p := &models.Period{}
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, community_id, code, seq FROM periods WHERE id = ?"),
		periodID,
	).Scan(&p.ID, &p.CommunityID, &p.Code, &p.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("period", periodID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

// GetUnit retrieves a unit by ID.
func (s *SQLStore) GetUnit(ctx context.Context, unitID string) (*models.Unit, error) {
	u := &models.Unit{}
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, community_id, code FROM units WHERE id = ?"),
		unitID,
	).Scan(&u.ID, &u.CommunityID, &u.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("unit", unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return u, nil
}

// ListUnits returns all units of a community ordered by ID.
func (s *SQLStore) ListUnits(ctx context.Context, communityID string) ([]models.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id, community_id, code FROM units WHERE community_id = ? ORDER BY id"),
		communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.CommunityID, &u.Code); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate units: %w", err)
	}
	return units, nil
}

// ListGroupMembers returns every membership row of a unit group, active or not.
// Callers filter by period with models.Window.Contains.
func (s *SQLStore) ListGroupMembers(ctx context.Context, groupID string) ([]models.UnitGroupMember, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT group_id, unit_id, start_seq, end_seq
		 FROM unit_group_members WHERE group_id = ? ORDER BY unit_id, start_seq`),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []models.UnitGroupMember
	for rows.Next() {
		var m models.UnitGroupMember
		var end sql.NullInt64
		if err := rows.Scan(&m.GroupID, &m.UnitID, &m.StartSeq, &end); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		m.EndSeq = int64Ptr(end)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// ListTargetSetMembers returns the units of an explicit target set.
func (s *SQLStore) ListTargetSetMembers(ctx context.Context, setID string) ([]models.ExpenseTargetMember, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT set_id, unit_id FROM expense_target_members WHERE set_id = ? ORDER BY unit_id"),
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list target set members: %w", err)
	}
	defer rows.Close()

	var members []models.ExpenseTargetMember
	for rows.Next() {
		var m models.ExpenseTargetMember
		if err := rows.Scan(&m.SetID, &m.UnitID); err != nil {
			return nil, fmt.Errorf("failed to scan target set member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate target set members: %w", err)
	}
	return members, nil
}

// ListBillingEntityMembers returns every billing-entity membership row of a
// community, active or not, ordered by unit and billing entity.
func (s *SQLStore) ListBillingEntityMembers(ctx context.Context, communityID string) ([]models.BillingEntityMember, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT m.billing_entity_id, m.unit_id, m.start_seq, m.end_seq
		 FROM billing_entity_members m
		 JOIN billing_entities e ON e.id = m.billing_entity_id
		 WHERE e.community_id = ?
		 ORDER BY m.unit_id, m.billing_entity_id, m.start_seq`),
		communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing entity members: %w", err)
	}
	defer rows.Close()

	var members []models.BillingEntityMember
	for rows.Next() {
		var m models.BillingEntityMember
		var end sql.NullInt64
		if err := rows.Scan(&m.BillingEntityID, &m.UnitID, &m.StartSeq, &end); err != nil {
			return nil, fmt.Errorf("failed to scan billing entity member: %w", err)
		}
		m.EndSeq = int64Ptr(end)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate billing entity members: %w", err)
	}
	return members, nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e := &models.Expense{}
	var typeID, vectorID sql.NullString
	var targetType string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, community_id, period_id, expense_type_id, description,
		        allocatable_amount, currency, target_type, target_id, weight_vector_id
		 FROM expenses WHERE id = ?`),
		expenseID,
	).Scan(&e.ID, &e.CommunityID, &e.PeriodID, &typeID, &e.Description,
		&e.AllocatableAmount, &e.Currency, &targetType, &e.TargetID, &vectorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	e.TargetType = models.TargetType(targetType)
	e.ExpenseTypeID = typeID.String
	e.WeightVectorID = vectorID.String
	return e, nil
}

// GetExpenseType retrieves an expense type by ID.
func (s *SQLStore) GetExpenseType(ctx context.Context, typeID string) (*models.ExpenseType, error) {
	t := &models.ExpenseType{}
	var ruleID sql.NullString
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, community_id, code, name, rule_id FROM expense_types WHERE id = ?"),
		typeID,
	).Scan(&t.ID, &t.CommunityID, &t.Code, &t.Name, &ruleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("expense type", typeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense type: %w", err)
	}
	t.RuleID = ruleID.String
	return t, nil
}

// GetRule retrieves an allocation rule by ID.
func (s *SQLStore) GetRule(ctx context.Context, ruleID string) (*models.AllocationRule, error) {
	var method, params string
	r := &models.AllocationRule{}
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, community_id, code, method, params FROM allocation_rules WHERE id = ?"),
		ruleID,
	).Scan(&r.ID, &r.CommunityID, &r.Code, &method, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrRuleNotFound, ruleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	r.Method = models.Method(method)
	if r.Params, err = models.ParseRuleParams(params); err != nil {
		return nil, fmt.Errorf("rule %s: %w", ruleID, err)
	}
	return r, nil
}

// ListRules returns the rules of a community ordered by ID.
func (s *SQLStore) ListRules(ctx context.Context, communityID string) ([]models.AllocationRule, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id, community_id, code, method, params FROM allocation_rules WHERE community_id = ? ORDER BY id"),
		communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AllocationRule
	for rows.Next() {
		var r models.AllocationRule
		var method, params string
		if err := rows.Scan(&r.ID, &r.CommunityID, &r.Code, &method, &params); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.Method = models.Method(method)
		if r.Params, err = models.ParseRuleParams(params); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// MeasureValues returns the readings of typeCode in a period keyed by unit ID.
func (s *SQLStore) MeasureValues(ctx context.Context, periodID, typeCode string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT unit_id, value FROM measures WHERE period_id = ? AND type_code = ?"),
		periodID, typeCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get measures: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var unitID string
		var v float64
		if err := rows.Scan(&unitID, &v); err != nil {
			return nil, fmt.Errorf("failed to scan measure: %w", err)
		}
		values[unitID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate measures: %w", err)
	}
	return values, nil
}
