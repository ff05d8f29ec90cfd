package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sdfghub/property-sub001/internal/models"
)

// ReplaceAllocation persists one allocation run in a single transaction.
// On any failure the transaction is rolled back and the previous lines,
// items and expense link stay as they were.
func (s *SQLStore) ReplaceAllocation(ctx context.Context, expense *models.Expense, vector *models.WeightVector, lines []models.AllocationLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Upsert the vector by its natural key
	var vectorID string
	err = tx.QueryRowContext(ctx,
		s.q(`SELECT id FROM weight_vectors
		 WHERE community_id = ? AND period_id = ? AND rule_id = ? AND scope_type = ? AND scope_id = ?`),
		vector.CommunityID, vector.PeriodID, vector.RuleID, string(vector.ScopeType), vector.ScopeID,
	).Scan(&vectorID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		vectorID = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			s.q(`INSERT INTO weight_vectors (id, community_id, period_id, rule_id, scope_type, scope_id)
			 VALUES (?, ?, ?, ?, ?, ?)`),
			vectorID, vector.CommunityID, vector.PeriodID, vector.RuleID, string(vector.ScopeType), vector.ScopeID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert weight vector: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to find weight vector: %w", err)
	}

	// Replace the vector's items
	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM weight_items WHERE vector_id = ?"), vectorID); err != nil {
		return fmt.Errorf("failed to delete weight items: %w", err)
	}
	for _, item := range vector.Items {
		_, err := tx.ExecContext(ctx,
			s.q("INSERT INTO weight_items (vector_id, unit_id, raw, weight) VALUES (?, ?, ?, ?)"),
			vectorID, item.UnitID, item.Raw, item.Weight,
		)
		if err != nil {
			return fmt.Errorf("failed to insert weight item: %w", err)
		}
	}

	// Replace the expense's lines
	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM allocation_lines WHERE expense_id = ?"), expense.ID); err != nil {
		return fmt.Errorf("failed to delete allocation lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		s.q("UPDATE expenses SET weight_vector_id = ? WHERE id = ?"),
		vectorID, expense.ID,
	); err != nil {
		return fmt.Errorf("failed to link weight vector: %w", err)
	}
	lineIDs := make([]string, len(lines))
	for i, line := range lines {
		lineIDs[i] = line.ID
		newID(&lineIDs[i])
		_, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO allocation_lines (id, community_id, period_id, expense_id, unit_id, amount)
			 VALUES (?, ?, ?, ?, ?, ?)`),
			lineIDs[i], line.CommunityID, line.PeriodID, expense.ID, line.UnitID, line.Amount.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for i := range lines {
		lines[i].ID = lineIDs[i]
	}
	vector.ID = vectorID
	for i := range vector.Items {
		vector.Items[i].VectorID = vectorID
	}
	expense.WeightVectorID = vectorID
	return nil
}

// GetWeightVector retrieves a weight vector with its items ordered by unit.
func (s *SQLStore) GetWeightVector(ctx context.Context, vectorID string) (*models.WeightVector, error) {
	v := &models.WeightVector{}
	var scopeType string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, community_id, period_id, rule_id, scope_type, scope_id
		 FROM weight_vectors WHERE id = ?`),
		vectorID,
	).Scan(&v.ID, &v.CommunityID, &v.PeriodID, &v.RuleID, &scopeType, &v.ScopeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("weight vector", vectorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weight vector: %w", err)
	}
	v.ScopeType = models.TargetType(scopeType)

	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT vector_id, unit_id, raw, weight FROM weight_items WHERE vector_id = ? ORDER BY unit_id"),
		vectorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get weight items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.WeightItem
		if err := rows.Scan(&it.VectorID, &it.UnitID, &it.Raw, &it.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan weight item: %w", err)
		}
		v.Items = append(v.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weight items: %w", err)
	}
	return v, nil
}

// ListAllocationLines returns the lines of one expense ordered by unit.
func (s *SQLStore) ListAllocationLines(ctx context.Context, expenseID string) ([]models.AllocationLine, error) {
	return s.queryLines(ctx,
		`SELECT id, community_id, period_id, expense_id, unit_id, amount
		 FROM allocation_lines WHERE expense_id = ? ORDER BY unit_id`,
		expenseID,
	)
}

// ListAllocationLinesByPeriod returns the lines of a community-period ordered
// by expense and unit.
func (s *SQLStore) ListAllocationLinesByPeriod(ctx context.Context, periodID, communityID string) ([]models.AllocationLine, error) {
	return s.queryLines(ctx,
		`SELECT id, community_id, period_id, expense_id, unit_id, amount
		 FROM allocation_lines WHERE period_id = ? AND community_id = ? ORDER BY expense_id, unit_id`,
		periodID, communityID,
	)
}

func (s *SQLStore) queryLines(ctx context.Context, query string, args ...interface{}) ([]models.AllocationLine, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocation lines: %w", err)
	}
	defer rows.Close()

	var lines []models.AllocationLine
	for rows.Next() {
		var l models.AllocationLine
		if err := rows.Scan(&l.ID, &l.CommunityID, &l.PeriodID, &l.ExpenseID, &l.UnitID, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocation lines: %w", err)
	}
	return lines, nil
}

// PeriodCommunity returns the community of any allocation line of the period.
func (s *SQLStore) PeriodCommunity(ctx context.Context, periodID string) (string, bool, error) {
	var communityID string
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT community_id FROM allocation_lines WHERE period_id = ? LIMIT 1"),
		periodID,
	).Scan(&communityID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to find period community: %w", err)
	}
	return communityID, true, nil
}
