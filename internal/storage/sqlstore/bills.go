package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sdfghub/property-sub001/internal/models"
)

// ReplaceBills upserts every bill and replaces its lines in one transaction.
func (s *SQLStore) ReplaceBills(ctx context.Context, bills []*models.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, bill := range bills {
		var billID string
		err := tx.QueryRowContext(ctx,
			s.q("SELECT id FROM bills WHERE community_id = ? AND period_id = ? AND billing_entity_id = ?"),
			bill.CommunityID, bill.PeriodID, bill.BillingEntityID,
		).Scan(&billID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			billID = uuid.New().String()
			_, err = tx.ExecContext(ctx,
				s.q(`INSERT INTO bills (id, community_id, period_id, billing_entity_id, total, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)`),
				billID, bill.CommunityID, bill.PeriodID, bill.BillingEntityID, bill.Total.StringFixed(2), now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bill: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to find bill: %w", err)
		default:
			_, err = tx.ExecContext(ctx,
				s.q("UPDATE bills SET total = ?, updated_at = ? WHERE id = ?"),
				bill.Total.StringFixed(2), now, billID,
			)
			if err != nil {
				return fmt.Errorf("failed to update bill: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, s.q("DELETE FROM bill_lines WHERE bill_id = ?"), billID); err != nil {
			return fmt.Errorf("failed to delete bill lines: %w", err)
		}
		for i := range bill.Lines {
			line := &bill.Lines[i]
			_, err := tx.ExecContext(ctx,
				s.q("INSERT INTO bill_lines (bill_id, expense_id, amount) VALUES (?, ?, ?)"),
				billID, line.ExpenseID, line.Amount.StringFixed(2),
			)
			if err != nil {
				return fmt.Errorf("failed to insert bill line: %w", err)
			}
			line.BillID = billID
		}

		bill.ID = billID
		bill.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBills returns the bills of a period with their lines.
func (s *SQLStore) ListBills(ctx context.Context, periodID string) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, community_id, period_id, billing_entity_id, total, updated_at
		 FROM bills WHERE period_id = ? ORDER BY billing_entity_id`),
		periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []models.Bill
	index := make(map[string]int)
	for rows.Next() {
		var b models.Bill
		if err := rows.Scan(&b.ID, &b.CommunityID, &b.PeriodID, &b.BillingEntityID, &b.Total, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		index[b.ID] = len(bills)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	if len(bills) == 0 {
		return bills, nil
	}

	lineRows, err := s.db.QueryContext(ctx,
		s.q(`SELECT l.bill_id, l.expense_id, l.amount
		 FROM bill_lines l JOIN bills b ON b.id = l.bill_id
		 WHERE b.period_id = ? ORDER BY l.bill_id, l.expense_id`),
		periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l models.BillLine
		if err := lineRows.Scan(&l.BillID, &l.ExpenseID, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan bill line: %w", err)
		}
		if i, ok := index[l.BillID]; ok {
			bills[i].Lines = append(bills[i].Lines, l)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill lines: %w", err)
	}
	return bills, nil
}
