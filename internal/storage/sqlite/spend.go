package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/storage"
)

const spendColumns = "s.id, s.user_id, s.amount_cents, s.budget_id, s.category, s.date, s.note"

// CreateSpend persists a new personal spend.
func (s *SQLiteStore) CreateSpend(ctx context.Context, spend *models.PersonalSpend) error {
	if spend.ID == "" {
		spend.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personal_spend (id, user_id, amount_cents, budget_id, category, date, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		spend.ID, spend.UserID, money.ToCents(spend.Amount), nullString(spend.BudgetID),
		nullString(spend.Category), toMillis(spend.Date), nullString(spend.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert personal spend: %w", err)
	}

	return nil
}

// GetSpend retrieves a personal spend by ID.
func (s *SQLiteStore) GetSpend(ctx context.Context, id string) (*models.PersonalSpend, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+spendColumns+" FROM personal_spend s WHERE s.id = ?", id)

	spend, err := scanSpend(row)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("personal spend", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get personal spend: %w", err)
	}

	return spend, nil
}

// UpdateSpend applies the non-nil fields of patch.
func (s *SQLiteStore) UpdateSpend(ctx context.Context, id string, patch models.SpendPatch) error {
	var sets []string
	var args []interface{}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, money.ToCents(*patch.Amount))
	}
	if patch.BudgetID != nil {
		sets = append(sets, "budget_id = ?")
		args = append(args, nullString(*patch.BudgetID))
	}
	if patch.Note != nil {
		sets = append(sets, "note = ?")
		args = append(args, nullString(*patch.Note))
	}
	if len(sets) == 0 {
		// Nothing to write; still report a missing row.
		_, err := s.GetSpend(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE personal_spend SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update personal spend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("personal spend", id)
	}

	return nil
}

// DeleteSpend removes a personal spend by ID.
func (s *SQLiteStore) DeleteSpend(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM personal_spend WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete personal spend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("personal spend", id)
	}

	return nil
}

// ListSpendByMonth returns the user's spends dated in month, newest first,
// optionally restricted to one budget.
func (s *SQLiteStore) ListSpendByMonth(ctx context.Context, userID string, month models.MonthKey, budgetID string) ([]models.PersonalSpend, error) {
	start, end := month.Bounds()
	query := "SELECT " + spendColumns + " FROM personal_spend s WHERE s.user_id = ? AND s.date >= ? AND s.date < ?"
	args := []interface{}{userID, toMillis(start), toMillis(end)}
	if budgetID != "" {
		query += " AND s.budget_id = ?"
		args = append(args, budgetID)
	}
	query += " ORDER BY s.date DESC, s.rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal spend: %w", err)
	}
	defer rows.Close()

	var spends []models.PersonalSpend
	for rows.Next() {
		spend, err := scanSpend(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personal spend: %w", err)
		}
		spends = append(spends, *spend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate personal spend: %w", err)
	}

	return spends, nil
}

// ListRecentSpends returns up to limit spends, newest first, with the name of
// the budget each one is tagged to.
func (s *SQLiteStore) ListRecentSpends(ctx context.Context, limit int) ([]storage.RecentSpend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+spendColumns+`, b.name
		 FROM personal_spend s
		 LEFT JOIN budgets b ON b.id = s.budget_id
		 ORDER BY s.date DESC, s.rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent spends: %w", err)
	}
	defer rows.Close()

	var out []storage.RecentSpend
	for rows.Next() {
		var budgetName sql.NullString
		spend, err := scanSpend(rows, &budgetName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan personal spend: %w", err)
		}
		out = append(out, storage.RecentSpend{Spend: *spend, BudgetName: budgetName.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate personal spend: %w", err)
	}

	return out, nil
}

func scanSpend(row rowScanner, extra ...interface{}) (*models.PersonalSpend, error) {
	spend := &models.PersonalSpend{}
	var cents, date int64
	var budgetID, category, note sql.NullString

	dest := []interface{}{&spend.ID, &spend.UserID, &cents, &budgetID, &category, &date, &note}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	spend.Amount = money.ToDollars(cents)
	spend.BudgetID = budgetID.String
	spend.Category = category.String
	spend.Date = fromMillis(date)
	spend.Note = note.String
	return spend, nil
}
