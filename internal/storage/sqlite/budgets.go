package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
)

const budgetColumns = "id, user_id, name, month, amount_cents"

// CreateBudget persists a template or month instance.
func (s *SQLiteStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO budgets ("+budgetColumns+") VALUES (?, ?, ?, ?, ?)",
		budget.ID, budget.UserID, budget.Name, int(budget.Month), money.ToCents(budget.Amount),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q in %s", models.ErrDuplicateBudget, budget.Name, budget.Month)
	}
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}

	return nil
}

// GetBudget retrieves a budget row by ID.
func (s *SQLiteStore) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id)

	budget, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("budget", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	return budget, nil
}

// UpdateBudget applies the non-nil fields of patch to one row. Editing a
// template never touches instances already created from it.
func (s *SQLiteStore) UpdateBudget(ctx context.Context, id string, patch models.BudgetPatch) error {
	var sets []string
	var args []interface{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, money.ToCents(*patch.Amount))
	}
	if len(sets) == 0 {
		_, err := s.GetBudget(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE budgets SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: budget %s", models.ErrDuplicateBudget, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("budget", id)
	}

	return nil
}

// DeleteBudget detaches every spend tagged to the budget and deletes it, in
// one transaction. The spends themselves survive.
func (s *SQLiteStore) DeleteBudget(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete budget", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE personal_spend SET budget_id = NULL WHERE budget_id = ?", id); err != nil {
			return fmt.Errorf("failed to detach personal spend: %w", err)
		}
		return execOne(ctx, tx, "budget", id, "DELETE FROM budgets WHERE id = ?", id)
	})
}

// DeleteTemplate deletes a recurring template. Instances keep existing.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ? AND month = ?", id, int(models.TemplateMonth))
	if err != nil {
		return fmt.Errorf("failed to delete budget template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("budget template", id)
	}

	return nil
}

// ListBudgets returns the user's budgets for month sorted by name.
// TemplateMonth lists the recurring templates.
func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string, month models.MonthKey) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND month = ? ORDER BY name COLLATE NOCASE",
		userID, int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}

	return budgets, nil
}

// MaterializeMonth copies every template into month unless an instance with
// the same (user, name) already exists there, in one transaction. Existing
// instances, edited or not, are left alone.
func (s *SQLiteStore) MaterializeMonth(ctx context.Context, month models.MonthKey) (int, error) {
	var created int

	err := s.withTx(ctx, "materialize budgets", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT user_id, name, amount_cents FROM budgets WHERE month = ?",
			int(models.TemplateMonth),
		)
		if err != nil {
			return fmt.Errorf("failed to load budget templates: %w", err)
		}

		type template struct {
			userID string
			name   string
			cents  int64
		}
		var templates []template
		for rows.Next() {
			var t template
			if err := rows.Scan(&t.userID, &t.name, &t.cents); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan budget template: %w", err)
			}
			templates = append(templates, t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate budget templates: %w", err)
		}

		for _, t := range templates {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (user_id, name, month) DO NOTHING`,
				uuid.New().String(), t.userID, t.name, int(month), t.cents,
			)
			if err != nil {
				return fmt.Errorf("failed to insert budget instance %q: %w", t.name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// BudgetUsages sums the user's spend per budget id for spends dated in month.
// Spends without a budget are collected under an empty BudgetID. The month of
// the referenced budget row is not checked.
func (s *SQLiteStore) BudgetUsages(ctx context.Context, userID string, month models.MonthKey) ([]models.BudgetUsage, error) {
	start, end := month.Bounds()
	rows, err := s.db.QueryContext(ctx,
		`SELECT budget_id, SUM(amount_cents)
		 FROM personal_spend
		 WHERE user_id = ? AND date >= ? AND date < ?
		 GROUP BY budget_id
		 ORDER BY budget_id`,
		userID, toMillis(start), toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum budget usage: %w", err)
	}
	defer rows.Close()

	var usages []models.BudgetUsage
	for rows.Next() {
		var budgetID sql.NullString
		var cents int64
		if err := rows.Scan(&budgetID, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan budget usage: %w", err)
		}
		usages = append(usages, models.BudgetUsage{BudgetID: budgetID.String, Total: money.ToDollars(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget usage: %w", err)
	}

	return usages, nil
}

func scanBudget(row rowScanner) (*models.Budget, error) {
	budget := &models.Budget{}
	var month int
	var cents int64
	if err := row.Scan(&budget.ID, &budget.UserID, &budget.Name, &month, &cents); err != nil {
		return nil, err
	}
	budget.Month = models.MonthKey(month)
	budget.Amount = money.ToDollars(cents)
	return budget, nil
}
