package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/storage"
)

const expenseColumns = "e.id, e.description, e.category, e.amount_cents, e.currency, e.date, e.created_by, e.payer_id"

// CreateExpense persists a new expense and its participant rows in one
// transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.SharedExpense, shares []storage.Share) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Currency == "" {
		expense.Currency = models.DefaultCurrency
	}

	return s.withTx(ctx, "create expense", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, description, category, amount_cents, currency, date, created_by, payer_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, nullString(expense.Description), nullString(expense.Category),
			money.ToCents(expense.Amount), expense.Currency, toMillis(expense.Date),
			nullString(expense.CreatedBy), nullString(expense.PayerID),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		return insertShares(ctx, tx, expense.ID, shares)
	})
}

// UpdateExpense overwrites the expense's fields and replaces its participant
// rows wholesale, in one transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.SharedExpense, shares []storage.Share) error {
	if expense.Currency == "" {
		expense.Currency = models.DefaultCurrency
	}

	return s.withTx(ctx, "update expense", func(tx *sql.Tx) error {
		err := execOne(ctx, tx, "expense", expense.ID,
			`UPDATE expenses
			 SET description = ?, category = ?, amount_cents = ?, currency = ?, date = ?, payer_id = ?
			 WHERE id = ?`,
			nullString(expense.Description), nullString(expense.Category),
			money.ToCents(expense.Amount), expense.Currency, toMillis(expense.Date),
			nullString(expense.PayerID), expense.ID,
		)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}

		return insertShares(ctx, tx, expense.ID, shares)
	})
}

// DeleteExpense removes the participant rows and then the expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete expense", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		return execOne(ctx, tx, "expense", id, "DELETE FROM expenses WHERE id = ?", id)
	})
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID string, shares []storage.Share) error {
	for i, share := range shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, share_cents, position) VALUES (?, ?, ?, ?)",
			expenseID, share.UserID, share.Cents, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense with its participants, sorted by display
// name.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.ExpenseDetail, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses e WHERE e.id = ?", id)
	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("expense", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.user_id, p.share_cents, u.display_name
		 FROM expense_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.expense_id = ?
		 ORDER BY u.display_name COLLATE NOCASE, p.position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	detail := &models.ExpenseDetail{Expense: *expense}
	for rows.Next() {
		p := models.Participant{ExpenseID: id}
		var cents int64
		if err := rows.Scan(&p.UserID, &cents, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Share = money.ToDollars(cents)
		detail.Participants = append(detail.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return detail, nil
}

// ListRecentExpenses returns up to limit expenses, newest first.
func (s *SQLiteStore) ListRecentExpenses(ctx context.Context, limit int) ([]models.SharedExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses e ORDER BY e.date DESC, e.rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.SharedExpense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// ListRecentExpensesForPerson returns up to limit expenses the person took
// part in or paid, newest first, with the person's own share.
func (s *SQLiteStore) ListRecentExpensesForPerson(ctx context.Context, personID string, limit int) ([]models.PersonExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+`, p.share_cents
		 FROM expenses e
		 LEFT JOIN expense_participants p ON p.expense_id = e.id AND p.user_id = ?
		 WHERE p.user_id IS NOT NULL OR e.payer_id = ?
		 ORDER BY e.date DESC, e.rowid DESC
		 LIMIT ?`,
		personID, personID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for person: %w", err)
	}
	defer rows.Close()

	var out []models.PersonExpense
	for rows.Next() {
		var share sql.NullInt64
		expense, err := scanExpense(rows, &share)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		pe := models.PersonExpense{Expense: *expense, Participated: share.Valid}
		if share.Valid {
			pe.Share = money.ToDollars(share.Int64)
		}
		out = append(out, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return out, nil
}

// scanExpense reads the expenseColumns, followed by any extra destinations.
func scanExpense(row rowScanner, extra ...interface{}) (*models.SharedExpense, error) {
	expense := &models.SharedExpense{}
	var description, category, createdBy, payerID sql.NullString
	var cents, date int64

	dest := []interface{}{&expense.ID, &description, &category, &cents, &expense.Currency, &date, &createdBy, &payerID}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	expense.Description = description.String
	expense.Category = category.String
	expense.Amount = money.ToDollars(cents)
	expense.Date = fromMillis(date)
	expense.CreatedBy = createdBy.String
	expense.PayerID = payerID.String
	return expense, nil
}
