package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
)

const settlementColumns = "id, payer_id, payee_id, amount_cents, date, note"

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		settlement.ID, settlement.PayerID, settlement.PayeeID,
		money.ToCents(settlement.Amount), toMillis(settlement.Date), nullString(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+settlementColumns+" FROM settlements WHERE id = ?", settlementID)

	settlement, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("settlement", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return settlement, nil
}

// ListSettlementsForPerson retrieves every settlement the person paid or
// received, newest first.
func (s *SQLiteStore) ListSettlementsForPerson(ctx context.Context, personID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE payer_id = ? OR payee_id = ? ORDER BY date DESC, rowid DESC",
		personID, personID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements for person: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("settlement", settlementID)
	}

	return nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var cents, date int64
	var note sql.NullString

	if err := row.Scan(&settlement.ID, &settlement.PayerID, &settlement.PayeeID, &cents, &date, &note); err != nil {
		return nil, err
	}

	settlement.Amount = money.ToDollars(cents)
	settlement.Date = fromMillis(date)
	if note.Valid {
		settlement.Note = note.String
	}
	return settlement, nil
}
