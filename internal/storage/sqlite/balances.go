package sqlite

import (
	"context"
	"fmt"

	"github.com/Virain6/money-management/internal/calculator"
)

// NetAggregates computes the four grouped sums that make up every net
// balance against ownerID.
func (s *SQLiteStore) NetAggregates(ctx context.Context, ownerID string) (calculator.NetAggregates, error) {
	var agg calculator.NetAggregates
	var err error

	// others' shares on bills the owner paid
	agg.OwedToMe, err = s.sumBy(ctx,
		`SELECT p.user_id, SUM(p.share_cents)
		 FROM expenses e
		 JOIN expense_participants p ON p.expense_id = e.id
		 WHERE e.payer_id = ? AND p.user_id <> ?
		 GROUP BY p.user_id`,
		ownerID, ownerID,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to sum shares owed to %s: %w", ownerID, err)
	}

	// the owner's shares on bills others paid
	agg.IOwe, err = s.sumBy(ctx,
		`SELECT e.payer_id, SUM(p.share_cents)
		 FROM expenses e
		 JOIN expense_participants p ON p.expense_id = e.id
		 WHERE p.user_id = ? AND e.payer_id IS NOT NULL AND e.payer_id <> ?
		 GROUP BY e.payer_id`,
		ownerID, ownerID,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to sum shares owed by %s: %w", ownerID, err)
	}

	agg.SettledToMe, err = s.sumBy(ctx,
		"SELECT payer_id, SUM(amount_cents) FROM settlements WHERE payee_id = ? GROUP BY payer_id",
		ownerID,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to sum settlements received: %w", err)
	}

	agg.SettledByMe, err = s.sumBy(ctx,
		"SELECT payee_id, SUM(amount_cents) FROM settlements WHERE payer_id = ? GROUP BY payee_id",
		ownerID,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to sum settlements sent: %w", err)
	}

	return agg, nil
}

// sumBy runs a two-column (key, cents) grouped query into a map.
func (s *SQLiteStore) sumBy(ctx context.Context, query string, args ...interface{}) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, err
		}
		out[id] = cents
	}
	return out, rows.Err()
}
