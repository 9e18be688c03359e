package service

import (
	"context"
	"sort"

	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/storage"
)

// DefaultRecentLimit is the feed length used when none is configured.
const DefaultRecentLimit = 30

// ActivityService builds the merged feed of recent expenses and spends.
type ActivityService struct {
	store        storage.Store
	metrics      *metrics.Metrics
	defaultLimit int
}

// NewActivityService creates a new ActivityService. defaultLimit <= 0 uses
// DefaultRecentLimit.
func NewActivityService(store storage.Store, m *metrics.Metrics, defaultLimit int) *ActivityService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRecentLimit
	}
	return &ActivityService{store: store, metrics: m, defaultLimit: defaultLimit}
}

// ListRecentTransactions merges the newest shared expenses and personal
// spends into one list, newest first, at most limit long. On equal dates
// expenses come before spends.
func (s *ActivityService) ListRecentTransactions(ctx context.Context, limit int) ([]models.RecentItem, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	var items []models.RecentItem
	err := s.metrics.Track(ctx, "list_recent_transactions", func() error {
		expenses, err := s.store.ListRecentExpenses(ctx, limit)
		if err != nil {
			return err
		}
		spends, err := s.store.ListRecentSpends(ctx, limit)
		if err != nil {
			return err
		}

		items = make([]models.RecentItem, 0, len(expenses)+len(spends))
		for _, e := range expenses {
			items = append(items, models.RecentItem{
				Kind:   models.RecentExpense,
				ID:     e.ID,
				Title:  firstNonEmpty(e.Description, "Shared expense"),
				Amount: e.Amount,
				Date:   e.Date,
			})
		}
		for _, sp := range spends {
			items = append(items, models.RecentItem{
				Kind:   models.RecentSpend,
				ID:     sp.Spend.ID,
				Title:  firstNonEmpty(sp.Spend.Note, sp.BudgetName, "Personal spend"),
				Amount: sp.Spend.Amount,
				Date:   sp.Spend.Date,
			})
		}

		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Date.After(items[j].Date)
		})
		if len(items) > limit {
			items = items[:limit]
		}
		return nil
	})
	return items, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
