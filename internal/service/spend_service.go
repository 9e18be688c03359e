package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/storage"
)

// SpendInput describes a personal spend for the device owner.
type SpendInput struct {
	Amount float64

	// BudgetID optionally tags the spend to a budget instance.
	BudgetID string
	Category string

	// Date defaults to now when zero.
	Date time.Time
	Note string
}

// SpendService records personal spending. Personal spends never change
// balances between people.
type SpendService struct {
	store   storage.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSpendService creates a new SpendService with the given storage backend.
func NewSpendService(store storage.Store, m *metrics.Metrics) *SpendService {
	return &SpendService{store: store, metrics: m, now: time.Now}
}

// AddPersonalSpend stores a spend for me.
func (s *SpendService) AddPersonalSpend(ctx context.Context, in SpendInput) (*models.PersonalSpend, error) {
	var spend *models.PersonalSpend
	err := s.metrics.Track(ctx, "add_personal_spend", func() error {
		cents, err := positiveCents(in.Amount)
		if err != nil {
			return err
		}
		if err := s.requireBudget(ctx, in.BudgetID); err != nil {
			return err
		}

		spend = &models.PersonalSpend{
			UserID:   models.MeID,
			Amount:   money.ToDollars(cents),
			BudgetID: in.BudgetID,
			Category: in.Category,
			Date:     in.Date,
			Note:     in.Note,
		}
		if spend.Date.IsZero() {
			spend.Date = s.now()
		}
		if err := s.store.CreateSpend(ctx, spend); err != nil {
			return err
		}
		slog.Info("Personal spend added", "spend_id", spend.ID, "amount", spend.Amount, "budget_id", spend.BudgetID)
		return nil
	})
	return spend, err
}

// GetPersonalSpend returns a spend by id.
func (s *SpendService) GetPersonalSpend(ctx context.Context, id string) (*models.PersonalSpend, error) {
	var spend *models.PersonalSpend
	err := s.metrics.Track(ctx, "get_personal_spend", func() error {
		var err error
		spend, err = s.store.GetSpend(ctx, id)
		return err
	})
	return spend, err
}

// UpdatePersonalSpend applies patch to a spend. A BudgetID of "" clears the
// budget tag.
func (s *SpendService) UpdatePersonalSpend(ctx context.Context, id string, patch models.SpendPatch) error {
	return s.metrics.Track(ctx, "update_personal_spend", func() error {
		if patch.Amount != nil {
			cents, err := positiveCents(*patch.Amount)
			if err != nil {
				return err
			}
			amount := money.ToDollars(cents)
			patch.Amount = &amount
		}
		if patch.BudgetID != nil {
			if err := s.requireBudget(ctx, *patch.BudgetID); err != nil {
				return err
			}
		}
		if err := s.store.UpdateSpend(ctx, id, patch); err != nil {
			return err
		}
		slog.Info("Personal spend updated", "spend_id", id)
		return nil
	})
}

// DeletePersonalSpend removes a spend.
func (s *SpendService) DeletePersonalSpend(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_personal_spend", func() error {
		if err := s.store.DeleteSpend(ctx, id); err != nil {
			return err
		}
		slog.Info("Personal spend deleted", "spend_id", id)
		return nil
	})
}

// ListPersonalSpendByMonth returns my spends dated in month, newest first. A
// non-empty budgetID keeps only spends tagged to that budget.
func (s *SpendService) ListPersonalSpendByMonth(ctx context.Context, month models.MonthKey, budgetID string) ([]models.PersonalSpend, error) {
	var out []models.PersonalSpend
	err := s.metrics.Track(ctx, "list_personal_spend", func() error {
		if !month.Valid() {
			return fmt.Errorf("%w: %d", models.ErrInvalidMonth, int(month))
		}
		var err error
		out, err = s.store.ListSpendByMonth(ctx, models.MeID, month, budgetID)
		return err
	})
	return out, err
}

func (s *SpendService) requireBudget(ctx context.Context, budgetID string) error {
	if budgetID == "" {
		return nil
	}
	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return err
	}
	if budget.IsTemplate() {
		return fmt.Errorf("%w: spends are tagged to month budgets, not templates", models.ErrInvalidInput)
	}
	return nil
}
