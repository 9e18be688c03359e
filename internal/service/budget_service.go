package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/storage"
)

// BudgetService manages recurring budget templates and the month instances
// materialized from them.
type BudgetService struct {
	store   storage.BudgetStore
	metrics *metrics.Metrics

	// inflight collapses concurrent materializations of the same month.
	inflight singleflight.Group
}

// NewBudgetService creates a new BudgetService with the given storage backend.
func NewBudgetService(store storage.BudgetStore, m *metrics.Metrics) *BudgetService {
	return &BudgetService{store: store, metrics: m}
}

// EnsureRecurringBudgets creates the month's instance of every template that
// does not have one yet and returns how many were created. Concurrent calls
// for the same month share one run and its result. The run itself is not
// cancelled with ctx; a caller that gives up just stops waiting.
func (s *BudgetService) EnsureRecurringBudgets(ctx context.Context, month models.MonthKey) (int, error) {
	var created int
	err := s.metrics.Track(ctx, "ensure_recurring_budgets", func() error {
		if !month.Valid() {
			return fmt.Errorf("%w: %d", models.ErrInvalidMonth, int(month))
		}

		runCtx := context.WithoutCancel(ctx)
		ch := s.inflight.DoChan(month.String(), func() (interface{}, error) {
			n, err := s.store.MaterializeMonth(runCtx, month)
			if err != nil {
				return 0, err
			}
			s.metrics.BudgetsMaterialized(month, n)
			if n > 0 {
				slog.Info("Budgets materialized", "month", month.String(), "created", n)
			}
			return n, nil
		})

		select {
		case res := <-ch:
			s.metrics.MaterializeCall(res.Shared)
			if res.Err != nil {
				return res.Err
			}
			created = res.Val.(int)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	return created, err
}

// CreateBudget adds a budget instance for month.
func (s *BudgetService) CreateBudget(ctx context.Context, name string, amount float64, month models.MonthKey) (*models.Budget, error) {
	var budget *models.Budget
	err := s.metrics.Track(ctx, "create_budget", func() error {
		if !month.Valid() {
			return fmt.Errorf("%w: %d", models.ErrInvalidMonth, int(month))
		}
		var err error
		budget, err = s.create(ctx, name, amount, month)
		return err
	})
	return budget, err
}

// CreateRecurringBudget adds a template that future months are materialized
// from.
func (s *BudgetService) CreateRecurringBudget(ctx context.Context, name string, amount float64) (*models.Budget, error) {
	var budget *models.Budget
	err := s.metrics.Track(ctx, "create_recurring_budget", func() error {
		var err error
		budget, err = s.create(ctx, name, amount, models.TemplateMonth)
		return err
	})
	return budget, err
}

func (s *BudgetService) create(ctx context.Context, name string, amount float64, month models.MonthKey) (*models.Budget, error) {
	name = strings.TrimSpace(name)
	if err := validateBudget(&name, &amount); err != nil {
		return nil, err
	}

	budget := &models.Budget{UserID: models.MeID, Name: name, Month: month, Amount: amount}
	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, err
	}
	slog.Info("Budget created", "budget_id", budget.ID, "name", name, "month", month.String(), "amount", amount)
	return budget, nil
}

// GetBudget returns a budget row, template or instance.
func (s *BudgetService) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	var budget *models.Budget
	err := s.metrics.Track(ctx, "get_budget", func() error {
		var err error
		budget, err = s.store.GetBudget(ctx, id)
		return err
	})
	return budget, err
}

// UpdateBudget changes the name or amount of one budget row. Instances
// created from a template are independent of later template edits.
func (s *BudgetService) UpdateBudget(ctx context.Context, id string, patch models.BudgetPatch) error {
	return s.metrics.Track(ctx, "update_budget", func() error {
		return s.update(ctx, id, patch)
	})
}

// UpdateRecurringBudget changes a template. Rows that are not templates are
// reported as not found.
func (s *BudgetService) UpdateRecurringBudget(ctx context.Context, id string, patch models.BudgetPatch) error {
	return s.metrics.Track(ctx, "update_recurring_budget", func() error {
		budget, err := s.store.GetBudget(ctx, id)
		if err != nil {
			return err
		}
		if !budget.IsTemplate() {
			return models.NotFound("budget template", id)
		}
		return s.update(ctx, id, patch)
	})
}

func (s *BudgetService) update(ctx context.Context, id string, patch models.BudgetPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validateBudget(patch.Name, patch.Amount); err != nil {
		return err
	}
	if err := s.store.UpdateBudget(ctx, id, patch); err != nil {
		return err
	}
	slog.Info("Budget updated", "budget_id", id)
	return nil
}

// DeleteBudget deletes a budget row. Spends tagged to it are kept with no
// budget.
func (s *BudgetService) DeleteBudget(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_budget", func() error {
		if err := s.store.DeleteBudget(ctx, id); err != nil {
			return err
		}
		slog.Info("Budget deleted", "budget_id", id)
		return nil
	})
}

// DeleteRecurringBudget deletes a template. Months already materialized keep
// their instances.
func (s *BudgetService) DeleteRecurringBudget(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_recurring_budget", func() error {
		if err := s.store.DeleteTemplate(ctx, id); err != nil {
			return err
		}
		slog.Info("Recurring budget deleted", "budget_id", id)
		return nil
	})
}

// ListBudgetsByMonth returns the month's budget instances sorted by name.
func (s *BudgetService) ListBudgetsByMonth(ctx context.Context, month models.MonthKey) ([]models.Budget, error) {
	var out []models.Budget
	err := s.metrics.Track(ctx, "list_budgets", func() error {
		if !month.Valid() {
			return fmt.Errorf("%w: %d", models.ErrInvalidMonth, int(month))
		}
		var err error
		out, err = s.store.ListBudgets(ctx, models.MeID, month)
		return err
	})
	return out, err
}

// ListRecurringBudgets returns the templates sorted by name.
func (s *BudgetService) ListRecurringBudgets(ctx context.Context) ([]models.Budget, error) {
	var out []models.Budget
	err := s.metrics.Track(ctx, "list_recurring_budgets", func() error {
		var err error
		out, err = s.store.ListBudgets(ctx, models.MeID, models.TemplateMonth)
		return err
	})
	return out, err
}

// BudgetUsages totals the month's personal spend per budget id. Spends with
// no budget are grouped under an empty id.
func (s *BudgetService) BudgetUsages(ctx context.Context, month models.MonthKey) ([]models.BudgetUsage, error) {
	var out []models.BudgetUsage
	err := s.metrics.Track(ctx, "budget_usages", func() error {
		if !month.Valid() {
			return fmt.Errorf("%w: %d", models.ErrInvalidMonth, int(month))
		}
		var err error
		out, err = s.store.BudgetUsages(ctx, models.MeID, month)
		return err
	})
	return out, err
}

// validateBudget checks the fields that are set.
func validateBudget(name *string, amount *float64) error {
	if name != nil && *name == "" {
		return fmt.Errorf("%w: budget name is required", models.ErrInvalidInput)
	}
	if amount != nil {
		cents, err := money.Cents(*amount)
		if err != nil {
			return fmt.Errorf("%w: budget amount: %w", models.ErrInvalidInput, err)
		}
		if cents < 0 {
			return fmt.Errorf("%w: budget amount must not be negative", models.ErrInvalidInput)
		}
	}
	return nil
}
