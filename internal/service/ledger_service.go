package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Virain6/money-management/internal/calculator"
	"github.com/Virain6/money-management/internal/metrics"
	"github.com/Virain6/money-management/internal/models"
	"github.com/Virain6/money-management/internal/money"
	"github.com/Virain6/money-management/internal/storage"
)

// defaultPersonExpenseLimit is how many expenses a person's history shows.
const defaultPersonExpenseLimit = 20

// ExpenseInput describes a shared expense to create or replace.
type ExpenseInput struct {
	Description string
	Category    string

	// Amount is the total in dollars.
	Amount float64

	// Currency defaults to the service's currency when empty.
	Currency string

	// Date defaults to now when zero.
	Date time.Time

	PayerID string

	// ParticipantIDs lists who shares the bill, in allocation order.
	ParticipantIDs []string

	// Mode picks the split strategy; nil means an equal split.
	Mode calculator.SplitMode
}

// SettlementInput describes a manual payment between two people.
type SettlementInput struct {
	PayerID string
	PayeeID string
	Amount  float64
	Date    time.Time
	Note    string
}

// LedgerService records shared expenses and settlements and computes net
// balances against the device owner.
type LedgerService struct {
	store    storage.Store
	metrics  *metrics.Metrics
	currency string
	now      func() time.Time
}

// NewLedgerService creates a new LedgerService with the given storage backend.
// An empty currency falls back to models.DefaultCurrency.
func NewLedgerService(store storage.Store, m *metrics.Metrics, currency string) *LedgerService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &LedgerService{store: store, metrics: m, currency: currency, now: time.Now}
}

// CreateExpense validates and allocates in, then stores the expense and its
// participant rows atomically. It returns the new expense id.
func (s *LedgerService) CreateExpense(ctx context.Context, in ExpenseInput) (string, error) {
	var id string
	err := s.metrics.Track(ctx, "create_expense", func() error {
		expense, shares, err := s.prepareExpense(ctx, in)
		if err != nil {
			return err
		}
		expense.CreatedBy = models.MeID

		if err := s.store.CreateExpense(ctx, expense, shares); err != nil {
			return err
		}
		id = expense.ID
		slog.Info("Expense created",
			"expense_id", expense.ID,
			"amount", expense.Amount,
			"payer_id", expense.PayerID,
			"participants", len(shares),
		)
		return nil
	})
	return id, err
}

// UpdateExpense recomputes the allocation for in and replaces the expense's
// fields and participant rows atomically.
func (s *LedgerService) UpdateExpense(ctx context.Context, id string, in ExpenseInput) error {
	return s.metrics.Track(ctx, "update_expense", func() error {
		expense, shares, err := s.prepareExpense(ctx, in)
		if err != nil {
			return err
		}
		expense.ID = id

		if err := s.store.UpdateExpense(ctx, expense, shares); err != nil {
			return err
		}
		slog.Info("Expense updated", "expense_id", id, "amount", expense.Amount, "participants", len(shares))
		return nil
	})
}

// DeleteExpense removes an expense and its participant rows atomically.
func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_expense", func() error {
		if err := s.store.DeleteExpense(ctx, id); err != nil {
			return err
		}
		slog.Info("Expense deleted", "expense_id", id)
		return nil
	})
}

// GetExpenseWithParticipants returns an expense and its participants sorted
// by display name.
func (s *LedgerService) GetExpenseWithParticipants(ctx context.Context, id string) (*models.ExpenseDetail, error) {
	var detail *models.ExpenseDetail
	err := s.metrics.Track(ctx, "get_expense", func() error {
		var err error
		detail, err = s.store.GetExpense(ctx, id)
		return err
	})
	return detail, err
}

// ListRecentExpensesForPerson returns the newest expenses the person took
// part in or paid. limit <= 0 uses the default of 20.
func (s *LedgerService) ListRecentExpensesForPerson(ctx context.Context, personID string, limit int) ([]models.PersonExpense, error) {
	if limit <= 0 {
		limit = defaultPersonExpenseLimit
	}
	var out []models.PersonExpense
	err := s.metrics.Track(ctx, "list_person_expenses", func() error {
		var err error
		out, err = s.store.ListRecentExpensesForPerson(ctx, personID, limit)
		return err
	})
	return out, err
}

// prepareExpense validates in and turns it into a storable expense plus the
// per-participant cent allocation. Nothing is written.
func (s *LedgerService) prepareExpense(ctx context.Context, in ExpenseInput) (*models.SharedExpense, []storage.Share, error) {
	if len(in.ParticipantIDs) == 0 {
		return nil, nil, models.ErrEmptyParticipants
	}
	cents, err := positiveCents(in.Amount)
	if err != nil {
		return nil, nil, err
	}
	if in.PayerID == "" {
		return nil, nil, fmt.Errorf("%w: payer is required", models.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(in.ParticipantIDs))
	for _, id := range in.ParticipantIDs {
		if seen[id] {
			return nil, nil, models.InvalidSplit("duplicate participant")
		}
		seen[id] = true
	}

	allocation, err := calculator.AllocateCents(cents, len(in.ParticipantIDs), in.Mode)
	if err != nil {
		return nil, nil, err
	}

	ids := append([]string{in.PayerID}, in.ParticipantIDs...)
	if err := s.requirePeople(ctx, ids); err != nil {
		return nil, nil, err
	}

	shares := make([]storage.Share, len(allocation))
	for i, c := range allocation {
		shares[i] = storage.Share{UserID: in.ParticipantIDs[i], Cents: c}
	}

	expense := &models.SharedExpense{
		Description: in.Description,
		Category:    in.Category,
		Amount:      money.ToDollars(cents),
		Currency:    in.Currency,
		Date:        in.Date,
		PayerID:     in.PayerID,
	}
	if expense.Currency == "" {
		expense.Currency = s.currency
	}
	if expense.Date.IsZero() {
		expense.Date = s.now()
	}
	return expense, shares, nil
}

// requirePeople fails with ErrNotFound naming the first unknown id.
func (s *LedgerService) requirePeople(ctx context.Context, ids []string) error {
	people, err := s.store.GetPeopleByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := people[id]; !ok {
			return models.NotFound("person", id)
		}
	}
	return nil
}

// RecordSettlement stores a payment from in.PayerID to in.PayeeID and returns
// its id.
func (s *LedgerService) RecordSettlement(ctx context.Context, in SettlementInput) (string, error) {
	var id string
	err := s.metrics.Track(ctx, "record_settlement", func() error {
		cents, err := positiveCents(in.Amount)
		if err != nil {
			return err
		}
		if in.PayerID == "" || in.PayeeID == "" {
			return fmt.Errorf("%w: payer and payee are required", models.ErrInvalidInput)
		}
		if in.PayerID == in.PayeeID {
			return fmt.Errorf("%w: payer and payee must differ", models.ErrInvalidInput)
		}
		if err := s.requirePeople(ctx, []string{in.PayerID, in.PayeeID}); err != nil {
			return err
		}

		settlement := &models.Settlement{
			PayerID: in.PayerID,
			PayeeID: in.PayeeID,
			Amount:  money.ToDollars(cents),
			Date:    in.Date,
			Note:    in.Note,
		}
		if settlement.Date.IsZero() {
			settlement.Date = s.now()
		}
		if err := s.store.CreateSettlement(ctx, settlement); err != nil {
			return err
		}
		id = settlement.ID
		slog.Info("Settlement recorded",
			"settlement_id", settlement.ID,
			"payer_id", settlement.PayerID,
			"payee_id", settlement.PayeeID,
			"amount", settlement.Amount,
		)
		return nil
	})
	return id, err
}

// DeleteSettlement removes a settlement.
func (s *LedgerService) DeleteSettlement(ctx context.Context, id string) error {
	return s.metrics.Track(ctx, "delete_settlement", func() error {
		if err := s.store.DeleteSettlement(ctx, id); err != nil {
			return err
		}
		slog.Info("Settlement deleted", "settlement_id", id)
		return nil
	})
}

// ListSettlementsForPerson returns the settlements the person paid or
// received, newest first.
func (s *LedgerService) ListSettlementsForPerson(ctx context.Context, personID string) ([]models.Settlement, error) {
	var out []models.Settlement
	err := s.metrics.Track(ctx, "list_settlements", func() error {
		var err error
		out, err = s.store.ListSettlementsForPerson(ctx, personID)
		return err
	})
	return out, err
}

// NetByPerson returns each person's net balance against "me" in dollars.
// Positive means the person owes me. People with no expenses or settlements
// involving me have no entry.
func (s *LedgerService) NetByPerson(ctx context.Context) (map[string]float64, error) {
	var out map[string]float64
	err := s.metrics.Track(ctx, "net_by_person", func() error {
		net, err := s.netCents(ctx)
		if err != nil {
			return err
		}
		out = calculator.NetDollars(net)
		return nil
	})
	return out, err
}

// ListBalances returns every person except me with their net balance,
// largest balance first.
func (s *LedgerService) ListBalances(ctx context.Context) ([]models.PersonBalance, error) {
	var out []models.PersonBalance
	err := s.metrics.Track(ctx, "list_balances", func() error {
		net, err := s.netCents(ctx)
		if err != nil {
			return err
		}
		people, err := s.store.ListPeople(ctx, false)
		if err != nil {
			return err
		}
		out = calculator.JoinBalances(people, net)
		return nil
	})
	return out, err
}

func (s *LedgerService) netCents(ctx context.Context) (map[string]int64, error) {
	agg, err := s.store.NetAggregates(ctx, models.MeID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate balances: %w", err)
	}
	return calculator.FoldNet(agg), nil
}

// positiveCents converts a caller-supplied amount to cents. Non-finite or
// oversized amounts are ErrInvalidInput; zero and below are
// ErrNonPositiveAmount.
func positiveCents(amount float64) (int64, error) {
	cents, err := money.Cents(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	if cents <= 0 {
		return 0, models.ErrNonPositiveAmount
	}
	return cents, nil
}
