// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/Virain6/money-management/internal/calculator"
	"github.com/Virain6/money-management/internal/models"
)

// Share is one participant's allocation in cents, as produced by the split
// allocator.
type Share struct {
	UserID string
	Cents  int64
}

// RecentSpend is a personal spend with the name of its budget, if any.
type RecentSpend struct {
	Spend      models.PersonalSpend
	BudgetName string
}

// PersonStore persists people.
type PersonStore interface {
	// CreatePerson inserts a person. person.ID is generated when empty.
	CreatePerson(ctx context.Context, person *models.Person) error

	// GetPerson returns ErrNotFound when the id is unknown.
	GetPerson(ctx context.Context, id string) (*models.Person, error)

	// GetPeopleByIDs returns the people that exist, keyed by id.
	GetPeopleByIDs(ctx context.Context, ids []string) (map[string]*models.Person, error)

	// ListPeople returns people sorted by display name, case-insensitively.
	// With includeMe the device owner comes first.
	ListPeople(ctx context.Context, includeMe bool) ([]models.Person, error)

	// DeletePerson atomically removes the person's participant rows, every
	// settlement they are part of, and the person.
	DeletePerson(ctx context.Context, id string) error
}

// ExpenseStore persists shared expenses and their participant rows. Every
// write is a single transaction.
type ExpenseStore interface {
	// CreateExpense inserts the expense and one participant row per share, in
	// order. expense.ID is generated when empty.
	CreateExpense(ctx context.Context, expense *models.SharedExpense, shares []Share) error

	// UpdateExpense overwrites the expense's scalar fields and replaces all of
	// its participant rows.
	UpdateExpense(ctx context.Context, expense *models.SharedExpense, shares []Share) error

	// DeleteExpense removes the participant rows, then the expense.
	DeleteExpense(ctx context.Context, id string) error

	// GetExpense returns the expense with participants sorted by display name.
	GetExpense(ctx context.Context, id string) (*models.ExpenseDetail, error)

	// ListRecentExpenses returns the newest expenses first.
	ListRecentExpenses(ctx context.Context, limit int) ([]models.SharedExpense, error)

	// ListRecentExpensesForPerson returns the newest expenses the person
	// participated in or paid.
	ListRecentExpensesForPerson(ctx context.Context, personID string, limit int) ([]models.PersonExpense, error)

	// NetAggregates computes the four grouped sums behind net balances, seen
	// from ownerID.
	NetAggregates(ctx context.Context, ownerID string) (calculator.NetAggregates, error)
}

// SettlementStore persists manual settlements.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	ListSettlementsForPerson(ctx context.Context, personID string) ([]models.Settlement, error)
	DeleteSettlement(ctx context.Context, id string) error
}

// SpendStore persists personal spending.
type SpendStore interface {
	CreateSpend(ctx context.Context, spend *models.PersonalSpend) error
	GetSpend(ctx context.Context, id string) (*models.PersonalSpend, error)
	UpdateSpend(ctx context.Context, id string, patch models.SpendPatch) error
	DeleteSpend(ctx context.Context, id string) error

	// ListSpendByMonth returns the user's spends dated in month, newest first.
	// A non-empty budgetID restricts the result to that budget.
	ListSpendByMonth(ctx context.Context, userID string, month models.MonthKey, budgetID string) ([]models.PersonalSpend, error)

	// ListRecentSpends returns the newest spends first, with budget names.
	ListRecentSpends(ctx context.Context, limit int) ([]RecentSpend, error)
}

// BudgetStore persists budget templates and month instances.
type BudgetStore interface {
	// CreateBudget returns ErrDuplicateBudget when (user, name, month) exists.
	CreateBudget(ctx context.Context, budget *models.Budget) error
	GetBudget(ctx context.Context, id string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, id string, patch models.BudgetPatch) error

	// DeleteBudget atomically detaches the budget's spends, then deletes it.
	DeleteBudget(ctx context.Context, id string) error

	// DeleteTemplate deletes id only if it is a template row.
	DeleteTemplate(ctx context.Context, id string) error

	// ListBudgets returns the user's rows for month sorted by name.
	ListBudgets(ctx context.Context, userID string, month models.MonthKey) ([]models.Budget, error)

	// MaterializeMonth inserts a month instance for every template that does
	// not have one yet and reports how many rows were created.
	MaterializeMonth(ctx context.Context, month models.MonthKey) (int, error)

	// BudgetUsages sums the user's spends dated in month per budget id.
	BudgetUsages(ctx context.Context, userID string, month models.MonthKey) ([]models.BudgetUsage, error)
}

// Store is the full ledger store.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	PersonStore
	ExpenseStore
	SettlementStore
	SpendStore
	BudgetStore

	// Close releases any resources held by the store.
	Close() error
}
