package models

import "time"

// PersonalSpend is money spent by one person that never affects balances
// between people. It is optionally tagged to a budget instance.
type PersonalSpend struct {
	ID     string
	UserID string

	// Amount is in dollars, always > 0.
	Amount float64

	// BudgetID is empty when the spend is not tagged to a budget, including
	// after the budget it referenced was deleted.
	BudgetID string

	// Category is a free-form tag kept for spends recorded without a budget.
	Category string

	Date time.Time
	Note string
}

// SpendPatch lists the fields to change on a PersonalSpend; nil means keep.
// A non-nil BudgetID pointing at "" clears the budget.
type SpendPatch struct {
	Amount   *float64
	BudgetID *string
	Note     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SpendPatch) IsEmpty() bool {
	return p.Amount == nil && p.BudgetID == nil && p.Note == nil
}
