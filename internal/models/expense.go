package models

import "time"

// DefaultCurrency is the passthrough currency tag stored on new expenses.
const DefaultCurrency = "CAD"

// SharedExpense represents one bill paid by PayerID and split among
// participants. Amount is the ground truth total; the participants' shares
// always sum to it exactly.
type SharedExpense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is optional free text (e.g. "Groceries").
	Description string

	// Category is an optional free-form tag.
	Category string

	// Amount is the total in dollars, always > 0.
	Amount float64

	// Currency is a passthrough tag; no conversion is ever performed.
	Currency string

	// Date is when the expense happened.
	Date time.Time

	// CreatedBy is the person who recorded the expense ("me" for local entries).
	CreatedBy string

	// PayerID is the person who actually paid. Empty when the payer has been
	// deleted since.
	PayerID string
}

// Participant is one person's share of a SharedExpense.
type Participant struct {
	ExpenseID string
	UserID    string

	// Share is what this person owes for the expense, in dollars.
	Share float64

	// Name is the participant's display name; filled on reads only.
	Name string
}

// ExpenseDetail is an expense together with its participants.
type ExpenseDetail struct {
	Expense      SharedExpense
	Participants []Participant
}

// PersonExpense is an expense as seen from one person's point of view.
type PersonExpense struct {
	Expense SharedExpense

	// Share is the person's own share, zero when they only paid.
	Share float64

	// Participated reports whether the person has a participant row.
	Participated bool
}
