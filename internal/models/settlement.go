package models

import "time"

// Settlement represents a manual payment that reduces PayerID's debt to PayeeID.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// PayerID is the person who paid (debtor settling up).
	PayerID string

	// PayeeID is the person who received the payment.
	PayeeID string

	// Amount is the payment amount in dollars, always > 0.
	Amount float64

	// Date is when the payment happened.
	Date time.Time

	// Note is an optional description for the settlement.
	Note string
}
