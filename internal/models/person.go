package models

// MeID is the id of the device owner. The row is seeded by the first
// migration and can never be deleted.
const MeID = "me"

// Person is someone who can pay for, participate in, or settle expenses.
type Person struct {
	// ID is the unique identifier for the person (UUID format, or MeID).
	ID string

	// DisplayName is the name shown in lists. Sorting is case-insensitive.
	DisplayName string

	// Email is optional; empty means not set.
	Email string
}

// IsMe reports whether p is the device owner.
func (p Person) IsMe() bool {
	return p.ID == MeID
}

// PersonBalance pairs a person with their net balance against "me".
type PersonBalance struct {
	Person Person

	// Net is positive when the person owes me and negative when I owe them.
	Net float64
}
