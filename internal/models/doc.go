// Package models defines the core domain models for money-management.
//
// # Models
//
//   - Person: someone money moves between; the device owner is always "me"
//   - SharedExpense and Participant: a bill paid by one person and divided
//     among participants, one share per participant
//   - Settlement: a manual "X paid Y" record that reduces a debt
//   - PersonalSpend: money spent by one person that never affects balances
//   - Budget: a monthly cap, either a recurring template (Month == 0) or a
//     concrete month instance (Month == YYYYMM)
//   - RecentItem: one row of the merged activity feed
//
// # Money
//
// Amounts are float64 dollars at this boundary. Storage and split arithmetic
// work in integer cents (see package money), so a SharedExpense's Amount always
// equals the sum of its participants' shares to the cent.
//
// # Identifiers
//
// All ids are opaque strings (random UUIDs), except the seeded owner id MeID.
// Relationships use id strings rather than pointers.
package models
