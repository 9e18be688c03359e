package models

import "time"

// RecentKind tells which table a RecentItem came from.
type RecentKind string

const (
	RecentExpense RecentKind = "expense"
	RecentSpend   RecentKind = "spend"
)

// RecentItem is one row of the merged recent-activity feed.
type RecentItem struct {
	Kind   RecentKind
	ID     string
	Title  string
	Amount float64
	Date   time.Time
}
