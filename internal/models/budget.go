package models

// TemplateMonth is the sentinel month stored on recurring budget templates.
const TemplateMonth MonthKey = 0

// Budget is a monthly cap. A row with Month == TemplateMonth is a recurring
// template; any other row is an instance for that month. (UserID, Name, Month)
// is unique.
type Budget struct {
	ID     string
	UserID string
	Name   string
	Month  MonthKey

	// Amount is the cap in dollars, >= 0.
	Amount float64
}

// IsTemplate reports whether b is a recurring template.
func (b Budget) IsTemplate() bool {
	return b.Month == TemplateMonth
}

// BudgetPatch lists the fields to change on a Budget; nil means keep.
type BudgetPatch struct {
	Name   *string
	Amount *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p BudgetPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil
}

// BudgetUsage is the total spent against one budget id in a month.
// An empty BudgetID collects spends without a budget.
type BudgetUsage struct {
	BudgetID string
	Total    float64
}
