package domain

import "time"

// ============================================================
// Income & Expenses
// ============================================================

// Frequency is how often an income event recurs.
type Frequency string

const (
	FrequencyOneTime Frequency = "one-time"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a known income frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOneTime, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// IncomeEvent is a scheduled cash inflow. EndDate only bounds recurring events.
type IncomeEvent struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Amount    float64   `json:"amount" db:"amount"`
	Date      Date      `json:"date" db:"date"`
	Frequency Frequency `json:"frequency" db:"frequency"`
	EndDate   *Date     `json:"end_date,omitempty" db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IncomePatch is a field-level update of an income event.
type IncomePatch struct {
	Name      *string    `json:"name,omitempty"`
	Amount    *float64   `json:"amount,omitempty"`
	Date      *Date      `json:"date,omitempty"`
	Frequency *Frequency `json:"frequency,omitempty"`
	EndDate   *Date      `json:"end_date,omitempty"`
}

// Apply copies the non-nil fields of p onto e.
func (p IncomePatch) Apply(e *IncomeEvent) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Frequency != nil {
		e.Frequency = *p.Frequency
	}
	if p.EndDate != nil {
		e.EndDate = p.EndDate
	}
}

// Fields returns the patch as a column map.
func (p IncomePatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Amount != nil {
		m["amount"] = *p.Amount
	}
	if p.Date != nil {
		m["date"] = p.Date.String()
	}
	if p.Frequency != nil {
		m["frequency"] = *p.Frequency
	}
	if p.EndDate != nil {
		m["end_date"] = p.EndDate.String()
	}
	return m
}

// ExpenseFrequency is the billing period of an expense line item.
type ExpenseFrequency string

const (
	ExpenseWeekly  ExpenseFrequency = "weekly"
	ExpenseMonthly ExpenseFrequency = "monthly"
	ExpenseYearly  ExpenseFrequency = "yearly"
)

// Valid reports whether f is a known expense frequency.
func (f ExpenseFrequency) Valid() bool {
	switch f {
	case ExpenseWeekly, ExpenseMonthly, ExpenseYearly:
		return true
	}
	return false
}

// ExpenseItem is a line item used in detailed expense mode.
type ExpenseItem struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Name      string           `json:"name" db:"name"`
	Amount    float64          `json:"amount" db:"amount"`
	Category  string           `json:"category" db:"category"`
	Frequency ExpenseFrequency `json:"frequency" db:"frequency"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// ExpenseMode selects where the monthly burn rate comes from.
type ExpenseMode string

const (
	// ExpenseModeSimple uses the single monthly_expenses figure.
	ExpenseModeSimple ExpenseMode = "simple"
	// ExpenseModeDetailed sums the normalized expense items.
	ExpenseModeDetailed ExpenseMode = "detailed"
)

// Valid reports whether m is a known expense mode.
func (m ExpenseMode) Valid() bool {
	return m == ExpenseModeSimple || m == ExpenseModeDetailed
}

// FinanceSettings is the per-user configuration the projections read.
// It replaces state the browser used to keep in local storage.
type FinanceSettings struct {
	UserID            string      `json:"user_id" db:"user_id"`
	MonthlyExpenses   float64     `json:"monthly_expenses" db:"monthly_expenses"`
	ExpenseMode       ExpenseMode `json:"expense_mode" db:"expense_mode"`
	IncomeEnabled     bool        `json:"income_enabled" db:"income_enabled"`
	ExcludedIncomeIDs []string    `json:"excluded_income_ids" db:"-"`
	CreditScore       *int        `json:"credit_score,omitempty" db:"credit_score"`
	ExtraDebtPayment  float64     `json:"extra_debt_payment" db:"extra_debt_payment"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// DefaultSettings is what a user without a stored settings row gets.
func DefaultSettings(userID string) *FinanceSettings {
	return &FinanceSettings{
		UserID:            userID,
		ExpenseMode:       ExpenseModeSimple,
		IncomeEnabled:     true,
		ExcludedIncomeIDs: []string{},
	}
}

// ExpensePatch is a field-level update of an expense item.
type ExpensePatch struct {
	Name      *string           `json:"name,omitempty"`
	Amount    *float64          `json:"amount,omitempty"`
	Category  *string           `json:"category,omitempty"`
	Frequency *ExpenseFrequency `json:"frequency,omitempty"`
}

// Apply copies the non-nil fields of p onto e.
func (p ExpensePatch) Apply(e *ExpenseItem) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Frequency != nil {
		e.Frequency = *p.Frequency
	}
}

// Fields returns the patch as a column map.
func (p ExpensePatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Amount != nil {
		m["amount"] = *p.Amount
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	if p.Frequency != nil {
		m["frequency"] = *p.Frequency
	}
	return m
}
