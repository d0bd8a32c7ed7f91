package domain

import "time"

// Snapshot is an immutable point-in-time copy of the dashboard inputs.
// It never feeds live projections except through an explicit restore.
type Snapshot struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Label           string        `json:"label,omitempty"`
	Accounts        AccountGroups `json:"accounts"`
	MonthlyExpenses float64       `json:"monthly_expenses"`
	CreditScore     *int          `json:"credit_score,omitempty"`
	NetWorth        float64       `json:"net_worth"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Achievement is a gamification badge earned from dashboard metrics.
type Achievement struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Earned      bool   `json:"earned"`
}

// ExportBundle is the JSON export/import document.
type ExportBundle struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Accounts   []Account       `json:"accounts"`
	Income     []IncomeEvent   `json:"income"`
	Expenses   []ExpenseItem   `json:"expenses"`
	Settings   FinanceSettings `json:"settings"`
}
