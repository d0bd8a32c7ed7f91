package domain

import "time"

// ============================================================
// Accounts
// ============================================================

// Category groups accounts on the dashboard. The sign of an account's
// balance (asset or liability) is implied by its category.
type Category string

const (
	CategoryCash        Category = "cash"
	CategoryInvestments Category = "investments"
	CategoryCredit      Category = "credit"
	CategoryLoans       Category = "loans"
	CategoryOtherAssets Category = "other_assets"
)

// Categories lists every category in dashboard order.
var Categories = []Category{
	CategoryCash,
	CategoryInvestments,
	CategoryCredit,
	CategoryLoans,
	CategoryOtherAssets,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsLiability reports whether balances in this category are owed.
func (c Category) IsLiability() bool {
	return c == CategoryCredit || c == CategoryLoans
}

// AutopayType selects how much an autopay rule pays each cycle.
type AutopayType string

const (
	AutopayMinimum     AutopayType = "MINIMUM"
	AutopayFullBalance AutopayType = "FULL_BALANCE"
	AutopayCustom      AutopayType = "CUSTOM"
)

// Valid reports whether t is a known autopay type.
func (t AutopayType) Valid() bool {
	return t == AutopayMinimum || t == AutopayFullBalance || t == AutopayCustom
}

// Account is a single tracked balance: a bank account, brokerage, card or loan.
type Account struct {
	ID                  string       `json:"id" db:"id"`
	UserID              string       `json:"user_id" db:"user_id"`
	Category            Category     `json:"category" db:"category"`
	Name                string       `json:"name" db:"name"`
	Balance             float64      `json:"balance" db:"balance"`
	InterestRate        float64      `json:"interest_rate" db:"interest_rate"` // annual, percent
	CreditLimit         *float64     `json:"credit_limit,omitempty" db:"credit_limit"`
	DueDate             *Date        `json:"due_date,omitempty" db:"due_date"`
	StatementDate       *int         `json:"statement_date,omitempty" db:"statement_date"` // day of month
	MinimumPayment      *float64     `json:"minimum_payment,omitempty" db:"minimum_payment"`
	IsPaidOff           bool         `json:"is_paid_off" db:"is_paid_off"`
	AutopayEnabled      bool         `json:"autopay_enabled" db:"autopay_enabled"`
	AutopayAmountType   *AutopayType `json:"autopay_amount_type,omitempty" db:"autopay_amount_type"`
	AutopayCustomAmount *float64     `json:"autopay_custom_amount,omitempty" db:"autopay_custom_amount"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
}

// EffectiveBalance is the balance every projection uses: zero once paid off.
func (a Account) EffectiveBalance() float64 {
	if a.IsPaidOff {
		return 0
	}
	return a.Balance
}

// AccountPatch carries a field-level update. Nil fields are left untouched.
type AccountPatch struct {
	Name                *string      `json:"name,omitempty"`
	Category            *Category    `json:"category,omitempty"`
	Balance             *float64     `json:"balance,omitempty"`
	InterestRate        *float64     `json:"interest_rate,omitempty"`
	CreditLimit         *float64     `json:"credit_limit,omitempty"`
	DueDate             *Date        `json:"due_date,omitempty"`
	StatementDate       *int         `json:"statement_date,omitempty"`
	MinimumPayment      *float64     `json:"minimum_payment,omitempty"`
	IsPaidOff           *bool        `json:"is_paid_off,omitempty"`
	AutopayEnabled      *bool        `json:"autopay_enabled,omitempty"`
	AutopayAmountType   *AutopayType `json:"autopay_amount_type,omitempty"`
	AutopayCustomAmount *float64     `json:"autopay_custom_amount,omitempty"`
}

// Apply copies the non-nil fields of p onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.InterestRate != nil {
		a.InterestRate = *p.InterestRate
	}
	if p.CreditLimit != nil {
		a.CreditLimit = p.CreditLimit
	}
	if p.DueDate != nil {
		a.DueDate = p.DueDate
	}
	if p.StatementDate != nil {
		a.StatementDate = p.StatementDate
	}
	if p.MinimumPayment != nil {
		a.MinimumPayment = p.MinimumPayment
	}
	if p.IsPaidOff != nil {
		a.IsPaidOff = *p.IsPaidOff
	}
	if p.AutopayEnabled != nil {
		a.AutopayEnabled = *p.AutopayEnabled
	}
	if p.AutopayAmountType != nil {
		a.AutopayAmountType = p.AutopayAmountType
	}
	if p.AutopayCustomAmount != nil {
		a.AutopayCustomAmount = p.AutopayCustomAmount
	}
}

// Fields returns the patch as a column map for stores that update by column.
func (p AccountPatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	if p.Balance != nil {
		m["balance"] = *p.Balance
	}
	if p.InterestRate != nil {
		m["interest_rate"] = *p.InterestRate
	}
	if p.CreditLimit != nil {
		m["credit_limit"] = *p.CreditLimit
	}
	if p.DueDate != nil {
		m["due_date"] = p.DueDate.String()
	}
	if p.StatementDate != nil {
		m["statement_date"] = *p.StatementDate
	}
	if p.MinimumPayment != nil {
		m["minimum_payment"] = *p.MinimumPayment
	}
	if p.IsPaidOff != nil {
		m["is_paid_off"] = *p.IsPaidOff
	}
	if p.AutopayEnabled != nil {
		m["autopay_enabled"] = *p.AutopayEnabled
	}
	if p.AutopayAmountType != nil {
		m["autopay_amount_type"] = *p.AutopayAmountType
	}
	if p.AutopayCustomAmount != nil {
		m["autopay_custom_amount"] = *p.AutopayCustomAmount
	}
	return m
}

// AccountGroups holds accounts keyed by category.
type AccountGroups map[Category][]Account

// GroupAccounts buckets accounts by category, keeping input order within each bucket.
func GroupAccounts(accounts []Account) AccountGroups {
	groups := make(AccountGroups, len(Categories))
	for _, c := range Categories {
		groups[c] = []Account{}
	}
	for _, a := range accounts {
		groups[a.Category] = append(groups[a.Category], a)
	}
	return groups
}

// Flatten returns the accounts of every category in dashboard order.
func (g AccountGroups) Flatten() []Account {
	var out []Account
	for _, c := range Categories {
		out = append(out, g[c]...)
	}
	return out
}
