package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"

	"gopkg.in/yaml.v3"
)

// portfolio is the on-disk shape of a runwayctl input file. YAML and JSON
// use the same keys.
type portfolio struct {
	AsOf            *domain.Date       `yaml:"as_of" json:"as_of"`
	MonthlyExpenses float64            `yaml:"monthly_expenses" json:"monthly_expenses"`
	ExpenseMode     domain.ExpenseMode `yaml:"expense_mode" json:"expense_mode"`
	IncomeEnabled   *bool              `yaml:"income_enabled" json:"income_enabled"`
	ExtraPayment    float64            `yaml:"extra_payment" json:"extra_payment"`
	Accounts        []accountEntry     `yaml:"accounts" json:"accounts"`
	Expenses        []expenseEntry     `yaml:"expenses" json:"expenses"`
	Income          []incomeEntry      `yaml:"income" json:"income"`
}

type accountEntry struct {
	Name           string          `yaml:"name" json:"name"`
	Category       domain.Category `yaml:"category" json:"category"`
	Balance        float64         `yaml:"balance" json:"balance"`
	InterestRate   float64         `yaml:"interest_rate" json:"interest_rate"`
	CreditLimit    *float64        `yaml:"credit_limit" json:"credit_limit"`
	MinimumPayment *float64        `yaml:"minimum_payment" json:"minimum_payment"`
	IsPaidOff      bool            `yaml:"is_paid_off" json:"is_paid_off"`
}

type expenseEntry struct {
	Name      string                  `yaml:"name" json:"name"`
	Amount    float64                 `yaml:"amount" json:"amount"`
	Frequency domain.ExpenseFrequency `yaml:"frequency" json:"frequency"`
}

type incomeEntry struct {
	Name      string           `yaml:"name" json:"name"`
	Amount    float64          `yaml:"amount" json:"amount"`
	Date      domain.Date      `yaml:"date" json:"date"`
	Frequency domain.Frequency `yaml:"frequency" json:"frequency"`
	EndDate   *domain.Date     `yaml:"end_date" json:"end_date"`
	Excluded  bool             `yaml:"excluded" json:"excluded"`
}

// loadPortfolio reads path as JSON when it ends in .json and YAML otherwise.
func loadPortfolio(path string) (*portfolio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading portfolio: %w", err)
	}

	var p portfolio
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &p)
	} else {
		err = yaml.Unmarshal(raw, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

func (p *portfolio) validate() error {
	if p.ExpenseMode == "" {
		p.ExpenseMode = domain.ExpenseModeSimple
	}
	if !p.ExpenseMode.Valid() {
		return fmt.Errorf("unknown expense_mode %q", p.ExpenseMode)
	}
	if p.MonthlyExpenses < 0 || p.ExtraPayment < 0 {
		return fmt.Errorf("monthly_expenses and extra_payment must be non-negative")
	}
	for i, a := range p.Accounts {
		if !a.Category.Valid() {
			return fmt.Errorf("account %d (%s): unknown category %q", i+1, a.Name, a.Category)
		}
		if a.Balance < 0 || a.InterestRate < 0 {
			return fmt.Errorf("account %d (%s): balance and interest_rate must be non-negative", i+1, a.Name)
		}
	}
	for i := range p.Expenses {
		if p.Expenses[i].Frequency == "" {
			p.Expenses[i].Frequency = domain.ExpenseMonthly
		}
		if !p.Expenses[i].Frequency.Valid() {
			return fmt.Errorf("expense %d (%s): unknown frequency %q", i+1, p.Expenses[i].Name, p.Expenses[i].Frequency)
		}
	}
	for i, e := range p.Income {
		if e.Date.IsZero() {
			return fmt.Errorf("income %d (%s): date is required", i+1, e.Name)
		}
		if !e.Frequency.Valid() {
			return fmt.Errorf("income %d (%s): unknown frequency %q", i+1, e.Name, e.Frequency)
		}
	}
	return nil
}

// asOf is the projection date: the file's as_of, else today.
func (p *portfolio) asOf(now time.Time) time.Time {
	if p.AsOf != nil {
		return p.AsOf.Time
	}
	return domain.NewDate(now).Time
}

func (p *portfolio) incomeEnabled() bool {
	return p.IncomeEnabled == nil || *p.IncomeEnabled
}

// accounts converts entries into domain accounts. The name doubles as the
// ID so strategy orders read naturally.
func (p *portfolio) accounts() []domain.Account {
	out := make([]domain.Account, 0, len(p.Accounts))
	for _, a := range p.Accounts {
		out = append(out, domain.Account{
			ID:             a.Name,
			Name:           a.Name,
			Category:       a.Category,
			Balance:        a.Balance,
			InterestRate:   a.InterestRate,
			CreditLimit:    a.CreditLimit,
			MinimumPayment: a.MinimumPayment,
			IsPaidOff:      a.IsPaidOff,
		})
	}
	return out
}

func (p *portfolio) expenses() []domain.ExpenseItem {
	out := make([]domain.ExpenseItem, 0, len(p.Expenses))
	for _, e := range p.Expenses {
		out = append(out, domain.ExpenseItem{Name: e.Name, Amount: e.Amount, Frequency: e.Frequency})
	}
	return out
}

func (p *portfolio) income() []domain.IncomeEvent {
	out := make([]domain.IncomeEvent, 0, len(p.Income))
	for i, e := range p.Income {
		out = append(out, domain.IncomeEvent{
			ID:        fmt.Sprintf("income-%d", i+1),
			Name:      e.Name,
			Amount:    e.Amount,
			Date:      e.Date,
			Frequency: e.Frequency,
			EndDate:   e.EndDate,
		})
	}
	return out
}

func (p *portfolio) incomeOptions() projection.IncomeOptions {
	opts := projection.IncomeOptions{Enabled: p.incomeEnabled(), Excluded: map[string]bool{}}
	for i, e := range p.Income {
		if e.Excluded {
			opts.Excluded[fmt.Sprintf("income-%d", i+1)] = true
		}
	}
	return opts
}

// burnRate follows the file's expense mode.
func (p *portfolio) burnRate() float64 {
	settings := domain.FinanceSettings{MonthlyExpenses: p.MonthlyExpenses, ExpenseMode: p.ExpenseMode}
	return projection.BurnRate(settings, p.expenses())
}
