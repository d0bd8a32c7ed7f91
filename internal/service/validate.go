package service

import (
	"strings"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"
)

// Input validation happens here, at the service boundary. The projection
// engine assumes its inputs were already checked.

func validateAccount(a *domain.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if !a.Category.Valid() {
		return &domain.ErrValidation{Field: "category", Message: "unknown category " + string(a.Category)}
	}
	if err := nonNegative("balance", a.Balance); err != nil {
		return err
	}
	if err := nonNegative("interest_rate", a.InterestRate); err != nil {
		return err
	}
	if a.CreditLimit != nil {
		if err := nonNegative("credit_limit", *a.CreditLimit); err != nil {
			return err
		}
	}
	if a.MinimumPayment != nil {
		if err := nonNegative("minimum_payment", *a.MinimumPayment); err != nil {
			return err
		}
	}
	if a.StatementDate != nil && (*a.StatementDate < 1 || *a.StatementDate > 31) {
		return &domain.ErrValidation{Field: "statement_date", Message: "must be a day of month between 1 and 31"}
	}
	if a.AutopayAmountType != nil && !a.AutopayAmountType.Valid() {
		return &domain.ErrValidation{Field: "autopay_amount_type", Message: "must be MINIMUM, FULL_BALANCE or CUSTOM"}
	}
	if a.AutopayCustomAmount != nil {
		if err := nonNegative("autopay_custom_amount", *a.AutopayCustomAmount); err != nil {
			return err
		}
	}
	if a.AutopayEnabled && a.AutopayAmountType != nil && *a.AutopayAmountType == domain.AutopayCustom && a.AutopayCustomAmount == nil {
		return &domain.ErrValidation{Field: "autopay_custom_amount", Message: "required for CUSTOM autopay"}
	}
	return nil
}

func validateIncome(e *domain.IncomeEvent) error {
	if strings.TrimSpace(e.Name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if err := nonNegative("amount", e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return &domain.ErrValidation{Field: "date", Message: "date is required"}
	}
	if !e.Frequency.Valid() {
		return &domain.ErrValidation{Field: "frequency", Message: "must be one-time, monthly or yearly"}
	}
	if e.EndDate != nil && e.EndDate.Before(e.Date.Time) {
		return &domain.ErrValidation{Field: "end_date", Message: "must not be before date"}
	}
	return nil
}

func validateExpense(e *domain.ExpenseItem) error {
	if strings.TrimSpace(e.Name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if err := nonNegative("amount", e.Amount); err != nil {
		return err
	}
	if !e.Frequency.Valid() {
		return &domain.ErrValidation{Field: "frequency", Message: "must be weekly, monthly or yearly"}
	}
	return nil
}

func validateSettings(s *domain.FinanceSettings) error {
	if err := nonNegative("monthly_expenses", s.MonthlyExpenses); err != nil {
		return err
	}
	if !s.ExpenseMode.Valid() {
		return &domain.ErrValidation{Field: "expense_mode", Message: "must be simple or detailed"}
	}
	if err := validateCreditScore(s.CreditScore); err != nil {
		return err
	}
	return nonNegative("extra_debt_payment", s.ExtraDebtPayment)
}

// validateCreditScore accepts a missing score or one inside the bureau range.
func validateCreditScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < projection.MinCreditScore || *score > projection.MaxCreditScore {
		return &domain.ErrValidation{Field: "credit_score", Message: "must be between 300 and 850"}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return &domain.ErrValidation{Field: field, Message: "must not be negative"}
	}
	return nil
}
