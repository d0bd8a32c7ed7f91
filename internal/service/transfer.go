package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/boddenberg/runway-bfa/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// exportVersion is bumped whenever the bundle layout changes.
const exportVersion = 1

// CSV row kinds, in the "record" column.
const (
	recordAccount = "account"
	recordIncome  = "income"
	recordExpense = "expense"
)

var csvHeader = []string{
	"record", "name", "category", "amount", "interest_rate", "credit_limit",
	"minimum_payment", "is_paid_off", "date", "end_date", "frequency",
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Accounts int `json:"accounts"`
	Income   int `json:"income"`
	Expenses int `json:"expenses"`
}

// ============================================================
// Export
// ============================================================

// Export writes the user's accounts, income, expenses and (JSON only)
// settings. Amounts are rounded to cents.
func (s *FinanceService) Export(ctx context.Context, userID, format string, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "FinanceService.Export")
	defer span.End()

	if format != FormatJSON && format != FormatCSV {
		return &domain.ErrValidation{Field: "format", Message: "must be json or csv"}
	}

	in, err := s.loadInputs(ctx, userID)
	if err != nil {
		return err
	}

	if format == FormatCSV {
		return writeCSV(w, in)
	}

	bundle := domain.ExportBundle{
		Version:    exportVersion,
		ExportedAt: s.now().UTC(),
		Accounts:   make([]domain.Account, len(in.accounts)),
		Income:     make([]domain.IncomeEvent, len(in.income)),
		Expenses:   make([]domain.ExpenseItem, len(in.expenses)),
		Settings:   *in.settings,
	}
	for i, a := range in.accounts {
		a.Balance = cents(a.Balance)
		bundle.Accounts[i] = a
	}
	for i, e := range in.income {
		e.Amount = cents(e.Amount)
		bundle.Income[i] = e
	}
	for i, e := range in.expenses {
		e.Amount = cents(e.Amount)
		bundle.Expenses[i] = e
	}
	bundle.Settings.MonthlyExpenses = cents(bundle.Settings.MonthlyExpenses)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

func writeCSV(w io.Writer, in *dashboardInputs) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, a := range in.accounts {
		row := []string{
			recordAccount, a.Name, string(a.Category), money(a.Balance), optFloat(&a.InterestRate),
			optMoney(a.CreditLimit), optMoney(a.MinimumPayment), strconv.FormatBool(a.IsPaidOff),
			optDate(a.DueDate), "", "",
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, e := range in.income {
		row := []string{
			recordIncome, e.Name, "", money(e.Amount), "", "", "", "",
			e.Date.String(), optDate(e.EndDate), string(e.Frequency),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	for _, e := range in.expenses {
		row := []string{
			recordExpense, e.Name, e.Category, money(e.Amount), "", "", "", "",
			"", "", string(e.Frequency),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ============================================================
// Import
// ============================================================

// Import replaces the user's accounts, income and expenses with the
// document's. A JSON bundle also replaces settings. Every row is validated
// before anything is written.
func (s *FinanceService) Import(ctx context.Context, userID, format string, r io.Reader) (*ImportResult, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.Import")
	defer span.End()

	var (
		bundle *domain.ExportBundle
		err    error
	)
	switch format {
	case FormatJSON:
		bundle, err = readJSON(r)
	case FormatCSV:
		bundle, err = readCSV(r)
	default:
		return nil, &domain.ErrValidation{Field: "format", Message: "must be json or csv"}
	}
	if err != nil {
		return nil, err
	}

	for i := range bundle.Accounts {
		a := &bundle.Accounts[i]
		a.ID, a.UserID = "", userID
		if err := validateAccount(a); err != nil {
			return nil, fmt.Errorf("account %d: %w", i+1, err)
		}
	}
	for i := range bundle.Income {
		e := &bundle.Income[i]
		e.ID, e.UserID = "", userID
		if err := validateIncome(e); err != nil {
			return nil, fmt.Errorf("income %d: %w", i+1, err)
		}
	}
	for i := range bundle.Expenses {
		e := &bundle.Expenses[i]
		e.ID, e.UserID = "", userID
		if err := validateExpense(e); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}

	if err := s.store.ReplaceAccounts(ctx, userID, bundle.Accounts); err != nil {
		return nil, s.storeErr("replace accounts", err)
	}
	if err := s.replaceIncome(ctx, userID, bundle.Income); err != nil {
		return nil, err
	}
	if err := s.replaceExpenses(ctx, userID, bundle.Expenses); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		// Income IDs change on import, so old exclusions no longer apply.
		settings := bundle.Settings
		settings.ExcludedIncomeIDs = []string{}
		if _, err := s.UpdateSettings(ctx, userID, &settings); err != nil {
			return nil, err
		}
	}
	s.invalidate(ctx, userID)

	res := &ImportResult{
		Accounts: len(bundle.Accounts),
		Income:   len(bundle.Income),
		Expenses: len(bundle.Expenses),
	}
	s.logger.Info("data imported",
		zap.String("user_id", userID),
		zap.String("format", format),
		zap.Int("accounts", res.Accounts),
		zap.Int("income", res.Income),
		zap.Int("expenses", res.Expenses),
	)
	return res, nil
}

func (s *FinanceService) replaceIncome(ctx context.Context, userID string, events []domain.IncomeEvent) error {
	existing, err := s.store.ListIncome(ctx, userID)
	if err != nil {
		return s.storeErr("list income", err)
	}
	for _, e := range existing {
		if err := s.store.DeleteIncome(ctx, userID, e.ID); err != nil {
			return s.storeErr("delete income", err)
		}
	}
	for i := range events {
		if _, err := s.store.CreateIncome(ctx, &events[i]); err != nil {
			return s.storeErr("create income", err)
		}
	}
	return nil
}

func (s *FinanceService) replaceExpenses(ctx context.Context, userID string, items []domain.ExpenseItem) error {
	existing, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return s.storeErr("list expenses", err)
	}
	for _, e := range existing {
		if err := s.store.DeleteExpense(ctx, userID, e.ID); err != nil {
			return s.storeErr("delete expense", err)
		}
	}
	for i := range items {
		if _, err := s.store.CreateExpense(ctx, &items[i]); err != nil {
			return s.storeErr("create expense", err)
		}
	}
	return nil
}

func readJSON(r io.Reader) (*domain.ExportBundle, error) {
	var bundle domain.ExportBundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "invalid JSON export: " + err.Error()}
	}
	if bundle.Version > exportVersion {
		return nil, &domain.ErrValidation{Field: "version", Message: fmt.Sprintf("unsupported export version %d", bundle.Version)}
	}
	if bundle.Settings.ExpenseMode == "" {
		bundle.Settings.ExpenseMode = domain.ExpenseModeSimple
	}
	return &bundle, nil
}

// readCSV parses the layout writeCSV produces. Columns are matched by header
// name, so extra or reordered columns are fine.
func readCSV(r io.Reader) (*domain.ExportBundle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &domain.ExportBundle{}, nil
	}
	if err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "invalid CSV: " + err.Error()}
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"record", "name", "amount"} {
		if _, ok := col[required]; !ok {
			return nil, &domain.ErrValidation{Field: "header", Message: "missing column " + required}
		}
	}

	bundle := &domain.ExportBundle{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &domain.ErrValidation{Field: "body", Message: "invalid CSV: " + err.Error()}
		}
		row := csvRow{rec: rec, col: col, line: line}
		if err := row.appendTo(bundle); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

type csvRow struct {
	rec  []string
	col  map[string]int
	line int
}

func (r csvRow) get(name string) string {
	i, ok := r.col[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) invalid(field, msg string) error {
	return &domain.ErrValidation{Field: field, Message: fmt.Sprintf("line %d: %s", r.line, msg)}
}

func (r csvRow) amount(field string) (float64, error) {
	v, err := parseMoney(r.get(field))
	if err != nil {
		return 0, r.invalid(field, err.Error())
	}
	return v, nil
}

func (r csvRow) optAmount(field string) (*float64, error) {
	if r.get(field) == "" {
		return nil, nil
	}
	v, err := r.amount(field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r csvRow) optDate(field string) (*domain.Date, error) {
	raw := r.get(field)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, r.invalid(field, err.Error())
	}
	return &d, nil
}

func (r csvRow) appendTo(b *domain.ExportBundle) error {
	amount, err := r.amount("amount")
	if err != nil {
		return err
	}

	switch r.get("record") {
	case recordAccount:
		a := domain.Account{
			Name:     r.get("name"),
			Category: domain.Category(r.get("category")),
			Balance:  amount,
		}
		if rate := r.get("interest_rate"); rate != "" {
			if a.InterestRate, err = strconv.ParseFloat(rate, 64); err != nil {
				return r.invalid("interest_rate", "not a number")
			}
		}
		if a.CreditLimit, err = r.optAmount("credit_limit"); err != nil {
			return err
		}
		if a.MinimumPayment, err = r.optAmount("minimum_payment"); err != nil {
			return err
		}
		if paid := r.get("is_paid_off"); paid != "" {
			if a.IsPaidOff, err = strconv.ParseBool(paid); err != nil {
				return r.invalid("is_paid_off", "not a boolean")
			}
		}
		if a.DueDate, err = r.optDate("date"); err != nil {
			return err
		}
		b.Accounts = append(b.Accounts, a)

	case recordIncome:
		date, err := r.optDate("date")
		if err != nil {
			return err
		}
		if date == nil {
			return r.invalid("date", "required for income")
		}
		e := domain.IncomeEvent{
			Name:      r.get("name"),
			Amount:    amount,
			Date:      *date,
			Frequency: domain.Frequency(r.get("frequency")),
		}
		if e.EndDate, err = r.optDate("end_date"); err != nil {
			return err
		}
		b.Income = append(b.Income, e)

	case recordExpense:
		freq := domain.ExpenseFrequency(r.get("frequency"))
		if freq == "" {
			freq = domain.ExpenseMonthly
		}
		b.Expenses = append(b.Expenses, domain.ExpenseItem{
			Name:      r.get("name"),
			Amount:    amount,
			Category:  r.get("category"),
			Frequency: freq,
		})

	default:
		return r.invalid("record", fmt.Sprintf("unknown record type %q", r.get("record")))
	}
	return nil
}

// ============================================================
// Money formatting
// ============================================================

// cents rounds a currency amount half away from zero to two places.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return money(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).String()
}

func optDate(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// parseMoney accepts plain decimals and tolerates a leading "$" and
// thousands separators.
func parseMoney(raw string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "").Replace(raw)
	if clean == "" {
		return 0, errors.New("amount is required")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return d.Round(2).InexactFloat64(), nil
}
