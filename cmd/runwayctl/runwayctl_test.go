package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePortfolio = `
as_of: 2026-01-15
monthly_expenses: 3000
extra_payment: 100
accounts:
  - name: Checking
    category: cash
    balance: 9000
  - name: Visa
    category: credit
    balance: 3000
    interest_rate: 20
    credit_limit: 10000
  - name: Car
    category: loans
    balance: 1000
    interest_rate: 5
    minimum_payment: 50
    is_paid_off: true
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunway(t *testing.T) {
	path := writeFile(t, "p.yaml", samplePortfolio)

	out, err := run(t, "runway", "-f", path, "--months", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "3.0 months (90 days)")
	assert.Contains(t, out, "$9,000.00")
	assert.Contains(t, out, "2026-01")
	assert.Contains(t, out, "2026-03")
	assert.NotContains(t, out, "2026-04")
	assert.Contains(t, out, "$0.00", "balance should reach zero after three months")
}

func TestRunway_IncomeFromJSON(t *testing.T) {
	path := writeFile(t, "p.json", `{
		"as_of": "2026-01-15",
		"monthly_expenses": 2000,
		"accounts": [{"name": "Checking", "category": "cash", "balance": 6000}],
		"income": [
			{"name": "Bonus", "amount": 3000, "date": "2026-03-01", "frequency": "one-time"},
			{"name": "Gig", "amount": 500, "date": "2026-02-01", "frequency": "monthly", "excluded": true}
		]
	}`)

	out, err := run(t, "runway", "-f", path)
	require.NoError(t, err)

	assert.Contains(t, out, "$3,000.00", "only the bonus counts")
	assert.Contains(t, out, "4.5 months (+1.5)")
}

func TestPayoff(t *testing.T) {
	out, err := run(t, "payoff", "--balance", "3000", "--rate", "20", "--payment", "300", "--target", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "12 months")
	assert.Contains(t, out, "Payment for 6 months")

	out, err = run(t, "payoff", "--balance", "5000", "--rate", "24", "--payment", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "never")

	_, err = run(t, "payoff", "--rate", "24")
	assert.Error(t, err, "balance is required")
}

func TestDebts(t *testing.T) {
	path := writeFile(t, "p.yaml", samplePortfolio+`
  - name: Store card
    category: credit
    balance: 500
    interest_rate: 10
`)

	out, err := run(t, "debts", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "extra $100.00 / month")
	assert.Contains(t, out, "Visa > Store card", "avalanche pays the higher rate first")
	assert.Contains(t, out, "Store card > Visa", "snowball pays the smaller balance first")
	assert.NotContains(t, out, "Car", "paid-off debts are ignored")

	out, err = run(t, "debts", "-f", path, "--extra", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "extra $0.00 / month")
}

func TestScore(t *testing.T) {
	path := writeFile(t, "p.yaml", samplePortfolio)

	out, err := run(t, "score", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "30.0% (good)")
	// Two liabilities count towards the mix, the paid-off loan included.
	assert.Contains(t, out, "757")
}

func TestReport_JSON(t *testing.T) {
	path := writeFile(t, "p.yaml", samplePortfolio)

	out, err := run(t, "report", "-f", path, "--json")
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "2026-01-15", rep.AsOf.String())
	assert.Equal(t, 6000.0, rep.Totals.NetWorth)
	assert.Equal(t, "3.0", rep.RunwayLabel)
	assert.Equal(t, 757, rep.Score.Score)
	assert.True(t, rep.Strategies.Avalanche.Completed)
}

func TestLoadPortfolio_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown category": "accounts:\n  - name: X\n    category: crypto\n    balance: 1\n",
		"negative balance": "accounts:\n  - name: X\n    category: cash\n    balance: -1\n",
		"bad expense mode": "expense_mode: weird\n",
		"income no date":   "income:\n  - name: X\n    amount: 1\n    frequency: monthly\n",
		"bad frequency":    "expenses:\n  - name: X\n    amount: 1\n    frequency: daily\n",
		"not yaml":         "accounts: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadPortfolio(writeFile(t, "p.yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := run(t, "runway", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, "runway", "-f", writeFile(t, "p.yaml", samplePortfolio), "--months", "0")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--months"))
}

func TestDetailedExpenses(t *testing.T) {
	path := writeFile(t, "p.yaml", `
as_of: 2026-01-15
monthly_expenses: 99999
expense_mode: detailed
accounts:
  - name: Checking
    category: cash
    balance: 2500
expenses:
  - name: Rent
    amount: 1000
  - name: Insurance
    amount: 3000
    frequency: yearly
`)

	out, err := run(t, "runway", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "$1,250.00")
	assert.Contains(t, out, "2.0 months (60 days)")
}

func TestUSD(t *testing.T) {
	assert.Equal(t, "$0.00", usd(0))
	assert.Equal(t, "$999.50", usd(999.5))
	assert.Equal(t, "$1,234,567.89", usd(1234567.891))
	assert.Equal(t, "-$5.00", usd(-5))
}
