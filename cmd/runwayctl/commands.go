package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"

	"github.com/spf13/cobra"
)

func (c *cli) runwayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runway",
		Short: "How long cash lasts at the current burn rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			asOf := p.asOf(c.now())
			groups := domain.GroupAccounts(p.accounts())
			totals := projection.Summarize(groups)
			burn := p.burnRate()
			opts := p.incomeOptions()
			income12 := projection.IncomeContribution12(p.income(), asOf, opts)
			r := projection.Runway(totals.Cash, burn, income12, opts.Enabled)

			title(out, "RUNWAY as of "+domain.NewDate(asOf).String())
			tw := newTable(out)
			fmt.Fprintf(tw, "  Cash\t%s\n", usd(totals.Cash))
			fmt.Fprintf(tw, "  Monthly expenses\t%s\n", usd(burn))
			fmt.Fprintf(tw, "  Runway\t%s months (%d days)\n", projection.RunwayLabel(r.Months), r.Days)
			if opts.Enabled {
				fmt.Fprintf(tw, "  Income next 12 months\t%s\n", usd(income12))
				fmt.Fprintf(tw, "  With income\t%s months (+%.1f)\n", projection.RunwayLabel(r.WithIncomeMonths), r.AdditionalMonthsFromIncome)
			}
			tw.Flush()

			title(out, "BALANCE PROJECTION")
			tw = newTable(out)
			fmt.Fprintln(tw, "  Month\tIncome\tBalance")
			for _, pt := range projection.ProjectBalances(totals.Cash, burn, p.income(), asOf, c.months, opts) {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", pt.Month, usd(pt.Income), usd(pt.Balance))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) payoffCmd() *cobra.Command {
	var balance, rate, payment float64
	var target int

	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Simulate paying one balance at a fixed monthly payment",
		Long:  "Simulate paying one balance at a fixed monthly payment. Without --payment the 2%/$25 minimum is used.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if balance < 0 || rate < 0 || payment < 0 {
				return fmt.Errorf("--balance, --rate and --payment must be non-negative")
			}
			if target < 0 || target > projection.MaxPayoffMonths {
				return fmt.Errorf("--target must be between 1 and %d", projection.MaxPayoffMonths)
			}
			if payment == 0 {
				payment = projection.DefaultMinimumPayment(balance)
			}
			out := cmd.OutOrStdout()
			res := projection.SimulatePayoff(balance, rate, payment)

			title(out, "PAYOFF")
			tw := newTable(out)
			fmt.Fprintf(tw, "  Balance\t%s at %.2f%% APR\n", usd(balance), rate)
			fmt.Fprintf(tw, "  Payment\t%s / month\n", usd(payment))
			fmt.Fprintf(tw, "  Interest-only payment\t%s\n", usd(projection.InterestOnlyPayment(balance, rate)))
			switch res.Status {
			case projection.PayoffPaidOff:
				fmt.Fprintf(tw, "  Paid off in\t%s\n", months(res.Months))
				fmt.Fprintf(tw, "  Total interest\t%s\n", usd(res.TotalInterest))
				fmt.Fprintf(tw, "  Total paid\t%s\n", usd(res.TotalPaid))
			case projection.PayoffStalled:
				fmt.Fprintln(tw, "  Paid off in\tnever: the payment does not cover the interest")
			case projection.PayoffCapped:
				fmt.Fprintf(tw, "  Paid off in\tmore than %s\n", months(projection.MaxPayoffMonths))
			default:
				fmt.Fprintln(tw, "  Paid off in\tnothing to pay")
			}
			if target > 0 {
				fmt.Fprintf(tw, "  Payment for %s\t%s\n", months(target), usd(projection.RequiredPayment(balance, rate, target)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&balance, "balance", 0, "Outstanding balance")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual interest rate, percent")
	cmd.Flags().Float64Var(&payment, "payment", 0, "Monthly payment")
	cmd.Flags().IntVar(&target, "target", 0, "Also show the payment that clears the balance in this many months")
	_ = cmd.MarkFlagRequired("balance")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

func (c *cli) debtsCmd() *cobra.Command {
	var extra float64

	cmd := &cobra.Command{
		Use:   "debts",
		Short: "Compare avalanche and snowball payoff orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("extra") {
				extra = p.ExtraPayment
			}
			if extra < 0 {
				return fmt.Errorf("--extra must be non-negative")
			}

			debts := projection.DebtsFromAccounts(p.accounts())
			out := cmd.OutOrStdout()
			if len(debts) == 0 {
				fmt.Fprintln(out, "\n  No open debts.")
				return nil
			}
			cmp := projection.CompareStrategies(debts, extra)

			title(out, fmt.Sprintf("DEBT STRATEGIES  extra %s / month", usd(extra)))
			tw := newTable(out)
			fmt.Fprintln(tw, "  Strategy\tMonths\tInterest\tOrder")
			for _, r := range []projection.StrategyResult{cmp.Avalanche, cmp.Snowball} {
				m := fmt.Sprint(r.Months)
				if !r.Completed {
					m = fmt.Sprintf(">%d", projection.MaxPayoffMonths)
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Strategy, m, usd(r.TotalInterestPaid), strings.Join(r.Order, " > "))
			}
			tw.Flush()
			fmt.Fprintf(out, "\n  Avalanche saves %s and %s.\n", usd(cmp.InterestSaved), months(cmp.MonthsSaved))
			return nil
		},
	}
	cmd.Flags().Float64Var(&extra, "extra", 0, "Extra monthly payment on top of minimums (default: the file's extra_payment)")
	return cmd
}

func (c *cli) scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Credit utilization and the heuristic score estimate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.load()
			if err != nil {
				return err
			}
			est, util := scoreOf(p.accounts())

			out := cmd.OutOrStdout()
			title(out, "CREDIT")
			tw := newTable(out)
			fmt.Fprintf(tw, "  Utilization\t%.1f%% (%s)\n", util, est.Band)
			fmt.Fprintf(tw, "  Estimated score\t%d\n", est.Score)
			fmt.Fprintf(tw, "  Payment history\t%d\n", est.PaymentHistory)
			fmt.Fprintf(tw, "  Utilization points\t%d\n", est.Utilization)
			fmt.Fprintf(tw, "  History length\t%d\n", est.HistoryLength)
			fmt.Fprintf(tw, "  Credit mix\t%d\n", est.CreditMix)
			fmt.Fprintf(tw, "  New credit\t%d\n", est.NewCredit)
			return tw.Flush()
		},
	}
}

// scoreOf measures utilization over credit cards and counts every credit
// and loan account towards the mix.
func scoreOf(accounts []domain.Account) (projection.ScoreEstimate, float64) {
	groups := domain.GroupAccounts(accounts)
	credit := groups[domain.CategoryCredit]
	util := projection.Utilization(credit)
	count := len(credit) + len(groups[domain.CategoryLoans])
	return projection.EstimateCreditScoreDetail(util, count), util
}

// report is the machine-readable output of `runwayctl report --json`.
type report struct {
	AsOf        domain.Date                   `json:"asOf"`
	Totals      projection.Totals             `json:"totals"`
	Burn        float64                       `json:"monthlyExpenses"`
	Income12    float64                       `json:"income12"`
	Runway      projection.RunwayResult       `json:"runway"`
	RunwayLabel string                        `json:"runwayLabel"`
	Utilization float64                       `json:"utilization"`
	Score       projection.ScoreEstimate      `json:"scoreEstimate"`
	Strategies  projection.StrategyComparison `json:"strategies"`
}

func (c *cli) reportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Net worth, runway, credit and debt strategy in one view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.load()
			if err != nil {
				return err
			}
			asOf := p.asOf(c.now())
			accounts := p.accounts()
			totals := projection.Summarize(domain.GroupAccounts(accounts))
			burn := p.burnRate()
			opts := p.incomeOptions()
			income12 := projection.IncomeContribution12(p.income(), asOf, opts)
			runway := projection.Runway(totals.Cash, burn, income12, opts.Enabled)
			est, util := scoreOf(accounts)

			rep := report{
				AsOf:        domain.NewDate(asOf),
				Totals:      totals,
				Burn:        burn,
				Income12:    income12,
				Runway:      runway,
				RunwayLabel: projection.RunwayLabel(runway.Months),
				Utilization: util,
				Score:       est,
				Strategies:  projection.CompareStrategies(projection.DebtsFromAccounts(accounts), p.ExtraPayment),
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}

			title(out, "REPORT as of "+rep.AsOf.String())
			tw := newTable(out)
			fmt.Fprintf(tw, "  Assets\t%s\n", usd(totals.Assets))
			fmt.Fprintf(tw, "  Liabilities\t%s\n", usd(totals.Liabilities))
			fmt.Fprintf(tw, "  Net worth\t%s\n", usd(totals.NetWorth))
			fmt.Fprintf(tw, "  Monthly expenses\t%s\n", usd(burn))
			fmt.Fprintf(tw, "  Runway\t%s months\n", rep.RunwayLabel)
			fmt.Fprintf(tw, "  Utilization\t%.1f%% (%s)\n", util, est.Band)
			fmt.Fprintf(tw, "  Estimated score\t%d\n", est.Score)
			if len(rep.Strategies.Avalanche.Order) > 0 {
				fmt.Fprintf(tw, "  Debt-free (avalanche)\t%s\n", months(rep.Strategies.Avalanche.Months))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
