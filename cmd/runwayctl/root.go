package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// cli carries the flags every subcommand shares.
type cli struct {
	portfolioPath string
	months        int
	now           func() time.Time
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now}

	root := &cobra.Command{
		Use:          "runwayctl",
		Short:        "Offline runway, debt and credit projections",
		Long:         "Run the runway projection engine over a YAML or JSON portfolio file.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.portfolioPath, "file", "f", "portfolio.yaml", "Portfolio file (.yaml, .yml or .json)")
	root.PersistentFlags().IntVar(&c.months, "months", 12, "Projection horizon in months")

	root.AddCommand(
		c.runwayCmd(),
		c.payoffCmd(),
		c.debtsCmd(),
		c.scoreCmd(),
		c.reportCmd(),
	)
	return root
}

func (c *cli) load() (*portfolio, error) {
	if c.months < 1 || c.months > 600 {
		return nil, fmt.Errorf("--months must be between 1 and 600")
	}
	return loadPortfolio(c.portfolioPath)
}

// --- Rendering ---

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func title(w io.Writer, s string) {
	fmt.Fprintf(w, "\n  %s\n  %s\n", s, strings.Repeat("-", len(s)))
}

// usd renders an amount with two decimals and thousands separators.
func usd(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + frac
}

func months(n int) string {
	if n == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", n)
}
