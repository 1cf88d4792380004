package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// ConsoleFormatter prints a ranked summary of every model with a year-end
// net worth table.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "LIFE SIMULATION COMPARISON")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Household: %s\n", report.PersonID)
	fmt.Fprintf(&buf, "Lives: %d  Months: %s to %s\n", report.Lives, report.Start.Format("2006-01"), report.End.Format("2006-01"))
	if g := report.Growth; g.Count > 0 {
		fmt.Fprintf(&buf, "Growth history: %d months, mean %s, std dev %s\n", g.Count, FormatPercentage(g.Mean), FormatPercentage(g.StdDev))
	}

	for rank, run := range report.Runs {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "%d. %s (%s)\n", rank+1, run.ModelName, run.ModelID)
		fmt.Fprintf(&buf, "  Bankruptcy rate: %s\n", FormatPercentage(run.FinalBankruptcyRate))
		fmt.Fprintf(&buf, "  Median fun points: %s\n", run.MedianFunPoints.StringFixed(0))
		fmt.Fprintf(&buf, "  Median lifetime tax: %s\n", FormatCurrency(run.MedianLifetimeTax))
		fmt.Fprintf(&buf, "  Final median net worth: %s\n", FormatCurrency(run.FinalNetWorthP50()))
		if n := len(run.FailedLives); n > 0 {
			fmt.Fprintf(&buf, "  Failed lives: %d\n", n)
		}

		rows := YearEnds(run.Months)
		if len(rows) == 0 {
			continue
		}
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "  Year\tP10\tP50\tP90\tBankrupt\t")
		for _, m := range rows {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\t\n",
				m.Month.Year(),
				FormatCurrency(m.NetWorth.P10),
				FormatCurrency(m.NetWorth.P50),
				FormatCurrency(m.NetWorth.P90),
				FormatPercentage(m.BankruptcyRate),
			)
		}
		if err := tw.Flush(); err != nil {
			return nil, err
		}
	}

	if best, ok := report.Best(); ok {
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "Recommended: %s\n", best.ModelName)
	}
	return buf.Bytes(), nil
}
