package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rpgo/lifesim/internal/calculation"
)

// CSVMonthlyExporter writes every aggregated month of every model.
type CSVMonthlyExporter struct{}

func (c CSVMonthlyExporter) Name() string { return "monthly-csv" }

func (c CSVMonthlyExporter) Format(report *RunReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Rank", "ModelID", "Month"}
	for _, series := range []string{"NetWorth", "Spend", "Tax"} {
		for _, p := range []string{"P10", "P25", "P50", "P75", "P90"} {
			header = append(header, series+p)
		}
	}
	header = append(header, "BankruptcyRate")
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i, run := range report.Runs {
		for _, m := range run.Months {
			row := []string{strconv.Itoa(i + 1), run.ModelID, m.Month.Format("2006-01")}
			row = appendRange(row, m.NetWorth)
			row = appendRange(row, m.Spend)
			row = appendRange(row, m.Tax)
			row = append(row, m.BankruptcyRate.StringFixed(4))
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func appendRange(row []string, r calculation.PercentileRange) []string {
	return append(row,
		r.P10.StringFixed(2),
		r.P25.StringFixed(2),
		r.P50.StringFixed(2),
		r.P75.StringFixed(2),
		r.P90.StringFixed(2),
	)
}
