package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVSummarizer implements the summary CSV output (one row per model, in rank order).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *RunReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Rank", "ModelID", "ModelName", "Lives", "FinalBankruptcyRate", "MedianFunPoints", "MedianLifetimeTax", "FinalNetWorthP50", "FailedLives"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i, run := range report.Runs {
		row := []string{
			strconv.Itoa(i + 1),
			run.ModelID,
			run.ModelName,
			strconv.Itoa(run.Lives),
			run.FinalBankruptcyRate.StringFixed(4),
			run.MedianFunPoints.StringFixed(2),
			run.MedianLifetimeTax.StringFixed(2),
			run.FinalNetWorthP50().StringFixed(2),
			strconv.Itoa(len(run.FailedLives)),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
