package output_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	stddec "github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/output"
)

func TestFormatters(t *testing.T) {
	if got := output.FormatCurrency(stddec.NewFromFloat(1234.567)); got != "$1,234.57" {
		t.Fatalf("FormatCurrency = %q", got)
	}
	if got := output.FormatPercentage(stddec.NewFromFloat(0.1234)); got != "12.34%" {
		t.Fatalf("FormatPercentage = %q", got)
	}
}

func TestSaveConfiguration(t *testing.T) {
	cfg := &domain.Configuration{}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := output.SaveConfiguration(cfg, path); err != nil {
		t.Fatalf("SaveConfiguration error: %v", err)
	}
}

func TestSaveModel(t *testing.T) {
	model := domain.Model{
		ID:                                 "m1",
		Name:                               "retire early",
		Generation:                         2,
		RetirementDate:                     time.Date(2035, 6, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRequiredSpendPostRetirement: stddec.NewFromInt(3000),
	}
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := output.SaveModel(model, path); err != nil {
		t.Fatalf("SaveModel error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	var got domain.Model
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got.ID != "m1" || got.Generation != 2 || !got.MonthlyRequiredSpendPostRetirement.Equal(model.MonthlyRequiredSpendPostRetirement) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGenerateReport(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	report := output.NewRunReport("household", calculation.BatchConfig{Lives: 1, Start: start, End: start}, []calculation.RunResult{
		{ModelID: "m", ModelName: "Only", Lives: 1, Months: []calculation.MonthStatistics{{Month: start}}},
	})
	dir := t.TempDir()

	files, err := output.GenerateReport(report, "json", dir)
	if err != nil || len(files) != 1 || filepath.Ext(files[0]) != ".json" {
		t.Fatalf("GenerateReport json = %v, %v", files, err)
	}
	files, err = output.GenerateReport(report, "all", dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("GenerateReport all = %v, %v", files, err)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("missing report file %s: %v", f, err)
		}
	}
	if _, err := output.GenerateReport(report, "html", dir); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
