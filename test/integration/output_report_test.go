package integration

import (
	"os"
	"strings"
	"testing"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/output"
	"github.com/rpgo/lifesim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildReport(t *testing.T) *output.RunReport {
	t.Helper()
	cfg := loadExample(t)
	repo, err := store.NewMemoryFromConfiguration(cfg)
	require.NoError(t, err)
	runs := runAll(t, cfg, repo)
	return output.NewRunReport(cfg.Person.ID, calculation.BatchConfigFromSimulation(cfg.Simulation), runs)
}

func TestOutputGeneration(t *testing.T) {
	report := buildReport(t)

	for _, name := range output.AvailableFormatterNames() {
		data, err := output.Render(report, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}

	console, err := output.Render(report, "console")
	require.NoError(t, err)
	best, ok := report.Best()
	require.True(t, ok)
	assert.Contains(t, string(console), "Recommended: "+best.ModelName)
	assert.Len(t, output.YearEnds(best.Months), 7)

	monthly, err := output.Render(report, "monthly-csv")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(monthly)), "\n"), 1+2*84)
}

func TestGenerateReportFiles(t *testing.T) {
	report := buildReport(t)
	dir := t.TempDir()

	files, err := output.GenerateReport(report, "all", dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		fi, err := os.Stat(f)
		require.NoError(t, err)
		assert.Positive(t, fi.Size())
	}

	_, err = output.GenerateReport(report, "html", dir)
	assert.ErrorIs(t, err, output.ErrUnsupportedFormat)
}
