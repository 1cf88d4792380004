package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/config"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/output"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixtureConfig = "../../test/testdata/example_config.yaml"

// setup resets the global flags a command reads and captures its output
func setup(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	configPath, dbPath = "", ""
	runFormat, runOutput, runReportDir = "console", "", ""
	personID, modelIDs, metricsAddr = "", nil, ""
	breedPerson, parentA, parentB, breedSeed, breedExport = "household", "", "", 0, ""
	t.Cleanup(func() {
		configPath, dbPath = "", ""
		modelIDs = nil
	})
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRunWithConfig(t *testing.T) {
	cmd, buf := setup(t)
	configPath = fixtureConfig
	runFormat = "csv"

	require.NoError(t, runSimulation(cmd, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Rank,ModelID,ModelName"))
	assert.True(t, strings.HasPrefix(lines[1], "1,"))
	assert.True(t, strings.HasPrefix(lines[2], "2,"))
}

func TestRunWritesOutputFile(t *testing.T) {
	cmd, buf := setup(t)
	configPath = fixtureConfig
	modelIDs = []string{"retire-2031"}
	runFormat = "console"
	runOutput = filepath.Join(t.TempDir(), "report.txt")
	runReportDir = t.TempDir()

	require.NoError(t, runSimulation(cmd, nil))
	assert.Empty(t, buf.String())

	files, err := filepath.Glob(filepath.Join(runReportDir, "lifesim_report_console_*.txt"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.FileExists(t, runOutput)
}

func TestRunRejectsBadInput(t *testing.T) {
	cmd, _ := setup(t)
	err := runSimulation(cmd, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration), err)

	configPath = fixtureConfig
	runFormat = "pdf"
	err = runSimulation(cmd, nil)
	assert.True(t, errors.Is(err, output.ErrUnsupportedFormat), err)

	runFormat = "json"
	modelIDs = []string{"missing"}
	err = runSimulation(cmd, nil)
	assert.Error(t, err)
}

func TestImportBreedAndRunFromDatabase(t *testing.T) {
	cmd, buf := setup(t)
	configPath = fixtureConfig
	dbPath = filepath.Join(t.TempDir(), "lifesim.db")

	require.NoError(t, runImport(cmd, nil))
	assert.Contains(t, buf.String(), "Imported person household and 2 models")

	buf.Reset()
	require.NoError(t, runModels(cmd, nil))
	assert.Contains(t, buf.String(), "retire-2028")
	assert.Contains(t, buf.String(), "retire-2031")

	buf.Reset()
	parentA, parentB, breedSeed = "retire-2028", "retire-2031", 5
	breedExport = filepath.Join(t.TempDir(), "child.yaml")
	require.NoError(t, runBreed(cmd, nil))
	assert.Contains(t, buf.String(), "generation 1 from retire-2028 and retire-2031")
	assert.FileExists(t, breedExport)

	buf.Reset()
	require.NoError(t, runModels(cmd, nil))
	assert.Contains(t, buf.String(), "retire-2028 x retire-2031")

	buf.Reset()
	runFormat = "json"
	require.NoError(t, runSimulation(cmd, nil))
	var report struct {
		PersonID string                       `json:"person_id"`
		Runs     []calculation.RunResult      `json:"runs"`
		Growth   calculation.GrowthStatistics `json:"growth"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "household", report.PersonID)
	assert.Len(t, report.Runs, 3)
	assert.Equal(t, 48, report.Growth.Count)
}

func TestImportNeedsConfigAndDatabase(t *testing.T) {
	cmd, _ := setup(t)
	configPath = fixtureConfig
	err := runImport(cmd, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration), err)
}

func TestExampleConfigurationLoads(t *testing.T) {
	cmd, buf := setup(t)
	exampleOutput = filepath.Join(t.TempDir(), "example.yaml")

	require.NoError(t, runExample(cmd, nil))
	assert.Contains(t, buf.String(), exampleOutput)

	cfg, err := config.NewInputParser().LoadFromFile(exampleOutput)
	require.NoError(t, err)
	assert.Len(t, cfg.Models, 2)
}

func TestStartMetrics(t *testing.T) {
	setup(t)
	recorder, stop, err := startMetrics("")
	require.NoError(t, err)
	assert.IsType(t, calculation.NopRecorder{}, recorder)
	stop()

	recorder, stop, err = startMetrics("127.0.0.1:0")
	require.NoError(t, err)
	defer stop()
	recorder.ObserveLife("m", calculation.OutcomeSolvent, 0)
	recorder.SetBankruptcyRate("m", 0.25)
}
