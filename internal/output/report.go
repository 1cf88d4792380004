package output

import (
	"os"
	"time"

	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"gopkg.in/yaml.v3"
)

// RunReport is a ranked comparison of models run for one household
type RunReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	PersonID    string                  `json:"person_id"`
	Lives       int                     `json:"lives"`
	Start       time.Time               `json:"start_month"`
	End         time.Time               `json:"end_month"`
	Runs        []calculation.RunResult `json:"runs"`

	Growth calculation.GrowthStatistics `json:"growth"`
}

// NewRunReport ranks runs best first and stamps the report
func NewRunReport(personID string, cfg calculation.BatchConfig, runs []calculation.RunResult) *RunReport {
	return &RunReport{
		GeneratedAt: time.Now().UTC(),
		PersonID:    personID,
		Lives:       cfg.Lives,
		Start:       cfg.Start,
		End:         cfg.End,
		Runs:        calculation.RankRuns(runs),
	}
}

// Best returns the top ranked run
func (r *RunReport) Best() (calculation.RunResult, bool) {
	if r == nil || len(r.Runs) == 0 {
		return calculation.RunResult{}, false
	}
	return r.Runs[0], true
}

// YearEnds picks the December rows of a run plus its final month
func YearEnds(months []calculation.MonthStatistics) []calculation.MonthStatistics {
	var out []calculation.MonthStatistics
	for i, m := range months {
		if m.Month.Month() == time.December || i == len(months)-1 {
			out = append(out, m)
		}
	}
	return out
}

// GenerateReport writes the report in the named format to dir. "all" writes
// the console summary and the monthly CSV.
func GenerateReport(report *RunReport, format, dir string) ([]string, error) {
	var formatters []Formatter
	if NormalizeFormatName(format) == "all" {
		formatters = []Formatter{ConsoleFormatter{}, CSVMonthlyExporter{}}
	} else if f := GetFormatterByName(format); f != nil {
		formatters = []Formatter{f}
	} else {
		return nil, unsupported(format)
	}

	files := make([]string, 0, len(formatters))
	for _, f := range formatters {
		name, err := WriteFormatted(f, report, dir)
		if err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

// SaveConfiguration writes a configuration as YAML
func SaveConfiguration(config *domain.Configuration, filename string) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

// SaveModel exports a single model as YAML
func SaveModel(model domain.Model, filename string) error {
	b, err := yaml.Marshal(model)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
