package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ calculation.Recorder = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveLife("base", calculation.OutcomeSolvent, 2*time.Millisecond)
	r.ObserveLife("base", calculation.OutcomeSolvent, 3*time.Millisecond)
	r.ObserveLife("base", calculation.OutcomeBankrupt, time.Millisecond)
	r.SetBankruptcyRate("base", 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.lives.WithLabelValues("base", calculation.OutcomeSolvent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lives.WithLabelValues("base", calculation.OutcomeBankrupt)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))

	expected := `
# HELP lifesim_bankruptcy_rate Share of lives bankrupt by the final month of the latest run
# TYPE lifesim_bankruptcy_rate gauge
lifesim_bankruptcy_rate{model="base"} 0.25
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lifesim_bankruptcy_rate"))
}

func TestRecorderRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}
