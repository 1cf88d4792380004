// Package metrics exports batch progress as Prometheus metrics:
//
//   - lifesim_lives_total{model,outcome}      lives finished (solvent|bankrupt|failed)
//   - lifesim_life_duration_seconds{model}    wall time per simulated life
//   - lifesim_bankruptcy_rate{model}          final-month bankruptcy rate of the last run
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements calculation.Recorder on top of a Prometheus registry
type Recorder struct {
	lives          *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	bankruptcyRate *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		lives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifesim_lives_total",
				Help: "Simulated lives by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lifesim_life_duration_seconds",
				Help:    "Wall time to simulate one life",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"model"},
		),
		bankruptcyRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lifesim_bankruptcy_rate",
				Help: "Share of lives bankrupt by the final month of the latest run",
			},
			[]string{"model"},
		),
	}
	for _, c := range []prometheus.Collector{r.lives, r.duration, r.bankruptcyRate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveLife(modelID, outcome string, duration time.Duration) {
	r.lives.WithLabelValues(modelID, outcome).Inc()
	r.duration.WithLabelValues(modelID).Observe(duration.Seconds())
}

func (r *Recorder) SetBankruptcyRate(modelID string, rate float64) {
	r.bankruptcyRate.WithLabelValues(modelID).Set(rate)
}
