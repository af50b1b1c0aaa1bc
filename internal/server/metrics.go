package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	generated *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		generated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_statements_generated_total",
				Help: "Statements generated, by outcome.",
			},
			[]string{"outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billing_statement_duration_seconds",
				Help:    "Time to build a statement, by output format.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"format"},
		),
	}
}
