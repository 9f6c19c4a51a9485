package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter is a Writer that exposes the latest value of every series to Prometheus.
type Exporter struct {
	// Scalar holds the last value of each series, labeled by tag.
	Scalar *prometheus.GaugeVec

	// Step holds the step of the last value of each series, labeled by tag.
	Step *prometheus.GaugeVec

	// Texts counts the text entries written, labeled by tag.
	Texts *prometheus.CounterVec
}

// NewExporter returns an Exporter whose metrics are registered with reg. If reg is nil, the
// metrics are not registered anywhere.
func NewExporter(reg prometheus.Registerer) *Exporter {
	f := promauto.With(reg)

	return &Exporter{
		Scalar: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hdarts_scalar",
				Help: "Latest value of each scalar series of the search",
			},
			[]string{"tag"},
		),
		Step: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hdarts_scalar_step",
				Help: "Step of the latest value of each scalar series of the search",
			},
			[]string{"tag"},
		),
		Texts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdarts_texts_total",
				Help: "Total number of text entries written, such as architecture reports",
			},
			[]string{"tag"},
		),
	}
}

func (e *Exporter) AddScalar(tag string, value float64, step int) {
	e.Scalar.WithLabelValues(tag).Set(value)
	e.Step.WithLabelValues(tag).Set(float64(step))
}

func (e *Exporter) AddText(tag, text string, step int) {
	e.Texts.WithLabelValues(tag).Inc()
}
