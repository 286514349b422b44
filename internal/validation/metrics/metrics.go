package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for validation results.
const (
	OutcomeValid    = "valid"
	OutcomeFormat   = "format"
	OutcomeChecksum = "checksum"
)

// Metrics counts validation outcomes.
type Metrics struct {
	Validations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Validations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cnpjd_validations_total",
			Help: "Total number of CNPJ validations by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementOutcome records one validation with the given outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	m.Validations.WithLabelValues(outcome).Inc()
}
