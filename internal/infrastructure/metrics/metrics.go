package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the prometheus vectors used across the engine. A nil
// *Metrics is a valid no-op receiver so tests can skip registration.
type Metrics struct {
	Reservations  *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	Events        *prometheus.CounterVec
	ReaperSwept   *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reservations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_reservations_total",
				Help: "Reservation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_verifications_total",
				Help: "Payment proof resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_emitted_total",
				Help: "Outbound event decisions by event name and outcome.",
			},
			[]string{"event", "outcome"},
		),
		ReaperSwept: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reaper_reclaimed_total",
				Help: "Records reclaimed by the expiry reaper per sweep.",
			},
			[]string{"sweep"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.Reservations, m.Verifications, m.Events, m.ReaperSwept, m.HTTPRequests, m.HTTPDuration)
	return m
}

func (m *Metrics) ReservationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) VerificationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EventOutcome(event, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Reclaimed(sweep string) {
	if m == nil {
		return
	}
	m.ReaperSwept.WithLabelValues(sweep).Inc()
}
