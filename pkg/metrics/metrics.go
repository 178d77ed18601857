package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Session metrics
	LoginAttempts *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Logouts       prometheus.Counter
	ActiveClients prometheus.Gauge

	// Appointment metrics
	AppointmentOperations *prometheus.CounterVec

	// Collaborator metrics
	ProviderLatency *prometheus.HistogramVec

	// Worker metrics
	NotificationsRelayed *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg, the default
// registerer when nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of registration attempts by outcome",
		}, []string{"outcome"}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Total number of logouts",
		}),
		ActiveClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_clients",
			Help:      "Current number of client contexts held by the portal",
		}),
		AppointmentOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_operations_total",
			Help:      "Total number of appointment store operations",
		}, []string{"operation", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_request_duration_seconds",
			Help:      "Duration of calls to the identity provider and reporting service",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"collaborator", "operation"}),
		NotificationsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_relayed_total",
			Help:      "Total number of notifications handled by the worker",
		}, []string{"kind", "outcome"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveRegistration(err error) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

func (m *Metrics) SetActiveClients(n int) {
	if m == nil {
		return
	}
	m.ActiveClients.Set(float64(n))
}

func (m *Metrics) ObserveAppointment(operation string, err error) {
	if m == nil {
		return
	}
	m.AppointmentOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveCollaborator(collaborator, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(collaborator, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRelay(kind string, err error) {
	if m == nil {
		return
	}
	m.NotificationsRelayed.WithLabelValues(kind, outcome(err)).Inc()
}
