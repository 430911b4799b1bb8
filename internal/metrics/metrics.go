package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boardcamp"

// Metrics holds the application collectors on a private registry.  A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	rentalsCreated  prometheus.Counter
	rentalsReturned prometheus.Counter
	rentalsDeleted  prometheus.Counter
	rentalsRejected *prometheus.CounterVec
	lateFeeCents    prometheus.Counter
	overdueRentals  prometheus.Gauge
}

// New builds and registers every collector, including the process and Go
// runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		rentalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "created_total",
			Help:      "Rentals successfully created.",
		}),
		rentalsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "returned_total",
			Help:      "Rentals successfully returned.",
		}),
		rentalsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "deleted_total",
			Help:      "Open rentals deleted.",
		}),
		rentalsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "rejected_total",
			Help:      "Rental operations rejected by a business rule.",
		}, []string{"op", "reason"}),
		lateFeeCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "late_fee_cents_total",
			Help:      "Sum of delay fees charged on return, in cents.",
		}),
		overdueRentals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rentals",
			Name:      "overdue",
			Help:      "Open rentals past their due date at the last sweep.",
		}),
	}
	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.rentalsCreated,
		m.rentalsReturned,
		m.rentalsDeleted,
		m.rentalsRejected,
		m.lateFeeCents,
		m.overdueRentals,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) InFlightInc() {
	if m != nil {
		m.httpInFlight.Inc()
	}
}

func (m *Metrics) InFlightDec() {
	if m != nil {
		m.httpInFlight.Dec()
	}
}

// ObserveRequest records one finished HTTP request.  route is the echo route
// pattern (e.g. /rentals/:id/return) so ids do not explode label cardinality.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RentalCreated() {
	if m != nil {
		m.rentalsCreated.Inc()
	}
}

// RentalReturned counts a return and adds its delay fee, if any.
func (m *Metrics) RentalReturned(delayFee *int64) {
	if m == nil {
		return
	}
	m.rentalsReturned.Inc()
	if delayFee != nil && *delayFee > 0 {
		m.lateFeeCents.Add(float64(*delayFee))
	}
}

func (m *Metrics) RentalDeleted() {
	if m != nil {
		m.rentalsDeleted.Inc()
	}
}

func (m *Metrics) RentalRejected(op, reason string) {
	if m != nil {
		m.rentalsRejected.WithLabelValues(op, reason).Inc()
	}
}

func (m *Metrics) SetOverdue(n int) {
	if m != nil {
		m.overdueRentals.Set(float64(n))
	}
}
