package telemetry

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// MetricsNamespace prefixes every exported series
const MetricsNamespace = "invoicer"

// Metrics owns a dedicated Prometheus registry with the HTTP, billing and
// scheduler series of the service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	invoicesCreated  *prometheus.CounterVec
	invoicesSent     prometheus.Counter
	invoiceStatus    *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	paymentAmount    *prometheus.CounterVec
	pdfRenders       *prometheus.HistogramVec
	mailDeliveries   *prometheus.CounterVec

	jobRuns      *prometheus.CounterVec
	jobProcessed *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers all series. Go runtime and process
// collectors are included.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status class.",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	m.invoicesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "invoices_created_total",
		Help:      "Invoices created, by source (manual, order, subscription).",
	}, []string{"source"})
	m.invoicesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "invoices_sent_total",
		Help:      "Invoice deliveries, re-sends included.",
	})
	m.invoiceStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "invoice_transitions_total",
		Help:      "Invoice status changes by target status.",
	}, []string{"status"})
	m.paymentsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "payments_recorded_total",
		Help:      "Payments recorded, by method.",
	}, []string{"method"})
	m.paymentAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "payment_amount_total",
		Help:      "Sum of recorded payments, by currency.",
	}, []string{"currency"})
	m.pdfRenders = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "pdf_render_seconds",
		Help:      "Invoice PDF render latency, by outcome.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})
	m.mailDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "billing",
		Name:      "mail_deliveries_total",
		Help:      "Outgoing invoice and reminder mails, by kind and outcome.",
	}, []string{"kind", "outcome"})

	m.jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduler job runs, by job and outcome.",
	}, []string{"job", "outcome"})
	m.jobProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: "scheduler",
		Name:      "job_processed_total",
		Help:      "Records changed by scheduler jobs.",
	}, []string{"job"})
	m.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Scheduler job run time.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.httpInFlight,
		m.invoicesCreated, m.invoicesSent, m.invoiceStatus,
		m.paymentsRecorded, m.paymentAmount, m.pdfRenders, m.mailDeliveries,
		m.jobRuns, m.jobProcessed, m.jobDuration,
	)
	return m
}

// RegisterDB exports connection pool statistics of db
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Registry exposes the registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveHTTP records one finished request. route is the matched route
// template, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// InFlight returns the in-flight gauge
func (m *Metrics) InFlight() prometheus.Gauge {
	return m.httpInFlight
}

// InvoiceCreated counts a new invoice
func (m *Metrics) InvoiceCreated(source string) {
	m.invoicesCreated.WithLabelValues(source).Inc()
}

// InvoiceSent counts a delivery
func (m *Metrics) InvoiceSent() {
	m.invoicesSent.Inc()
}

// InvoiceTransitioned counts a status change
func (m *Metrics) InvoiceTransitioned(status string) {
	m.invoiceStatus.WithLabelValues(status).Inc()
}

// PaymentRecorded counts a payment and adds its amount to the currency total
func (m *Metrics) PaymentRecorded(method, currency string, amount decimal.Decimal) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
	m.paymentAmount.WithLabelValues(currency).Add(amount.InexactFloat64())
}

// PDFRendered observes a render
func (m *Metrics) PDFRendered(elapsed time.Duration, err error) {
	m.pdfRenders.WithLabelValues(outcome(err)).Observe(elapsed.Seconds())
}

// MailDelivered counts an outgoing mail
func (m *Metrics) MailDelivered(kind string, err error) {
	m.mailDeliveries.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveJob matches scheduler.RunHook
func (m *Metrics) ObserveJob(job string, processed int, err error, elapsed time.Duration) {
	m.jobRuns.WithLabelValues(job, outcome(err)).Inc()
	m.jobProcessed.WithLabelValues(job).Add(float64(processed))
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
