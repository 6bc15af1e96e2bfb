package utils

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит метрики приложения
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	creditsCreated    prometheus.Counter
	creditTransitions *prometheus.CounterVec
	paymentsCompleted prometheus.Counter
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает общий экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// NewMetrics создает отдельный registry со всеми метриками приложения
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditdesk_http_requests_total",
			Help: "Number of HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		creditsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creditdesk_credits_created_total",
			Help: "Number of credits created.",
		}),
		creditTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditdesk_credit_transitions_total",
			Help: "Number of credit status transitions by target status.",
		}, []string{"status"}),
		paymentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "creditdesk_payments_completed_total",
			Help: "Number of installment payments marked as completed.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.creditsCreated,
		m.creditTransitions,
		m.paymentsCompleted,
		prometheus.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler возвращает обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// RecordRequest записывает метрики HTTP-запроса
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordCreditCreated увеличивает счетчик созданных кредитов
func (m *Metrics) RecordCreditCreated() {
	m.creditsCreated.Inc()
}

// RecordCreditTransition учитывает переход кредита в новый статус
func (m *Metrics) RecordCreditTransition(status string) {
	m.creditTransitions.WithLabelValues(status).Inc()
}

// RecordPaymentCompleted увеличивает счетчик оплаченных взносов
func (m *Metrics) RecordPaymentCompleted() {
	m.paymentsCompleted.Inc()
}
