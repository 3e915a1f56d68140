// Package metrics содержит Prometheus-метрики сервиса
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса: HTTP, база данных, фоновые sweep-операции
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration   *prometheus.HistogramVec
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbConnectionsUsed *prometheus.GaugeVec

	sweepRunsTotal      *prometheus.CounterVec
	sweepProcessedTotal *prometheus.CounterVec
	sweepFailuresTotal  *prometheus.CounterVec
}

// New регистрирует метрики в дефолтном регистре Prometheus
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "path"}),

		dbQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			ConstLabels: constLabels,
		}, []string{"operation"}),

		dbConnectionsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections_open",
			Help:        "Number of open database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		dbConnectionsIdle: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections_idle",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}, []string{"state"}),

		dbConnectionsUsed: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections_in_use",
			Help:        "Number of database connections in use",
			ConstLabels: constLabels,
		}, []string{"state"}),

		sweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "sweep_runs_total",
			Help:        "Total number of background sweep runs",
			ConstLabels: constLabels,
		}, []string{"sweep"}),

		sweepProcessedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "sweep_processed_total",
			Help:        "Total number of records processed by background sweeps",
			ConstLabels: constLabels,
		}, []string{"sweep"}),

		sweepFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "sweep_failures_total",
			Help:        "Total number of per-record failures in background sweeps",
			ConstLabels: constLabels,
		}, []string{"sweep"}),
	}
}

// ObserveHTTPRequest фиксирует завершенный HTTP-запрос
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// ObserveDBQuery фиксирует длительность запроса к базе данных
func (m *Metrics) ObserveDBQuery(operation string, seconds float64) {
	m.dbQueryDuration.WithLabelValues(operation).Observe(seconds)
}

// SetDBPoolStats публикует состояние пула соединений
func (m *Metrics) SetDBPoolStats(stats sql.DBStats) {
	m.dbConnectionsOpen.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.dbConnectionsIdle.WithLabelValues("idle").Set(float64(stats.Idle))
	m.dbConnectionsUsed.WithLabelValues("in_use").Set(float64(stats.InUse))
}

// ObserveSweep фиксирует результат одного запуска фонового sweep
func (m *Metrics) ObserveSweep(sweep string, processed, failed int) {
	m.sweepRunsTotal.WithLabelValues(sweep).Inc()
	m.sweepProcessedTotal.WithLabelValues(sweep).Add(float64(processed))
	m.sweepFailuresTotal.WithLabelValues(sweep).Add(float64(failed))
}
