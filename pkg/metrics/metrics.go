package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	DBPoolOpenConns  *prometheus.GaugeVec
	DBPoolInUseConns *prometheus.GaugeVec
	DBPoolIdleConns  *prometheus.GaugeVec
}

// New регистрирует и возвращает метрики сервиса
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		DBPoolOpenConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Number of open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBPoolInUseConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBPoolIdleConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Number of idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),
	}
}

// ObserveDBQuery записывает метрики одного запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.DBQueriesTotal.WithLabelValues(operation, status).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
}
