package providers

import (
	"time"

	"fpledger/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncCacheInvalidations()
	ObservePersistenceDuration(duration time.Duration)
	ObserveStoreDuration(operation string, duration time.Duration)
	IncStoreErrors(operation string)
	IncTransactionsRecorded(created bool)
	IncDuplicateTransactions()
	SetRecordsTotal(count int64)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheInvalidations  prometheus.Counter
	persistenceDuration prometheus.Histogram
	storeDuration       *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec
	transactions        *prometheus.CounterVec
	duplicates          prometheus.Counter
	recordsTotal        prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncCacheInvalidations() {
	m.cacheInvalidations.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveStoreDuration(operation string, duration time.Duration) {
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncStoreErrors(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

func (m *MetricsProvider) IncTransactionsRecorded(created bool) {
	result := "appended"
	if created {
		result = "created"
	}
	m.transactions.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) IncDuplicateTransactions() {
	m.duplicates.Inc()
}

func (m *MetricsProvider) SetRecordsTotal(count int64) {
	m.recordsTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fpledger_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fpledger_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fpledger_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fpledger_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		cacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fpledger_cache_invalidations_total",
			Help: "Total number of response cache invalidations",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fpledger_persistence_duration_seconds",
			Help:    "Duration of snapshot persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		storeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fpledger_store_duration_seconds",
			Help:    "Ledger store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		storeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fpledger_store_errors_total",
			Help: "Ledger store operations that failed with a storage error",
		}, []string{"operation"}),

		transactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fpledger_transactions_recorded_total",
			Help: "Transactions recorded, by whether the fingerprint record was created",
		}, []string{"result"}),

		duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fpledger_duplicate_transactions_total",
			Help: "Rejected transactions whose hash was already recorded",
		}),

		recordsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fpledger_records_total",
			Help: "Number of fingerprint records in the ledger",
		}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncCacheInvalidations()                           {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) ObserveStoreDuration(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncStoreErrors(_ string)                          {}
func (n *noopMetrics) IncTransactionsRecorded(_ bool)                   {}
func (n *noopMetrics) IncDuplicateTransactions()                        {}
func (n *noopMetrics) SetRecordsTotal(_ int64)                          {}
