package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yobro/internal/httperr"
	"yobro/internal/router"
)

// MetricsConfig はPrometheusメトリクスの設定
type MetricsConfig struct {
	// Namespace はメトリクスの名前空間 (既定: "yobro")
	Namespace string

	// Buckets は処理時間ヒストグラムのバケット
	Buckets []float64

	// Registry は登録先 (既定: prometheus.DefaultRegisterer)
	Registry prometheus.Registerer
}

// MetricsOption はMetricsConfigを変更する
type MetricsOption func(*MetricsConfig)

// WithNamespace はメトリクスの名前空間を設定する
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets はヒストグラムのバケットを設定する
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry は登録先のレジストリを設定する
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics はリクエスト処理のPrometheusメトリクス
type Metrics struct {
	config MetricsConfig

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	extractionErrors *prometheus.CounterVec
}

// NewMetrics はメトリクスを作成してレジストリに登録する
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "yobro",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		config: config,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of dispatched requests by route and status",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request handling duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"method", "route"}),

		extractionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "extraction_errors_total",
			Help:      "Total number of requests rejected before the handler ran",
		}, []string{"route", "kind"}),
	}
}

// CounterGauge は共有カウンタの現在値を公開するゲージを登録する
// 値は呼び出しのたびに load で取得する
func (m *Metrics) CounterGauge(load func() (int, error)) {
	promauto.With(m.config.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.config.Namespace,
		Name:      "shared_counter",
		Help:      "Current value of the shared request counter",
	}, func() float64 {
		n, err := load()
		if err != nil {
			return -1
		}
		return float64(n)
	})
}

// Middleware はメトリクスを記録するミドルウェアを返す
func (m *Metrics) Middleware() router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(req *router.Request) (router.Response, error) {
			start := time.Now()
			resp, err := next(req)

			m.requestDuration.WithLabelValues(req.Method, req.Route).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(req.Method, req.Route, strconv.Itoa(statusOf(resp, err))).Inc()

			var ex *httperr.ExtractionError
			if errors.As(err, &ex) {
				m.extractionErrors.WithLabelValues(req.Route, ex.Kind.String()).Inc()
			}
			return resp, err
		}
	}
}
