// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証リゾルバーやサービス層から利用する。
type MetricsCollector interface {
	RecordAuthFastPath()
	RecordAuthRefresh(result string)
	RecordRefreshLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordOrderCreated()
	RecordCartLinesCleaned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authFastPath     prometheus.Counter
	authRefresh      *prometheus.CounterVec
	refreshLatency   prometheus.Histogram
	httpStatus       *prometheus.CounterVec
	ordersCreated    prometheus.Counter
	cartLinesCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authFastPath: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_auth_fast_path_total",
			Help: "ローカル検証のみで認証されたリクエストの合計数",
		}),
		authRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_auth_refresh_total",
			Help: "プロバイダーとのリフレッシュ交換の結果別合計数",
		}, []string{"result"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_auth_refresh_latency_seconds",
			Help:    "リフレッシュ交換のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "作成された注文の合計数",
		}),
		cartLinesCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_lines_cleaned_total",
			Help: "クリーンアップワーカーが削除した放置カート行の合計数",
		}),
	}

	reg.MustRegister(
		c.authFastPath,
		c.authRefresh,
		c.refreshLatency,
		c.httpStatus,
		c.ordersCreated,
		c.cartLinesCleaned,
	)

	return c
}

// RecordAuthFastPath は高速パスでの認証成功を記録する。
func (c *Collector) RecordAuthFastPath() {
	c.authFastPath.Inc()
}

// RecordAuthRefresh はリフレッシュ交換の結果（success/failure）を記録する。
func (c *Collector) RecordAuthRefresh(result string) {
	c.authRefresh.WithLabelValues(result).Inc()
}

// RecordRefreshLatency はリフレッシュ交換のレイテンシを記録する。
func (c *Collector) RecordRefreshLatency(duration time.Duration) {
	c.refreshLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordOrderCreated は注文の作成を記録する。
func (c *Collector) RecordOrderCreated() {
	c.ordersCreated.Inc()
}

// RecordCartLinesCleaned は削除された放置カート行数を記録する。
func (c *Collector) RecordCartLinesCleaned(count int) {
	c.cartLinesCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
