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
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordAuthSuccess()
	RecordAuthFailure()
	RecordUserRegistered()
	RecordPostCreated()
	RecordPostUpdated()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authSuccess    prometheus.Counter
	authFail       prometheus.Counter
	userRegistered prometheus.Counter
	postCreated    prometheus.Counter
	postUpdated    prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogd_auth_success_total",
			Help: "ログイン成功の合計数",
		}),
		authFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogd_auth_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		userRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogd_user_registered_total",
			Help: "ユーザー登録の合計数",
		}),
		postCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogd_post_created_total",
			Help: "記事作成の合計数",
		}),
		postUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogd_post_updated_total",
			Help: "記事更新の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogd_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogd_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authSuccess,
		c.authFail,
		c.userRegistered,
		c.postCreated,
		c.postUpdated,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAuthSuccess はログイン成功を記録する。
func (c *Collector) RecordAuthSuccess() {
	c.authSuccess.Inc()
}

// RecordAuthFailure はログイン失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFail.Inc()
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered() {
	c.userRegistered.Inc()
}

// RecordPostCreated は記事作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postCreated.Inc()
}

// RecordPostUpdated は記事更新を記録する。
func (c *Collector) RecordPostUpdated() {
	c.postUpdated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
