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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordUploadURLIssued()
	RecordObjectAccess(allowed bool)
	RecordHTTPStatus(statusCode int)
	RecordObjectStreamLatency(duration time.Duration)
	RecordSessionsCleaned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess    prometheus.Counter
	loginFail       prometheus.Counter
	uploadURLs      prometheus.Counter
	objectAccess    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	streamLatency   prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "castport_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "castport_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		uploadURLs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "castport_upload_urls_issued_total",
			Help: "発行された署名付きアップロードURLの合計数",
		}),
		objectAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "castport_object_access_total",
			Help: "保護オブジェクトへのアクセス判定数（結果別）",
		}, []string{"decision"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "castport_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		streamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "castport_object_stream_latency_seconds",
			Help:    "オブジェクト配信のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "castport_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.uploadURLs,
		c.objectAccess,
		c.httpStatus,
		c.streamLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
// 存在しないメールアドレスとパスワード不一致は区別せず同一カウンタに加算する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordUploadURLIssued は署名付きアップロードURLの発行を記録する。
func (c *Collector) RecordUploadURLIssued() {
	c.uploadURLs.Inc()
}

// RecordObjectAccess は保護オブジェクトへのアクセス判定を記録する。
func (c *Collector) RecordObjectAccess(allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	c.objectAccess.WithLabelValues(decision).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordObjectStreamLatency はオブジェクト配信のレイテンシを記録する。
func (c *Collector) RecordObjectStreamLatency(duration time.Duration) {
	c.streamLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int) {
	c.sessionsCleaned.Add(float64(count))
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
