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
// サービス層から利用する。
type MetricsCollector interface {
	RecordReportGenerated()
	RecordReportGenerationFailure(reason string)
	RecordGatewayLatency(duration time.Duration)
	RecordChatFallback()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reportsGenerated prometheus.Counter
	reportFailures   *prometheus.CounterVec
	gatewayLatency   prometheus.Histogram
	chatFallbacks    prometheus.Counter
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brainwave_reports_generated_total",
			Help: "生成に成功したレポートの合計数",
		}),
		reportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brainwave_report_failures_total",
			Help: "レポート生成失敗の理由別合計数",
		}, []string{"reason"}),
		gatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brainwave_gateway_latency_seconds",
			Help:    "AIゲートウェイ呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		chatFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brainwave_chat_fallback_total",
			Help: "ローカルフォールバックで応答したチャットの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brainwave_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.reportsGenerated,
		c.reportFailures,
		c.gatewayLatency,
		c.chatFallbacks,
		c.httpStatus,
	)

	return c
}

// RecordReportGenerated はレポート生成成功を記録する。
func (c *Collector) RecordReportGenerated() {
	c.reportsGenerated.Inc()
}

// RecordReportGenerationFailure はレポート生成失敗を記録する。
func (c *Collector) RecordReportGenerationFailure(reason string) {
	c.reportFailures.WithLabelValues(reason).Inc()
}

// RecordGatewayLatency はゲートウェイ呼び出しのレイテンシを記録する。
func (c *Collector) RecordGatewayLatency(duration time.Duration) {
	c.gatewayLatency.Observe(duration.Seconds())
}

// RecordChatFallback はローカルフォールバック応答を記録する。
func (c *Collector) RecordChatFallback() {
	c.chatFallbacks.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
