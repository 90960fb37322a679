package metrics_service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "easychat"

// Metrics 聊天服务的 Prometheus 指标。nil 接收者上的所有方法都是空操作，指标关闭时直接传 nil。
type Metrics struct {
	registry *prometheus.Registry

	sendsTotal          *prometheus.CounterVec   // outcome: sent, blocked, invalid, upload_failed, persist_failed
	sendDuration        prometheus.Histogram     // 同步发送路径耗时
	fanoutTotal         *prometheus.CounterVec   // event, result: delivered, dropped
	translationsTotal   *prometheus.CounterVec   // outcome: applied, skipped, failed
	translationDuration *prometheus.HistogramVec // call: detect, translate
	socketErrors        prometheus.Counter
	onlineUsers         prometheus.Gauge
}

// NewMetrics 创建独立 registry 并注册全部指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "send_total",
			Help:      "Message send requests by outcome",
		}, []string{"outcome"}),

		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "send_duration_seconds",
			Help:      "Synchronous send path latency, excluding translation",
			Buckets:   prometheus.DefBuckets,
		}),

		fanoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "events_total",
			Help:      "Per-user event deliveries by event and result",
		}, []string{"event", "result"}),

		translationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "outcomes_total",
			Help:      "Translation side-channel outcomes",
		}, []string{"outcome"}),

		translationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "call_duration_seconds",
			Help:      "External detect/translate call latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"call"}),

		socketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "errors_total",
			Help:      "Socket-level errors reported by live connections",
		}),

		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "online_users",
			Help:      "Users with a registered live connection",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sendsTotal,
		m.sendDuration,
		m.fanoutTotal,
		m.translationsTotal,
		m.translationDuration,
		m.socketErrors,
		m.onlineUsers,
	)
	return m
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 暴露 registry 供测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordSend(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(outcome).Inc()
	m.sendDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordTranslation(outcome string) {
	if m == nil {
		return
	}
	m.translationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTranslationCall(call string, duration time.Duration) {
	if m == nil {
		return
	}
	m.translationDuration.WithLabelValues(call).Observe(duration.Seconds())
}

func (m *Metrics) RecordSocketError() {
	if m == nil {
		return
	}
	m.socketErrors.Inc()
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

// Delivered 实现 fanout_service.Observer
func (m *Metrics) Delivered(event string) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(event, "delivered").Inc()
}

// Dropped 实现 fanout_service.Observer
func (m *Metrics) Dropped(event string) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(event, "dropped").Inc()
}
