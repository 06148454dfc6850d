package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// update 处理指标
	UpdatesReceived prometheus.Counter
	UpdatesFailed   prometheus.Counter

	// 转发指标
	GuestMessagesRelayed prometheus.Counter
	GuestMessagesBlocked prometheus.Counter
	ForwardFailures      prometheus.Counter
	RepliesRouted        prometheus.Counter
	RouteMisses          prometheus.Counter

	// 命令与告警指标
	OperatorCommands *prometheus.CounterVec
	FraudAlerts      prometheus.Counter
}

// NewMetrics 在给定的注册器上创建监控指标。
// 生产环境传 prometheus.DefaultRegisterer，测试各自使用独立注册器。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaybot_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relaybot_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		UpdatesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_updates_received_total",
			Help: "Total number of webhook updates accepted",
		}),
		UpdatesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_updates_failed_total",
			Help: "Total number of updates whose processing returned an error",
		}),
		GuestMessagesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_guest_messages_relayed_total",
			Help: "Total number of guest messages fanned out to operators",
		}),
		GuestMessagesBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_guest_messages_blocked_total",
			Help: "Total number of guest messages rejected by an active block",
		}),
		ForwardFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_forward_failures_total",
			Help: "Total number of per-operator forward failures during fan-out",
		}),
		RepliesRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_replies_routed_total",
			Help: "Total number of operator replies copied back to guests",
		}),
		RouteMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_route_misses_total",
			Help: "Total number of operator replies with no correlation entry",
		}),
		OperatorCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaybot_operator_commands_total",
				Help: "Total number of operator commands dispatched",
			},
			[]string{"command"},
		),
		FraudAlerts: factory.NewCounter(prometheus.CounterOpts{
			Name: "relaybot_fraud_alerts_total",
			Help: "Total number of fraud alerts sent to operators",
		}),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
