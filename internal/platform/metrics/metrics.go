package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared across handlers.
type Metrics struct {
	SessionsCreated  prometheus.Counter
	WebhooksReceived prometheus.Counter
	WebhooksRejected *prometheus.CounterVec
	WebhooksApplied  prometheus.Counter
	EmailsSent       prometheus.Counter
	UsersCreated     prometheus.Counter
	ReportsFetched   prometheus.Counter
	RequestLatency   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_verification_sessions_created_total",
			Help: "Total number of provider verification sessions created",
		}),
		WebhooksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_webhooks_received_total",
			Help: "Total number of webhook deliveries received",
		}),
		WebhooksRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cikyc_webhooks_rejected_total",
			Help: "Total number of webhook deliveries rejected, by reason",
		}, []string{"reason"}),
		WebhooksApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_webhooks_applied_total",
			Help: "Total number of webhook status updates applied to the store",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_verification_emails_sent_total",
			Help: "Total number of verification link emails sent",
		}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_users_created_total",
			Help: "Total number of user accounts created",
		}),
		ReportsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cikyc_reports_fetched_total",
			Help: "Total number of verification reports fetched from the provider",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cikyc_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
