package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "admin_http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	ForceSendsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "admin_force_sends_published_total", Help: "Force-send commands published to the bus"},
	)

	SchedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scheduler_runs_total", Help: "Scheduler run attempts by outcome"},
		[]string{"outcome"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_scan_duration_seconds",
			Help:    "Time spent scanning all campaigns",
			Buckets: prometheus.DefBuckets,
		},
	)
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scheduler_emails_sent_total", Help: "Campaign emails dispatched to the bridge"},
	)
	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scheduler_send_failures_total", Help: "Campaign sends that failed"},
	)
	AttachmentsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scheduler_attachments_dropped_total", Help: "Attachments skipped after fetch failures"},
	)
	ThreadLookupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scheduler_thread_lookup_failures_total", Help: "Correspondence lookups that errored"},
	)
)

// Scheduler run outcomes.
const (
	OutcomeRan       = "ran"
	OutcomeThrottled = "throttled"
	OutcomeBusy      = "busy"
	OutcomeError     = "error"
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal, APIRequestDuration, ForceSendsPublished,
		SchedulerRunsTotal, ScanDuration, EmailsSent, SendFailures,
		AttachmentsDropped, ThreadLookupFailures,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
