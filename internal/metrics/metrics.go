package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway calls by result (delivered, rejected, error).
	SMSSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relief_sms_gateway_calls_total",
			Help: "SMS gateway calls partitioned by result",
		},
		[]string{"result"},
	)

	// Dispatch jobs by outcome (sent, no_filter, already_claimed, error).
	SMSJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relief_sms_jobs_total",
			Help: "SMS dispatch jobs partitioned by outcome",
		},
		[]string{"outcome"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relief_exports_total",
			Help: "Admin exports partitioned by entity and mode",
		},
		[]string{"entity", "mode"},
	)

	Tasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relief_tasks_processed_total",
			Help: "Queued tasks processed partitioned by queue, type and result",
		},
		[]string{"queue", "type", "result"},
	)
)
