// Package metrics exposes scheduler, rescheduler, OEE, and PDC runtime
// counters as Prometheus metrics, served over a plain /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Batch scheduler metrics
	SchedulerRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopfloor_scheduler_run_duration_seconds",
			Help:    "Time taken for a full batch schedule generation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	SchedulerItemsPlanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopfloor_scheduler_items_planned_total",
			Help: "Total number of planned schedule items written by the batch scheduler",
		},
	)

	SchedulerDiagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_scheduler_diagnostics_total",
			Help: "Total number of scheduler diagnostics by severity and code",
		},
		[]string{"severity", "code"},
	)

	// Dynamic rescheduler metrics
	RescheduleRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopfloor_reschedule_run_duration_seconds",
			Help:    "Time taken for a full dynamic reschedule run",
			Buckets: prometheus.DefBuckets,
		},
	)

	RescheduleVersionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopfloor_reschedule_versions_created_total",
			Help: "Total number of schedule versions created by the dynamic rescheduler",
		},
	)

	RescheduleCascadesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_reschedule_cascades_skipped_total",
			Help: "Total number of downstream cascade steps skipped, by reason",
		},
		[]string{"reason"},
	)

	// Live status engine metrics
	MachineStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_machine_status",
			Help: "Current machine status (1 = active) by machine and status",
		},
		[]string{"machine_id", "status"},
	)

	MachineDowntimeOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_machine_downtime_open",
			Help: "Whether a machine currently has an open downtime window (1 = open)",
		},
		[]string{"machine_id"},
	)

	// OEE metrics
	OEEAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_oee_availability_ratio",
			Help: "Most recently computed shift availability ratio, by machine",
		},
		[]string{"machine_id"},
	)

	OEEPerformance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_oee_performance_ratio",
			Help: "Most recently computed shift performance ratio, by machine",
		},
		[]string{"machine_id"},
	)

	OEEQuality = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_oee_quality_ratio",
			Help: "Most recently computed shift quality ratio, by machine",
		},
		[]string{"machine_id"},
	)

	OEEOverall = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_oee_overall_ratio",
			Help: "Most recently computed overall OEE ratio, by machine",
		},
		[]string{"machine_id"},
	)

	// PDC projector metrics
	PDCComputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopfloor_pdc_compute_duration_seconds",
			Help:    "Time taken to compute PDC estimates for all active orders",
			Buckets: prometheus.DefBuckets,
		},
	)

	PDCCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopfloor_pdc_cache_hits_total",
			Help: "Total number of PDC computations served from cache",
		},
	)

	PDCOrdersByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopfloor_pdc_orders_by_status",
			Help: "Number of active orders in each PDC status",
		},
		[]string{"status"},
	)

	// Device collector metrics
	CollectorSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_collector_samples_total",
			Help: "Total number of samples ingested by protocol",
		},
		[]string{"protocol"},
	)

	CollectorPollErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfloor_collector_poll_errors_total",
			Help: "Total number of poll errors by protocol",
		},
		[]string{"protocol"},
	)
)

func init() {
	prometheus.MustRegister(
		SchedulerRunDuration,
		SchedulerItemsPlanned,
		SchedulerDiagnostics,
		RescheduleRunDuration,
		RescheduleVersionsCreated,
		RescheduleCascadesSkipped,
		MachineStatus,
		MachineDowntimeOpen,
		OEEAvailability,
		OEEPerformance,
		OEEQuality,
		OEEOverall,
		PDCComputeDuration,
		PDCCacheHits,
		PDCOrdersByStatus,
		CollectorSamplesTotal,
		CollectorPollErrors,
	)
}

// Handler returns the Prometheus HTTP handler for a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times an operation and records its duration to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
