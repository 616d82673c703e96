package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	plansComputed    *prometheus.CounterVec
	computeDuration  *prometheus.HistogramVec
	jobsUnassigned   *prometheus.CounterVec
	writebackSuccess prometheus.Counter
	writebackFailure prometheus.Counter
	applyFailures    prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	plans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_plans_computed_total",
			Help: "Number of dispatch plans computed",
		},
		[]string{"mode"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_plan_compute_duration_seconds",
			Help:    "Duration of dispatch plan computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	unassigned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_unassigned_total",
			Help: "Number of jobs left without a crew after planning",
		},
		[]string{"mode"},
	)
	wbSuc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_writeback_success_total",
			Help: "Number of successful assignment writebacks",
		},
	)
	wbFail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_writeback_failure_total",
			Help: "Number of failed assignment writebacks",
		},
	)
	appFail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_plan_apply_failures_total",
			Help: "Number of plan apply passes that ended with errors",
		},
	)
	return plans, dur, unassigned, wbSuc, wbFail, appFail
}

func init() {
	plansComputed, computeDuration, jobsUnassigned, writebackSuccess, writebackFailure, applyFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(plansComputed, computeDuration, jobsUnassigned, writebackSuccess, writebackFailure, applyFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	plansComputed, computeDuration, jobsUnassigned, writebackSuccess, writebackFailure, applyFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
