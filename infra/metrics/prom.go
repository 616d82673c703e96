// Package metrics provides the observability sink implementations: Prometheus
// collectors, InfluxDB line-protocol events and a fan-out combinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
)

// PromSink records planning outcomes in Prometheus metrics.
type PromSink struct {
	computations *prometheus.CounterVec
	utilization  *prometheus.GaugeVec
	unassigned   *prometheus.GaugeVec
	applications *prometheus.CounterVec
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
// The Prometheus server should be started separately.
func NewPromSink() (coremetrics.PlanSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.PlanSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	computations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_computations_total",
		Help: "Total number of plan computations",
	}, []string{"business_id", "mode"})
	utilization := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plan_utilization_percent",
		Help: "Fleet utilization of the latest plan",
	}, []string{"business_id", "mode"})
	unassigned := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plan_unassigned_jobs",
		Help: "Unassigned jobs in the latest plan",
	}, []string{"business_id", "mode"})
	applications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_applications_total",
		Help: "Total number of plan apply passes",
	}, []string{"business_id", "mode", "outcome"})

	if err := reg.Register(computations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			computations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(utilization); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			utilization = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(unassigned); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			unassigned = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(applications); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			applications = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		computations: computations,
		utilization:  utilization,
		unassigned:   unassigned,
		applications: applications,
	}, nil
}

// RecordPlanComputation increments the computation counter and refreshes the
// per-business gauges.
func (s *PromSink) RecordPlanComputation(rec coremetrics.PlanComputation) error {
	labels := []string{rec.Key.BusinessID, string(rec.Key.Mode)}
	s.computations.WithLabelValues(labels...).Inc()
	s.utilization.WithLabelValues(labels...).Set(float64(rec.UtilizationPercent))
	s.unassigned.WithLabelValues(labels...).Set(float64(rec.Unassigned))
	return nil
}

// RecordPlanApplication counts the apply pass under its outcome label.
func (s *PromSink) RecordPlanApplication(rec coremetrics.PlanApplication) error {
	outcome := "applied"
	if rec.Failed > 0 {
		outcome = "failed"
	}
	s.applications.WithLabelValues(rec.Key.BusinessID, string(rec.Key.Mode), outcome).Inc()
	return nil
}
