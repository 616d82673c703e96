package metrics

import coremetrics "github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"

// MultiSink fans plan records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.PlanSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.PlanSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlanComputation forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPlanComputation(rec coremetrics.PlanComputation) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanComputation(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlanApplication forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPlanApplication(rec coremetrics.PlanApplication) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlanApplication(rec); err != nil {
			return err
		}
	}
	return nil
}
