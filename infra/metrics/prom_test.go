package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

func testComputation() coremetrics.PlanComputation {
	return coremetrics.PlanComputation{
		Key:                model.PlanKey{BusinessID: "biz-1", PlanDate: "2026-04-10", Mode: model.ModeNightly},
		PlanID:             "plan-1",
		Jobs:               10,
		Assignments:        3,
		Unassigned:         2,
		UtilizationPercent: 61,
		ComputeTime:        40 * time.Millisecond,
		Time:               time.Now(),
	}
}

func TestPromSinkRecordsComputation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	if err := sink.RecordPlanComputation(testComputation()); err != nil {
		t.Fatalf("record: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"plan_computations_total", "plan_utilization_percent", "plan_unassigned_jobs"} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestPromSinkApplicationOutcomeLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	key := model.PlanKey{BusinessID: "biz-1", PlanDate: "2026-04-10", Mode: model.ModeEvent}
	if err := sink.RecordPlanApplication(coremetrics.PlanApplication{Key: key, Succeeded: 3}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordPlanApplication(coremetrics.PlanApplication{Key: key, Succeeded: 1, Failed: 2}); err != nil {
		t.Fatalf("record: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	outcomes := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "plan_applications_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" {
					outcomes[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if outcomes["applied"] != 1 || outcomes["failed"] != 1 {
		t.Errorf("unexpected outcome counts: %v", outcomes)
	}
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first sink: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second sink must reuse collectors: %v", err)
	}
}
