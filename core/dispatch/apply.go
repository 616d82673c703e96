package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/events"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// StopError describes one failed writeback.
type StopError struct {
	JobID         string
	ExternalJobID string
	Err           string
}

// ApplyResult summarizes one apply pass.
type ApplyResult struct {
	PlanID         string
	AlreadyApplied bool
	Succeeded      int
	Failed         []StopError
	SkippedCrews   int
}

// ApplyPlan pushes the plan's assignments to the field-service platform.
// Applying an already applied plan is a successful no-op.
func (o *Orchestrator) ApplyPlan(ctx context.Context, planID, actor string) (*ApplyResult, error) {
	o.procMu.Lock()
	defer o.procMu.Unlock()

	plan, err := o.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}
	return o.apply(ctx, plan, actor)
}

// apply runs the writeback pass. Callers must hold procMu.
func (o *Orchestrator) apply(ctx context.Context, plan *model.DispatchPlan, actor string) (*ApplyResult, error) {
	if plan.Status == model.PlanApplied {
		o.log.Infof("plan %s already applied, nothing to do", plan.ID)
		return &ApplyResult{PlanID: plan.ID, AlreadyApplied: true}, nil
	}

	plan.Status = model.PlanPendingApply
	plan.UpdatedAt = o.now().UTC()
	if err := o.plans.Upsert(ctx, plan); err != nil {
		return nil, fmt.Errorf("mark plan %s pending: %w", plan.ID, err)
	}

	start := o.now()
	res := &ApplyResult{PlanID: plan.ID}
	for _, asn := range plan.Assignments {
		if asn.CrewExternalID == "" {
			o.log.Warnf("crew %s has no external id, skipping %d stops", asn.CrewID, len(asn.Stops))
			res.SkippedCrews++
			continue
		}
		routeURL := ""
		if o.cfg.RouteBaseURL != "" {
			routeURL = RouteURL(o.cfg.RouteBaseURL, plan.ID, asn.CrewID)
		}
		for _, stop := range asn.Stops {
			if err := o.writeStop(ctx, asn.CrewExternalID, stop, routeURL); err != nil {
				writebackFailure.Inc()
				res.Failed = append(res.Failed, StopError{
					JobID:         stop.JobID,
					ExternalJobID: stop.ExternalJobID,
					Err:           err.Error(),
				})
				o.log.Warnf("writeback job %s: %v", stop.JobID, err)
				continue
			}
			writebackSuccess.Inc()
			res.Succeeded++
		}
	}

	now := o.now().UTC()
	plan.UpdatedAt = now
	if len(res.Failed) == 0 {
		plan.Status = model.PlanApplied
		plan.AppliedAt = &now
		plan.ApplyError = ""
		o.appendEvent(ctx, model.PlanEvent{
			ID:     uuid.NewString(),
			PlanID: plan.ID,
			Type:   model.EventApplied,
			Actor:  actor,
			Details: map[string]any{
				"stops":         res.Succeeded,
				"skipped_crews": res.SkippedCrews,
			},
			Timestamp: now,
		})
		if o.bus != nil {
			o.bus.Publish(events.PlanAppliedEvent{PlanID: plan.ID, Stops: res.Succeeded})
		}
	} else {
		plan.Status = model.PlanFailed
		plan.ApplyError = joinStopErrors(res.Failed)
		applyFailures.Inc()
		o.appendEvent(ctx, model.PlanEvent{
			ID:     uuid.NewString(),
			PlanID: plan.ID,
			Type:   model.EventFailed,
			Actor:  actor,
			Details: map[string]any{
				"succeeded": res.Succeeded,
				"failed":    len(res.Failed),
			},
			Timestamp: now,
		})
		if o.bus != nil {
			errs := make([]string, 0, len(res.Failed))
			for _, f := range res.Failed {
				errs = append(errs, f.Err)
			}
			o.bus.Publish(events.PlanFailedEvent{PlanID: plan.ID, Errors: errs})
		}
	}
	if err := o.plans.Upsert(ctx, plan); err != nil {
		return res, fmt.Errorf("persist plan %s after apply: %w", plan.ID, err)
	}

	if err := o.sink.RecordPlanApplication(metrics.PlanApplication{
		Key:       plan.Key,
		PlanID:    plan.ID,
		Succeeded: res.Succeeded,
		Failed:    len(res.Failed),
		Duration:  o.now().Sub(start),
		Time:      now,
	}); err != nil {
		o.log.Warnf("record plan application: %v", err)
	}
	o.log.Infof("plan %s apply finished: status=%s succeeded=%d failed=%d skipped_crews=%d",
		plan.ID, plan.Status, res.Succeeded, len(res.Failed), res.SkippedCrews)
	return res, nil
}

// writeStop pushes one stop to the platform under the configured timeout.
// No retries: a failed stop stays on the failure list.
func (o *Orchestrator) writeStop(ctx context.Context, crewExternalID string, stop model.RouteStop, routeURL string) error {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.ApplyTimeoutSeconds)*time.Second)
	defer cancel()

	if err := o.client.UpdateJobAssignment(callCtx, stop.ExternalJobID, crewExternalID, stop.ArriveBy); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if routeURL != "" {
		if err := o.client.SetRoutePlanURL(callCtx, stop.ExternalJobID, routeURL); err != nil {
			return fmt.Errorf("set route url: %w", err)
		}
	}
	return nil
}

// RouteURL builds the crew-facing route link for a plan.
func RouteURL(base, planID, crewID string) string {
	return strings.TrimRight(base, "/") + "/dispatch/route/" + planID + "/" + crewID
}

func joinStopErrors(errs []StopError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.JobID+": "+e.Err)
	}
	return strings.Join(parts, "; ")
}
