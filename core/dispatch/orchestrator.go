package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/events"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/fieldservice"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/logger"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planner"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planstore"
	"github.com/GoToMarketNow/lawnflow-dispatch/internal/eventbus"
)

// Orchestrator owns the dispatch pipeline: it debounces incoming triggers,
// recomputes plans on a single worker and applies them on demand.
type Orchestrator struct {
	cfg     Config
	planner *planner.Planner
	client  fieldservice.Client
	plans   planstore.PlanStore
	evstore planstore.EventStore
	sink    metrics.PlanSink
	bus     *eventbus.Bus
	log     logger.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	// procMu serializes Process and ApplyPlan so a plan is never applied
	// while it is being recomputed.
	procMu sync.Mutex

	queue chan model.PlanKey
	now   func() time.Time
}

// New creates an orchestrator. planner, client and plans are required;
// evstore, sink, bus and log may be nil.
func New(cfg Config, pl *planner.Planner, client fieldservice.Client, plans planstore.PlanStore, evstore planstore.EventStore, sink metrics.PlanSink, bus *eventbus.Bus, log logger.Logger) (*Orchestrator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pl == nil {
		return nil, fmt.Errorf("dispatch: planner is required")
	}
	if client == nil {
		return nil, fmt.Errorf("dispatch: field-service client is required")
	}
	if plans == nil {
		return nil, fmt.Errorf("dispatch: plan store is required")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Orchestrator{
		cfg:     cfg,
		planner: pl,
		client:  client,
		plans:   plans,
		evstore: evstore,
		sink:    sink,
		bus:     bus,
		log:     log,
		timers:  make(map[string]*time.Timer),
		queue:   make(chan model.PlanKey, cfg.QueueSize),
		now:     time.Now,
	}, nil
}

// EnqueueDispatch registers a trigger. Repeated triggers for the same plan
// key within the debounce window collapse into a single recomputation.
func (o *Orchestrator) EnqueueDispatch(req Request) error {
	key, err := req.Key()
	if err != nil {
		return err
	}
	id := key.String()
	delay := time.Duration(o.cfg.DebounceSeconds) * time.Second

	o.mu.Lock()
	if t, ok := o.timers[id]; ok {
		t.Stop()
	}
	o.timers[id] = time.AfterFunc(delay, func() {
		o.mu.Lock()
		delete(o.timers, id)
		o.mu.Unlock()
		select {
		case o.queue <- key:
		default:
			o.log.Warnf("dispatch queue full, dropping trigger for %s", id)
		}
	})
	o.mu.Unlock()

	o.log.Debugw("dispatch trigger enqueued", map[string]any{"key": id, "actor": req.Actor})
	if o.bus != nil {
		o.bus.Publish(events.TriggerEvent{Key: key, Actor: req.Actor})
	}
	return nil
}

// Run consumes the trigger queue until ctx is cancelled. Plans are computed
// one at a time in trigger order.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-o.queue:
			if _, err := o.Process(ctx, key); err != nil {
				o.log.Errorf("process %s: %v", key.String(), err)
			}
		}
	}
}

// Process recomputes the plan for key and persists the new snapshot. An
// already applied plan is returned unchanged.
func (o *Orchestrator) Process(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error) {
	o.procMu.Lock()
	defer o.procMu.Unlock()
	return o.process(ctx, key)
}

func (o *Orchestrator) process(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error) {
	existing, err := o.plans.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, planstore.ErrNotFound) {
		return nil, fmt.Errorf("load plan %s: %w", key.String(), err)
	}
	if existing != nil && existing.Status == model.PlanApplied {
		o.log.Infof("plan %s already applied, skipping recompute", existing.ID)
		return existing, nil
	}

	planDate, err := time.Parse(model.PlanDateLayout, key.PlanDate)
	if err != nil {
		return nil, fmt.Errorf("parse plan date %q: %w", key.PlanDate, err)
	}

	jobs, err := o.client.GetScheduledJobsForDate(ctx, key.BusinessID, planDate)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs for %s: %w", key.String(), err)
	}
	crews, err := o.client.ListCrews(ctx, key.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("fetch crews for %s: %w", key.String(), err)
	}
	affinities, err := o.client.ListZoneAffinities(ctx, key.BusinessID)
	if err != nil {
		// Zone affinities only bias scoring. Plan without them.
		o.log.Warnf("fetch zone affinities for %s: %v", key.String(), err)
		affinities = nil
	}

	start := o.now()
	result := o.planner.ComputePlan(jobs, crews, planDate, affinities)
	elapsed := o.now().Sub(start)

	plan := o.buildPlan(key, existing, result, elapsed)
	if err := o.plans.Upsert(ctx, plan); err != nil {
		return nil, fmt.Errorf("persist plan %s: %w", plan.ID, err)
	}

	o.appendEvent(ctx, model.PlanEvent{
		ID:     uuid.NewString(),
		PlanID: plan.ID,
		Type:   model.EventComputed,
		Actor:  string(key.Mode),
		Details: map[string]any{
			"assignments": len(plan.Assignments),
			"unassigned":  len(plan.UnassignedJobs),
			"compute_ms":  plan.ComputeTimeMs,
		},
		Timestamp: o.now().UTC(),
	})

	plansComputed.WithLabelValues(string(key.Mode)).Inc()
	computeDuration.WithLabelValues(string(key.Mode)).Observe(elapsed.Seconds())
	jobsUnassigned.WithLabelValues(string(key.Mode)).Add(float64(len(plan.UnassignedJobs)))
	if err := o.sink.RecordPlanComputation(metrics.PlanComputation{
		Key:                key,
		PlanID:             plan.ID,
		Jobs:               len(jobs),
		Assignments:        len(plan.Assignments),
		Unassigned:         len(plan.UnassignedJobs),
		UtilizationPercent: plan.UtilizationPercent,
		ComputeTime:        elapsed,
		Time:               o.now().UTC(),
	}); err != nil {
		o.log.Warnf("record plan computation: %v", err)
	}
	if o.bus != nil {
		o.bus.Publish(events.PlanComputedEvent{
			Key:         key,
			PlanID:      plan.ID,
			Assigned:    plan.StopCount(),
			Unassigned:  len(plan.UnassignedJobs),
			ComputeTime: elapsed,
		})
	}
	o.log.Infof("plan %s computed for %s: %d assignments, %d stops, %d unassigned in %dms",
		plan.ID, key.String(), len(plan.Assignments), plan.StopCount(), len(plan.UnassignedJobs), plan.ComputeTimeMs)

	enabled, err := o.client.CheckAutoDispatchEnabled(ctx, key.BusinessID)
	if err != nil {
		o.log.Warnf("check auto-dispatch for %s: %v", key.BusinessID, err)
		return plan, nil
	}
	if enabled {
		if _, err := o.apply(ctx, plan, "auto-dispatch"); err != nil {
			o.log.Errorf("auto-apply plan %s: %v", plan.ID, err)
		}
	}
	return plan, nil
}

// buildPlan turns a planner result into a persistable snapshot. Recomputing
// an existing draft keeps its plan ID and creation time.
func (o *Orchestrator) buildPlan(key model.PlanKey, existing *model.DispatchPlan, result planner.Result, elapsed time.Duration) *model.DispatchPlan {
	now := o.now().UTC()
	plan := &model.DispatchPlan{
		ID:                 uuid.NewString(),
		Key:                key,
		Status:             model.PlanDraft,
		Assignments:        result.Assignments,
		UnassignedJobs:     result.UnassignedJobs,
		Warnings:           result.Warnings,
		TotalDriveMinutes:  result.TotalDriveMinutes,
		UtilizationPercent: result.OverallUtilizationPct,
		AlgorithmVersion:   result.AlgorithmVersion,
		ComputeTimeMs:      elapsed.Milliseconds(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if existing != nil {
		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
	}
	return plan
}

func (o *Orchestrator) appendEvent(ctx context.Context, ev model.PlanEvent) {
	if o.evstore == nil {
		return
	}
	if err := o.evstore.Append(ctx, ev); err != nil {
		o.log.Warnf("append plan event %s: %v", ev.Type, err)
	}
}

// PlanByKey returns the stored plan for key.
func (o *Orchestrator) PlanByKey(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error) {
	return o.plans.GetByKey(ctx, key)
}

// PlanEvents returns the recorded events for a plan, oldest first.
func (o *Orchestrator) PlanEvents(ctx context.Context, planID string) ([]model.PlanEvent, error) {
	if o.evstore == nil {
		return nil, nil
	}
	return o.evstore.ListByPlan(ctx, planID)
}
