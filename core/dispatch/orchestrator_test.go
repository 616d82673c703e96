package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/fieldservice"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planner"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planstore"
)

var dispatchDate = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

func ptr(f float64) *float64 { return &f }

func testKey() model.PlanKey {
	return model.PlanKey{
		BusinessID: "biz-1",
		PlanDate:   dispatchDate.Format(model.PlanDateLayout),
		Mode:       model.ModeEvent,
	}
}

func fixtureClient() *fieldservice.MockClient {
	m := fieldservice.NewMockClient()
	m.Crews = []model.Crew{
		{
			ID:                    "c1",
			ExternalID:            "ext-c1",
			Name:                  "North Crew",
			IsActive:              true,
			HomeBaseLat:           ptr(40.70),
			HomeBaseLng:           ptr(-74.00),
			AvailabilityStart:     "07:00",
			AvailabilityEnd:       "17:00",
			Capacity:              8,
			EquipmentCapabilities: []string{"mower", "blower", "trailer"},
			MemberCount:           2,
		},
	}
	m.Jobs = []model.Job{
		{
			ID:                       "j1",
			ExternalID:               "ext-j1",
			ServiceType:              "Weekly Mowing",
			Lat:                      ptr(40.71),
			Lng:                      ptr(-74.01),
			ScheduledAt:              dispatchDate.Add(9 * time.Hour),
			EstimatedDurationMinutes: 45,
		},
		{
			ID:                       "j2",
			ExternalID:               "ext-j2",
			ServiceType:              "Weekly Mowing",
			Lat:                      ptr(40.72),
			Lng:                      ptr(-74.02),
			ScheduledAt:              dispatchDate.Add(11 * time.Hour),
			EstimatedDurationMinutes: 30,
		},
	}
	return m
}

func newTestOrchestrator(t *testing.T, client *fieldservice.MockClient) (*Orchestrator, *planstore.MemoryStore) {
	t.Helper()
	pl, err := planner.New(planner.Config{}, nil, nil)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}
	store := planstore.NewMemoryStore()
	o, err := New(Config{DebounceSeconds: 1}, pl, client, store, store, nil, nil, nil)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	return o, store
}

func TestProcessComputesAndPersists(t *testing.T) {
	client := fixtureClient()
	o, store := newTestOrchestrator(t, client)
	ctx := context.Background()

	plan, err := o.Process(ctx, testKey())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if plan.Status != model.PlanDraft {
		t.Errorf("status = %s, want draft", plan.Status)
	}
	if plan.StopCount() != 2 {
		t.Errorf("stop count = %d, want 2", plan.StopCount())
	}
	if plan.AlgorithmVersion != planner.AlgorithmVersion {
		t.Errorf("algorithm version = %q", plan.AlgorithmVersion)
	}

	stored, err := store.GetByKey(ctx, testKey())
	if err != nil {
		t.Fatalf("stored plan: %v", err)
	}
	if stored.ID != plan.ID {
		t.Errorf("stored id %s != returned id %s", stored.ID, plan.ID)
	}

	evs, err := store.ListByPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evs) != 1 || evs[0].Type != model.EventComputed {
		t.Errorf("expected one computed event, got %+v", evs)
	}
}

func TestProcessAppliedPlanShortCircuits(t *testing.T) {
	client := fixtureClient()
	o, store := newTestOrchestrator(t, client)
	ctx := context.Background()

	applied := &model.DispatchPlan{
		ID:     "frozen",
		Key:    testKey(),
		Status: model.PlanApplied,
	}
	if err := store.Upsert(ctx, applied); err != nil {
		t.Fatalf("seed: %v", err)
	}

	plan, err := o.Process(ctx, testKey())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if plan.ID != "frozen" || plan.Status != model.PlanApplied {
		t.Errorf("applied plan must be returned unchanged, got %+v", plan)
	}
	if client.JobCalls != 0 {
		t.Errorf("no provider calls expected, got %d", client.JobCalls)
	}
}

func TestProcessReusesPlanIDOnRecompute(t *testing.T) {
	client := fixtureClient()
	o, _ := newTestOrchestrator(t, client)
	ctx := context.Background()

	first, err := o.Process(ctx, testKey())
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := o.Process(ctx, testKey())
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("recompute must keep plan id: %s vs %s", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("recompute must keep creation time")
	}
}

func TestProcessAffinityErrorIsNonFatal(t *testing.T) {
	client := fixtureClient()
	client.AffinitiesErr = context.DeadlineExceeded
	o, _ := newTestOrchestrator(t, client)

	plan, err := o.Process(context.Background(), testKey())
	if err != nil {
		t.Fatalf("process must tolerate affinity failures: %v", err)
	}
	if plan.StopCount() != 2 {
		t.Errorf("stop count = %d, want 2", plan.StopCount())
	}
}

func TestProcessAutoApplies(t *testing.T) {
	client := fixtureClient()
	client.AutoDispatch = true
	o, store := newTestOrchestrator(t, client)
	ctx := context.Background()

	plan, err := o.Process(ctx, testKey())
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, err := store.GetByID(ctx, plan.ID)
	if err != nil {
		t.Fatalf("stored: %v", err)
	}
	if stored.Status != model.PlanApplied {
		t.Errorf("status = %s, want applied", stored.Status)
	}
	if got := len(client.RecordedUpdates()); got != 2 {
		t.Errorf("writebacks = %d, want 2", got)
	}
}

func TestEnqueueDispatchDebounceCollapses(t *testing.T) {
	client := fixtureClient()
	o, _ := newTestOrchestrator(t, client)

	req := Request{BusinessID: "biz-1", PlanDate: dispatchDate, Mode: model.ModeEvent, Actor: "webhook"}
	for i := 0; i < 5; i++ {
		if err := o.EnqueueDispatch(req); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	other := req
	other.Mode = model.ModeNightly
	if err := o.EnqueueDispatch(other); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	o.mu.Lock()
	pending := len(o.timers)
	o.mu.Unlock()
	if pending != 2 {
		t.Errorf("pending timers = %d, want 2 (one per key)", pending)
	}
}

func TestEnqueueDispatchValidation(t *testing.T) {
	o, _ := newTestOrchestrator(t, fixtureClient())

	cases := []Request{
		{PlanDate: dispatchDate, Mode: model.ModeEvent},
		{BusinessID: "biz-1", Mode: model.ModeEvent},
		{BusinessID: "biz-1", PlanDate: dispatchDate, Mode: "hourly"},
	}
	for i, req := range cases {
		if err := o.EnqueueDispatch(req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestRunProcessesQueuedTrigger(t *testing.T) {
	client := fixtureClient()
	o, store := newTestOrchestrator(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	req := Request{BusinessID: "biz-1", PlanDate: dispatchDate, Mode: model.ModeEvent, Actor: "webhook"}
	if err := o.EnqueueDispatch(req); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if plan, err := store.GetByKey(context.Background(), testKey()); err == nil && plan != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("plan was never computed from the queued trigger")
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.DebounceSeconds != 5 || c.QueueSize != 64 || c.ApplyTimeoutSeconds != 10 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	bad := Config{DebounceSeconds: -1, QueueSize: 1, ApplyTimeoutSeconds: 1}
	if err := bad.Validate(); err == nil {
		t.Error("negative debounce must fail")
	}
}
