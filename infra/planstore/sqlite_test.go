package planstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
	coreplanstore "github.com/GoToMarketNow/lawnflow-dispatch/core/planstore"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePlan(id string) *model.DispatchPlan {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.DispatchPlan{
		ID: id,
		Key: model.PlanKey{
			BusinessID: "biz-1",
			PlanDate:   "2026-04-10",
			Mode:       model.ModeNightly,
		},
		Status: model.PlanDraft,
		Assignments: []model.CrewAssignment{
			{
				CrewID:         "c1",
				CrewExternalID: "ext-c1",
				Stops: []model.RouteStop{
					{JobID: "j1", ExternalJobID: "ext-j1", Order: 1, ArriveBy: now, DepartBy: now.Add(45 * time.Minute), ServiceMins: 45},
				},
				TotalServiceMins: 45,
			},
		},
		Warnings:         []string{"1 jobs could not be assigned"},
		UnassignedJobs:   []model.UnassignedJob{{JobID: "j2", Reason: "no coordinates"}},
		AlgorithmVersion: "greedy-v1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := samplePlan("plan-1")
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetByKey(ctx, want.Key)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status {
		t.Errorf("got %s/%s, want %s/%s", got.ID, got.Status, want.ID, want.Status)
	}
	if len(got.Assignments) != 1 || got.Assignments[0].Stops[0].JobID != "j1" {
		t.Errorf("assignments did not survive the round trip: %+v", got.Assignments)
	}
	if len(got.UnassignedJobs) != 1 || got.UnassignedJobs[0].Reason != "no coordinates" {
		t.Errorf("unassigned jobs did not survive: %+v", got.UnassignedJobs)
	}

	byID, err := s.GetByID(ctx, "plan-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Key != want.Key {
		t.Errorf("key mismatch: %+v", byID.Key)
	}
}

func TestSQLiteUpsertReplacesByKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, samplePlan("plan-1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := samplePlan("plan-2")
	second.Status = model.PlanApplied
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetByKey(ctx, second.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "plan-2" || got.Status != model.PlanApplied {
		t.Errorf("key must hold exactly one plan, got %s/%s", got.ID, got.Status)
	}
	if _, err := s.GetByID(ctx, "plan-1"); !errors.Is(err, coreplanstore.ErrNotFound) {
		t.Errorf("replaced plan must be gone, got %v", err)
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetByID(context.Background(), "nope"); !errors.Is(err, coreplanstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteEventsAppendOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	evs := []model.PlanEvent{
		{ID: "e1", PlanID: "plan-1", Type: model.EventComputed, Actor: "nightly", Timestamp: now},
		{ID: "e2", PlanID: "plan-1", Type: model.EventApplied, Actor: "auto-dispatch", Timestamp: now, Details: map[string]any{"stops": 3}},
		{ID: "e3", PlanID: "plan-9", Type: model.EventComputed, Timestamp: now},
	}
	for _, ev := range evs {
		if err := s.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.ListByPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Errorf("unexpected events: %+v", got)
	}
	if got[1].Actor != "auto-dispatch" {
		t.Errorf("actor lost: %+v", got[1])
	}
}
