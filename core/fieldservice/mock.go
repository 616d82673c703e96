package fieldservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// AssignmentUpdate records one writeback call received by the mock.
type AssignmentUpdate struct {
	ExternalJobID  string
	ExternalCrewID string
	ArriveBy       time.Time
}

// MockClient is an in-memory Client used by tests and the mock provider
// backend. Fixtures are set directly on the struct before use.
type MockClient struct {
	mu sync.Mutex

	Jobs            []model.Job
	Crews           []model.Crew
	Affinities      []model.ZoneAffinity
	AutoDispatch    bool
	JobsErr         error
	CrewsErr        error
	AffinitiesErr   error
	AutoDispatchErr error

	// FailJobs maps external job IDs to the error their writeback returns.
	FailJobs map[string]error

	Updates   []AssignmentUpdate
	RouteURLs map[string]string

	JobCalls      int
	CrewCalls     int
	AffinityCalls int
	UpdateCalls   int
	RouteCalls    int
}

// NewMockClient creates an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{RouteURLs: make(map[string]string)}
}

func (m *MockClient) GetScheduledJobsForDate(ctx context.Context, businessID string, date time.Time) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JobCalls++
	if m.JobsErr != nil {
		return nil, m.JobsErr
	}
	out := make([]model.Job, len(m.Jobs))
	copy(out, m.Jobs)
	return out, nil
}

func (m *MockClient) CheckAutoDispatchEnabled(ctx context.Context, businessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AutoDispatchErr != nil {
		return false, m.AutoDispatchErr
	}
	return m.AutoDispatch, nil
}

func (m *MockClient) ListCrews(ctx context.Context, businessID string) ([]model.Crew, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CrewCalls++
	if m.CrewsErr != nil {
		return nil, m.CrewsErr
	}
	out := make([]model.Crew, len(m.Crews))
	copy(out, m.Crews)
	return out, nil
}

func (m *MockClient) ListZoneAffinities(ctx context.Context, businessID string) ([]model.ZoneAffinity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AffinityCalls++
	if m.AffinitiesErr != nil {
		return nil, m.AffinitiesErr
	}
	out := make([]model.ZoneAffinity, len(m.Affinities))
	copy(out, m.Affinities)
	return out, nil
}

func (m *MockClient) UpdateJobAssignment(ctx context.Context, externalJobID, externalCrewID string, arriveBy time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.FailJobs[externalJobID]; ok {
		if err == nil {
			err = fmt.Errorf("writeback rejected for %s", externalJobID)
		}
		return err
	}
	m.Updates = append(m.Updates, AssignmentUpdate{
		ExternalJobID:  externalJobID,
		ExternalCrewID: externalCrewID,
		ArriveBy:       arriveBy,
	})
	return nil
}

func (m *MockClient) SetRoutePlanURL(ctx context.Context, externalJobID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RouteCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.FailJobs[externalJobID]; ok && err != nil {
		return err
	}
	if m.RouteURLs == nil {
		m.RouteURLs = make(map[string]string)
	}
	m.RouteURLs[externalJobID] = url
	return nil
}

// RecordedUpdates returns a copy of the received assignment updates.
func (m *MockClient) RecordedUpdates() []AssignmentUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AssignmentUpdate, len(m.Updates))
	copy(out, m.Updates)
	return out
}
