// Package fieldservice defines the contracts for the external field-service
// platform that owns jobs, crews and zone affinities.
package fieldservice

import (
	"context"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// JobSource reads scheduling data for a business.
type JobSource interface {
	// GetScheduledJobsForDate returns the jobs scheduled on the given
	// calendar date.
	GetScheduledJobsForDate(ctx context.Context, businessID string, date time.Time) ([]model.Job, error)
	// CheckAutoDispatchEnabled reports whether the business opted into
	// automatic plan application.
	CheckAutoDispatchEnabled(ctx context.Context, businessID string) (bool, error)
}

// CrewSource reads crew rosters and their zone affinities.
type CrewSource interface {
	ListCrews(ctx context.Context, businessID string) ([]model.Crew, error)
	ListZoneAffinities(ctx context.Context, businessID string) ([]model.ZoneAffinity, error)
}

// Writeback pushes assignment decisions back to the platform. Calls are
// best-effort: a failure affects only the stop it belongs to.
type Writeback interface {
	UpdateJobAssignment(ctx context.Context, externalJobID, externalCrewID string, arriveBy time.Time) error
	SetRoutePlanURL(ctx context.Context, externalJobID, url string) error
}

// Client bundles every provider capability the orchestrator needs.
type Client interface {
	JobSource
	CrewSource
	Writeback
}
