package model

import "time"

// PlanStatus tracks the dispatch-plan lifecycle.
type PlanStatus string

const (
	PlanDraft        PlanStatus = "draft"
	PlanPendingApply PlanStatus = "pending_apply"
	PlanApplied      PlanStatus = "applied"
	PlanFailed       PlanStatus = "failed"

	// PlanRejected is reachable only through external or manual action;
	// this core never sets it.
	PlanRejected PlanStatus = "rejected"
)

// Mode distinguishes batch nightly runs from webhook-triggered ones.
type Mode string

const (
	ModeNightly Mode = "nightly"
	ModeEvent   Mode = "event"
)

// PlanDateLayout is the calendar-day form used in plan keys.
const PlanDateLayout = "2006-01-02"

// PlanKey uniquely identifies one dispatch plan: one business, one calendar
// day, one mode.
type PlanKey struct {
	BusinessID string `json:"business_id"`
	PlanDate   string `json:"plan_date"`
	Mode       Mode   `json:"mode"`
}

func (k PlanKey) String() string {
	return k.BusinessID + "/" + k.PlanDate + "/" + string(k.Mode)
}

// RouteStop is one ordered stop in a crew's day route.
type RouteStop struct {
	JobID             string    `json:"job_id"`
	ExternalJobID     string    `json:"external_job_id"`
	Order             int       `json:"order"`
	ArriveBy          time.Time `json:"arrive_by"`
	DepartBy          time.Time `json:"depart_by"`
	DriveMinsFromPrev float64   `json:"drive_mins_from_prev"`
	ServiceMins       int       `json:"service_mins"`
}

// CrewAssignment is the complete route for one crew. Assignments are produced
// fresh on every planning run and never partially mutated; a new plan
// supersedes the previous draft in full.
type CrewAssignment struct {
	CrewID             string      `json:"crew_id"`
	CrewExternalID     string      `json:"crew_external_id"`
	Stops              []RouteStop `json:"stops"`
	TotalDriveMins     float64     `json:"total_drive_mins"`
	TotalServiceMins   float64     `json:"total_service_mins"`
	UtilizationPercent int         `json:"utilization_percent"`
}

// UnassignedJob records a job the planner could not place and why.
type UnassignedJob struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

// DispatchPlan is the persisted unit of planning work. One plan exists per
// key at a time; recomputation fully replaces the stored row unless the plan
// is already applied.
type DispatchPlan struct {
	ID                 string           `json:"id"`
	Key                PlanKey          `json:"key"`
	Status             PlanStatus       `json:"status"`
	Assignments        []CrewAssignment `json:"assignments"`
	UnassignedJobs     []UnassignedJob  `json:"unassigned_jobs"`
	Warnings           []string         `json:"warnings"`
	TotalDriveMinutes  float64          `json:"total_drive_minutes"`
	UtilizationPercent int              `json:"utilization_percent"`
	AlgorithmVersion   string           `json:"algorithm_version"`
	ComputeTimeMs      int64            `json:"compute_time_ms"`
	AppliedAt          *time.Time       `json:"applied_at"`
	ApplyError         string           `json:"apply_error"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// StopCount returns the number of stops across all assignments.
func (p DispatchPlan) StopCount() int {
	n := 0
	for _, a := range p.Assignments {
		n += len(a.Stops)
	}
	return n
}

// PlanEventType classifies audit trail entries.
type PlanEventType string

const (
	EventComputed PlanEventType = "computed"
	EventApplied  PlanEventType = "applied"
	EventFailed   PlanEventType = "failed"
)

// PlanEvent is one append-only audit trail entry. Events are never mutated or
// deleted.
type PlanEvent struct {
	ID        string         `json:"id"`
	PlanID    string         `json:"plan_id"`
	Type      PlanEventType  `json:"event_type"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}
