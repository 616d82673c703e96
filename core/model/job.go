package model

import "time"

// Job is an immutable snapshot of one schedulable unit of work for one day.
// Jobs are fetched fresh from the field-service provider at planning time and
// never mutated by this core.
type Job struct {
	ID              string     `json:"id"`
	ExternalID      string     `json:"external_id"`
	ServiceType     string     `json:"service_type"`
	PropertyAddress string     `json:"property_address"`
	Lat             *float64   `json:"lat"`
	Lng             *float64   `json:"lng"`
	ScheduledAt     time.Time  `json:"scheduled_at"`

	// EstimatedDurationMinutes is the on-site service time.
	EstimatedDurationMinutes int `json:"estimated_duration_minutes"`
}

// HasCoordinates reports whether the job can participate in matrix routing.
// Jobs without coordinates are unroutable.
func (j Job) HasCoordinates() bool { return j.Lat != nil && j.Lng != nil }
