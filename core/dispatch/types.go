// Package dispatch contains the orchestrator that debounces triggers,
// computes dispatch plans and applies them to the field-service platform.
package dispatch

import (
	"fmt"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// Request asks for a plan recomputation for one business and date.
type Request struct {
	BusinessID string
	PlanDate   time.Time
	Mode       model.Mode
	Actor      string
}

// Key validates the request and returns its plan key.
func (r Request) Key() (model.PlanKey, error) {
	if r.BusinessID == "" {
		return model.PlanKey{}, fmt.Errorf("dispatch: business id is required")
	}
	if r.PlanDate.IsZero() {
		return model.PlanKey{}, fmt.Errorf("dispatch: plan date is required")
	}
	switch r.Mode {
	case model.ModeNightly, model.ModeEvent:
	default:
		return model.PlanKey{}, fmt.Errorf("dispatch: unknown mode %q", r.Mode)
	}
	return model.PlanKey{
		BusinessID: r.BusinessID,
		PlanDate:   r.PlanDate.Format(model.PlanDateLayout),
		Mode:       r.Mode,
	}, nil
}

// Config holds the orchestrator tuning knobs.
type Config struct {
	DebounceSeconds     int    `json:"debounce_seconds"`
	QueueSize           int    `json:"queue_size"`
	ApplyTimeoutSeconds int    `json:"apply_timeout_seconds"`
	RouteBaseURL        string `json:"route_base_url"`
}

// SetDefaults fills zero values with production defaults.
func (c *Config) SetDefaults() {
	if c.DebounceSeconds == 0 {
		c.DebounceSeconds = 5
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.ApplyTimeoutSeconds == 0 {
		c.ApplyTimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DebounceSeconds < 0 {
		return fmt.Errorf("dispatch: debounce_seconds must not be negative")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("dispatch: queue_size must be positive")
	}
	if c.ApplyTimeoutSeconds <= 0 {
		return fmt.Errorf("dispatch: apply_timeout_seconds must be positive")
	}
	return nil
}
