package planner

import (
	"fmt"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/geo"
)

// Config exposes the scoring weights and speed assumptions as tunable
// settings. The defaults reproduce the production values, which were chosen
// empirically rather than derived.
type Config struct {
	// DriveWeight multiplies the estimated drive minutes to a candidate
	// job in the assignment score.
	DriveWeight float64 `json:"drive_weight"`

	// UtilizationWeight penalizes crews that already carry a large share
	// of their day, keeping crews roughly evenly loaded.
	UtilizationWeight float64 `json:"utilization_weight"`

	// PrimaryZoneBonus and BackupZoneBonus are subtracted from the score
	// when the job falls inside one of the crew's zones.
	PrimaryZoneBonus float64 `json:"primary_zone_bonus"`
	BackupZoneBonus  float64 `json:"backup_zone_bonus"`

	// RouteSpeedKmh is the assumed average speed for route legs;
	// PointToPointSpeedKmh is used for ad-hoc travel-time estimates.
	RouteSpeedKmh        float64 `json:"route_speed_kmh"`
	PointToPointSpeedKmh float64 `json:"point_to_point_speed_kmh"`

	// FallbackDriveMinutes is the conservative estimate used when a leg is
	// missing from the distance matrix.
	FallbackDriveMinutes float64 `json:"fallback_drive_minutes"`
}

// SetDefaults applies the production defaults to unset fields.
func (c *Config) SetDefaults() {
	if c.DriveWeight == 0 {
		c.DriveWeight = 1.5
	}
	if c.UtilizationWeight == 0 {
		c.UtilizationWeight = 10
	}
	if c.PrimaryZoneBonus == 0 {
		c.PrimaryZoneBonus = 20
	}
	if c.BackupZoneBonus == 0 {
		c.BackupZoneBonus = 10
	}
	if c.RouteSpeedKmh == 0 {
		c.RouteSpeedKmh = geo.DefaultRouteSpeedKmh
	}
	if c.PointToPointSpeedKmh == 0 {
		c.PointToPointSpeedKmh = geo.DefaultPointToPointSpeedKmh
	}
	if c.FallbackDriveMinutes == 0 {
		c.FallbackDriveMinutes = 45
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.DriveWeight < 0 || c.UtilizationWeight < 0 {
		return fmt.Errorf("planner: weights must be non-negative")
	}
	if c.PrimaryZoneBonus < 0 || c.BackupZoneBonus < 0 {
		return fmt.Errorf("planner: zone bonuses must be non-negative")
	}
	if c.RouteSpeedKmh <= 0 || c.PointToPointSpeedKmh <= 0 {
		return fmt.Errorf("planner: average speeds must be positive")
	}
	if c.FallbackDriveMinutes <= 0 {
		return fmt.Errorf("planner: fallback drive minutes must be positive")
	}
	return nil
}
