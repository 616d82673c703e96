package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Crew represents a schedulable work crew. Only active crews participate in
// planning.
type Crew struct {
	ID          string   `json:"id"`
	ExternalID  string   `json:"external_id"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"is_active"`
	HomeBaseLat *float64 `json:"home_base_lat"`
	HomeBaseLng *float64 `json:"home_base_lng"`

	// AvailabilityStart and AvailabilityEnd are local times of day in
	// "HH:MM" form bounding the crew's working window.
	AvailabilityStart string `json:"availability_start"`
	AvailabilityEnd   string `json:"availability_end"`

	// Capacity is the maximum number of stops per day. Zero means
	// unlimited.
	Capacity int `json:"capacity"`

	// EquipmentCapabilities is the set of equipment tags the crew carries.
	EquipmentCapabilities []string `json:"equipment_capabilities"`

	MemberCount int `json:"member_count"`
}

// HasHomeBase reports whether the crew's home base can seed matrix routing.
func (c Crew) HasHomeBase() bool { return c.HomeBaseLat != nil && c.HomeBaseLng != nil }

// AvailableMinutes returns the length of the crew's working window.
func (c Crew) AvailableMinutes() (int, error) {
	start, err := ParseClock(c.AvailabilityStart)
	if err != nil {
		return 0, fmt.Errorf("availability start: %w", err)
	}
	end, err := ParseClock(c.AvailabilityEnd)
	if err != nil {
		return 0, fmt.Errorf("availability end: %w", err)
	}
	if end < start {
		return 0, fmt.Errorf("availability window %s-%s ends before it starts", c.AvailabilityStart, c.AvailabilityEnd)
	}
	return end - start, nil
}

// ParseClock parses a local "HH:MM" time of day into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return h*60 + m, nil
}
