// Package eligibility provides the pure scoring helpers used upstream to
// filter candidate crews against a job's requirements.
package eligibility

import (
	"math"
	"strings"
)

// Crew feasibility flags. The first three disqualify a crew under any policy;
// the partial match flags disqualify only for full eligibility, and
// missing_coordinates never disqualifies on its own.
const (
	FlagOutsideServiceRadius  = "outside_service_radius"
	FlagNoAvailableCapacity   = "no_available_capacity"
	FlagInsufficientCrewSize  = "insufficient_crew_size"
	FlagPartialSkillMatch     = "partial_skill_match"
	FlagPartialEquipmentMatch = "partial_equipment_match"
	FlagMissingCoordinates    = "missing_coordinates"
)

// EligibleCrew is the transient scoring result for one crew against one job's
// requirements. It is computed per evaluation call and never persisted.
type EligibleCrew struct {
	CrewID                   string
	SkillsMatchPct           int
	EquipmentMatchPct        int
	CapacityRemainingByDay   []int
	DistanceFromHomeEstimate float64
	MemberCount              int
	Flags                    []string
}

// Thresholds relaxes full eligibility to minimum match percentages.
type Thresholds struct {
	SkillMatchMinPct     int
	EquipmentMatchMinPct int
}

// matchPct returns the rounded percentage of required entries present in
// available, matched case-insensitively. An empty requirement is a full
// match.
func matchPct(required, available []string) int {
	if len(required) == 0 {
		return 100
	}
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	matched := 0
	for _, r := range required {
		if _, ok := have[strings.ToLower(strings.TrimSpace(r))]; ok {
			matched++
		}
	}
	return int(math.Round(float64(matched) / float64(len(required)) * 100))
}

// SkillMatchPct returns the percentage of required skills the crew covers.
func SkillMatchPct(required, available []string) int {
	return matchPct(required, available)
}

// EquipmentMatchPct returns the percentage of required equipment tags the
// crew covers.
func EquipmentMatchPct(required, available []string) int {
	return matchPct(required, available)
}

// fullBlockFlags disqualify a crew from full eligibility.
var fullBlockFlags = map[string]struct{}{
	FlagOutsideServiceRadius:  {},
	FlagNoAvailableCapacity:   {},
	FlagInsufficientCrewSize:  {},
	FlagPartialSkillMatch:     {},
	FlagPartialEquipmentMatch: {},
}

// hardBlockFlags disqualify a crew regardless of threshold relaxation.
var hardBlockFlags = map[string]struct{}{
	FlagOutsideServiceRadius: {},
	FlagNoAvailableCapacity:  {},
	FlagInsufficientCrewSize: {},
}

// IsFullyEligible reports whether none of the crew's flags block assignment.
// A missing_coordinates flag alone does not block eligibility.
func IsFullyEligible(c EligibleCrew) bool {
	for _, f := range c.Flags {
		if _, blocked := fullBlockFlags[f]; blocked {
			return false
		}
	}
	return true
}

// IsEligibleWithThresholds applies the relaxed policy: hard-block flags still
// disqualify, otherwise the crew qualifies when both match percentages meet
// the configured minimums.
func IsEligibleWithThresholds(c EligibleCrew, t Thresholds) bool {
	for _, f := range c.Flags {
		if _, blocked := hardBlockFlags[f]; blocked {
			return false
		}
	}
	return c.SkillsMatchPct >= t.SkillMatchMinPct && c.EquipmentMatchPct >= t.EquipmentMatchMinPct
}

// FilterFullyEligible returns the fully eligible crews, preserving input
// order.
func FilterFullyEligible(crews []EligibleCrew) []EligibleCrew {
	var out []EligibleCrew
	for _, c := range crews {
		if IsFullyEligible(c) {
			out = append(out, c)
		}
	}
	return out
}

// FilterWithThresholds returns the crews meeting the thresholds, preserving
// input order.
func FilterWithThresholds(crews []EligibleCrew, t Thresholds) []EligibleCrew {
	var out []EligibleCrew
	for _, c := range crews {
		if IsEligibleWithThresholds(c, t) {
			out = append(out, c)
		}
	}
	return out
}

// Feasibility risk reason codes used upstream of planning.
const (
	ReasonSkillShortfall     = "skill_shortfall"
	ReasonEquipmentShortfall = "equipment_shortfall"
	ReasonInsufficientCrew   = "insufficient_crew_size"
	ReasonCapacityExceeded   = "capacity_exceeded"
	ReasonLowLotConfidence   = "low_lot_confidence"
	ReasonLargeLotMonthly    = "large_lot_monthly"
	ReasonMissingCoordinates = "missing_coordinates"
)

var riskWeights = map[string]int{
	ReasonSkillShortfall:     30,
	ReasonEquipmentShortfall: 30,
	ReasonInsufficientCrew:   40,
	ReasonCapacityExceeded:   50,
	ReasonLowLotConfidence:   20,
	ReasonLargeLotMonthly:    15,
	ReasonMissingCoordinates: 25,
}

// RiskScore sums the fixed weight of each reason code and clamps the result
// to [0,100]. Unknown reasons contribute nothing.
func RiskScore(reasons []string) int {
	score := 0
	for _, r := range reasons {
		score += riskWeights[r]
	}
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
