package eligibility

import "testing"

func TestMatchPct_EmptyRequired(t *testing.T) {
	if got := SkillMatchPct(nil, []string{"mowing"}); got != 100 {
		t.Errorf("empty required skills: got %d, want 100", got)
	}
	if got := EquipmentMatchPct([]string{}, nil); got != 100 {
		t.Errorf("empty required equipment: got %d, want 100", got)
	}
}

func TestMatchPct_CaseInsensitive(t *testing.T) {
	if got := SkillMatchPct([]string{"MOWING"}, []string{"mowing"}); got != 100 {
		t.Errorf("case-insensitive match: got %d, want 100", got)
	}
}

func TestMatchPct_Rounding(t *testing.T) {
	cases := []struct {
		name      string
		required  []string
		available []string
		want      int
	}{
		{"one of three", []string{"a", "b", "c"}, []string{"a"}, 33},
		{"two of three", []string{"a", "b", "c"}, []string{"a", "b"}, 67},
		{"none", []string{"a", "b"}, []string{"x"}, 0},
		{"all", []string{"a", "b"}, []string{"b", "a", "extra"}, 100},
	}
	for _, c := range cases {
		if got := SkillMatchPct(c.required, c.available); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestIsFullyEligible(t *testing.T) {
	if !IsFullyEligible(EligibleCrew{Flags: []string{FlagMissingCoordinates}}) {
		t.Error("missing_coordinates alone must not block full eligibility")
	}
	for _, f := range []string{
		FlagOutsideServiceRadius,
		FlagNoAvailableCapacity,
		FlagInsufficientCrewSize,
		FlagPartialSkillMatch,
		FlagPartialEquipmentMatch,
	} {
		if IsFullyEligible(EligibleCrew{Flags: []string{f}}) {
			t.Errorf("flag %s must block full eligibility", f)
		}
	}
}

func TestIsEligibleWithThresholds_HardBlocksDominate(t *testing.T) {
	relaxed := Thresholds{SkillMatchMinPct: 0, EquipmentMatchMinPct: 0}
	for _, f := range []string{FlagOutsideServiceRadius, FlagNoAvailableCapacity, FlagInsufficientCrewSize} {
		c := EligibleCrew{SkillsMatchPct: 100, EquipmentMatchPct: 100, Flags: []string{f}}
		if IsEligibleWithThresholds(c, relaxed) {
			t.Errorf("hard-block flag %s must disqualify regardless of thresholds", f)
		}
	}
}

func TestIsEligibleWithThresholds_PartialMatchRelaxed(t *testing.T) {
	c := EligibleCrew{
		SkillsMatchPct:    60,
		EquipmentMatchPct: 80,
		Flags:             []string{FlagPartialSkillMatch},
	}
	if !IsEligibleWithThresholds(c, Thresholds{SkillMatchMinPct: 50, EquipmentMatchMinPct: 50}) {
		t.Error("partial match flags must not disqualify when thresholds are met")
	}
	if IsEligibleWithThresholds(c, Thresholds{SkillMatchMinPct: 70, EquipmentMatchMinPct: 50}) {
		t.Error("crew below the skill threshold must not qualify")
	}
}

func TestFilters_PreserveOrder(t *testing.T) {
	crews := []EligibleCrew{
		{CrewID: "a", SkillsMatchPct: 100, EquipmentMatchPct: 100},
		{CrewID: "b", Flags: []string{FlagNoAvailableCapacity}},
		{CrewID: "c", SkillsMatchPct: 90, EquipmentMatchPct: 90},
	}
	full := FilterFullyEligible(crews)
	if len(full) != 2 || full[0].CrewID != "a" || full[1].CrewID != "c" {
		t.Errorf("unexpected fully eligible set: %+v", full)
	}
	thr := FilterWithThresholds(crews, Thresholds{SkillMatchMinPct: 95, EquipmentMatchMinPct: 0})
	if len(thr) != 1 || thr[0].CrewID != "a" {
		t.Errorf("unexpected threshold set: %+v", thr)
	}
}

func TestRiskScore(t *testing.T) {
	cases := []struct {
		name    string
		reasons []string
		want    int
	}{
		{"empty", nil, 0},
		{"single", []string{ReasonLowLotConfidence}, 20},
		{"sum", []string{ReasonSkillShortfall, ReasonLargeLotMonthly}, 45},
		{"clamped", []string{ReasonCapacityExceeded, ReasonInsufficientCrew, ReasonSkillShortfall}, 100},
		{"unknown ignored", []string{"not_a_reason"}, 0},
	}
	for _, c := range cases {
		if got := RiskScore(c.reasons); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}
