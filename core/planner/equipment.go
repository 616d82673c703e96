package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// EquipmentTable maps service-type keywords to the equipment tags a crew must
// hold to take the job. A crew must hold every tag for every keyword that
// appears in the job's service type.
type EquipmentTable map[string][]string

// DefaultEquipmentTable covers the standard lawn-care service vocabulary.
func DefaultEquipmentTable() EquipmentTable {
	return EquipmentTable{
		"mowing":        {"mower"},
		"aeration":      {"aerator"},
		"mulching":      {"trailer"},
		"fertilization": {"spreader"},
		"leaf":          {"blower"},
		"hedge":         {"trimmer"},
	}
}

// Validate rejects empty keywords or tag lists so a malformed table fails at
// load time instead of silently matching nothing.
func (t EquipmentTable) Validate() error {
	for kw, tags := range t {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("equipment table: empty keyword")
		}
		if len(tags) == 0 {
			return fmt.Errorf("equipment table: keyword %q has no tags", kw)
		}
		for _, tag := range tags {
			if strings.TrimSpace(tag) == "" {
				return fmt.Errorf("equipment table: keyword %q has an empty tag", kw)
			}
		}
	}
	return nil
}

// RequiredTags returns the union of tags required by every keyword present in
// the service type, lower-cased and deduplicated, in stable order.
func (t EquipmentTable) RequiredTags(serviceType string) []string {
	svc := strings.ToLower(serviceType)
	keywords := make([]string, 0, len(t))
	for kw := range t {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	var tags []string
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		if !strings.Contains(svc, kw) {
			continue
		}
		for _, tag := range t[kw] {
			lt := strings.ToLower(tag)
			if _, ok := seen[lt]; ok {
				continue
			}
			seen[lt] = struct{}{}
			tags = append(tags, lt)
		}
	}
	return tags
}

// CrewCanService reports whether the crew holds every equipment tag the
// service type requires. Service types matching no keyword require nothing.
func (t EquipmentTable) CrewCanService(crew model.Crew, serviceType string) bool {
	required := t.RequiredTags(serviceType)
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(crew.EquipmentCapabilities))
	for _, tag := range crew.EquipmentCapabilities {
		have[strings.ToLower(tag)] = struct{}{}
	}
	for _, tag := range required {
		if _, ok := have[tag]; !ok {
			return false
		}
	}
	return true
}
