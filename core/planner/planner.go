// Package planner implements the greedy crew-assignment algorithm. Given the
// day's jobs, the crew roster and optional zone affinities it produces
// per-crew ordered stop sequences, per-crew utilization and the list of jobs
// that could not be placed. The algorithm is a single greedy pass over jobs
// in ascending scheduled order; it is deterministic for identical inputs and
// makes no attempt at global optimality.
package planner

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/geo"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/logger"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// AlgorithmVersion is stamped on every plan this engine produces.
const AlgorithmVersion = "greedy-v1"

// Unassignment reasons recorded in plan results.
const (
	ReasonNoCoordinates  = "no coordinates"
	ReasonNoEligibleCrew = "no eligible crew"
	ReasonNoActiveCrews  = "no active crews"
)

// Planner computes dispatch plans.
type Planner struct {
	cfg   Config
	table EquipmentTable
	log   logger.Logger
}

// New validates the configuration and equipment table and returns a Planner.
// A nil table selects the default lawn-care table.
func New(cfg Config, table EquipmentTable, log logger.Logger) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = DefaultEquipmentTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Planner{cfg: cfg, table: table, log: log}, nil
}

// Result carries everything one planning run produced. It is returned even on
// degenerate inputs; absence of work is reported through warnings, never an
// error.
type Result struct {
	Assignments         []model.CrewAssignment
	UnassignedJobs      []model.UnassignedJob
	Warnings            []string
	TotalDriveMinutes   float64
	TotalServiceMinutes float64

	// OverallUtilizationPct is total drive plus service minutes over the
	// fleet's total available minutes.
	OverallUtilizationPct int

	// UtilizationMeanPct and UtilizationStdDevPct summarize how evenly the
	// day is spread across crews.
	UtilizationMeanPct   float64
	UtilizationStdDevPct float64

	AlgorithmVersion string
}

// crewState is the running state for one crew during the greedy pass.
type crewState struct {
	crew             model.Crew
	stops            []plannedStop
	locationKey      string
	hasLocation      bool
	minutesUsed      float64
	minutesAvailable float64
	startMinutes     int
}

type plannedStop struct {
	job   model.Job
	drive float64
}

// ComputePlan runs the greedy assignment for one calendar day. Inactive crews
// are filtered internally; jobs without coordinates are unassigned
// immediately. Jobs are processed in ascending scheduled order so
// earlier-scheduled jobs get first pick of capacity.
func (p *Planner) ComputePlan(jobs []model.Job, crews []model.Crew, planDate time.Time, affinities []model.ZoneAffinity) Result {
	res := Result{AlgorithmVersion: AlgorithmVersion}
	ordered := sortJobs(jobs)

	states := p.buildCrewStates(crews)
	if len(states) == 0 {
		res.Warnings = append(res.Warnings, "no active crews available")
		for _, j := range ordered {
			res.UnassignedJobs = append(res.UnassignedJobs, model.UnassignedJob{JobID: j.ID, Reason: ReasonNoActiveCrews})
		}
		return res
	}
	if len(ordered) == 0 {
		res.Warnings = append(res.Warnings, "no jobs scheduled for this date")
		return res
	}

	active := make([]model.Crew, 0, len(states))
	for _, st := range states {
		active = append(active, st.crew)
	}
	matrix := geo.BuildMatrix(ordered, active, p.cfg.RouteSpeedKmh)
	byCrew := affinitiesByCrew(affinities)

	missingCoords := 0
	for _, job := range ordered {
		if !job.HasCoordinates() {
			missingCoords++
			res.UnassignedJobs = append(res.UnassignedJobs, model.UnassignedJob{JobID: job.ID, Reason: ReasonNoCoordinates})
			continue
		}
		best := p.pickCrew(states, job, matrix, byCrew)
		if best == nil {
			res.UnassignedJobs = append(res.UnassignedJobs, model.UnassignedJob{JobID: job.ID, Reason: ReasonNoEligibleCrew})
			continue
		}
		drive := p.driveTo(best, job, matrix)
		best.stops = append(best.stops, plannedStop{job: job, drive: drive})
		best.minutesUsed += drive + float64(job.EstimatedDurationMinutes)
		best.locationKey = geo.JobKey(job.ID)
		best.hasLocation = true
	}

	var totalAvailable float64
	var utilizations []float64
	for _, st := range states {
		totalAvailable += st.minutesAvailable
		if st.minutesAvailable > 0 {
			utilizations = append(utilizations, st.minutesUsed/st.minutesAvailable*100)
		}
		if len(st.stops) == 0 {
			continue
		}
		asn := p.buildAssignment(st, planDate)
		res.Assignments = append(res.Assignments, asn)
		res.TotalDriveMinutes += asn.TotalDriveMins
		res.TotalServiceMinutes += asn.TotalServiceMins
	}

	if totalAvailable > 0 {
		busy := res.TotalDriveMinutes + res.TotalServiceMinutes
		res.OverallUtilizationPct = int(math.Round(busy / totalAvailable * 100))
	}
	if len(utilizations) > 0 {
		res.UtilizationMeanPct = stat.Mean(utilizations, nil)
		if len(utilizations) > 1 {
			res.UtilizationStdDevPct = stat.StdDev(utilizations, nil)
		}
	}
	if missingCoords > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d jobs have no coordinates", missingCoords))
	}
	if n := len(res.UnassignedJobs); n > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d jobs could not be assigned", n))
	}
	return res
}

// buildCrewStates filters active crews with a valid availability window and
// seeds their running state at the home base.
func (p *Planner) buildCrewStates(crews []model.Crew) []*crewState {
	states := make([]*crewState, 0, len(crews))
	for _, c := range crews {
		if !c.IsActive {
			continue
		}
		avail, err := c.AvailableMinutes()
		if err != nil {
			p.log.Warnf("crew %s has an invalid availability window: %v", c.ID, err)
			continue
		}
		start, _ := model.ParseClock(c.AvailabilityStart)
		st := &crewState{crew: c, minutesAvailable: float64(avail), startMinutes: start}
		if c.HasHomeBase() {
			st.locationKey = geo.CrewKey(c.ID)
			st.hasLocation = true
		}
		states = append(states, st)
	}
	return states
}

// pickCrew evaluates every crew for the job and returns the lowest-scoring
// feasible candidate. Ties keep the first crew encountered, which together
// with the fixed job order makes runs reproducible.
func (p *Planner) pickCrew(states []*crewState, job model.Job, m *geo.Matrix, aff map[string][]model.ZoneAffinity) *crewState {
	var best *crewState
	var bestScore float64
	for _, st := range states {
		if !p.table.CrewCanService(st.crew, job.ServiceType) {
			continue
		}
		if st.crew.Capacity > 0 && len(st.stops) >= st.crew.Capacity {
			continue
		}
		drive := p.driveTo(st, job, m)
		if st.minutesUsed+drive+float64(job.EstimatedDurationMinutes) > st.minutesAvailable {
			continue
		}
		utilization := 0.0
		if st.minutesAvailable > 0 {
			utilization = st.minutesUsed / st.minutesAvailable
		}
		score := drive*p.cfg.DriveWeight + utilization*p.cfg.UtilizationWeight - p.zoneBonus(aff[st.crew.ID], job)
		if best == nil || score < bestScore {
			best = st
			bestScore = score
		}
	}
	return best
}

// driveTo estimates minutes from the crew's current location to the job. Legs
// missing from the matrix fall back to a conservative constant, never zero.
func (p *Planner) driveTo(st *crewState, job model.Job, m *geo.Matrix) float64 {
	if !st.hasLocation {
		return p.cfg.FallbackDriveMinutes
	}
	if mins, ok := m.Minutes(st.locationKey, geo.JobKey(job.ID)); ok {
		return mins
	}
	return p.cfg.FallbackDriveMinutes
}

// zoneBonus checks the crew's zones in priority order, primary zones first,
// and returns the bonus of the first active zone containing the job.
func (p *Planner) zoneBonus(affs []model.ZoneAffinity, job model.Job) float64 {
	if len(affs) == 0 || !job.HasCoordinates() {
		return 0
	}
	pt := geo.Point{Lat: *job.Lat, Lng: *job.Lng}
	for _, a := range affs {
		if !a.Zone.IsActive {
			continue
		}
		if !geo.ZoneContains(a.Zone, pt) {
			continue
		}
		if a.IsPrimary {
			return p.cfg.PrimaryZoneBonus
		}
		return p.cfg.BackupZoneBonus
	}
	return 0
}

// buildAssignment walks the crew's day forward from its availability start,
// accumulating drive and service time into each stop's arrival window.
func (p *Planner) buildAssignment(st *crewState, planDate time.Time) model.CrewAssignment {
	asn := model.CrewAssignment{CrewID: st.crew.ID, CrewExternalID: st.crew.ExternalID}
	day := time.Date(planDate.Year(), planDate.Month(), planDate.Day(), 0, 0, 0, 0, planDate.Location())
	cursor := day.Add(time.Duration(st.startMinutes) * time.Minute)

	for i, ps := range st.stops {
		arrive := cursor.Add(time.Duration(ps.drive * float64(time.Minute)))
		depart := arrive.Add(time.Duration(ps.job.EstimatedDurationMinutes) * time.Minute)
		asn.Stops = append(asn.Stops, model.RouteStop{
			JobID:             ps.job.ID,
			ExternalJobID:     ps.job.ExternalID,
			Order:             i + 1,
			ArriveBy:          arrive,
			DepartBy:          depart,
			DriveMinsFromPrev: ps.drive,
			ServiceMins:       ps.job.EstimatedDurationMinutes,
		})
		asn.TotalDriveMins += ps.drive
		asn.TotalServiceMins += float64(ps.job.EstimatedDurationMinutes)
		cursor = depart
	}
	if st.minutesAvailable > 0 {
		asn.UtilizationPercent = int(math.Round(st.minutesUsed / st.minutesAvailable * 100))
	}
	return asn
}

// sortJobs orders jobs ascending by scheduled time so earlier jobs get first
// pick of capacity; IDs break ties to keep runs reproducible.
func sortJobs(jobs []model.Job) []model.Job {
	out := append([]model.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// affinitiesByCrew groups and orders affinities: primary zones first, then by
// ascending priority.
func affinitiesByCrew(affs []model.ZoneAffinity) map[string][]model.ZoneAffinity {
	byCrew := make(map[string][]model.ZoneAffinity)
	for _, a := range affs {
		byCrew[a.CrewID] = append(byCrew[a.CrewID], a)
	}
	for id := range byCrew {
		list := byCrew[id]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].IsPrimary != list[j].IsPrimary {
				return list[i].IsPrimary
			}
			return list[i].Priority < list[j].Priority
		})
	}
	return byCrew
}
