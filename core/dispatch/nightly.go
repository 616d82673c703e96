package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/logger"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

// NightlyTrigger enqueues a nightly recompute of the next day's plan for
// each configured business.
type NightlyTrigger struct {
	orch       *Orchestrator
	businesses []string
	runAt      int
	log        logger.Logger
	now        func() time.Time
}

// NewNightlyTrigger creates a trigger firing daily at runAt ("HH:MM").
func NewNightlyTrigger(orch *Orchestrator, businesses []string, runAt string, log logger.Logger) (*NightlyTrigger, error) {
	if orch == nil {
		return nil, fmt.Errorf("dispatch: orchestrator is required")
	}
	minutes, err := model.ParseClock(runAt)
	if err != nil {
		return nil, fmt.Errorf("dispatch: nightly run_at: %w", err)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &NightlyTrigger{
		orch:       orch,
		businesses: businesses,
		runAt:      minutes,
		log:        log,
		now:        time.Now,
	}, nil
}

// Run fires the trigger once per day until ctx is cancelled.
func (n *NightlyTrigger) Run(ctx context.Context) {
	for {
		wait := n.untilNextRun(n.now())
		n.log.Debugf("next nightly dispatch in %s", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			n.fire()
		}
	}
}

// fire plans the following calendar day for every business.
func (n *NightlyTrigger) fire() {
	planDate := n.now().AddDate(0, 0, 1)
	for _, biz := range n.businesses {
		req := Request{
			BusinessID: biz,
			PlanDate:   planDate,
			Mode:       model.ModeNightly,
			Actor:      "nightly-cron",
		}
		if err := n.orch.EnqueueDispatch(req); err != nil {
			n.log.Errorf("nightly trigger for %s: %v", biz, err)
		}
	}
}

func (n *NightlyTrigger) untilNextRun(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), n.runAt/60, n.runAt%60, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
