// Package app wires configuration, stores, sinks and triggers into a running
// dispatch service.
package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/GoToMarketNow/lawnflow-dispatch/config"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/dispatch"
	coremetrics "github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/planner"
	coreplanstore "github.com/GoToMarketNow/lawnflow-dispatch/core/planstore"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/fieldservice"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/logger"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/planstore"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/trigger"
	"github.com/GoToMarketNow/lawnflow-dispatch/internal/eventbus"
)

// Service bundles the orchestrator with its connectors.
type Service struct {
	Orchestrator *dispatch.Orchestrator
	nightly      *dispatch.NightlyTrigger
	mqttTrigger  *trigger.MQTTTrigger
	store        interface{ Close() error }
	bus          *eventbus.Bus
	log          logger.Logger
	promEnabled  bool
	promAddr     string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var store interface {
		coreplanstore.PlanStore
		coreplanstore.EventStore
	}
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := planstore.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		store = s
	default:
		store = coreplanstore.NewMemoryStore()
	}

	client, err := fieldservice.NewClient(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("provider client: %w", err)
	}

	var sinks []coremetrics.PlanSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.PlanSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	pl, err := planner.New(cfg.Planner, nil, logger.New("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	bus := eventbus.New()
	orch, err := dispatch.New(cfg.Dispatch, pl, client, store, store, sink, bus, logger.New("orchestrator"))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	svc := &Service{
		Orchestrator: orch,
		store:        store,
		bus:          bus,
		log:          logg,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promAddr:     ":" + strconv.Itoa(cfg.Metrics.PrometheusPort),
	}

	if cfg.Nightly.Enabled {
		nightly, err := dispatch.NewNightlyTrigger(orch, cfg.Nightly.Businesses, cfg.Nightly.RunAt, logger.New("nightly"))
		if err != nil {
			return nil, fmt.Errorf("nightly trigger: %w", err)
		}
		svc.nightly = nightly
	}
	if cfg.Trigger.Enabled {
		mt, err := trigger.NewMQTTTrigger(cfg.Trigger, orch, logger.New("mqtt-trigger"))
		if err != nil {
			return nil, fmt.Errorf("mqtt trigger: %w", err)
		}
		svc.mqttTrigger = mt
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Orchestrator.Run(ctx)
	if s.nightly != nil {
		go s.nightly.Run(ctx)
	}
	if s.mqttTrigger != nil {
		go func() {
			if err := s.mqttTrigger.Start(ctx); err != nil {
				s.log.Errorf("mqtt trigger: %v", err)
			}
		}()
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.store.Close()
}
