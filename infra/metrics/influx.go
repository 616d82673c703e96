package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/GoToMarketNow/lawnflow-dispatch/core/metrics"
	"github.com/GoToMarketNow/lawnflow-dispatch/infra/logger"
)

// InfluxSink writes planning outcomes to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.PlanSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlanComputation writes the computation as a line-protocol point.
func (s *InfluxSink) RecordPlanComputation(rec coremetrics.PlanComputation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_computation").
		AddTag("business_id", rec.Key.BusinessID).
		AddTag("mode", string(rec.Key.Mode)).
		AddTag("plan_id", rec.PlanID).
		AddTag("component", "dispatch_orchestrator").
		AddField("jobs", rec.Jobs).
		AddField("assignments", rec.Assignments).
		AddField("unassigned", rec.Unassigned).
		AddField("utilization_percent", rec.UtilizationPercent).
		AddField("compute_ms", rec.ComputeTime.Milliseconds()).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlanApplication writes the apply outcome as a line-protocol point.
func (s *InfluxSink) RecordPlanApplication(rec coremetrics.PlanApplication) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_application").
		AddTag("business_id", rec.Key.BusinessID).
		AddTag("mode", string(rec.Key.Mode)).
		AddTag("plan_id", rec.PlanID).
		AddTag("component", "dispatch_orchestrator").
		AddField("succeeded", rec.Succeeded).
		AddField("failed", rec.Failed).
		AddField("duration_ms", rec.Duration.Milliseconds()).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
