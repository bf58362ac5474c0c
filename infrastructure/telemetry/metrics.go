// Package telemetry provides observability infrastructure including
// OpenTelemetry metrics support for the decision process runtime.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	transitionsProcessed metric.Int64Counter
	transitionsFailed    metric.Int64Counter
	transitionsSkipped   metric.Int64Counter
	reconcileCreated     metric.Int64Counter
	reconcileUpdated     metric.Int64Counter
	reconcileDeleted     metric.Int64Counter

	// Histograms
	monitorDuration metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRuns metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/decision-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/decision-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.transitionsProcessed, err = mp.meter.Int64Counter(
		"decision.transitions.processed",
		metric.WithDescription("Number of scheduled transitions applied"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.transitionsFailed, err = mp.meter.Int64Counter(
		"decision.transitions.failed",
		metric.WithDescription("Number of scheduled transitions that failed to apply"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.transitionsSkipped, err = mp.meter.Int64Counter(
		"decision.transitions.skipped",
		metric.WithDescription("Number of race-detected no-op transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.reconcileCreated, err = mp.meter.Int64Counter(
		"decision.reconcile.created",
		metric.WithDescription("Number of scheduled transitions created by reconciliation"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.reconcileUpdated, err = mp.meter.Int64Counter(
		"decision.reconcile.updated",
		metric.WithDescription("Number of scheduled transitions rescheduled by reconciliation"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.reconcileDeleted, err = mp.meter.Int64Counter(
		"decision.reconcile.deleted",
		metric.WithDescription("Number of scheduled transitions removed by reconciliation"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.monitorDuration, err = mp.meter.Float64Histogram(
		"decision.monitor.duration",
		metric.WithDescription("Duration of monitor batch runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"decision.monitor.active",
		metric.WithDescription("Number of monitor batches currently running"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Err returns any instrument initialization error.
func (mp *MetricsProvider) Err() error {
	return mp.initErr
}

// RecordTransitionProcessed increments the processed counter.
func (mp *MetricsProvider) RecordTransitionProcessed(ctx context.Context, final bool) {
	if mp.transitionsProcessed == nil {
		return
	}
	mp.transitionsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("final", final),
	))
}

// RecordTransitionFailed increments the failed counter.
func (mp *MetricsProvider) RecordTransitionFailed(ctx context.Context) {
	if mp.transitionsFailed == nil {
		return
	}
	mp.transitionsFailed.Add(ctx, 1)
}

// RecordTransitionSkipped increments the race-detected no-op counter.
func (mp *MetricsProvider) RecordTransitionSkipped(ctx context.Context) {
	if mp.transitionsSkipped == nil {
		return
	}
	mp.transitionsSkipped.Add(ctx, 1)
}

// RecordReconcile records the outcome counts of a reconciliation.
func (mp *MetricsProvider) RecordReconcile(ctx context.Context, created, updated, deleted int) {
	if mp.reconcileCreated == nil {
		return
	}
	mp.reconcileCreated.Add(ctx, int64(created))
	mp.reconcileUpdated.Add(ctx, int64(updated))
	mp.reconcileDeleted.Add(ctx, int64(deleted))
}

// MonitorRunStarted marks a monitor batch as active.
func (mp *MetricsProvider) MonitorRunStarted(ctx context.Context) {
	if mp.activeRuns == nil {
		return
	}
	mp.activeRuns.Add(ctx, 1)
}

// MonitorRunFinished marks a monitor batch as finished and records its
// duration.
func (mp *MetricsProvider) MonitorRunFinished(ctx context.Context, d time.Duration) {
	if mp.activeRuns == nil {
		return
	}
	mp.activeRuns.Add(ctx, -1)
	mp.monitorDuration.Record(ctx, d.Seconds())
}
