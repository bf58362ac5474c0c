package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/transition"
	"github.com/felixgeelhaar/decision-go/infrastructure/logging"
	"github.com/felixgeelhaar/decision-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/decision-go/infrastructure/telemetry"
)

// DefaultConcurrency bounds how many instances a monitor run processes
// in parallel.
const DefaultConcurrency = 4

// FailureDetail records one transition that failed during a monitor run.
type FailureDetail struct {
	TransitionID      string `json:"transitionId"`
	ProcessInstanceID string `json:"processInstanceId"`
	Err               error  `json:"-"`
	Message           string `json:"error"`
}

// RunResult aggregates the outcome of one monitor run. Processed counts
// every transition handled without failure, including race-detected
// no-ops; Skipped counts just those no-ops.
type RunResult struct {
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Failures  []FailureDetail `json:"errors,omitempty"`
}

// Monitor finds due, uncompleted transitions and applies each exactly
// once. It holds no run state of its own: safety under overlapping runs
// comes entirely from the applier's atomic completion write and the
// re-fetch performed immediately before each apply.
type Monitor struct {
	transitions transition.Store
	applier     transition.Applier
	instances   process.Store
	metrics     *telemetry.MetricsProvider
	concurrency int
	batchSize   int
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithConcurrency bounds cross-instance parallelism.
func WithConcurrency(n int) MonitorOption {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithBatchSize caps how many due transitions one run picks up
// (0 = unlimited).
func WithBatchSize(n int) MonitorOption {
	return func(m *Monitor) {
		if n >= 0 {
			m.batchSize = n
		}
	}
}

// WithMonitorMetrics attaches a metrics provider to the monitor.
func WithMonitorMetrics(metrics *telemetry.MetricsProvider) MonitorOption {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// NewMonitor creates a transition monitor.
func NewMonitor(transitions transition.Store, applier transition.Applier, instances process.Store, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		transitions: transitions,
		applier:     applier,
		instances:   instances,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunDueTransitions applies every due, uncompleted transition. Transitions
// of the same instance are applied strictly sequentially in scheduled-date
// order; different instances proceed in parallel up to the configured
// bound. A per-transition failure is recorded and does not block the rest
// of the batch.
func (m *Monitor) RunDueTransitions(ctx context.Context) (RunResult, error) {
	start := time.Now()
	if m.metrics != nil {
		m.metrics.MonitorRunStarted(ctx)
		defer func() {
			m.metrics.MonitorRunFinished(ctx, time.Since(start))
		}()
	}

	var result RunResult

	due, err := m.transitions.ListDue(ctx, start, m.batchSize)
	if err != nil {
		return result, err
	}
	if len(due) == 0 {
		return result, nil
	}

	// ListDue orders by scheduled date, so each group stays in date order.
	groups := make(map[string][]*transition.ScheduledTransition)
	var order []string
	for _, t := range due {
		if _, seen := groups[t.ProcessInstanceID]; !seen {
			order = append(order, t.ProcessInstanceID)
		}
		groups[t.ProcessInstanceID] = append(groups[t.ProcessInstanceID], t)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, m.concurrency)

	for _, instanceID := range order {
		group := groups[instanceID]
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			for _, t := range group {
				outcome := m.processOne(ctx, t)

				mu.Lock()
				switch {
				case outcome.failure != nil:
					result.Failed++
					result.Failures = append(result.Failures, *outcome.failure)
				case outcome.skipped:
					result.Processed++
					result.Skipped++
				default:
					result.Processed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	logging.Info().
		Add(logging.Component("monitor")).
		Add(logging.Count("processed", result.Processed)).
		Add(logging.Count("failed", result.Failed)).
		Add(logging.Count("skipped", result.Skipped)).
		Add(logging.Duration(time.Since(start))).
		Msg("monitor run finished")
	return result, nil
}

type applyOutcome struct {
	skipped bool
	failure *FailureDetail
}

// processOne applies a single transition. The re-fetch happens here,
// immediately before the atomic write, not at batch-query time: a
// transition completed by another worker in between is a normal no-op.
func (m *Monitor) processOne(ctx context.Context, t *transition.ScheduledTransition) applyOutcome {
	current, err := m.transitions.Get(ctx, t.ID)
	if err != nil {
		return m.fail(ctx, t, err)
	}
	if current.Completed() {
		return m.skip(ctx, current)
	}

	instance, err := m.instances.Get(ctx, current.ProcessInstanceID)
	if err != nil {
		return m.fail(ctx, current, err)
	}

	// Prove the move is a legal single step for this instance before
	// touching the store. A guard rejection can also mean another worker
	// applied this transition between our re-fetch and the instance read,
	// so completion is re-checked before calling it a failure.
	if err := statemachine.Advance(instance, current.ToPhaseID); err != nil {
		if latest, getErr := m.transitions.Get(ctx, current.ID); getErr == nil && latest.Completed() {
			return m.skip(ctx, latest)
		}
		return m.fail(ctx, current, err)
	}
	final := instance.IsTerminal()

	if err := m.applier.Apply(ctx, current, time.Now()); err != nil {
		if errors.Is(err, transition.ErrAlreadyCompleted) {
			return m.skip(ctx, current)
		}
		return m.fail(ctx, current, err)
	}

	if m.metrics != nil {
		m.metrics.RecordTransitionProcessed(ctx, final)
	}
	logging.Info().
		Add(logging.Component("monitor")).
		Add(logging.TransitionID(current.ID)).
		Add(logging.InstanceID(current.ProcessInstanceID)).
		Add(logging.FromPhase(current.FromPhaseID)).
		Add(logging.ToPhase(current.ToPhaseID)).
		Add(logging.Final(final)).
		Msg("transition applied")
	return applyOutcome{}
}

func (m *Monitor) skip(ctx context.Context, t *transition.ScheduledTransition) applyOutcome {
	if m.metrics != nil {
		m.metrics.RecordTransitionSkipped(ctx)
	}
	logging.Debug().
		Add(logging.Component("monitor")).
		Add(logging.TransitionID(t.ID)).
		Add(logging.InstanceID(t.ProcessInstanceID)).
		Msg("transition already completed, skipping")
	return applyOutcome{skipped: true}
}

func (m *Monitor) fail(ctx context.Context, t *transition.ScheduledTransition, err error) applyOutcome {
	if m.metrics != nil {
		m.metrics.RecordTransitionFailed(ctx)
	}
	logging.Error().
		Add(logging.Component("monitor")).
		Add(logging.TransitionID(t.ID)).
		Add(logging.InstanceID(t.ProcessInstanceID)).
		Add(logging.ErrorField(err)).
		Msg("transition failed")
	return applyOutcome{failure: &FailureDetail{
		TransitionID:      t.ID,
		ProcessInstanceID: t.ProcessInstanceID,
		Err:               err,
		Message:           err.Error(),
	}}
}
