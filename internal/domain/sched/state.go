package sched

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Policy selects the algorithm the scheduler loop runs. Values outside the
// named set are stored as-is; the loop decides what to do with them.
type Policy int32

const (
	PolicyRoundRobin Policy = 0
	PolicyLottery    Policy = 1
	PolicyStride     Policy = 2
)

// String returns the string representation of the policy
func (p Policy) String() string {
	switch p {
	case PolicyRoundRobin:
		return "round_robin"
	case PolicyLottery:
		return "lottery"
	case PolicyStride:
		return "stride"
	default:
		return "unknown"
	}
}

// TraceEvent is published on every tick while tracing is enabled.
type TraceEvent struct {
	Tick      uint64    `json:"tick"`
	Counter   int64     `json:"counter"`
	Policy    Policy    `json:"policy"`
	Live      int       `json:"live"`
	Timestamp time.Time `json:"timestamp"`
}

// State holds the process-wide scheduler knobs. Writers race and the last
// store wins; loads and stores are atomic so a reader never sees a torn value.
type State struct {
	policy       atomic.Int32
	traceEnabled atomic.Int32
	traceCounter atomic.Int64

	events *Broadcaster
	logger *zap.Logger
}

// New creates scheduler state starting on policy.
func New(policy Policy, events *Broadcaster, logger *zap.Logger) *State {
	if events == nil {
		events = NewBroadcaster(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &State{
		events: events,
		logger: logger,
	}
	s.policy.Store(int32(policy))
	return s
}

// SetPolicy overwrites the global policy without validation.
func (s *State) SetPolicy(id int) {
	s.policy.Store(int32(id))
	s.logger.Info("Scheduling policy set",
		zap.Int("policy_id", id),
		zap.String("policy", Policy(id).String()),
	)
}

// Policy returns the current global policy
func (s *State) Policy() Policy {
	return Policy(s.policy.Load())
}

// EnableTrace stores the trace flag; any non-zero value enables tracing.
func (s *State) EnableTrace(flag int) {
	s.traceEnabled.Store(int32(flag))
}

// TraceEnabled reports whether tracing is on
func (s *State) TraceEnabled() bool {
	return s.traceEnabled.Load() != 0
}

// ResetTraceCounter zeroes the trace counter
func (s *State) ResetTraceCounter() {
	s.traceCounter.Store(0)
}

// TraceCounter returns the number of traced ticks since the last reset
func (s *State) TraceCounter() int64 {
	return s.traceCounter.Load()
}

// Events returns the trace event broadcaster
func (s *State) Events() *Broadcaster {
	return s.events
}

// Observe records a clock tick. With tracing on it bumps the counter and
// publishes an event.
func (s *State) Observe(tick uint64, live int) {
	if !s.TraceEnabled() {
		return
	}

	ev := TraceEvent{
		Tick:      tick,
		Counter:   s.traceCounter.Add(1),
		Policy:    s.Policy(),
		Live:      live,
		Timestamp: time.Now(),
	}

	s.logger.Debug("sched trace",
		zap.Uint64("tick", ev.Tick),
		zap.Int64("counter", ev.Counter),
		zap.String("policy", ev.Policy.String()),
		zap.Int("live", ev.Live),
	)
	s.events.Publish(ev)
}
