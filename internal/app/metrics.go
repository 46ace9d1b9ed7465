package app

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Metrics counts what the loop did during a run.
type Metrics struct {
	// Frame timing
	renderCount   atomic.Uint64
	renderTotalNs atomic.Int64
	renderMaxNs   atomic.Int64

	// Input handling
	pollCount     atomic.Uint64
	pollTimeouts  atomic.Uint64
	eventsIgnored atomic.Uint64

	tickCount   atomic.Uint64
	reloadCount atomic.Uint64
	reloadFails atomic.Uint64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRender records render timing.
func (m *Metrics) RecordRender(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.renderCount.Add(1)
	m.renderTotalNs.Add(ns)

	for {
		old := m.renderMaxNs.Load()
		if ns <= old {
			break
		}
		if m.renderMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordPoll records one input poll; timedOut is true when no event arrived.
func (m *Metrics) RecordPoll(timedOut bool) {
	m.pollCount.Add(1)
	if timedOut {
		m.pollTimeouts.Add(1)
	}
}

// RecordIgnored records an input event that was discarded.
func (m *Metrics) RecordIgnored() {
	m.eventsIgnored.Add(1)
}

// RecordTick records a tick.
func (m *Metrics) RecordTick() {
	m.tickCount.Add(1)
}

// RecordReload records a document reload attempt.
func (m *Metrics) RecordReload(ok bool) {
	if ok {
		m.reloadCount.Add(1)
		return
	}
	m.reloadFails.Add(1)
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.renderCount.Store(0)
	m.renderTotalNs.Store(0)
	m.renderMaxNs.Store(0)
	m.pollCount.Store(0)
	m.pollTimeouts.Store(0)
	m.eventsIgnored.Store(0)
	m.tickCount.Store(0)
	m.reloadCount.Store(0)
	m.reloadFails.Store(0)
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Renders       uint64
	RenderTotal   time.Duration
	RenderMax     time.Duration
	Polls         uint64
	PollTimeouts  uint64
	EventsIgnored uint64
	Ticks         uint64
	Reloads       uint64
	ReloadFails   uint64
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Renders:       m.renderCount.Load(),
		RenderTotal:   time.Duration(m.renderTotalNs.Load()),
		RenderMax:     time.Duration(m.renderMaxNs.Load()),
		Polls:         m.pollCount.Load(),
		PollTimeouts:  m.pollTimeouts.Load(),
		EventsIgnored: m.eventsIgnored.Load(),
		Ticks:         m.tickCount.Load(),
		Reloads:       m.reloadCount.Load(),
		ReloadFails:   m.reloadFails.Load(),
	}
}

// AvgRender returns the mean render time.
func (s MetricsSnapshot) AvgRender() time.Duration {
	if s.Renders == 0 {
		return 0
	}
	return s.RenderTotal / time.Duration(s.Renders)
}

// Fields returns the snapshot as log fields.
func (s MetricsSnapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.Uint64("renders", s.Renders),
		zap.Duration("render_avg", s.AvgRender()),
		zap.Duration("render_max", s.RenderMax),
		zap.Uint64("polls", s.Polls),
		zap.Uint64("poll_timeouts", s.PollTimeouts),
		zap.Uint64("events_ignored", s.EventsIgnored),
		zap.Uint64("ticks", s.Ticks),
		zap.Uint64("reloads", s.Reloads),
		zap.Uint64("reload_failures", s.ReloadFails),
	}
}

// Timer measures elapsed time against a Clock.
type Timer struct {
	clock Clock
	start time.Time
}

// StartTimer starts a timer on clock.
func StartTimer(clock Clock) Timer {
	return Timer{clock: clock, start: clock.Now()}
}

// Elapsed returns the time since the timer started.
func (t Timer) Elapsed() time.Duration {
	return t.clock.Now().Sub(t.start)
}
