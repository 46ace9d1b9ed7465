package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/tintview/internal/document"
	"github.com/dshills/tintview/internal/renderer"
	"github.com/dshills/tintview/internal/renderer/backend"
	"github.com/dshills/tintview/internal/watcher"
)

// Clock supplies the loop's notion of now.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Phase is the loop's run state.
type Phase uint8

const (
	// PhaseRunning means the loop is rendering and polling.
	PhaseRunning Phase = iota
	// PhaseStopped means the quit key was seen. It is terminal.
	PhaseStopped
)

func (p Phase) String() string {
	if p == PhaseStopped {
		return "stopped"
	}
	return "running"
}

// State is the viewer state the loop owns.
type State struct {
	// Scroll is the scroll offset, always in [0, bound).
	Scroll int
	// Ticks counts ticks since the loop started.
	Ticks uint64

	bound int
}

// NewState returns a state whose scroll offset wraps at bound.
// A bound below 1 is treated as 1.
func NewState(bound int) *State {
	return &State{bound: max(bound, 1)}
}

// OnTick advances the scroll offset by one, wrapping at the bound.
func (s *State) OnTick() {
	s.Scroll = (s.Scroll + 1) % s.bound
	s.Ticks++
}

// Bound returns the value the scroll offset wraps at.
func (s *State) Bound() int { return s.bound }

// Loop drives one viewer session. It owns the state and the current
// document; nothing else touches them while Run is executing.
type Loop struct {
	backend  backend.Backend
	renderer *renderer.Renderer
	clock    Clock
	tick     time.Duration
	quit     backend.KeySpec
	logger   *zap.Logger
	metrics  *Metrics

	state *State
	phase Phase
	doc   *document.Document

	changes   <-chan watcher.Event
	watchErrs <-chan error
	reload    func() (*document.Document, error)
}

// LoopConfig holds the collaborators of a Loop.
type LoopConfig struct {
	Backend     backend.Backend
	Renderer    *renderer.Renderer
	Clock       Clock
	Tick        time.Duration
	ScrollBound int
	QuitKey     backend.KeySpec
	Logger      *zap.Logger
	Metrics     *Metrics

	// Changes and Reload enable reloading; both must be set.
	Changes <-chan watcher.Event
	Reload  func() (*document.Document, error)

	// WatchErrors carries errors from the file watcher. They are logged.
	WatchErrors <-chan error
}

// NewLoop creates a loop showing doc.
func NewLoop(doc *document.Document, cfg LoopConfig) *Loop {
	l := &Loop{
		backend:   cfg.Backend,
		renderer:  cfg.Renderer,
		clock:     cfg.Clock,
		tick:      cfg.Tick,
		quit:      cfg.QuitKey,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		state:     NewState(cfg.ScrollBound),
		doc:       doc,
		changes:   cfg.Changes,
		watchErrs: cfg.WatchErrors,
		reload:    cfg.Reload,
	}
	if l.clock == nil {
		l.clock = realClock{}
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.metrics == nil {
		l.metrics = NewMetrics()
	}
	if l.renderer == nil && l.backend != nil {
		l.renderer = renderer.New(l.backend, renderer.DefaultOptions())
	}
	return l
}

// State returns a copy of the current state.
func (l *Loop) State() State { return *l.state }

// Phase returns the current phase.
func (l *Loop) Phase() Phase { return l.phase }

// Document returns the document currently shown.
func (l *Loop) Document() *document.Document { return l.doc }

// Run renders, polls and ticks until the quit key is pressed or ctx is
// cancelled. Render and poll failures end the loop with a ComponentError.
// The terminal is not released here; that belongs to whoever acquired it.
func (l *Loop) Run(ctx context.Context) error {
	if l.backend == nil {
		return ErrNoBackend
	}
	if l.doc == nil {
		return ErrNoDocument
	}

	lastTick := l.clock.Now()
	for l.phase == PhaseRunning {
		if ctx.Err() != nil {
			l.logger.Debug("context done, stopping", zap.Error(ctx.Err()))
			l.phase = PhaseStopped
			return nil
		}

		if err := l.render(); err != nil {
			return err
		}

		remaining := l.tick - l.clock.Now().Sub(lastTick)
		remaining = max(0, min(remaining, l.tick))

		ev, ok, err := l.backend.PollEvent(remaining)
		if err != nil {
			if errors.Is(err, backend.ErrClosed) {
				err = errors.Join(ErrPollClosed, err)
			}
			return NewComponentError("input", "poll", err)
		}
		l.metrics.RecordPoll(!ok)

		if ok {
			if l.quit.Matches(ev) {
				l.logger.Debug("quit key pressed", zap.Stringer("key", l.quit))
				l.phase = PhaseStopped
				return nil
			}
			l.metrics.RecordIgnored()
			l.logger.Debug("event ignored",
				zap.Stringer("type", ev.Type),
				zap.Int("key", int(ev.Key)),
				zap.String("rune", string(ev.Rune)),
			)
		}

		if now := l.clock.Now(); now.Sub(lastTick) >= l.tick {
			l.state.OnTick()
			l.metrics.RecordTick()
			lastTick = now
		}

		l.checkReload()
	}
	return nil
}

func (l *Loop) render() error {
	timer := StartTimer(l.clock)
	frame := renderer.Frame{
		Lines:  l.doc.Convert(),
		Scroll: l.state.Scroll,
	}
	if err := l.renderer.Render(frame); err != nil {
		return NewComponentError("renderer", "render frame", err)
	}
	l.metrics.RecordRender(timer.Elapsed())
	return nil
}

// checkReload swaps in a fresh document when the watched file changed.
// A failed reload keeps the current document. At most one watcher error
// is logged per call.
func (l *Loop) checkReload() {
	select {
	case err := <-l.watchErrs:
		l.logger.Warn("watch error", zap.Error(err))
	default:
	}

	if l.changes == nil || l.reload == nil {
		return
	}

	var ev watcher.Event
	select {
	case ev = <-l.changes:
	default:
		return
	}

	if ev.Op == watcher.OpRemove {
		l.logger.Warn("watched file removed, keeping last content", zap.String("path", ev.Path))
		return
	}

	doc, err := l.reload()
	if err != nil {
		l.metrics.RecordReload(false)
		l.logger.Warn("reload failed, keeping last content", zap.String("path", ev.Path), zap.Error(err))
		return
	}
	l.metrics.RecordReload(true)
	l.doc = doc
	l.logger.Info("document reloaded",
		zap.String("path", ev.Path),
		zap.Stringer("op", ev.Op),
		zap.Int("lines", doc.LineCount()),
	)
	logDiagnostics(l.logger, doc)
}

// logDiagnostics reports tokenizer contract problems as warnings.
func logDiagnostics(logger *zap.Logger, doc *document.Document) {
	for _, d := range doc.Diagnostics() {
		logger.Warn("tokenizer mismatch",
			zap.Stringer("kind", d.Kind),
			zap.Int("line", d.Line),
			zap.String("detail", d.Message),
		)
	}
}
