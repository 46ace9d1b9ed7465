package app

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/tintview/internal/config"
	"github.com/dshills/tintview/internal/log"
	"github.com/dshills/tintview/internal/renderer"
	"github.com/dshills/tintview/internal/renderer/backend"
	"github.com/dshills/tintview/internal/renderer/core"
	"github.com/dshills/tintview/internal/renderer/highlight"
	"github.com/dshills/tintview/internal/watcher"
)

// Application wires configuration, document, renderer and terminal
// together and runs one viewer session.
type Application struct {
	mu sync.RWMutex

	backend backend.Backend
	clock   Clock
	metrics *Metrics
	loop    *Loop

	watchOpts []watcher.Option

	running atomic.Bool

	opts Options
}

// Options configures the application.
type Options struct {
	// Config holds the validated settings.
	Config config.Config

	// Source is the text to show.
	Source Source

	// Logger receives application logs. When nil the logger carried by
	// Run's context is used.
	Logger *zap.Logger
}

// New creates an application. Nothing is acquired until Run.
func New(opts Options) *Application {
	return &Application{
		clock:   realClock{},
		metrics: NewMetrics(),
		opts:    opts,
	}
}

// SetBackend sets the terminal backend.
// Must be called before Run().
func (app *Application) SetBackend(b backend.Backend) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.backend = b
	return nil
}

// SetClock replaces the wall clock, for tests.
func (app *Application) SetClock(c Clock) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.clock = c
	return nil
}

// Run loads the document, acquires the terminal and runs the loop until
// the quit key or ctx is done. The terminal is released on every return
// path, including a panic inside the loop, which is turned into a
// RecoveredPanicError.
func (app *Application) Run(ctx context.Context) (err error) {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.mu.RLock()
	b, clock := app.backend, app.clock
	app.mu.RUnlock()

	if b == nil {
		return ErrNoBackend
	}

	cfg := app.opts.Config
	logger := app.opts.Logger
	if logger == nil {
		logger = log.L(ctx)
	}
	logger = log.WithComponent(logger, "app")

	theme, err := highlight.LoadTheme(cfg.Theme)
	if err != nil {
		return &InitError{Component: "theme", Err: err}
	}
	quit, err := backend.ParseKey(cfg.QuitKey)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	align, err := renderer.ParseAlignment(cfg.Alignment)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	fg, bg, err := cfg.Colors()
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}

	loader := newDocumentLoader(app.opts.Source, cfg.Language, theme)
	doc, err := loader.Load()
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}
	logger.Info("document loaded",
		zap.String("source", app.opts.Source.Name()),
		zap.String("language", doc.Language()),
		zap.Int("lines", doc.LineCount()),
		zap.Int("token_lines", doc.TokenLineCount()),
	)
	logDiagnostics(logger, doc)

	var (
		changes   <-chan watcher.Event
		watchErrs <-chan error
	)
	if cfg.Watch && app.opts.Source.Path != "" {
		w, werr := watcher.New(app.opts.Source.Path, app.watchOpts...)
		if werr != nil {
			return &InitError{Component: "watcher", Err: werr}
		}
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("closing watcher", zap.Error(cerr))
			}
		}()
		changes = w.Changes()
		watchErrs = w.Errors()
		logger.Debug("watching for changes", zap.String("path", w.Path()))
	}

	if err := b.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer b.Shutdown()
	defer func() {
		if r := recover(); r != nil {
			err = NewRecoveredPanicError(r, string(debug.Stack()))
		}
	}()
	b.HideCursor()

	width, height := b.Size()
	logger.Debug("terminal acquired",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("true_color", b.HasTrueColor()),
	)

	// A blocked poll only returns on input or timeout, so cancellation
	// is delivered as a quit key press.
	stopWake := make(chan struct{})
	var wake sync.WaitGroup
	wake.Add(1)
	go func() {
		defer wake.Done()
		select {
		case <-ctx.Done():
			if perr := b.PostEvent(quit.Event()); perr != nil {
				logger.Debug("posting quit on cancel", zap.Error(perr))
			}
		case <-stopWake:
		}
	}()
	defer func() {
		close(stopWake)
		wake.Wait()
	}()

	ropts := renderer.DefaultOptions()
	ropts.Title = cfg.Title
	ropts.Margin = cfg.Margin
	ropts.TabWidth = cfg.TabWidth
	ropts.Alignment = align
	ropts.Wrap = cfg.Wrap
	ropts.FollowScroll = cfg.FollowScroll
	ropts.BaseStyle = ropts.BaseStyle.
		Merge(theme.BaseStyle()).
		Merge(core.Style{Foreground: fg, Background: bg})

	loop := NewLoop(doc, LoopConfig{
		Backend:     b,
		Renderer:    renderer.New(b, ropts),
		Clock:       clock,
		Tick:        cfg.TickInterval,
		ScrollBound: cfg.ScrollBound,
		QuitKey:     quit,
		Logger:      logger,
		Metrics:     app.metrics,
		Changes:     changes,
		Reload:      loader.Load,
		WatchErrors: watchErrs,
	})

	app.mu.Lock()
	app.loop = loop
	app.mu.Unlock()

	err = loop.Run(ctx)

	fields := append(app.metrics.Snapshot().Fields(), zap.Stringer("phase", loop.Phase()))
	if err != nil {
		logger.Error("viewer failed", append(fields, zap.Error(err))...)
	} else {
		logger.Info("viewer stopped", fields...)
	}
	return err
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// State returns the state of the last loop. It is only meaningful once
// Run has returned.
func (app *Application) State() State {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.loop == nil {
		return State{}
	}
	return app.loop.State()
}

// Metrics returns the run counters.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
