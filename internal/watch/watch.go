// Package watch re-analyzes a fixed symbol list on a cron schedule and hands
// each result to a notifier. Nothing is persisted between runs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/notify"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// DefaultSchedule runs hourly on weekdays. Specs include a seconds field.
const DefaultSchedule = "0 0 * * * 1-5"

// ErrNoSymbols is returned when the watch list is empty.
var ErrNoSymbols = errors.New("watch: no symbols configured")

// Analyzer runs one analysis. *agent.Orchestrator implements it.
type Analyzer interface {
	Analyze(ctx context.Context, raw string) (*models.Analysis, error)
}

// Watcher owns the cron scheduler for watch mode.
type Watcher struct {
	analyzer Analyzer
	notifier notify.Notifier
	symbols  []string
	schedule string
	log      zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Watcher. An empty schedule uses DefaultSchedule.
func New(analyzer Analyzer, notifier notify.Notifier, symbols []string, schedule string, log zerolog.Logger) *Watcher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Watcher{
		analyzer: analyzer,
		notifier: notifier,
		symbols:  append([]string(nil), symbols...),
		schedule: schedule,
		log:      log.With().Str("component", "watch").Logger(),
	}
}

// Start registers the job and starts the scheduler. Runs that overlap a
// still-running job are skipped. ctx bounds every scheduled run.
func (w *Watcher) Start(ctx context.Context) error {
	if len(w.symbols) == 0 {
		return ErrNoSymbols
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("watch: already started")
	}

	logger := cronLogger{log: w.log}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(w.schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error().Str("event", "watch_run_failed").Err(err).Msg("scheduled run had failures")
		}
	}); err != nil {
		return fmt.Errorf("watch: invalid schedule %q: %w", w.schedule, err)
	}

	c.Start()
	w.cron = c
	w.log.Info().
		Str("event", "watch_started").
		Str("schedule", w.schedule).
		Strs("symbols", w.symbols).
		Msg("watch scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	w.log.Info().Str("event", "watch_stopped").Msg("watch scheduler stopped")
}

// RunOnce analyzes every symbol in order and notifies each result. A failed
// symbol does not stop the others; all failures are joined.
func (w *Watcher) RunOnce(ctx context.Context) error {
	if len(w.symbols) == 0 {
		return ErrNoSymbols
	}

	var errs []error
	for _, sym := range w.symbols {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		a, err := w.analyzer.Analyze(ctx, sym)
		if err != nil {
			w.log.Warn().Str("event", "watch_symbol_failed").Str("symbol", sym).Err(err).Msg("analysis failed")
			errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			continue
		}
		if w.notifier == nil {
			continue
		}
		if err := w.notifier.Notify(ctx, a); err != nil {
			w.log.Warn().Str("event", "notify_failed").Str("symbol", sym).Err(err).Msg("delivery failed")
			errs = append(errs, fmt.Errorf("%s: notify: %w", sym, err))
		}
	}
	return errors.Join(errs...)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
