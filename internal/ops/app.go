package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/config"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/weather"
)

// WeatherFetcher looks up the forecast for a destination.
type WeatherFetcher interface {
	Fetch(ctx context.Context, city, country string) (*checklist.Weather, error)
}

// App is the application controller. It owns the current checklist snapshot,
// runs the pure transforms of package checklist against it, swaps the result
// in atomically and persists it.
//
// Persisting is best-effort: a failed write is logged and the in-memory
// snapshot stays authoritative.
type App struct {
	db      *sql.DB
	cfg     *config.Config
	weather WeatherFetcher
	now     func() time.Time

	ctl      *weather.Controller
	debounce *weather.Debouncer

	mu    sync.Mutex
	state checklist.State
}

// Option customizes an App.
type Option func(*App)

// WithWeather replaces the Open-Meteo client.
func WithWeather(f WeatherFetcher) Option {
	return func(a *App) { a.weather = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New loads the saved snapshot (or bootstraps one from the configured trip
// defaults) and returns a ready controller.
func New(database *sql.DB, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := &App{
		db:  database,
		cfg: cfg,
		now: time.Now,
		ctl: &weather.Controller{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.weather == nil {
		a.weather = weather.NewClient(weather.Config{
			GeocodeURL:  cfg.WeatherGeocodeURL,
			ForecastURL: cfg.WeatherForecastURL,
			Timeout:     cfg.WeatherTimeout(),
		})
	}
	a.debounce = weather.NewDebouncer(cfg.WeatherDebounce(), a.ctl)

	var saved *checklist.State
	if database != nil {
		var err error
		saved, err = db.LoadState(database)
		if err != nil {
			slog.Warn("discarding unreadable saved checklist", "error", err)
			saved = nil
		}
	}

	a.state = checklist.Init(saved, a.defaultTrip())
	if saved == nil {
		a.persist(a.state)
	}
	updateGauges(a.state)
	return a, nil
}

// Close stops pending weather lookups.
func (a *App) Close() {
	a.debounce.Stop()
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// State returns the current snapshot. Snapshots are immutable; callers must
// not modify the returned slices.
func (a *App) State() checklist.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) defaultTrip() checklist.Trip {
	return checklist.Trip{
		City:         a.cfg.DefaultCity,
		Country:      a.cfg.DefaultCountry,
		DurationDays: a.cfg.DefaultDurationDays,
		GeneratedAt:  a.nowMillis(),
	}
}

func (a *App) nowMillis() int64 {
	return a.now().UnixMilli()
}

// update runs fn against the current snapshot and commits its result.
// When fn fails nothing is committed.
func (a *App) update(op string, fn func(checklist.State) (checklist.State, error)) (checklist.State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := fn(a.state)
	if err != nil {
		return a.state, err
	}
	a.commitLocked(op, next)
	return next, nil
}

// commitLocked swaps in next and persists it. Callers hold a.mu.
func (a *App) commitLocked(op string, next checklist.State) {
	a.state = next
	operationsTotal.WithLabelValues(op).Inc()
	updateGauges(next)
	a.persist(next)
}

func (a *App) persist(s checklist.State) {
	if a.db == nil {
		return
	}
	if err := db.SaveState(a.db, s); err != nil {
		persistFailures.Inc()
		slog.Warn("failed to persist checklist", "error", err)
	}
}
