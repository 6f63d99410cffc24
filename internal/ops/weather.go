package ops

import (
	"context"
	"log/slog"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/weather"
)

// WeatherState is the outcome of a weather lookup.
type WeatherState string

const (
	WeatherReady     WeatherState = "ready"
	WeatherError     WeatherState = "error"
	WeatherCancelled WeatherState = "cancelled"
	WeatherSkipped   WeatherState = "skipped"
)

// WeatherStatus reports a weather lookup. A cancelled status means a newer
// lookup superseded this one; it is not shown to the user.
type WeatherStatus struct {
	State   WeatherState       `json:"state"`
	Weather *checklist.Weather `json:"weather,omitempty"`
	Message string             `json:"message,omitempty"`

	// Retry repeats the lookup; set only for WeatherError.
	Retry func(ctx context.Context) WeatherStatus `json:"-"`
}

// RefreshWeather fetches the forecast for the current destination and
// replaces the weather items. Starting a lookup cancels any lookup still in
// flight, and a lookup whose result arrives after it was superseded commits
// nothing.
func (a *App) RefreshWeather(ctx context.Context) WeatherStatus {
	ctx, tok := a.ctl.Begin(ctx)
	defer a.ctl.Finish(tok)
	return a.lookupWeather(ctx, tok)
}

// ScheduleWeatherRefresh runs RefreshWeather once trip edits have been quiet
// for the configured debounce delay. done, when set, receives the status.
func (a *App) ScheduleWeatherRefresh(ctx context.Context, done func(WeatherStatus)) {
	a.debounce.Trigger(context.WithoutCancel(ctx), func(ctx context.Context, tok weather.Token) {
		status := a.lookupWeather(ctx, tok)
		if done != nil {
			done(status)
		}
	})
}

func (a *App) lookupWeather(ctx context.Context, tok weather.Token) WeatherStatus {
	trip := a.State().Trip
	if trip.City == "" {
		weatherLookups.WithLabelValues(string(WeatherSkipped)).Inc()
		return WeatherStatus{State: WeatherSkipped, Message: "set a destination city to look up the weather"}
	}

	w, err := a.weather.Fetch(ctx, trip.City, trip.Country)
	if errors.Is(err, errors.ErrCancelled) || ctx.Err() != nil {
		return a.discardWeather(trip.City)
	}
	if err != nil {
		weatherLookups.WithLabelValues(string(WeatherError)).Inc()
		slog.Warn("weather lookup failed", "city", trip.City, "error", err)
		return WeatherStatus{
			State:   WeatherError,
			Message: errorMessage(err),
			Retry:   a.RefreshWeather,
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ctl.Current(tok) || a.state.Trip.City != trip.City || a.state.Trip.Country != trip.Country {
		return a.discardWeather(trip.City)
	}

	next := checklist.SetWeather(a.state, w)
	next = checklist.ReconcileWeather(next, weather.Descriptors(w))
	a.commitLocked("weather", next)

	weatherLookups.WithLabelValues(string(WeatherReady)).Inc()
	return WeatherStatus{State: WeatherReady, Weather: w}
}

func (a *App) discardWeather(city string) WeatherStatus {
	weatherLookups.WithLabelValues(string(WeatherCancelled)).Inc()
	slog.Debug("discarding superseded weather result", "city", city)
	return WeatherStatus{State: WeatherCancelled}
}

// errorMessage returns the user-facing message of err.
func errorMessage(err error) string {
	var pErr *errors.PackError
	if errors.As(err, &pErr) {
		return pErr.Message
	}
	return err.Error()
}
