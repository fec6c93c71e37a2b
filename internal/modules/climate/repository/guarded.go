package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"climate-server/internal/modules/climate/types"
)

// BreakerSettings configures the circuit breaker in front of the store.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive store failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

type guardedRepository struct {
	next ClimateRepository
	cb   *gobreaker.CircuitBreaker
}

// NewGuardedRepository fronts next with a circuit breaker. Store failures come
// back wrapped in ErrUnavailable; while the breaker is open calls fail fast
// without touching the store. ErrNoData, ErrMalformedRow and caller
// cancellation never count as failures and come back unwrapped.
func NewGuardedRepository(next ClimateRepository, settings BreakerSettings) ClimateRepository {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "climate-store",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &guardedRepository{next: next, cb: cb}
}

// countsAsFailure reports whether err says the store itself is unhealthy.
// Empty results, rows that do not fit the schema and callers going away
// say nothing about the store.
func countsAsFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrNoData),
		errors.Is(err, ErrMalformedRow),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func guard[T any](g *guardedRepository, fn func() (T, error)) (T, error) {
	v, err := g.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if !countsAsFailure(err) {
			return zero, err
		}
		// Includes gobreaker.ErrOpenState and ErrTooManyRequests.
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v.(T), nil
}

func (g *guardedRepository) MostRecentDate(ctx context.Context) (string, error) {
	return guard(g, func() (string, error) {
		return g.next.MostRecentDate(ctx)
	})
}

func (g *guardedRepository) PrecipitationInRange(ctx context.Context, start, end string) ([]types.Precipitation, error) {
	return guard(g, func() ([]types.Precipitation, error) {
		return g.next.PrecipitationInRange(ctx, start, end)
	})
}

func (g *guardedRepository) MostActiveStation(ctx context.Context) (string, error) {
	return guard(g, func() (string, error) {
		return g.next.MostActiveStation(ctx)
	})
}

func (g *guardedRepository) TemperatureObservationsInRange(ctx context.Context, station, start, end string) ([]types.TemperatureObservation, error) {
	return guard(g, func() ([]types.TemperatureObservation, error) {
		return g.next.TemperatureObservationsInRange(ctx, station, start, end)
	})
}

func (g *guardedRepository) TemperatureStats(ctx context.Context, station, start, end string) (types.TemperatureStats, error) {
	return guard(g, func() (types.TemperatureStats, error) {
		return g.next.TemperatureStats(ctx, station, start, end)
	})
}

func (g *guardedRepository) AllStations(ctx context.Context) ([]types.Station, error) {
	return guard(g, func() ([]types.Station, error) {
		return g.next.AllStations(ctx)
	})
}
