package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"climate-server/internal/modules/climate/calendar"
	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// Service assembles the JSON documents served by the climate routes. Each
// repository call runs its own query; nothing is cached between requests.
type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

// Precipitation returns {date: prcp} for every station over the year ending
// at the most recent measurement.
func (s *Service) Precipitation(ctx context.Context) ([]map[string]*float64, error) {
	start, end, err := s.lastYear(ctx)
	if err != nil {
		return nil, err
	}
	readings, err := s.repository.PrecipitationInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]*float64, 0, len(readings))
	for _, p := range readings {
		out = append(out, map[string]*float64{p.Date: p.Value})
	}
	return out, nil
}

// Stations returns {stationId: details} for every station.
func (s *Service) Stations(ctx context.Context) ([]map[string]types.StationDetails, error) {
	stations, err := s.repository.AllStations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]types.StationDetails, 0, len(stations))
	for _, st := range stations {
		out = append(out, map[string]types.StationDetails{
			st.ID: {
				Name:      st.Name,
				Latitude:  st.Latitude,
				Longitude: st.Longitude,
				Elevation: st.Elevation,
			},
		})
	}
	return out, nil
}

// TemperatureObservations returns the most active station's tobs for the
// last year of data as {station: [{date: tobs}, ...]}.
func (s *Service) TemperatureObservations(ctx context.Context) (map[string][]map[string]float64, error) {
	station, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	start, end, err := s.lastYear(ctx)
	if err != nil {
		return nil, err
	}
	observations, err := s.repository.TemperatureObservationsInRange(ctx, station, start, end)
	if err != nil {
		return nil, err
	}
	series := make([]map[string]float64, 0, len(observations))
	for _, o := range observations {
		series = append(series, map[string]float64{o.Date: o.Value})
	}
	return map[string][]map[string]float64{station: series}, nil
}

// StatsFrom reports the most active station's stats from start through the
// most recent measurement.
func (s *Service) StatsFrom(ctx context.Context, start string) (map[string]types.StationRangeStats, error) {
	var station, end string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		station, err = s.repository.MostActiveStation(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		end, err = s.repository.MostRecentDate(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.stationRangeStats(ctx, station, start, end)
}

// StatsBetween reports the most active station's stats over [start, end].
func (s *Service) StatsBetween(ctx context.Context, start, end string) (map[string]types.StationRangeStats, error) {
	station, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, err
	}
	return s.stationRangeStats(ctx, station, start, end)
}

// StationStats reports one station's stats over [start, end].
func (s *Service) StationStats(ctx context.Context, station, start, end string) (map[string]types.StationRangeStats, error) {
	return s.stationRangeStats(ctx, station, start, end)
}

func (s *Service) stationRangeStats(ctx context.Context, station, start, end string) (map[string]types.StationRangeStats, error) {
	stats, err := s.repository.TemperatureStats(ctx, station, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]types.StationRangeStats{
		station: {
			DateRange: [2]string{start, end},
			Stats:     stats,
		},
	}, nil
}

// lastYear is the inclusive window [end - 1 year, end] where end is the most
// recent measurement date.
func (s *Service) lastYear(ctx context.Context) (start, end string, err error) {
	end, err = s.repository.MostRecentDate(ctx)
	if err != nil {
		return "", "", err
	}
	start, err = calendar.OneYearEarlier(end)
	if err != nil {
		return "", "", fmt.Errorf("dataset end date: %w", err)
	}
	return start, end, nil
}
