package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/most-recent-date.sql
var mostRecentDateSQL string

//go:embed sql/precipitation-in-range.sql
var precipitationInRangeSQL string

//go:embed sql/most-active-station.sql
var mostActiveStationSQL string

//go:embed sql/temperature-observations-in-range.sql
var temperatureObservationsInRangeSQL string

//go:embed sql/temperature-stats.sql
var temperatureStatsSQL string

//go:embed sql/all-stations.sql
var allStationsSQL string

var (
	// ErrNoData means the query matched no measurement rows.
	ErrNoData = errors.New("no data")
	// ErrUnavailable means the store could not answer.
	ErrUnavailable = errors.New("data source unavailable")
	// ErrMalformedRow means the store answered with a row that does not fit
	// the declared schema.
	ErrMalformedRow = errors.New("malformed row")
)

// ClimateRepository is the read-only query layer over the climate store.
// Date bounds are inclusive YYYY-MM-DD strings.
type ClimateRepository interface {
	MostRecentDate(ctx context.Context) (string, error)
	PrecipitationInRange(ctx context.Context, start, end string) ([]types.Precipitation, error)
	MostActiveStation(ctx context.Context) (string, error)
	TemperatureObservationsInRange(ctx context.Context, station, start, end string) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, station, start, end string) (types.TemperatureStats, error)
	AllStations(ctx context.Context) ([]types.Station, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) MostRecentDate(ctx context.Context) (string, error) {
	var date sql.NullString
	if err := r.db.QueryRowContext(ctx, mostRecentDateSQL).Scan(&date); err != nil {
		return "", fmt.Errorf("most recent date: %w", err)
	}
	if !date.Valid {
		return "", fmt.Errorf("most recent date: %w", ErrNoData)
	}
	return date.String, nil
}

func (r *repositoryImpl) PrecipitationInRange(ctx context.Context, start, end string) ([]types.Precipitation, error) {
	rows, err := r.db.QueryContext(ctx, precipitationInRangeSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("precipitation in range: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close precipitation rows", "error", err)
		}
	}()

	out := []types.Precipitation{}
	for rows.Next() {
		var (
			rec  types.Precipitation
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, fmt.Errorf("scan precipitation: %w: %w", ErrMalformedRow, err)
		}
		if prcp.Valid {
			v := prcp.Float64
			rec.Value = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, error) {
	var station sql.NullString
	err := r.db.QueryRowContext(ctx, mostActiveStationSQL).Scan(&station)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("most active station: %w", ErrNoData)
	}
	if err != nil {
		return "", fmt.Errorf("most active station: %w", err)
	}
	if !station.Valid {
		return "", fmt.Errorf("most active station: %w: NULL station id", ErrMalformedRow)
	}
	return station.String, nil
}

func (r *repositoryImpl) TemperatureObservationsInRange(ctx context.Context, station, start, end string) ([]types.TemperatureObservation, error) {
	rows, err := r.db.QueryContext(ctx, temperatureObservationsInRangeSQL, station, start, end)
	if err != nil {
		return nil, fmt.Errorf("temperature observations in range: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close temperature observation rows", "error", err)
		}
	}()

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var rec types.TemperatureObservation
		if err := rows.Scan(&rec.Date, &rec.Value); err != nil {
			return nil, fmt.Errorf("scan temperature observation: %w: %w", ErrMalformedRow, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, station, start, end string) (types.TemperatureStats, error) {
	var (
		n            int
		lo, hi, mean sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, temperatureStatsSQL, station, start, end).Scan(&n, &lo, &hi, &mean)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats: %w", err)
	}
	if n == 0 {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats for %s in [%s, %s]: %w", station, start, end, ErrNoData)
	}
	return types.TemperatureStats{
		Min: lo.Float64,
		Avg: types.OneDecimal(roundOneDecimal(mean.Float64)),
		Max: hi.Float64,
	}, nil
}

func (r *repositoryImpl) AllStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, allStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("all stations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()

	out := []types.Station{}
	for rows.Next() {
		var (
			s                   types.Station
			name                sql.NullString
			lat, lon, elevation sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &name, &lat, &lon, &elevation); err != nil {
			return nil, fmt.Errorf("scan station: %w: %w", ErrMalformedRow, err)
		}
		s.Name = name.String
		s.Latitude = nullableFloat(lat)
		s.Longitude = nullableFloat(lon)
		s.Elevation = nullableFloat(elevation)
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// roundOneDecimal rounds half away from zero on the shortest decimal form of
// v, so 0.15 rounds to 0.2 and 0.14999999999999997 to 0.1.
func roundOneDecimal(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return v
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ".")
	if len(frac) < 2 {
		return v
	}
	tenths, err := strconv.ParseInt(whole+frac[:1], 10, 64)
	if err != nil {
		return v
	}
	if frac[1] >= '5' {
		tenths++
	}
	if tenths == 0 {
		return 0
	}
	return math.Copysign(float64(tenths)/10, v)
}
