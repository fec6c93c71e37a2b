package types

import "strconv"

// Station is one row of the station table. Coordinates and elevation are
// nil when the row leaves them NULL.
type Station struct {
	ID        string
	Name      string
	Latitude  *float64
	Longitude *float64
	Elevation *float64
}

// Precipitation is a dated precipitation reading. Value is nil when the
// measurement row carries no prcp.
type Precipitation struct {
	Date  string
	Value *float64
}

// TemperatureObservation is a dated tobs reading.
type TemperatureObservation struct {
	Date  string
	Value float64
}

// TemperatureStats aggregates tobs over one station and date range.
type TemperatureStats struct {
	Min float64    `json:"tmin"`
	Avg OneDecimal `json:"tavg"`
	Max float64    `json:"tmax"`
}

// OneDecimal is a float that always encodes with exactly one fractional
// digit, so 70 is written as 70.0.
type OneDecimal float64

func (d OneDecimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', 1, 64), nil
}

// StationDetails is the metadata block keyed by station id in /stations.
type StationDetails struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// StationRangeStats is the body keyed by station id in the stats routes.
type StationRangeStats struct {
	DateRange [2]string        `json:"date_range"`
	Stats     TemperatureStats `json:"stats"`
}
