package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/utils"
)

var availableRoutes = []string{
	"/api/v1.0/precipitation",
	"/api/v1.0/stations",
	"/api/v1.0/tobs",
	"/api/v1.0/<start>",
	"/api/v1.0/<start>/<end>",
	"/api/v1.0/<station>/<start>/<end>",
}

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string][]string{"Available Routes": availableRoutes})
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Stations(r.Context())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleTemperatureObservations(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.TemperatureObservations(r.Context())
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	p, err := parseRangeParams(r, false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := c.service.StatsFrom(r.Context(), p.Start)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStatsBetween(w http.ResponseWriter, r *http.Request) {
	p, err := parseRangeParams(r, false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := c.service.StatsBetween(r.Context(), p.Start, p.End)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleStationStats(w http.ResponseWriter, r *http.Request) {
	p, err := parseRangeParams(r, true)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := c.service.StationStats(r.Context(), p.Station, p.Start, p.End)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// writeQueryError maps service errors onto HTTP statuses.
func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNoData):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		slog.Error("climate query unavailable", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, repository.ErrUnavailable.Error())
	default:
		// Includes repository.ErrMalformedRow.
		slog.Error("climate query failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load climate data")
	}
}
