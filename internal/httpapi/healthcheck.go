package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"climate-server/internal/db"
	"climate-server/internal/utils"
)

const healthcheckTimeout = 2 * time.Second

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type storeHealthchecker struct {
	db *sql.DB
}

func NewHealthchecker(store *sql.DB) healthchecker {
	return &storeHealthchecker{db: store}
}

// handleHealthz goes straight to the pool, not through the circuit breaker,
// so it reports on the store itself. A store whose tables went missing
// after startup is reported unhealthy too.
func (h *storeHealthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("climate store ping failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "climate store unreachable")
		return
	}
	if err := db.CheckSchema(ctx, h.db); err != nil {
		slog.Error("climate store schema check failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "climate store schema mismatch")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, store *sql.DB) {
	mux.HandleFunc("GET /healthz", NewHealthchecker(store).handleHealthz)
}
