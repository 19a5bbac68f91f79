package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rpupo63/our-little-infinity/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 3 * time.Second

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          database.Database
	startupTime time.Time
}

func newHealthHandler(db database.Database, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

// health reports uptime and database reachability. The status stays 200 when
// the database is down so the process is not restarted for an outage it
// cannot fix.
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		response := healthResponse{
			Status:   "ok",
			Uptime:   time.Since(h.startupTime).Round(time.Second).String(),
			Database: "ok",
		}

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Database ping failed")
			response.Status = "degraded"
			response.Database = "unreachable"
		} else if version, err := h.db.MigrationVersion(ctx); err == nil {
			response.MigrationVersion = version
		}

		h.responder.WriteJSON(w, response)
	}
}
