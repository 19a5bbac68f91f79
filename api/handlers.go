package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/our-little-infinity/auth"
	"github.com/rpupo63/our-little-infinity/database"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/journal"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, repo *journal.Repository, store *auth.Store, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		healthHandler: newHealthHandler(db, startupTime),
		authHandler:   newAuthHandler(store),
		entryHandler:  newEntryHandler(repo),
		blockHandler:  newBlockHandler(repo),
	}
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(name, "not a UUID")
	}
	return id, nil
}
