package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rpupo63/our-little-infinity/journal"
	"github.com/rpupo63/our-little-infinity/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type entryHandler struct {
	responder Responder
	logger    zerolog.Logger
	journal   *journal.Repository
}

func newEntryHandler(repo *journal.Repository) entryHandler {
	logger := log.With().Str("handlerName", "entryHandler").Logger()

	return entryHandler{
		responder: NewResponder(logger),
		logger:    logger,
		journal:   repo,
	}
}

// getAllEntries lists entries newest first with their blocks.
func (h entryHandler) getAllEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := h.journal.ListEntries(r.Context())

		h.responder.WriteJSON(w, entryCollection{
			Entries: entries,
			Total:   len(entries),
		})
	}
}

func (h entryHandler) getEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := uuidParam(r, "entryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry := h.journal.GetEntry(r.Context(), entryID)
		if entry == nil {
			h.responder.WriteError(w, errs.NewNotFound("entry"))
			return
		}

		h.responder.WriteJSON(w, entry)
	}
}

// createEntry creates an empty entry owned by the logged-in user.
func (h entryHandler) createEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEntryRequest
		if err := h.responder.decodeJSON(w, r, "entry", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("title"))
			return
		}

		user := ctxGetUser(r.Context())
		if user == nil {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		entry := h.journal.CreateEntry(r.Context(), title, req.Description, user.Username)
		if entry == nil {
			h.responder.WriteError(w, errs.NewWriteError("create", "entry", nil))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, entry)
	}
}

// updateEntry replaces the title when given and always replaces the
// description.
func (h entryHandler) updateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := uuidParam(r, "entryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if h.journal.GetEntry(r.Context(), entryID) == nil {
			h.responder.WriteError(w, errs.NewNotFound("entry"))
			return
		}

		var update models.EntryUpdate
		if err := h.responder.decodeJSON(w, r, "entry", &update); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if update.Title != nil {
			title := strings.TrimSpace(*update.Title)
			if title == "" {
				h.responder.WriteError(w, errs.NewInvalidFieldError("title", "must not be blank"))
				return
			}
			update.Title = &title
		}

		entry := h.journal.UpdateEntry(r.Context(), entryID, update)
		if entry == nil {
			h.responder.WriteError(w, errs.NewWriteError("update", "entry", nil))
			return
		}

		h.responder.WriteJSON(w, entry)
	}
}

func (h entryHandler) deleteEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID, err := uuidParam(r, "entryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if h.journal.GetEntry(r.Context(), entryID) == nil {
			h.responder.WriteError(w, errs.NewNotFound("entry"))
			return
		}

		if !h.journal.DeleteEntry(r.Context(), entryID) {
			h.responder.WriteError(w, errs.NewWriteError("delete", "entry", nil))
			return
		}

		h.responder.WriteJSON(w, statusMessage{
			Status:  "success",
			Message: "entry deleted successfully",
		})
	}
}
