package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/our-little-infinity/auth"
	"github.com/rpupo63/our-little-infinity/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	store     *auth.Store
}

func newAuthHandler(store *auth.Store) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		store:     store,
	}
}

// login normalizes the username (trim, lowercase) and starts a session.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := h.responder.decodeJSON(w, r, "login", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		username := strings.ToLower(strings.TrimSpace(req.Username))
		if username == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("username"))
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		user := h.store.Login(r.Context(), username, req.Password)
		if user == nil {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		h.responder.WriteJSON(w, sessionResponse{
			Phase:   PhaseMain,
			User:    user,
			IsAdmin: auth.IsAdmin(user),
		})
	}
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.store.Logout(r.Context())
		h.responder.WriteJSON(w, sessionResponse{Phase: PhaseLogin})
	}
}

// session tells a client whether to show the login screen or the journal.
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.store.CurrentUser(r.Context())
		if user == nil {
			h.responder.WriteJSON(w, sessionResponse{Phase: PhaseLogin})
			return
		}

		h.responder.WriteJSON(w, sessionResponse{
			Phase:   PhaseMain,
			User:    user,
			IsAdmin: auth.IsAdmin(user),
		})
	}
}
