package api

import (
	"github.com/rpupo63/our-little-infinity/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	healthHandler healthHandler
	authHandler   authHandler
	entryHandler  entryHandler
	blockHandler  blockHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Phase is the screen a client should show.
type Phase string

const (
	PhaseLogin Phase = "login"
	PhaseMain  Phase = "main"
)

type sessionResponse struct {
	Phase   Phase            `json:"phase"`
	User    *models.AuthUser `json:"user"`
	IsAdmin bool             `json:"isAdmin"`
}

type createEntryRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type entryCollection struct {
	Entries []models.Entry `json:"entries"`
	Total   int            `json:"total"`
}

type textBlockRequest struct {
	Content string `json:"content"`
}

type linkBlockRequest struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	Database         string `json:"database"`
	MigrationVersion int64  `json:"migrationVersion,omitempty"`
}

type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
