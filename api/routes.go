package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the public, user and admin routes
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, loginLimit func(http.Handler) http.Handler) {
	r.Get("/health", handlers.healthHandler.health())

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimit).Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.Get("/session", handlers.authHandler.session())

		// Any logged-in user
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireUser)

			r.Get("/entries", handlers.entryHandler.getAllEntries())
			r.Post("/entries", handlers.entryHandler.createEntry())
			r.Get("/entries/{entryID}", handlers.entryHandler.getEntry())
			r.Put("/entries/{entryID}", handlers.entryHandler.updateEntry())

			r.Post("/entries/{entryID}/blocks/text", handlers.blockHandler.addTextBlock())
			r.Post("/entries/{entryID}/blocks/link", handlers.blockHandler.addLinkBlock())
			r.Post("/entries/{entryID}/blocks/file", handlers.blockHandler.addFileBlock())
			r.Put("/entries/{entryID}/blocks/{blockID}", handlers.blockHandler.updateBlock())
			r.Put("/entries/{entryID}/blocks/{blockID}/link", handlers.blockHandler.updateLinkBlock())

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.requireAdmin)

				r.Delete("/entries/{entryID}", handlers.entryHandler.deleteEntry())
				r.Delete("/entries/{entryID}/blocks/{blockID}", handlers.blockHandler.deleteBlock())
			})
		})
	})
}
