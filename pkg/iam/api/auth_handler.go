package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/account-idm/pkg/client"
)

// SecureHandler wraps the administration routes with authentication and the
// effective admin check.
func SecureHandler(h *Handler, guard *client.Guard) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(guard.AuthMiddleware)
		r.Use(guard.RequireAdmin)
		h.RegisterRoutes(r)
	})

	return r
}
