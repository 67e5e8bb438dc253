package httpapi

import (
	"net/http"

	"composer/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the API surface. staticDir, when non-empty, exposes the
// filesystem storage root under /static so render URLs resolve without an
// object store in front.
func NewRouter(app *handlers.App, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)
	r.Post("/v1/compose", app.Compose)

	if staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
