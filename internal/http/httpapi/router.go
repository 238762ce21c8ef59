package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"siteclone/internal/http/handlers"
	"siteclone/internal/middleware"
)

type Options struct {
	Logger             zerolog.Logger
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/websites", func(r chi.Router) {
		limited := r
		if opts.RateLimitPerMinute > 0 {
			limited = r.With(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))
		}
		limited.Post("/", app.WebsitesCreate)
		r.Get("/{id}", app.WebsiteGet)
		r.Get("/{id}/archive", app.WebsiteArchive)
	})

	r.Get("/static/{cloneID}", app.Static)
	r.Get("/static/{cloneID}/*", app.Static)

	return r
}
