package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	apimw "github.com/datadiag/datadiag/internal/httpapi/middleware"
	"github.com/datadiag/datadiag/internal/repo"
	"github.com/datadiag/datadiag/internal/runner"
)

// Server is the HTTP presentation layer over the diagnostics engine. It
// only reads the catalog; all registration happened before the server
// started.
type Server struct {
	Logger   *zap.Logger
	Catalog  *catalog.Catalog
	Runner   *runner.Runner
	Datasets repo.DatasetStore
}

func NewServer(l *zap.Logger, c *catalog.Catalog, r *runner.Runner, ds repo.DatasetStore) *Server {
	return &Server{Logger: l, Catalog: c, Runner: r, Datasets: ds}
}

// Router builds the route tree. Public keys cover listing and running
// diagnostics; uploads need an admin key. Rates are requests per minute
// per client IP.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, adminRPM int) http.Handler {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(publicRPM, publicRPM))

		r.Get("/api/systems", s.handleListSystems)
		r.Get("/api/datasets", s.handleListDatasets)
		r.Post("/api/systems/{system}/run", s.handleRun)
		r.Get("/api/systems/{system}/plots/{name}", s.handlePlot)
		r.Get("/api/systems/{system}/reports/{name}", s.handleReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(adminRPM, adminRPM))

		r.Post("/api/datasets", s.handleUploadDataset)
	})

	return r
}
