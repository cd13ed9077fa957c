// Package server assembles the HTTP router: middleware, CORS, metrics and
// the API handlers.
package server

import (
	"net/http"
	"time"

	"finreport_analyzer/pkg/api/analyze"
	"finreport_analyzer/pkg/api/config"
	"finreport_analyzer/pkg/api/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// HealthMessage is returned by GET /.
const HealthMessage = "財報分析 API 服務正常運行中"

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Analyze *analyze.Handler
	// Config is optional; without it the /api/config routes are absent.
	Config         *config.Handler
	Metrics        *Metrics
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds the router.
func NewRouter(d Deps) *chi.Mux {
	log := d.Log.With().Str("component", "http").Logger()
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}).Handler)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/", handleHealth)
	if d.Analyze != nil {
		d.Analyze.Routes(r)
	}
	if d.Config != nil {
		r.Get("/api/config", d.Config.HandleConfig)
		r.Post("/api/config/switch", d.Config.HandleSwitch)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": HealthMessage,
	})
}

// requestLogger logs one line per completed request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
