// internal/api/server.go
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/observability"
)

// SessionHeader carries the session id of a browser tab.
const SessionHeader = "X-Session-ID"

type RouterOptions struct {
	AllowedOrigins []string
	Logger         logger.Logger
	// Observability records step counts and durations per route when set.
	Observability *observability.Observability
}

// NewRouter mounts the quote workflow under /api/v1.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessionContext)
		if opts.Observability != nil {
			r.Use(trackSteps(opts.Observability))
		}

		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/current", h.GetSession)

		r.Get("/supported-states", h.SupportedStates)
		r.Post("/qualifier", h.Qualifier)
		r.Post("/premium", h.Premium)

		r.Route("/applications/{program}/{quoteID}", func(r chi.Router) {
			r.Get("/", h.PrepareForm)
			r.Put("/draft", h.SaveDraft)
		})
		r.Post("/applications/submit", h.SubmitApplication)
		r.Post("/review", h.Review)

		r.Post("/payments", h.Pay)

		r.Route("/renewals", func(r chi.Router) {
			r.Post("/auto", h.AutoRenewal)
			r.Post("/second-year", h.SecondYearPayment)
		})

		r.Post("/verification-email", h.SendVerificationEmail)
		r.Post("/documents", h.UploadDocument)
		r.Get("/quotes/{quoteID}/pdf", h.DownloadPDF)
	})

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Info("HTTP request", map[string]interface{}{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"bytes":     ww.BytesWritten(),
				"duration":  time.Since(start).String(),
				"requestId": middleware.GetReqID(r.Context()),
			})
		})
	}
}

// trackSteps records every API call as a processed step named after its
// route pattern. Server-side failures count as errors.
func trackSteps(obs *observability.Observability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			step := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				step = r.Method + " " + rctx.RoutePattern()
			}
			var err error
			if ww.Status() >= http.StatusInternalServerError {
				err = fmt.Errorf("status %d", ww.Status())
			}
			obs.Track(r.Context(), step, start, err)
		})
	}
}
