package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"taskflow-backend/internal/handlers"
	"taskflow-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	timerHandler *handlers.TimerHandler,
	metricsHandler *handlers.MetricsHandler,
	taskHandler *handlers.TaskHandler,
	insightHandler *handlers.InsightHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Timer mutation limiter (60 req/min per IP)
	timerLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Timer Routes ────
		r.Route("/timer", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/active", timerHandler.Active)

			r.Group(func(r chi.Router) {
				r.Use(timerLimiter.Middleware)
				r.Post("/start", timerHandler.Start)
				r.Post("/pause", timerHandler.Pause)
				r.Post("/resume", timerHandler.Resume)
				r.Post("/stop", timerHandler.Stop)
				r.Post("/switch-task", timerHandler.SwitchTask)
			})
		})

		// ──── Metrics Routes ────
		r.Route("/metrics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/daily", metricsHandler.Daily)
			r.Get("/weekly", metricsHandler.Weekly)
			r.Get("/monthly", metricsHandler.Monthly)
			r.Get("/range", metricsHandler.Range)
			r.Get("/dashboard", metricsHandler.Dashboard)
			r.Get("/heatmap", metricsHandler.Heatmap)
			r.Get("/projects", metricsHandler.ProjectTime)
			r.Get("/task-statuses", metricsHandler.TaskStatuses)
			r.Get("/streak", metricsHandler.Streak)
		})

		// ──── Workspace Routes ────
		r.Route("/workspaces", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}/metrics", metricsHandler.Team)
		})

		// ──── Task Routes ────
		r.Route("/tasks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/{id}/complete", taskHandler.Complete)
		})

		// ──── Insight Routes ────
		r.Route("/insights", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", insightHandler.List)
		})
	})

	return r
}
