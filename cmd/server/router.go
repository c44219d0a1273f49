package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexhide/ocrflow/internal/api"
	apiMiddleware "github.com/lexhide/ocrflow/internal/api/middleware"
	"github.com/lexhide/ocrflow/internal/api/shared"
	"github.com/lexhide/ocrflow/internal/queue"
	"github.com/lexhide/ocrflow/internal/upload"
)

// newRouter configures the application router with all routes and middleware.
func newRouter(engine *queue.Engine, uploads *upload.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	taskHandler := api.NewTaskHandler(engine, logger)
	ocrHandler := api.NewOCRHandler(engine, uploads, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tasks", taskHandler.GetQueueStats)
		r.Get("/tasks/{id}", taskHandler.GetTaskStatus)
		r.Get("/tasks/{id}/result", taskHandler.GetTaskResult)
		r.Delete("/tasks/{id}", taskHandler.CancelTask)

		r.Post("/ocr/parse-async", ocrHandler.ParseAsync)
		r.Post("/ocr/batch-async", ocrHandler.BatchAsync)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := engine.Stats()
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
			"status":        "ok",
			"pending_tasks": stats.PendingTasks,
			"running_tasks": stats.RunningTasks,
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
