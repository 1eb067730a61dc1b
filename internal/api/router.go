// Package api exposes the normalization engine and the extraction job queue
// over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/api/handlers"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/api/middleware"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Statements    *pipeline.StatementProcessor
	Invoices      *pipeline.InvoiceProcessor
	TrialBalances *pipeline.TrialBalanceProcessor

	Store     jobs.JobStore
	Publisher jobs.Publisher

	Log zerolog.Logger
}

// NewRouter builds the HTTP handler with the standard middleware chain.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logger(deps.Log))
	r.Use(middleware.CORS)

	normalize := handlers.NewNormalizeHandler(deps.Statements, deps.Invoices, deps.TrialBalances, deps.Log)
	jobsHandler := handlers.NewJobsHandler(deps.Store, deps.Publisher, deps.Log)

	r.Mount("/api/normalize", normalize.Routes())

	r.Post("/api/extractions", jobsHandler.CreateExtraction)
	r.Get("/api/jobs", jobsHandler.ListJobs)
	r.Get("/api/jobs/{id}", jobsHandler.GetJob)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})

	return r
}
