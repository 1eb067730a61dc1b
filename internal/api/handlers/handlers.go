package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/api/middleware"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/dates"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/gcs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/invoice"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

// MaxTextBytes bounds the raw extraction text accepted by the normalize endpoints.
const MaxTextBytes = 10 << 20

type statementNormalizer interface {
	NormalizeText(ctx context.Context, source, text string, in pipeline.StatementInput) (pipeline.LedgerResult, error)
}

type invoiceNormalizer interface {
	NormalizeText(ctx context.Context, source, text string, company invoice.Company) pipeline.InvoiceResult
}

type trialBalanceNormalizer interface {
	NormalizeText(ctx context.Context, source, text string) pipeline.TrialBalanceResult
}

// NormalizeHandler runs the post-extraction processing on raw model text.
type NormalizeHandler struct {
	statements    statementNormalizer
	invoices      invoiceNormalizer
	trialBalances trialBalanceNormalizer
	log           zerolog.Logger
}

// NewNormalizeHandler creates a new normalize handler.
func NewNormalizeHandler(statements statementNormalizer, invoices invoiceNormalizer, trialBalances trialBalanceNormalizer, log zerolog.Logger) *NormalizeHandler {
	return &NormalizeHandler{
		statements:    statements,
		invoices:      invoices,
		trialBalances: trialBalances,
		log:           log,
	}
}

// Routes mounts the normalize endpoints.
func (h *NormalizeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/transactions", h.NormalizeTransactions)
	r.Post("/invoices", h.NormalizeInvoices)
	r.Post("/trial-balance", h.NormalizeTrialBalance)
	return r
}

// NormalizeTransactions handles POST /api/normalize/transactions
// Query: source, opening_balance, from, to.
func (h *NormalizeHandler) NormalizeTransactions(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var in pipeline.StatementInput
	if s := query.Get("opening_balance"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid opening_balance")
			return
		}
		in.OpeningBalance = v
	}
	period, err := dates.ParseRange(query.Get("from"), query.Get("to"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Period = period

	res, err := h.statements.NormalizeText(r.Context(), source(r), text, in)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to normalize transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to normalize transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// NormalizeInvoices handles POST /api/normalize/invoices
// Query: source, company_name, company_trn.
func (h *NormalizeHandler) NormalizeInvoices(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	company := invoice.Company{Name: query.Get("company_name"), TRN: query.Get("company_trn")}

	middleware.WriteJSON(w, http.StatusOK, h.invoices.NormalizeText(r.Context(), source(r), text, company))
}

// NormalizeTrialBalance handles POST /api/normalize/trial-balance
func (h *NormalizeHandler) NormalizeTrialBalance(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.trialBalances.NormalizeText(r.Context(), source(r), text))
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxTextBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return "", false
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	if strings.TrimSpace(string(body)) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Request body is empty")
		return "", false
	}
	return string(body), true
}

func source(r *http.Request) string {
	if s := r.URL.Query().Get("source"); s != "" {
		return s
	}
	return "request"
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store     jobs.JobStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, publisher jobs.Publisher, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

type extractionRequest struct {
	Kind           jobs.Kind `json:"kind"`
	GCSURIs        []string  `json:"gcs_uris"`
	CompanyName    string    `json:"company_name"`
	CompanyTRN     string    `json:"company_trn"`
	OpeningBalance float64   `json:"opening_balance"`
	PeriodFrom     string    `json:"period_from"`
	PeriodTo       string    `json:"period_to"`
}

func (req extractionRequest) validate() error {
	if !req.Kind.Valid() {
		return errors.New("kind must be one of statement, invoices, trial_balance")
	}
	if len(req.GCSURIs) == 0 {
		return errors.New("gcs_uris is required")
	}
	for _, uri := range req.GCSURIs {
		if _, _, err := gcs.ParseURI(uri); err != nil {
			return err
		}
	}
	if _, err := dates.ParseRange(req.PeriodFrom, req.PeriodTo); err != nil {
		return err
	}
	return nil
}

// CreateExtraction handles POST /api/extractions
func (h *JobsHandler) CreateExtraction(w http.ResponseWriter, r *http.Request) {
	var req extractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.ExtractionJob{
		Kind:           req.Kind,
		GCSURIs:        req.GCSURIs,
		CompanyName:    req.CompanyName,
		CompanyTRN:     req.CompanyTRN,
		OpeningBalance: req.OpeningBalance,
		PeriodFrom:     req.PeriodFrom,
		PeriodTo:       req.PeriodTo,
	}

	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("kind", string(job.Kind)).Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"kind":   string(job.Kind),
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Kind:   jobs.Kind(query.Get("kind")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
