package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs/inmemory"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

type testServer struct {
	handler http.Handler
	store   *inmemory.Store
}

func newTestServer() *testServer {
	deps := pipeline.Deps{Log: zerolog.Nop()}
	store := inmemory.NewStore()
	return &testServer{
		handler: NewRouter(Deps{
			Statements:    pipeline.NewStatementProcessor(deps, 0),
			Invoices:      pipeline.NewInvoiceProcessor(deps, 1),
			TrialBalances: pipeline.NewTrialBalanceProcessor(deps, 1),
			Store:         store,
			Publisher:     inmemory.NewQueue(10, 1, store),
			Log:           zerolog.Nop(),
		}),
		store: store,
	}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := newTestServer().do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestNormalizeTransactions(t *testing.T) {
	s := newTestServer()
	body := "```json\n" + `{"transactions": [
		{"date": "01/03/2024", "description": "Salary", "debit": 0, "credit": 500, "balance": 1500},
		{"date": "01/03/2024", "description": "Salary", "debit": 0, "credit": 500, "balance": 1500},
		{"date": "10/04/2024", "description": "Rent", "debit": 200, "credit": 0, "balance": 1300}
	]}` + "\n```"

	rec := s.do(http.MethodPost, "/api/normalize/transactions?opening_balance=1000&to=2024-03-31&source=march.pdf", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.LedgerResult
	decode(t, rec, &res)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "2024-03-01", res.Transactions[0].Date)
	assert.Equal(t, "march.pdf", res.Transactions[0].SourceFile)
	assert.Equal(t, "AED", res.Transactions[0].Currency)
}

func TestNormalizeTransactions_BadInput(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{"empty body", "/api/normalize/transactions", "  ", "Request body is empty"},
		{"bad opening balance", "/api/normalize/transactions?opening_balance=abc", "[]", "Invalid opening_balance"},
		{"bad period", "/api/normalize/transactions?from=yesterday", "[]", "invalid start date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestNormalizeTransactions_Unparseable(t *testing.T) {
	rec := newTestServer().do(http.MethodPost, "/api/normalize/transactions", "the model refused")
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.LedgerResult
	decode(t, rec, &res)
	assert.NotNil(t, res.Transactions)
	assert.Empty(t, res.Transactions)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, pipeline.FailureMalformed, res.Failures[0].Kind)
}

func TestNormalizeInvoices(t *testing.T) {
	body := `[{"invoiceId": "S-1", "vendorName": "GULF STAR TRADING", "customerName": "Acme", "totalAmount": 105, "totalTax": 5}]`
	rec := newTestServer().do(http.MethodPost, "/api/normalize/invoices?company_name=Gulf+Star+Trading", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.InvoiceResult
	decode(t, rec, &res)
	require.Len(t, res.Invoices, 1)
	assert.EqualValues(t, "sales", res.Invoices[0].InvoiceType)
	assert.Equal(t, 100.0, res.Invoices[0].TotalBeforeTax)
}

func TestNormalizeTrialBalance(t *testing.T) {
	body := `{"entries": [{"account": "Sales", "credit": 900}, {"account": "Total", "debit": 900, "credit": 900}]}`
	rec := newTestServer().do(http.MethodPost, "/api/normalize/trial-balance", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.TrialBalanceResult
	decode(t, rec, &res)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Sales", res.Entries[0].Account)
}

func TestCreateExtraction(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/extractions", `{
		"kind": "invoices",
		"gcs_uris": ["gs://docs/inv-1.pdf", "gs://docs/inv-2.pdf"],
		"company_name": "Gulf Star Trading",
		"company_trn": "100200300400003"
	}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]string
	decode(t, rec, &resp)
	assert.Equal(t, "pending", resp["status"])
	require.NotEmpty(t, resp["job_id"])

	job, err := s.store.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	assert.Equal(t, jobs.KindInvoices, job.Kind)
	assert.Equal(t, []string{"gs://docs/inv-1.pdf", "gs://docs/inv-2.pdf"}, job.GCSURIs)
	assert.Equal(t, "100200300400003", job.CompanyTRN)

	rec = s.do(http.MethodGet, "/api/jobs/"+resp["job_id"], "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got jobs.ExtractionJob
	decode(t, rec, &got)
	assert.Equal(t, resp["job_id"], got.JobID)
}

func TestCreateExtraction_Validation(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "Invalid request body"},
		{"unknown kind", `{"kind": "receipts", "gcs_uris": ["gs://b/x.pdf"]}`, "kind must be one of"},
		{"no documents", `{"kind": "statement"}`, "gcs_uris is required"},
		{"bad uri", `{"kind": "statement", "gcs_uris": ["https://b/x.pdf"]}`, "invalid URI"},
		{"bad period", `{"kind": "statement", "gcs_uris": ["gs://b/x.pdf"], "period_to": "later"}`, "invalid end date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/extractions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestJobs(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()
	require.NoError(t, s.store.SaveJob(ctx, &jobs.ExtractionJob{JobID: "a", Kind: jobs.KindStatement, Status: jobs.JobStatusCompleted}))
	require.NoError(t, s.store.SaveJob(ctx, &jobs.ExtractionJob{JobID: "b", Kind: jobs.KindTrialBalance, Status: jobs.JobStatusFailed}))

	rec := s.do(http.MethodGet, "/api/jobs?kind=statement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Jobs  []jobs.ExtractionJob `json:"jobs"`
		Count int                  `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "a", list.Jobs[0].JobID)

	rec = s.do(http.MethodGet, "/api/jobs?limit=1", "")
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = s.do(http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job not found")
}

func TestRouting(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/api/extractions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = s.do(http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodOptions, "/api/jobs", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
