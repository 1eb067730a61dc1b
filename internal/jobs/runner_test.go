package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs/inmemory"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

// MockStorage serves fixed objects keyed by GCS URI.
type MockStorage struct {
	Objects map[string]string
}

func (m *MockStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	data, ok := m.Objects[uri]
	if !ok {
		return nil, errors.New("object not found")
	}
	return []byte(data), nil
}

// MockExtractor answers with the text registered for the document payload.
type MockExtractor struct {
	Texts map[string]string

	mu           sync.Mutex
	instructions []string
}

func (m *MockExtractor) Extract(ctx context.Context, req extraction.Request) (extraction.Response, error) {
	m.mu.Lock()
	m.instructions = append(m.instructions, req.Instruction)
	m.mu.Unlock()
	return extraction.Response{Text: m.Texts[string(req.Parts[0].Data)]}, nil
}

// MockRunRecorder is a mock implementation of jobs.RunRecorder for testing.
type MockRunRecorder struct {
	StartRunFunc func(ctx context.Context, jobID, kind string) (string, error)

	mu        sync.Mutex
	succeeded [][2]int
	failed    []error
}

func (m *MockRunRecorder) StartRun(ctx context.Context, jobID, kind string) (string, error) {
	if m.StartRunFunc != nil {
		return m.StartRunFunc(ctx, jobID, kind)
	}
	return "run-" + jobID, nil
}

func (m *MockRunRecorder) MarkRunSucceeded(ctx context.Context, runID string, records, failures int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.succeeded = append(m.succeeded, [2]int{records, failures})
	return nil
}

func (m *MockRunRecorder) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, runErr)
}

var _ jobs.RunRecorder = (*MockRunRecorder)(nil)

const statementPage = `{"transactions": [
  {"date": "01/03/2024", "description": "Salary", "debit": 0, "credit": 500, "balance": 1500, "currency": "AED"},
  {"date": "15/03/2024", "description": "Rent", "debit": 200, "credit": 0, "balance": 1300, "currency": "AED"},
  {"date": "02/04/2024", "description": "Fuel", "debit": 50, "credit": 0, "balance": 1250, "currency": "AED"}
]}`

func newRunner(ext *MockExtractor, storage *MockStorage, runs jobs.RunRecorder) *jobs.Runner {
	deps := pipeline.Deps{Extractor: ext, Log: zerolog.Nop()}
	return &jobs.Runner{
		Storage:       storage,
		Statements:    pipeline.NewStatementProcessor(deps, 0),
		Invoices:      pipeline.NewInvoiceProcessor(deps, 2),
		TrialBalances: pipeline.NewTrialBalanceProcessor(deps, 2),
		Runs:          runs,
		Log:           zerolog.Nop(),
	}
}

func TestRunner_Statement(t *testing.T) {
	runs := &MockRunRecorder{}
	r := newRunner(
		&MockExtractor{Texts: map[string]string{"p1": statementPage}},
		&MockStorage{Objects: map[string]string{"gs://bucket/stmt/march.pdf": "p1"}},
		runs,
	)

	job := &jobs.ExtractionJob{
		JobID:          "job-1",
		Kind:           jobs.KindStatement,
		GCSURIs:        []string{"gs://bucket/stmt/march.pdf"},
		OpeningBalance: 1000,
		PeriodFrom:     "2024-03-01",
		PeriodTo:       "31/03/2024",
	}
	require.NoError(t, r.Handle(context.Background(), job))

	assert.Equal(t, "run-job-1", job.RunID)
	assert.Equal(t, 2, job.Records)
	assert.Equal(t, 0, job.Failures)
	assert.Equal(t, [][2]int{{2, 0}}, runs.succeeded)

	var res pipeline.LedgerResult
	require.NoError(t, json.Unmarshal(job.Result, &res))
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "march.pdf", res.Transactions[0].SourceFile)
	assert.Equal(t, "2024-03-15", res.Transactions[1].Date)
}

func TestRunner_InvoicesUseCompany(t *testing.T) {
	ext := &MockExtractor{Texts: map[string]string{
		"i1": `[{"invoiceId": "S-1", "vendorName": "Gulf Star Trading", "customerName": "Acme", "totalAmount": 105, "totalTax": 5, "currency": "AED"}]`,
	}}
	r := newRunner(ext, &MockStorage{Objects: map[string]string{"gs://b/inv.pdf": "i1"}}, nil)

	job := &jobs.ExtractionJob{
		JobID:       "job-2",
		Kind:        jobs.KindInvoices,
		GCSURIs:     []string{"gs://b/inv.pdf"},
		CompanyName: "Gulf Star Trading",
		CompanyTRN:  "100200300400003",
	}
	require.NoError(t, r.Handle(context.Background(), job))
	assert.Empty(t, job.RunID)
	assert.Equal(t, 1, job.Records)

	var res pipeline.InvoiceResult
	require.NoError(t, json.Unmarshal(job.Result, &res))
	require.Len(t, res.Invoices, 1)
	assert.EqualValues(t, "sales", res.Invoices[0].InvoiceType)

	require.Len(t, ext.instructions, 1)
	assert.Contains(t, ext.instructions[0], "TRN 100200300400003")
}

func TestRunner_TrialBalanceCountsFailures(t *testing.T) {
	ext := &MockExtractor{Texts: map[string]string{
		"t1": `{"entries": [{"account": "Sales", "credit": 900}]}`,
		"t2": `not json at all`,
	}}
	runs := &MockRunRecorder{}
	r := newRunner(ext, &MockStorage{Objects: map[string]string{
		"gs://b/tb-1.pdf": "t1",
		"gs://b/tb-2.pdf": "t2",
	}}, runs)

	job := &jobs.ExtractionJob{JobID: "job-3", Kind: jobs.KindTrialBalance, GCSURIs: []string{"gs://b/tb-1.pdf", "gs://b/tb-2.pdf"}}
	require.NoError(t, r.Handle(context.Background(), job))
	assert.Equal(t, 1, job.Records)
	assert.Equal(t, 1, job.Failures)
	assert.Equal(t, [][2]int{{1, 1}}, runs.succeeded)
}

func TestRunner_Errors(t *testing.T) {
	runs := &MockRunRecorder{}
	r := newRunner(&MockExtractor{}, &MockStorage{}, runs)
	ctx := context.Background()

	err := r.Handle(ctx, &jobs.ExtractionJob{JobID: "a", Kind: jobs.KindStatement, GCSURIs: []string{"gs://b/missing.pdf"}})
	assert.ErrorContains(t, err, "object not found")

	err = r.Handle(ctx, &jobs.ExtractionJob{JobID: "b", Kind: "receipts", GCSURIs: []string{"gs://b/x.pdf"}})
	assert.ErrorContains(t, err, `unknown kind "receipts"`)

	err = r.Handle(ctx, &jobs.ExtractionJob{JobID: "c", Kind: jobs.KindInvoices})
	assert.ErrorContains(t, err, "no documents")

	require.Len(t, runs.failed, 3)
	assert.Empty(t, runs.succeeded)
}

func TestRunner_BadPeriod(t *testing.T) {
	r := newRunner(&MockExtractor{}, &MockStorage{Objects: map[string]string{"gs://b/s.pdf": "x"}}, nil)
	err := r.Handle(context.Background(), &jobs.ExtractionJob{
		JobID: "d", Kind: jobs.KindStatement, GCSURIs: []string{"gs://b/s.pdf"}, PeriodFrom: "someday",
	})
	assert.ErrorContains(t, err, "invalid start date")
}

func TestRunner_StartRunFailureDoesNotFailJob(t *testing.T) {
	runs := &MockRunRecorder{StartRunFunc: func(ctx context.Context, jobID, kind string) (string, error) {
		return "", errors.New("bigquery unavailable")
	}}
	r := newRunner(
		&MockExtractor{Texts: map[string]string{"p1": statementPage}},
		&MockStorage{Objects: map[string]string{"gs://b/s.pdf": "p1"}},
		runs,
	)

	job := &jobs.ExtractionJob{JobID: "e", Kind: jobs.KindStatement, GCSURIs: []string{"gs://b/s.pdf"}}
	require.NoError(t, r.Handle(context.Background(), job))
	assert.Empty(t, job.RunID)
	assert.Empty(t, runs.succeeded)
}

func TestRunner_ThroughQueue(t *testing.T) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, 2, store).WithRetries(1, time.Millisecond)

	r := newRunner(
		&MockExtractor{Texts: map[string]string{"p1": statementPage}},
		&MockStorage{Objects: map[string]string{"gs://b/s.pdf": "p1"}},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, queue.Start(ctx, r.Handle))

	ok := &jobs.ExtractionJob{Kind: jobs.KindStatement, GCSURIs: []string{"gs://b/s.pdf"}}
	bad := &jobs.ExtractionJob{Kind: jobs.KindStatement, GCSURIs: []string{"gs://b/gone.pdf"}}
	require.NoError(t, queue.Publish(ctx, ok))
	require.NoError(t, queue.Publish(ctx, bad))

	assert.Eventually(t, func() bool {
		j, err := store.GetJob(ctx, ok.JobID)
		return err == nil && j.Status == jobs.JobStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		j, err := store.GetJob(ctx, bad.JobID)
		return err == nil && j.Status == jobs.JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	done, err := store.GetJob(ctx, ok.JobID)
	require.NoError(t, err)
	assert.Equal(t, 3, done.Records)
	assert.True(t, strings.HasPrefix(string(done.Result), `{"transactions":`))

	failed, err := store.GetJob(ctx, bad.JobID)
	require.NoError(t, err)
	assert.Equal(t, 1, failed.RetryCount)
	assert.Contains(t, failed.Error, "object not found")

	require.NoError(t, queue.Stop(context.Background()))
}
