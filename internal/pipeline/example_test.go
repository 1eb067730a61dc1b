package pipeline_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/extraction"
	"github.com/tech6-code/DocuFlow-AI-sub007/internal/pipeline"
)

// MockExtractor is a mock implementation of extraction.Extractor for testing.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, req extraction.Request) (extraction.Response, error)

	mu       sync.Mutex
	requests []extraction.Request
}

func (m *MockExtractor) Extract(ctx context.Context, req extraction.Request) (extraction.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, req)
	}
	return extraction.Response{Text: "[]"}, nil
}

func (m *MockExtractor) Requests() []extraction.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]extraction.Request(nil), m.requests...)
}

// byDocument answers each request with the text registered for its first
// part's payload.
func byDocument(texts map[string]string, errs map[string]error) func(ctx context.Context, req extraction.Request) (extraction.Response, error) {
	return func(ctx context.Context, req extraction.Request) (extraction.Response, error) {
		if len(req.Parts) == 0 {
			return extraction.Response{}, fmt.Errorf("no parts")
		}
		key := string(req.Parts[0].Data)
		if err, ok := errs[key]; ok {
			return extraction.Response{}, err
		}
		return extraction.Response{Text: texts[key]}, nil
	}
}

// MockStorageService is a mock implementation of StorageService for testing.
type MockStorageService struct {
	FetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *MockStorageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, uri)
	}
	return []byte("mock pdf data"), nil
}

// MockRateProvider is a mock implementation of currency.RateProvider for testing.
type MockRateProvider struct {
	Rates map[string]float64
}

func (m *MockRateProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	if r, ok := m.Rates[from+"/"+to]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("no rate for %s/%s", from, to)
}

var (
	_ extraction.Extractor    = (*MockExtractor)(nil)
	_ pipeline.StorageService = (*MockStorageService)(nil)
)

func doc(name, payload string) pipeline.Document {
	return pipeline.Document{Name: name, MIMEType: "application/pdf", Data: []byte(payload)}
}
