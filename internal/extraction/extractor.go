// Package extraction is the boundary to the document-understanding model.
// It sends document pages with an instruction and an output-shape hint and
// returns the raw text; callers must pass that text through repair before use.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/retry"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answered without any text.
var ErrEmptyResponse = errors.New("extraction: empty response from model")

// Part is one binary input, e.g. a PDF or a page image.
type Part struct {
	MIMEType string
	Data     []byte
}

// Request is a single extraction call.
type Request struct {
	Parts       []Part
	Instruction string
	// Schema is the output-shape hint; the response is not trusted to follow it.
	Schema *genai.Schema
}

// Response is the untrusted model output.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Extractor converts documents into near-JSON text.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Response, error)
}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor calls Gemini through google.golang.org/genai. Every call is
// wrapped in the retry policy so rate limits back off uniformly.
type GeminiExtractor struct {
	models contentGenerator
	model  string
	policy *retry.Policy
	log    zerolog.Logger
}

// NewGeminiClient creates a genai client configured from the environment
// (GOOGLE_API_KEY, or GOOGLE_CLOUD_PROJECT/LOCATION for Vertex AI).
func NewGeminiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: %w", err)
	}
	return client, nil
}

// NewGeminiExtractor creates an extractor for model using client.
func NewGeminiExtractor(client *genai.Client, model string, policy *retry.Policy, log zerolog.Logger) *GeminiExtractor {
	return newGeminiExtractor(client.Models, model, policy, log)
}

func newGeminiExtractor(models contentGenerator, model string, policy *retry.Policy, log zerolog.Logger) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	if policy == nil {
		policy = retry.NewPolicy(log)
	}
	return &GeminiExtractor{models: models, model: model, policy: policy, log: log}
}

// Extract sends the request and returns the model's text.
func (e *GeminiExtractor) Extract(ctx context.Context, req Request) (Response, error) {
	parts := []*genai.Part{{Text: req.Instruction}}
	for _, p := range req.Parts {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: p.MIMEType,
				Data:     p.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.Schema != nil {
		config.ResponseSchema = req.Schema
	}

	resp, err := retry.Call(ctx, e.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return e.models.GenerateContent(ctx, e.model, contents, config)
	})
	if err != nil {
		return Response{}, fmt.Errorf("GeminiExtractor.Extract: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	e.log.Debug().
		Str("model", e.model).
		Int("parts", len(req.Parts)).
		Int("input_tokens", out.InputTokens).
		Int("output_tokens", out.OutputTokens).
		Msg("Extraction call completed")
	return out, nil
}
