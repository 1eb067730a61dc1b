package pipeline

import "time"

// Default values for document processing.
const (
	// DefaultMIMEType is assumed for documents whose type cannot be detected.
	DefaultMIMEType = "application/pdf"

	// DefaultPageDelay paces sequential statement page calls.
	DefaultPageDelay = 2 * time.Second

	// DefaultBatchConcurrency bounds in-flight invoice and trial balance calls.
	DefaultBatchConcurrency = 3
)
