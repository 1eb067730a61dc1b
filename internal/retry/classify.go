package retry

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// IsRateLimited reports whether err looks like a rate limit or overload
// signal from an upstream provider: HTTP 429/503, RESOURCE_EXHAUSTED, or a
// message mentioning 429, 503 or quota.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if isOverloadStatus(apiErr.Code) || isOverloadState(apiErr.Status) {
			return true
		}
	}

	var coder StatusCoder
	if errors.As(err, &coder) && isOverloadStatus(coder.StatusCode()) {
		return true
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}

func isOverloadStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

func isOverloadState(state string) bool {
	switch strings.ToUpper(state) {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
		return true
	}
	return false
}
