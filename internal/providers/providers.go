package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrTransient marks a provider failure worth retrying: the service is
// unavailable, overloaded or rate limiting us
var ErrTransient = errors.New("provider temporarily unavailable")

// Image is a labeled photo attached to a request
type Image struct {
	Label    string
	MIMEType string
	Data     []byte
}

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []Image
	// JSON asks the provider to constrain its output to a JSON object
	JSON bool
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "service unavailable")
}

// IsTransientStatus reports whether an HTTP status code signals overload
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusBadGateway, 529:
		return true
	default:
		return false
	}
}
