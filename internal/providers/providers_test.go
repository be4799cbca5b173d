package providers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrTransient, true},
		{"wrapped sentinel", fmt.Errorf("gemini: %w", ErrTransient), true},
		{"status text", errors.New("googleapi: Error 503: The model is overloaded"), true},
		{"overloaded text", errors.New("Model Overloaded, try later"), true},
		{"auth failure", errors.New("received non-200 status code: 401"), false},
		{"malformed", errors.New("unexpected end of JSON input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.expected {
				t.Errorf("IsTransient(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsTransientStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{529, true},
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		if got := IsTransientStatus(tt.status); got != tt.expected {
			t.Errorf("IsTransientStatus(%d) = %v, expected %v", tt.status, got, tt.expected)
		}
	}
}
