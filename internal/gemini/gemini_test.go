package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lehigh-university-libraries/bookswap/internal/providers"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "model overloaded"), true},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"wrapped unavailable", fmt.Errorf("failed to generate content: %w", status.Error(codes.Unavailable, "busy")), true},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad image"), false},
		{"plain 503 text", errors.New("googleapi: Error 503"), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(classify(tt.err), providers.ErrTransient)
			if got != tt.transient {
				t.Errorf("Expected transient=%v, got %v", tt.transient, got)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Error("Expected error for missing API key")
	}
}
