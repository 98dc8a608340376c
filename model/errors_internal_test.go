package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsFieldError(t *testing.T) {
	direct := newFieldError(ErrCardinality, "ServiceRequest.note", "too many")

	tests := []struct {
		name     string
		err      error
		path     string
		wantKind error
		wantPath string
	}{
		{"field error", direct, "ignored", ErrCardinality, "ServiceRequest.note"},
		{"wrapped field error", fmt.Errorf("check: %w", direct), "ignored", ErrCardinality, "ServiceRequest.note"},
		{"plain error", errors.New("bad value"), "Quantity.value", ErrInvalidValue, "Quantity.value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asFieldError(tt.err, tt.path)
			if got == nil {
				t.Fatal("asFieldError() = nil")
			}
			if !errors.Is(got, tt.wantKind) {
				t.Errorf("Kind = %v; want %v", got.Kind, tt.wantKind)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q; want %q", got.Path, tt.wantPath)
			}
		})
	}

	if got := asFieldError(errors.New("bad value"), "Quantity.value"); got.Field != "value" || got.Detail != "bad value" {
		t.Errorf("wrapped plain error = %+v", got)
	}
}
