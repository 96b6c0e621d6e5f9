package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"choirgrid/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "merge", "ffmpeg", "mux failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"merge", "ffmpeg", "mux failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestFailureKindAndExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind string
		wantCode int
	}{
		{"nil", nil, "", 0},
		{"configuration", services.Wrap(services.ErrConfiguration, "render", "load title", "", errors.New("x")), "configuration", 2},
		{"validation", services.Wrap(services.ErrValidation, "project", "parse", "bad rotation", nil), "validation", 2},
		{"not found", fmt.Errorf("outer: %w", services.ErrNotFound), "not_found", 2},
		{"external tool", services.Wrap(services.ErrExternalTool, "merge", "ffmpeg", "", nil), "external_tool", 1},
		{"plain", errors.New("io"), "failed", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := services.FailureKind(tt.err); kind != tt.wantKind {
				t.Fatalf("FailureKind = %q, want %q", kind, tt.wantKind)
			}
			if code := services.ExitCode(tt.err); code != tt.wantCode {
				t.Fatalf("ExitCode = %d, want %d", code, tt.wantCode)
			}
		})
	}
}
