package services_test

import (
	"context"
	"testing"

	"fillerinfo/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithIdentifier(ctx, "tt0409591")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.IdentifierFromContext(ctx); !ok || id != "tt0409591" {
		t.Fatalf("unexpected identifier: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithIdentifier(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.IdentifierFromContext(ctx); ok {
		t.Fatal("expected no identifier value")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
}
