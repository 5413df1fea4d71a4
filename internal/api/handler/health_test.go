package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Liveness(t *testing.T) {
	h := NewHealthHandler(nil)
	c, rec := newContext(http.MethodGet, "/health", "", student)
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
}

func TestHealth_Readiness(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthHandler(map[string]Pinger{"mongo": ok, "redis": ok})
	c, rec := newContext(http.MethodGet, "/health/ready", "", student)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	h = NewHealthHandler(map[string]Pinger{"mongo": ok, "redis": down})
	c, rec = newContext(http.MethodGet, "/health/ready", "", student)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusServiceUnavailable)

	var resp readinessResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongo"].Status != "ok" {
		t.Fatalf("unexpected payload %+v", resp)
	}
}
