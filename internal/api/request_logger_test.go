package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestLogger_OmitsQueryString(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(requestLogger(zerolog.New(&buf)))
	e.GET("/api/chat/ws/:room_id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/ws/room-1?token=secret-jwt", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	line := buf.String()
	if strings.Contains(line, "secret-jwt") {
		t.Fatalf("token leaked into access log: %s", line)
	}
	if !strings.Contains(line, `"path":"/api/chat/ws/room-1"`) {
		t.Errorf("expected request path in log line: %s", line)
	}
}
