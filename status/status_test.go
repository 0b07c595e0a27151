package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/packetflow/config"
	"github.com/kbukum/packetflow/observability"
)

type fixedHealth []observability.Health

func (f fixedHealth) CheckHealth(context.Context) []observability.Health { return f }

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %s response %q: %v", path, w.Body.String(), err)
	}
	return w, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		components fixedHealth
		wantCode   int
		wantStatus string
	}{
		{
			name:       "no components",
			wantCode:   http.StatusOK,
			wantStatus: "up",
		},
		{
			name: "all up",
			components: fixedHealth{
				{Name: "pipeline", Status: observability.HealthStatusUp},
				{Name: "status", Status: observability.HealthStatusUp},
			},
			wantCode:   http.StatusOK,
			wantStatus: "up",
		},
		{
			name: "degraded",
			components: fixedHealth{
				{Name: "pipeline", Status: observability.HealthStatusDegraded},
			},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name: "down wins",
			components: fixedHealth{
				{Name: "pipeline", Status: observability.HealthStatusDown, Message: "runnable failed"},
				{Name: "status", Status: observability.HealthStatusDegraded},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "down",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{Service: "packetflow", Health: tt.components})
			w, body := get(t, s.Handler(), "/healthz")
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("expected status %q, got %v", tt.wantStatus, body["status"])
			}
			if body["service"] != "packetflow" {
				t.Errorf("expected service packetflow, got %v", body["service"])
			}
		})
	}
}

func TestHealth_FailedStage(t *testing.T) {
	stats := observability.NewStats()
	ctx := context.Background()
	stats.StageStarted(ctx, "split", "classify")
	stats.StageFinished(ctx, "split", "classify", fmt.Errorf("dispatch index 3 out of range"))

	s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{Service: "packetflow", Stats: stats})
	w, body := get(t, s.Handler(), "/healthz")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	if body["status"] != "down" {
		t.Errorf("expected down, got %v", body["status"])
	}
}

func TestStats(t *testing.T) {
	stats := observability.NewStats()
	ctx := context.Background()
	stats.StageStarted(ctx, "split", "classify")
	stats.ItemReceived(ctx, "split")
	stats.ItemReceived(ctx, "split")
	stats.ItemEmitted(ctx, "split", 1)
	stats.ItemDropped(ctx, "split")

	s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{Service: "packetflow", Stats: stats})

	w, body := get(t, s.Handler(), "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	stages, ok := body["stages"].([]any)
	if !ok || len(stages) != 1 {
		t.Fatalf("expected one stage, got %v", body["stages"])
	}

	w, body = get(t, s.Handler(), "/stats/split")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["received"] != float64(2) || body["emitted"] != float64(1) || body["dropped"] != float64(1) {
		t.Errorf("unexpected counters %v", body)
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Error("expected a request id header")
	}
}

func TestStats_Errors(t *testing.T) {
	t.Run("unknown stage", func(t *testing.T) {
		s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{Stats: observability.NewStats()})
		w, body := get(t, s.Handler(), "/stats/missing")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		errBody, _ := body["error"].(map[string]any)
		if errBody["code"] != "NOT_FOUND" {
			t.Errorf("expected NOT_FOUND, got %v", body)
		}
	})

	t.Run("no stats", func(t *testing.T) {
		s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{})
		w, _ := get(t, s.Handler(), "/stats")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})
}

func TestVersion(t *testing.T) {
	s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{})
	w, body := get(t, s.Handler(), "/version")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["version"] == "" || body["go_version"] == nil {
		t.Errorf("unexpected version body %v", body)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	s := New(config.Status{Addr: "127.0.0.1:0"}, Sources{Service: "packetflow"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
