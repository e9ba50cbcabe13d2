package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealth() {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("server", true, "listening")

	if len(healthChecker.components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(healthChecker.components))
	}

	comp := healthChecker.components["server"]
	if !comp.Healthy {
		t.Error("component should be healthy")
	}
	if comp.Message != "listening" {
		t.Errorf("expected message 'listening', got '%s'", comp.Message)
	}
}

func TestGetHealthAllHealthy(t *testing.T) {
	resetHealth()
	SetVersion("1.0.0")

	RegisterComponent("server", true, "")
	RegisterComponent("storage", true, "")

	health := GetHealth()

	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}
	if len(health.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(health.Components))
	}
	if health.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", health.Version)
	}
}

func TestGetHealthOneUnhealthy(t *testing.T) {
	resetHealth()

	RegisterComponent("server", true, "")
	RegisterComponent("storage", false, "database locked")

	health := GetHealth()

	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}
	if health.Components["storage"] != "unhealthy: database locked" {
		t.Errorf("unexpected storage component report: %s", health.Components["storage"])
	}
}

func TestGetReadinessWaitsForCriticalComponents(t *testing.T) {
	resetHealth()

	if got := GetReadiness(); got.Status != "not_ready" {
		t.Errorf("expected 'not_ready' with nothing registered, got '%s'", got.Status)
	}

	RegisterComponent("server", true, "")
	if got := GetReadiness(); got.Status != "not_ready" {
		t.Errorf("expected 'not_ready' with storage missing, got '%s'", got.Status)
	}

	RegisterComponent("storage", true, "")
	if got := GetReadiness(); got.Status != "ready" {
		t.Errorf("expected 'ready', got '%s'", got.Status)
	}

	UpdateComponent("storage", false, "database locked")
	if got := GetReadiness(); got.Status != "not_ready" {
		t.Errorf("expected 'not_ready' after storage failure, got '%s'", got.Status)
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealth()
	RegisterComponent("server", true, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var health HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected 'healthy', got '%s'", health.Status)
	}
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("storage", false, "database locked")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	resetHealth()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	ReadyHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before components register, got %d", rec.Code)
	}

	RegisterComponent("server", true, "")
	RegisterComponent("storage", true, "")

	rec = httptest.NewRecorder()
	ReadyHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once critical components are ready, got %d", rec.Code)
	}
}
