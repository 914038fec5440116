package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/midday-ai/canvas/internal/config"
	"github.com/midday-ai/canvas/internal/log"
	"github.com/midday-ai/canvas/internal/metrics"
)

func simulationConfig() *config.Config {
	return &config.Config{
		ListenAddr:         ":0",
		Provider:           config.ProviderSimulation,
		StallTimeout:       config.DefaultStallTimeout,
		SessionTTL:         config.DefaultSessionTTL,
		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
		PostgresPort:       5432,
	}
}

func TestSetupSimulationMode(t *testing.T) {
	a, err := Setup(context.Background(), simulationConfig(), log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	if a.Genkit != nil {
		t.Error("simulation mode initialized Genkit")
	}
	if a.DBPool != nil {
		t.Error("simulation mode opened a database pool")
	}
	if _, ok := a.Provider.(*metrics.Static); !ok {
		t.Errorf("provider = %T, want *metrics.Static", a.Provider)
	}
	if a.Server == nil || a.Sessions == nil {
		t.Fatal("server or sessions not built")
	}
}

func TestSetupServesHealth(t *testing.T) {
	a, err := Setup(context.Background(), simulationConfig(), log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer a.Close()

	w := httptest.NewRecorder()
	a.Server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
}

func TestCloseIsIdempotentEnough(t *testing.T) {
	a, err := Setup(context.Background(), simulationConfig(), log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// The sweeper goroutine must have stopped; give the scheduler a beat.
	time.Sleep(10 * time.Millisecond)
}
