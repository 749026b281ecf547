package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-apod/pkg/fillworker"
	"github.com/gofiber/fiber/v2"
)

func TestGetFillPoolStats_Uninitialized(t *testing.T) {
	app := fiber.New()
	app.Get("/api/fill-pool/stats", GetFillPoolStats)

	origPool := fillPool
	t.Cleanup(func() { fillPool = origPool })
	SetFillPool(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/fill-pool/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestGetFillPoolStats_Initialized(t *testing.T) {
	app := fiber.New()
	app.Get("/api/fill-pool/stats", GetFillPoolStats)

	ctx, cancel := context.WithCancel(context.Background())
	pool := fillworker.NewPool(3, 10)
	pool.Start(ctx)

	origPool := fillPool
	t.Cleanup(func() {
		cancel()
		pool.Stop()
		fillPool = origPool
	})
	SetFillPool(pool)

	req := httptest.NewRequest(http.MethodGet, "/api/fill-pool/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var stats fillworker.PoolStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.NumWorkers != 3 {
		t.Fatalf("expected 3 workers, got %d", stats.NumWorkers)
	}
}
