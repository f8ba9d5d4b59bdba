package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/logger"
	"github.com/dipwatch/dipwatch/pkg/redis"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	return New(cfg, logger.New(cfg))
}

func TestNew(t *testing.T) {
	client := testClient(t)

	if client.httpClient == nil {
		t.Error("Expected http.Client to be initialized")
	}
	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}
}

func TestNewWithTimeout(t *testing.T) {
	cfg := &config.Config{Env: "test", LogLevel: "error"}
	timeout := 5 * time.Second

	client := NewWithTimeout(cfg, logger.New(cfg), timeout)
	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout=%v, got %v", timeout, client.httpClient.Timeout)
	}
}

func TestGetWithDisabledRedisLimiter(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	// With Redis disabled the shared limiter allows everything; the
	// request must still go out.
	limiter := redis.NewRateLimiter(redis.Disabled(), "test")
	client := testClient(t).DisableRetry().WithRateLimiter(limiter, redis.AlphaVantageRateLimit)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if hits != 1 {
		t.Errorf("Expected 1 request, got %d", hits)
	}
}

func TestDoWithRetryRecoversFrom5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	client := testClient(t).WithRetry(2, time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 after retry, got %d", resp.StatusCode)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}
