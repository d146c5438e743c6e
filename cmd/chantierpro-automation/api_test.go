package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chantierpro/automation/pkg/email"
	"github.com/chantierpro/automation/pkg/persistence/file"
	"github.com/chantierpro/automation/pkg/ratelimit"
	"github.com/chantierpro/automation/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, limiter *ratelimit.Limiter) *fiber.App {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	dispatcher := workflow.NewDispatcher(p, email.NewSimulatedSender(testLogger()), testLogger())

	return NewAPI(testLogger(), p, dispatcher, limiter).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ChantierPro Automation API", body)
}

func TestAPI_HealthEndpoints(t *testing.T) {
	app := setupTestApp(t, nil)

	for _, path := range []string{"/livez", "/readyz", "/health"} {
		status, _ := get(t, app, path)
		assert.Equal(t, http.StatusOK, status, path)
	}
}

func TestAPI_RoutesMounted(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/rules")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"total_count":0`)

	status, _ = get(t, app, "/executions")
	assert.Equal(t, http.StatusOK, status)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/events/TIME_BASED", strings.NewReader(`{}`)))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestAPI_RateLimited(t *testing.T) {
	cfg := ratelimit.DefaultConfig()
	cfg.Rate = "2-M"

	limiter, err := ratelimit.New(t.Context(), testLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	app := setupTestApp(t, limiter)

	for range 2 {
		status, _ := get(t, app, "/rules")
		require.Equal(t, http.StatusOK, status)
	}

	status, body := get(t, app, "/rules")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, "rate_limited")

	status, _ = get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status, "health probes are not limited")
}
