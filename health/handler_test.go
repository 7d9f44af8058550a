package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HandleSystemHealth(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("stream-client", "connected")
	monitor.UpdateHealthy("relay", "publishing")

	server := NewServer(0, "dashstream", monitor, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleSystemHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "dashstream", status.Component)
	assert.True(t, status.IsHealthy())
	assert.Len(t, status.SubStatuses, 2)
}

func TestServer_HandleSystemHealth_Unhealthy(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("stream-client", "connected")
	monitor.UpdateUnhealthy("relay", "broker unreachable")

	server := NewServer(0, "dashstream", monitor, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleSystemHealth(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.IsUnhealthy())
	assert.Equal(t, "1 of 2 components unhealthy", status.Message)
}

func TestServer_HandleLiveness(t *testing.T) {
	server := NewServer(0, "dashstream", NewMonitor(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.handleLiveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_HandleReadiness(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(m *Monitor)
		wantCode int
		wantBody string
	}{
		{
			name:     "empty monitor is ready",
			setup:    func(_ *Monitor) {},
			wantCode: http.StatusOK,
			wantBody: "READY",
		},
		{
			name: "healthy components are ready",
			setup: func(m *Monitor) {
				m.UpdateHealthy("stream-client", "connected")
			},
			wantCode: http.StatusOK,
			wantBody: "READY",
		},
		{
			name: "degraded still counts as ready",
			setup: func(m *Monitor) {
				m.UpdateDegraded("stream-client", "reconnecting")
			},
			wantCode: http.StatusOK,
			wantBody: "READY",
		},
		{
			name: "unhealthy component is not ready",
			setup: func(m *Monitor) {
				m.UpdateUnhealthy("relay", "queue full")
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "NOT READY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor()
			tt.setup(monitor)
			server := NewServer(0, "dashstream", monitor, nil)

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			rec := httptest.NewRecorder()
			server.handleReadiness(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestServer_StartRequiresMonitor(t *testing.T) {
	server := NewServer(0, "dashstream", nil, nil)
	err := server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health monitor not provided")
}

func TestServer_Defaults(t *testing.T) {
	server := NewServer(0, "", NewMonitor(), nil)
	assert.Equal(t, 8081, server.port)
	assert.Equal(t, "system", server.systemName)
	assert.NotNil(t, server.logger)
}
