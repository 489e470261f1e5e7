package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelayClient(t *testing.T) {
	client := NewRelayClient("http://localhost:8787/")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8787", client.baseURL)
	assert.NotNil(t, client.client)
	assert.Equal(t, 30*time.Second, client.client.Timeout)
}

func TestPreflight_Granted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodOptions, r.Method)
		assert.Equal(t, "/proxy/insert-meter-reading", r.URL.Path)
		assert.Equal(t, "https://app.gridpulse.example", r.Header.Get("Origin"))
		assert.Equal(t, "POST", r.Header.Get("Access-Control-Request-Method"))

		w.Header().Set("Access-Control-Allow-Origin", "https://app.gridpulse.example")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	result, err := client.Preflight("insert-meter-reading", "https://app.gridpulse.example")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, result.Status)
	assert.True(t, result.Granted("https://app.gridpulse.example"))
	assert.Equal(t, "POST, OPTIONS", result.AllowMethods)
	assert.Equal(t, "Content-Type", result.AllowHeaders)
}

func TestPreflight_Denied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Relay omits the allow-origin header for unknown origins
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	result, err := client.Preflight("insert-meter-reading", "https://evil.example")
	require.NoError(t, err)

	assert.False(t, result.Granted("https://evil.example"))
	assert.Empty(t, result.AllowOrigin)
}

func TestForward_BuildsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://app.gridpulse.example", r.Header.Get("Origin"))

		var envelope map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&envelope)
		require.NoError(t, err)

		assert.Equal(t, "https://backend.example/fn", envelope["target_url"])
		assert.Equal(t, "M1", envelope["meter_number"])
		assert.Equal(t, 10.5, envelope["kwh_consumed"])

		w.Header().Set("Access-Control-Allow-Origin", "https://app.gridpulse.example")
		w.Header().Set("X-Request-ID", "req-123")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	result, err := client.Forward("insert-meter-reading", "https://app.gridpulse.example",
		"https://backend.example/fn",
		map[string]interface{}{"meter_number": "M1", "kwh_consumed": 10.5},
	)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, `{"status":"ok"}`, string(result.Body))
	assert.Equal(t, "https://app.gridpulse.example", result.AllowOrigin)
	assert.Equal(t, "req-123", result.RequestID)
}

func TestForward_RelayErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		w.Write([]byte(`{"error":"upstream timed out","code":"timeout"}`))
	}))
	defer server.Close()

	client := NewRelayClient(server.URL)
	result, err := client.Forward("insert-meter-reading", "", "https://backend.example/fn", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusGatewayTimeout, result.Status)
	assert.Contains(t, string(result.Body), `"code":"timeout"`)
}

func TestForward_NetworkError(t *testing.T) {
	client := NewRelayClient("http://127.0.0.1:1")
	_, err := client.Forward("insert-meter-reading", "", "https://backend.example/fn", nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		expectErr bool
	}{
		{name: "healthy", status: http.StatusOK, expectErr: false},
		{name: "unhealthy", status: http.StatusServiceUnavailable, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/healthz", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewRelayClient(server.URL)
			err := client.Health()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBackendClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)

		assert.Equal(t, "M1", payload["meter_number"])
		assert.NotContains(t, payload, "target_url")

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewBackendClient()
	result, err := client.Post(server.URL+"/functions/v1/insert-meter-reading",
		map[string]interface{}{"meter_number": "M1"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, `{"status":"ok"}`, string(result.Body))
}
