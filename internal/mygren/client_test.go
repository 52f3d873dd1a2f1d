package mygren

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
)

// testClient returns a client pointed at the given test server.
func testClient(server *httptest.Server) *Client {
	return New(config.HeatPumpConfig{
		Host:     server.URL,
		Username: "admin",
		Password: "secret",
		Timeout:  5,
	})
}

// pumpServer simulates the heat pump API for tests.
//
// Each successful login issues a fresh token ("token-1", "token-2", ...).
// Handlers for non-login endpoints receive the bearer token presented.
type pumpServer struct {
	logins  atomic.Int64
	handler func(w http.ResponseWriter, r *http.Request, token string)
}

func (p *pumpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == EndpointLogin {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if creds.Username != "admin" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := p.logins.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"token": "token-" + string(rune('0'+n)),
		})
		return
	}

	token := r.Header.Get("Authorization")
	p.handler(w, r, token)
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin(t *testing.T) {
	pump := &pumpServer{}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := client.getToken(); got != "token-1" {
		t.Errorf("token = %q, want %q", got, "token-1")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	pump := &pumpServer{}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := New(config.HeatPumpConfig{
		Host:     server.URL,
		Username: "admin",
		Password: "wrong",
		Timeout:  5,
	})

	err := client.Login(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Login() error = %v, want ErrAuth", err)
	}
}

func TestLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := testClient(server)
	err := client.Login(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Login() error = %v, want ErrAuth", err)
	}
}

func TestLoginUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // Shut down immediately

	client := testClient(server)
	err := client.Login(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Errorf("Login() error = %v, want ErrConnection", err)
	}
}

// =============================================================================
// Request / Retry Tests
// =============================================================================

func TestTelemetry(t *testing.T) {
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, r *http.Request, token string) {
			if token != "Bearer token-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"Tint":       21.5,
				"hp_enabled": true,
				"program":    "Manual_comfort",
			})
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	tel, err := client.Telemetry(context.Background())
	if err != nil {
		t.Fatalf("Telemetry() error = %v", err)
	}

	if got := tel.Float("Tint"); got != 21.5 {
		t.Errorf("Tint = %v, want 21.5", got)
	}
	if !tel.Bool("hp_enabled") {
		t.Error("hp_enabled = false, want true")
	}
	if got := tel.String("program"); got != "Manual_comfort" {
		t.Errorf("program = %q, want %q", got, "Manual_comfort")
	}
}

func TestRequestRetriesOnceOn401(t *testing.T) {
	var telemetryCalls atomic.Int64
	pump := &pumpServer{}
	pump.handler = func(w http.ResponseWriter, r *http.Request, token string) {
		telemetryCalls.Add(1)
		// The first token is rejected as expired; the re-issued one works.
		if token == "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"Tint": 20.0})
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	tel, err := client.Telemetry(context.Background())
	if err != nil {
		t.Fatalf("Telemetry() error = %v", err)
	}
	if got := tel.Float("Tint"); got != 20.0 {
		t.Errorf("Tint = %v, want 20.0", got)
	}

	if got := telemetryCalls.Load(); got != 2 {
		t.Errorf("telemetry calls = %d, want 2 (original + one retry)", got)
	}
	if got := pump.logins.Load(); got != 2 {
		t.Errorf("logins = %d, want 2 (initial + re-auth)", got)
	}
}

func TestRequestSecond401SurfacesAuthError(t *testing.T) {
	var telemetryCalls atomic.Int64
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
			telemetryCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	_, err := client.Telemetry(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Telemetry() error = %v, want ErrAuth", err)
	}

	if got := telemetryCalls.Load(); got != 2 {
		t.Errorf("telemetry calls = %d, want exactly 2 (no second retry)", got)
	}
}

func TestRequestBadRequest(t *testing.T) {
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("value out of range"))
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	err := client.SetTUVTemperature(context.Background(), 99)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SetTUVTemperature() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Endpoint != EndpointTUVSet {
		t.Errorf("Endpoint = %q, want %q", apiErr.Endpoint, EndpointTUVSet)
	}
}

func TestRequestServiceUnavailable(t *testing.T) {
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	_, err := client.Telemetry(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Errorf("Telemetry() error = %v, want ErrConnection", err)
	}
}

func TestRequestEmptyBody(t *testing.T) {
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
			w.WriteHeader(http.StatusOK) // No body
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	if err := client.SetCurve(context.Background(), 3); err != nil {
		t.Errorf("SetCurve() error = %v, want nil for empty 200 body", err)
	}
}

// =============================================================================
// PUT Payload Tests
// =============================================================================

func TestPutPayloadKeyMapping(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		path string
		body string
	}{
		{
			name: "hot water setpoint",
			call: func(c *Client) error { return c.SetTUVTemperature(context.Background(), 43) },
			path: EndpointTUVSet,
			body: `{"set":43}`,
		},
		{
			name: "heat pump enable",
			call: func(c *Client) error { return c.SetHeatpumpEnabled(context.Background(), true) },
			path: EndpointHeatpumpEnabled,
			body: `{"enabled":1}`,
		},
		{
			name: "boolean false encodes as zero",
			call: func(c *Client) error { return c.SetTUVEnabled(context.Background(), false) },
			path: EndpointTUVEnabled,
			body: `{"enabled":0}`,
		},
		{
			name: "nested endpoint uses last segment",
			call: func(c *Client) error { return c.SetTariffWatch(context.Background(), true) },
			path: EndpointHeatpumpTariffWatch,
			body: `{"watch":1}`,
		},
		{
			name: "program name as string",
			call: func(c *Client) error { return c.SetProgram(context.Background(), "Cooling_comfort") },
			path: EndpointProgramProgram,
			body: `{"program":"Cooling_comfort"}`,
		},
		{
			name: "curve shift can be negative",
			call: func(c *Client) error { return c.SetShift(context.Background(), -3) },
			path: EndpointProgramShift,
			body: `{"shift":-3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath, gotBody string
			pump := &pumpServer{
				handler: func(w http.ResponseWriter, r *http.Request, _ string) {
					gotMethod = r.Method
					gotPath = r.URL.Path
					buf := make([]byte, r.ContentLength)
					r.Body.Read(buf)
					gotBody = string(buf)
					w.WriteHeader(http.StatusOK)
				},
			}
			server := httptest.NewServer(pump)
			defer server.Close()

			client := testClient(server)
			if err := tt.call(client); err != nil {
				t.Fatalf("setter error = %v", err)
			}

			if gotMethod != http.MethodPut {
				t.Errorf("method = %q, want PUT", gotMethod)
			}
			if gotPath != tt.path {
				t.Errorf("path = %q, want %q", gotPath, tt.path)
			}
			if gotBody != tt.body {
				t.Errorf("body = %q, want %q", gotBody, tt.body)
			}
		})
	}
}

// =============================================================================
// Host Normalization Tests
// =============================================================================

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare host gets https", "192.168.1.50", "https://192.168.1.50"},
		{"trailing slash stripped", "https://192.168.1.50/", "https://192.168.1.50"},
		{"multiple trailing slashes", "https://pump.local//", "https://pump.local"},
		{"http preserved", "http://pump.local", "http://pump.local"},
		{"https preserved", "https://pump.local", "https://pump.local"},
		{"bare host with port", "pump.local:8443", "https://pump.local:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeHost(tt.input); got != tt.want {
				t.Errorf("normalizeHost(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Endpoint Key Tests
// =============================================================================

func TestEndpointKey(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{EndpointTUVSet, "set"},
		{EndpointTUVEnabled, "enabled"},
		{EndpointProgramCurve, "curve"},
		{EndpointHeatpumpTariffWatch, "watch"},
		{"/api/tuv/set/", "set"},
		{"set", "set"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := endpointKey(tt.endpoint); got != tt.want {
				t.Errorf("endpointKey(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Connection Test
// =============================================================================

func TestTestConnection(t *testing.T) {
	pump := &pumpServer{
		handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
			json.NewEncoder(w).Encode(map[string]any{"mar_version": "4.2"})
		},
	}
	server := httptest.NewServer(pump)
	defer server.Close()

	client := testClient(server)
	tel, err := client.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
	if got := tel.String("mar_version"); got != "4.2" {
		t.Errorf("mar_version = %q, want %q", got, "4.2")
	}
}
