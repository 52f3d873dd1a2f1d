package mygren

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/nerrad567/mygren-bridge/internal/infrastructure/config"
)

// Client is the Mygren heat pump REST API client.
//
// It owns the JWT bearer token lifecycle: authentication via /api/login,
// proactive refresh before the token's exp claim, and a single reactive
// re-authentication retry when a request returns 401.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	host       string
	username   string
	password   string
	httpClient *http.Client

	// token is the current JWT bearer token. Empty until first Login.
	token   string
	tokenMu sync.Mutex

	// logger for debug/warning logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// New creates a heat pump API client from configuration.
//
// The host is normalized: trailing slashes are stripped and a https://
// scheme is assumed when none is given. TLS certificate verification is
// skipped unless cfg.VerifySSL is set, since most installations use
// self-signed certificates.
//
// Parameters:
//   - cfg: Heat pump connection settings from config.yaml
//
// Returns:
//   - *Client: Client ready for use (no connection is made yet)
func New(cfg config.HeatPumpConfig) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifySSL, // #nosec G402 -- self-signed device certs
		},
	}

	return &Client{
		host:     normalizeHost(cfg.Host),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout:   cfg.GetRequestTimeout(),
			Transport: transport,
		},
	}
}

// normalizeHost strips trailing slashes and defaults to a https:// scheme.
func normalizeHost(host string) string {
	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

// Host returns the normalized base URL of the heat pump.
func (c *Client) Host() string {
	return c.host
}

// SetLogger sets a logger for debug and warning logging.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) url(endpoint string) string {
	return c.host + endpoint
}

// =============================================================================
// Authentication
// =============================================================================

// Login authenticates with the heat pump and stores the JWT token.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: ErrAuth for invalid credentials (401) or a token-less
//     response, ErrConnection if the heat pump is unreachable
func (c *Client) Login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("mygren: encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(EndpointLogin), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mygren: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	if logger := c.getLogger(); logger != nil {
		logger.Debug("authenticating", "url", c.url(EndpointLogin))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnection, c.host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read login response: %w", ErrConnection, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var result struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("mygren: decode login response: %w", err)
		}
		if result.Token == "" {
			return fmt.Errorf("%w: login succeeded but no token in response", ErrAuth)
		}
		c.setToken(result.Token)
		return nil

	case http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid username or password", ErrAuth)

	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   EndpointLogin,
			Body:       string(body),
		}
	}
}

func (c *Client) setToken(token string) {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()
}

func (c *Client) getToken() string {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.token
}

func (c *Client) clearToken() {
	c.setToken("")
}

// ensureToken authenticates when no token is held or the current token is
// close to its exp claim. A concurrent duplicate login is harmless: the
// heat pump issues independent tokens.
func (c *Client) ensureToken(ctx context.Context) error {
	token := c.getToken()
	if token != "" && !tokenExpiresWithin(token, tokenRefreshLeeway) {
		return nil
	}
	if token != "" {
		if logger := c.getLogger(); logger != nil {
			logger.Debug("token near expiry, re-authenticating")
		}
	}
	return c.Login(ctx)
}

// =============================================================================
// Request Handling
// =============================================================================

// request performs an authenticated API request.
//
// On 401, the token is cleared and the client re-authenticates and retries
// exactly once. A 401 on the retry surfaces ErrAuth.
//
// Empty 200/201 bodies decode to an empty JSON object rather than an error
// (several PUT endpoints return no body).
func (c *Client) request(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	return c.doRequest(ctx, method, endpoint, body, true)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, retryAuth bool) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("mygren: encode request payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("mygren: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.getToken())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	if logger := c.getLogger(); logger != nil {
		logger.Debug("api request", "method", method, "endpoint", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrConnection, method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrConnection, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && retryAuth:
		// Token expired: re-authenticate and retry once
		c.clearToken()
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
		return c.doRequest(ctx, method, endpoint, body, false)

	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if len(bytes.TrimSpace(respBody)) == 0 {
			return json.RawMessage("{}"), nil
		}
		return respBody, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuth

	case resp.StatusCode == http.StatusBadRequest:
		if logger := c.getLogger(); logger != nil {
			logger.Warn("bad request", "method", method, "endpoint", endpoint, "body", string(respBody))
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       string(respBody),
		}

	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: heat pump service unavailable: %s", ErrConnection, string(respBody))

	default:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       string(respBody),
		}
	}
}

// put sends a value to an endpoint, wrapped as {<last_url_segment>: value},
// which is the format the Mygren API expects:
//
//	put(ctx, "/api/tuv/set", 43)      -> PUT body {"set": 43}
//	put(ctx, "/api/tuv/enabled", 1)   -> PUT body {"enabled": 1}
//	put(ctx, "/api/program/curve", 3) -> PUT body {"curve": 3}
func (c *Client) put(ctx context.Context, endpoint string, value any) error {
	_, err := c.request(ctx, http.MethodPut, endpoint, map[string]any{
		endpointKey(endpoint): value,
	})
	return err
}

// boolValue encodes a boolean as the 0/1 integer the API expects.
func boolValue(enabled bool) int {
	if enabled {
		return 1
	}
	return 0
}

// =============================================================================
// Telemetry & Diagnostics
// =============================================================================

// Telemetry fetches all runtime telemetry variables.
func (c *Client) Telemetry(ctx context.Context) (Telemetry, error) {
	raw, err := c.request(ctx, http.MethodGet, EndpointTelemetry, nil)
	if err != nil {
		return nil, err
	}

	var tel Telemetry
	if err := json.Unmarshal(raw, &tel); err != nil {
		return nil, fmt.Errorf("mygren: decode telemetry: %w", err)
	}
	return tel, nil
}

// Resources fetches the firmware's resource report (CPU, memory, storage).
func (c *Client) Resources(ctx context.Context) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, EndpointResources, nil)
}

// DaemonLog fetches the control daemon's log.
func (c *Client) DaemonLog(ctx context.Context) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, EndpointDaemonLog, nil)
}

// RunLog fetches the compressor run log.
func (c *Client) RunLog(ctx context.Context) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, EndpointRunLog, nil)
}

// TestConnection authenticates and fetches telemetry.
//
// Use at startup to verify host, credentials, and API availability in one
// round trip before the poll loop begins.
func (c *Client) TestConnection(ctx context.Context) (Telemetry, error) {
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c.Telemetry(ctx)
}

// =============================================================================
// TUV (Domestic Hot Water)
// =============================================================================

// SetTUVTemperature sets the hot water target temperature.
func (c *Client) SetTUVTemperature(ctx context.Context, temperature int) error {
	return c.put(ctx, EndpointTUVSet, temperature)
}

// SetTUVEnabled enables or disables hot water heating.
func (c *Client) SetTUVEnabled(ctx context.Context, enabled bool) error {
	return c.put(ctx, EndpointTUVEnabled, boolValue(enabled))
}

// SetTUVSchedulerEnabled enables or disables the hot water scheduler.
func (c *Client) SetTUVSchedulerEnabled(ctx context.Context, enabled bool) error {
	return c.put(ctx, EndpointTUVSchedulerEnabled, boolValue(enabled))
}

// =============================================================================
// Heating Program
// =============================================================================

// SetProgram sets the active heating program.
//
// MaR v4 uses string values from the telemetry's available_programs list,
// e.g. "Off", "Manual_comfort", "Cooling_comfort".
func (c *Client) SetProgram(ctx context.Context, program string) error {
	return c.put(ctx, EndpointProgramProgram, program)
}

// SetCurve sets the equithermal curve number (1-9).
func (c *Client) SetCurve(ctx context.Context, curve int) error {
	return c.put(ctx, EndpointProgramCurve, curve)
}

// SetShift sets the equithermal curve shift (-5 to +5).
func (c *Client) SetShift(ctx context.Context, shift int) error {
	return c.put(ctx, EndpointProgramShift, shift)
}

// SetManualTemperature sets the manual program output temperature.
func (c *Client) SetManualTemperature(ctx context.Context, temperature int) error {
	return c.put(ctx, EndpointProgramManual, temperature)
}

// SetComfortTemperature sets the comfort (interior target) temperature.
func (c *Client) SetComfortTemperature(ctx context.Context, temperature int) error {
	return c.put(ctx, EndpointProgramComfort, temperature)
}

// SetProgramSchedulerEnabled enables or disables the program scheduler.
func (c *Client) SetProgramSchedulerEnabled(ctx context.Context, enabled bool) error {
	return c.put(ctx, EndpointProgramSchedulerEnabled, boolValue(enabled))
}

// =============================================================================
// Heat Pump Unit
// =============================================================================

// SetHeatpumpEnabled enables or disables the heat pump.
func (c *Client) SetHeatpumpEnabled(ctx context.Context, enabled bool) error {
	return c.put(ctx, EndpointHeatpumpEnabled, boolValue(enabled))
}

// SetTariffWatch enables or disables tariff watching.
func (c *Client) SetTariffWatch(ctx context.Context, enabled bool) error {
	return c.put(ctx, EndpointHeatpumpTariffWatch, boolValue(enabled))
}
