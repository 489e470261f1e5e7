package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RelayClient drives the relay's HTTP surface for diagnostics.
type RelayClient struct {
	baseURL string
	client  *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// PreflightResult captures the CORS grant a preflight came back with.
type PreflightResult struct {
	Status       int
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}

// Granted reports whether the relay granted the probed origin.
func (r PreflightResult) Granted(origin string) bool {
	return r.AllowOrigin == origin
}

// Preflight issues a CORS preflight against the relay as a browser
// would before a cross-origin POST.
func (c *RelayClient) Preflight(endpoint, origin string) (*PreflightResult, error) {
	req, err := http.NewRequest(http.MethodOptions, c.baseURL+"/proxy/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return &PreflightResult{
		Status:       resp.StatusCode,
		AllowOrigin:  resp.Header.Get("Access-Control-Allow-Origin"),
		AllowMethods: resp.Header.Get("Access-Control-Allow-Methods"),
		AllowHeaders: resp.Header.Get("Access-Control-Allow-Headers"),
	}, nil
}

// ForwardResult is the relayed downstream response plus the CORS and
// tracing headers the relay attached.
type ForwardResult struct {
	Status      int
	Body        []byte
	AllowOrigin string
	RequestID   string
}

// Forward sends an envelope through the relay. targetURL goes into the
// envelope's target_url field; payload fields pass through untouched.
func (c *RelayClient) Forward(endpoint, origin, targetURL string, payload map[string]interface{}) (*ForwardResult, error) {
	envelope := map[string]interface{}{"target_url": targetURL}
	for k, v := range payload {
		envelope[k] = v
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/proxy/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &ForwardResult{
		Status:      resp.StatusCode,
		Body:        respBody,
		AllowOrigin: resp.Header.Get("Access-Control-Allow-Origin"),
		RequestID:   resp.Header.Get("X-Request-ID"),
	}, nil
}

// Health checks the relay's liveness endpoint.
func (c *RelayClient) Health() error {
	resp, err := c.client.Get(c.baseURL + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}
