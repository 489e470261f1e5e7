package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// BackendClient posts directly at a downstream function endpoint,
// bypassing the relay. Used to tell relay problems apart from backend
// problems.
type BackendClient struct {
	client *http.Client
}

func NewBackendClient() *BackendClient {
	return &BackendClient{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// BackendResult is the backend's raw answer.
type BackendResult struct {
	Status int
	Body   []byte
}

func (c *BackendClient) Post(url string, payload map[string]interface{}) (*BackendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &BackendResult{Status: resp.StatusCode, Body: respBody}, nil
}
