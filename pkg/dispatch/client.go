// Package dispatch talks to the external deployment dispatch endpoint:
// one authenticated POST per (environment, image) pair, GitHub
// repository-dispatch wire shape. Delivery is single-attempt; the caller
// decides what a failure means.
package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Environment is the deploy environment a notification targets.
type Environment string

const (
	EnvQA   Environment = "qa"
	EnvProd Environment = "prod"
)

// EnvironmentFor maps release-tag presence to the deploy environment.
// Pure function: every notification in a run gets the same answer.
func EnvironmentFor(taggedRelease bool) Environment {
	if taggedRelease {
		return EnvProd
	}
	return EnvQA
}

// Client posts deploy notifications to a fixed dispatch endpoint.
type Client struct {
	endpoint   string
	username   string
	token      string
	eventType  string
	httpClient *http.Client
}

// DispatchError represents an error response from the dispatch endpoint.
type DispatchError struct {
	StatusCode int
	Body       []byte
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch endpoint error (%d): %s -- %s",
		e.StatusCode, http.StatusText(e.StatusCode), string(e.Body))
}

type clientPayload struct {
	Environment Environment `json:"environment"`
	Image       string      `json:"image"`
	Tag         string      `json:"tag"`
}

type dispatchBody struct {
	EventType     string        `json:"event_type"`
	ClientPayload clientPayload `json:"client_payload"`
}

// NewClient validates the endpoint and credentials and returns a client.
// An optional SHIPIT_DISPATCH_TIMEOUT_SECONDS tunes the HTTP timeout.
func NewClient(endpoint, username, token, eventType string, timeoutSeconds string) (*Client, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("dispatch credentials are empty")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid dispatch endpoint: %w", err)
	}
	if strings.TrimSpace(eventType) == "" {
		eventType = "deploy"
	}

	timeout := 10 * time.Second
	if timeoutSeconds != "" {
		if seconds, err := strconv.Atoi(timeoutSeconds); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}

	return &Client{
		endpoint:   endpoint,
		username:   username,
		token:      token,
		eventType:  eventType,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Notify sends one deploy notification. Single attempt: no retry here.
func (c *Client) Notify(environment Environment, image, tag string) error {
	body := dispatchBody{
		EventType: c.eventType,
		ClientPayload: clientPayload{
			Environment: environment,
			Image:       image,
			Tag:         tag,
		},
	}
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return fmt.Errorf("failed to create dispatch request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request failed [%s %s]: %w", image, environment, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read dispatch response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &DispatchError{StatusCode: resp.StatusCode, Body: respData}
	}
	return nil
}
