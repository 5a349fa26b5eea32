// ABOUTME: Remote CRM API client speaking JSON over HTTPS with OAuth tokens
// ABOUTME: Classifies failures and performs a single transparent retry after token refresh
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// API is the remote-call surface the translators depend on.
type API interface {
	Create(ctx context.Context, objectType string, payload map[string]any) (string, error)
	Update(ctx context.Context, objectType, remoteID string, payload map[string]any) error
	Delete(ctx context.Context, objectType, remoteID string) error
	Query(ctx context.Context, objectType, filter string) ([]Record, error)
}

// Record is one object returned by a query.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Client talks to the remote CRM's object-typed CRUD endpoints.
type Client struct {
	baseURL    string
	base       oauth2.TokenSource
	source     oauth2.TokenSource
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client for the given API base URL. The token source
// handles acquisition and refresh; the client only forces a refresh after
// a 401.
func NewClient(baseURL string, source oauth2.TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		base:       source,
		source:     oauth2.ReuseTokenSource(nil, source),
		httpClient: &http.Client{Timeout: defaultTimeout},
		timeout:    defaultTimeout,
	}
}

// Create creates a remote object and returns its ID.
func (c *Client) Create(ctx context.Context, objectType string, payload map[string]any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, c.objectURL(objectType, ""), payload)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if result.ID == "" {
		return "", &APIError{Kind: ErrKindValidation, Message: "create response missing object id"}
	}

	return result.ID, nil
}

// Update patches an existing remote object.
func (c *Client) Update(ctx context.Context, objectType, remoteID string, payload map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, c.objectURL(objectType, remoteID), payload)
	return err
}

// Delete removes a remote object.
func (c *Client) Delete(ctx context.Context, objectType, remoteID string) error {
	_, err := c.do(ctx, http.MethodDelete, c.objectURL(objectType, remoteID), nil)
	return err
}

// Query runs a filter expression against one object kind.
func (c *Client) Query(ctx context.Context, objectType, filter string) ([]Record, error) {
	u := c.objectURL(objectType, "")
	if filter != "" {
		u += "?q=" + url.QueryEscape(filter)
	}

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	return result.Records, nil
}

func (c *Client) objectURL(objectType, remoteID string) string {
	u := c.baseURL + "/objects/" + url.PathEscape(objectType)
	if remoteID != "" {
		u += "/" + url.PathEscape(remoteID)
	}
	return u
}

// do issues one authenticated request. A 401 response forces a token
// refresh and a single retry; every other failure is classified and
// returned without retrying.
func (c *Client) do(ctx context.Context, method, url string, payload map[string]any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, status, err := c.send(ctx, method, url, payload)
	if err != nil {
		return nil, &APIError{Kind: ErrKindTransient, Message: err.Error()}
	}

	if status == http.StatusUnauthorized {
		// Drop the cached token and retry once with a fresh one.
		c.source = oauth2.ReuseTokenSource(nil, c.base)
		body, status, err = c.send(ctx, method, url, payload)
		if err != nil {
			return nil, &APIError{Kind: ErrKindTransient, Message: err.Error()}
		}
	}

	if status >= 200 && status < 300 {
		return body, nil
	}

	return nil, &APIError{
		Kind:       classifyStatus(status),
		StatusCode: status,
		Message:    errorMessage(body),
	}
}

func (c *Client) send(ctx context.Context, method, url string, payload map[string]any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.source.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get access token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return data, resp.StatusCode, nil
}

// errorMessage pulls a human-readable message out of an error response body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "remote request rejected"
	}
	return msg
}
