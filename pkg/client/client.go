// Package client is a Go SDK for the gradebook API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Bisp1999/grading-app/internal/models"
)

// APIError is returned for non-2xx responses and for payloads carrying an error
type APIError struct {
	Status     int
	StatusText string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.StatusText)
}

// Client talks to the gradebook API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAPIKey authenticates every request as the owning teacher
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient creates a new gradebook client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetTest retrieves a test for editing
func (c *Client) GetTest(ctx context.Context, id int64) (*models.TestRecord, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/get_test/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		models.TestRecord
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if result.Error != "" {
		return nil, &APIError{Status: http.StatusOK, StatusText: http.StatusText(http.StatusOK), Message: result.Error, Body: resp}
	}

	return &result.TestRecord, nil
}

// DeleteTest deletes a test. A server-side refusal is reported in the
// result, not as an error; errors mean the request itself failed.
func (c *Client) DeleteTest(ctx context.Context, id int64) (*models.DeleteResult, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/delete_test/"+strconv.FormatInt(id, 10), nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		var result models.DeleteResult
		if json.Unmarshal(apiErr.Body, &result) == nil && result.Error != "" {
			return &result, nil
		}
	}
	if err != nil {
		return nil, err
	}

	var result models.DeleteResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// GetPageContext retrieves the reference data of the authoring page
func (c *Client) GetPageContext(ctx context.Context) (*models.ContextData, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/page_context", nil)
	if err != nil {
		return nil, err
	}

	var data models.ContextData
	if err := json.Unmarshal(resp, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &data, nil
}

// ListTests retrieves the tests of a semester, optionally narrowed to a class
// (specialist) or subject (homeroom)
func (c *Client) ListTests(ctx context.Context, semester, className, subject string) ([]*models.TestRecord, error) {
	params := url.Values{}
	params.Set("semester", semester)
	if className != "" {
		params.Set("class_name", className)
	}
	if subject != "" {
		params.Set("subject", subject)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/tests?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tests []*models.TestRecord `json:"tests"`
		Error string               `json:"error"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if result.Error != "" {
		return nil, &APIError{Status: http.StatusOK, StatusText: http.StatusText(http.StatusOK), Message: result.Error, Body: resp}
	}

	return result.Tests, nil
}

// SaveTest creates a test (ID zero) or updates one, returning the stored ID
func (c *Client) SaveTest(ctx context.Context, sub models.TestSubmission) (int64, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/save_test", bytes.NewReader(body))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			var result models.SaveResult
			if json.Unmarshal(apiErr.Body, &result) == nil && result.Error != "" {
				apiErr.Message = result.Error
			}
		}
		return 0, err
	}

	var result models.SaveResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return 0, &APIError{Status: http.StatusOK, StatusText: http.StatusText(http.StatusOK), Message: result.Error, Body: resp}
	}

	return result.ID, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

// doRequest performs an HTTP request. Any non-2xx response comes back as
// *APIError with the body attached.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
	}

	return respBody, nil
}
