package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "movienight-cli"
	apiPrefix        = "api/v1/"
	maxErrorBody     = 8 << 10
)

// TokenSource yields the bearer token to attach to the next request, or "" for none.
type TokenSource interface {
	Token() string
}

// Client wraps HTTP access to the movie night REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a new API client rooted at baseURL. If httpClient is nil, a default client is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  defaultUserAgent,
		logger:     logrus.New(),
	}
}

// SetTokenSource installs the session that supplies bearer tokens.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// SetLimiter throttles outgoing requests; requests wait for a slot and are never retried.
func (c *Client) SetLimiter(limiter *rate.Limiter) {
	c.limiter = limiter
}

func (c *Client) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves an endpoint: absolute URLs (server-provided cursors) pass
// through, anything else is joined to the API root.
func (c *Client) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any, out any) error {
	return c.do(ctx, http.MethodPatch, endpoint, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, query url.Values, body any, out any) error {
	target := c.URL(endpoint)
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for request slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"url":        target,
		"request_id": requestID,
	})
	started := time.Now()

	res, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("request canceled: %w", context.Canceled)
		}
		log.WithError(err).Warn("request failed without response")
		return &NetworkError{Endpoint: target, Err: err}
	}
	defer res.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":  res.StatusCode,
		"elapsed": time.Since(started).String(),
	})

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		apiErr := &APIError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Endpoint:   target,
			Body:       strings.TrimSpace(string(snippet)),
			Fields:     decodeErrorFields(snippet),
		}
		log.WithField("body", apiErr.Body).Info("request rejected")
		return apiErr
	}
	log.Debug("request succeeded")

	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response from %s: %w", target, err)
	}
	return nil
}

func decodeErrorFields(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		return fields
	}
	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		return map[string]any{"non_field_errors": list}
	}
	return nil
}

func apiPath(format string, args ...any) string {
	return apiPrefix + fmt.Sprintf(format, args...)
}
