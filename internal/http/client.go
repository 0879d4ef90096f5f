package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// Static errors for err113 compliance.
var (
	ErrFormBodyType = errors.New("form-urlencoded body must be a string, []byte or url.Values")
)

const formContentType = "application/x-www-form-urlencoded"

// TokenManager supplies credentials and reacts to a rejected access token.
type TokenManager interface {
	EnsureCredentials(ctx context.Context) (qbo.Credentials, error)
	RefreshRejected(ctx context.Context, accessToken string) error
}

// Client dispatches accounting API requests for one company.
type Client struct {
	baseURL    string
	tokens     TokenManager
	httpClient *retryablehttp.Client
	logger     qbo.Logger
	debug      bool
	userAgent  string
}

// Request is one accounting API call. Path is relative to {base}/company/{realm}.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Headers, when non-nil, replaces the default headers entirely.
	Headers map[string]string
	// Entity names the registry entry for logging.
	Entity string
}

// Response is a raw HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger qbo.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			return
		}

		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets transport retry limits. Status codes are never retried.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient sets the underlying client. A copy is kept so later options
// never modify the caller's client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			copied := *client
			c.httpClient.HTTPClient = &copied
		}
	}
}

// WithTimeout sets the timeout of the underlying client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// NewClient creates a new dispatcher.
func NewClient(baseURL string, tokens TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.CheckRetry = transportRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: retryClient,
		logger:     qbo.NopLogger{},
		userAgent:  constants.UserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StandardClient returns a *http.Client sharing this client's transport and
// retry policy, for token and revocation calls.
func (c *Client) StandardClient() *http.Client {
	return c.httpClient.StandardClient()
}

// transportRetryPolicy retries connection level failures only. The original
// transport error is returned unchanged once retries stop.
func transportRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if ctx.Err() != nil {
		return false, err
	}

	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)

	return retry, err
}

// Do performs the request. A 401 triggers one token refresh and one replay;
// a second 401 is returned as an *qbo.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	for retries := 0; ; retries++ {
		creds, err := c.tokens.EnsureCredentials(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, req, creds)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			return resp, classify(resp)
		}

		if retries >= constants.MaxAuthRetries {
			c.logger.Warn("access token rejected after refresh", map[string]interface{}{
				"method": req.Method,
				"path":   req.Path,
			})

			return resp, qbo.NewAPIError(resp.StatusCode, resp.Body)
		}

		c.logger.Debug("access token rejected, refreshing", map[string]interface{}{"path": req.Path})

		err = c.tokens.RefreshRejected(ctx, creds.AccessToken)
		if err != nil {
			return nil, err
		}
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Query: query, Body: body})
}

func (c *Client) send(ctx context.Context, req *Request, creds qbo.Credentials) (*Response, error) {
	fullURL := c.baseURL + "/company/" + creds.RealmID + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	headers := c.headers(req, creds)

	body, err := encodeBody(req.Body, headers.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header = headers

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
			"entity": req.Entity,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(data),
		})
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func (c *Client) headers(req *Request, creds qbo.Credentials) http.Header {
	headers := http.Header{}

	if req.Headers != nil {
		for key, value := range req.Headers {
			headers.Set(key, value)
		}

		return headers
	}

	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")
	headers.Set("User-Agent", c.userAgent)
	headers.Set("Authorization", "Bearer "+creds.AccessToken)

	return headers
}

// encodeBody marshals body as JSON unless the content type is form-urlencoded,
// in which case body is sent as already encoded.
func encodeBody(body interface{}, contentType string) (interface{}, error) {
	if body == nil {
		return nil, nil
	}

	if strings.HasPrefix(contentType, formContentType) {
		switch v := body.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		case url.Values:
			return []byte(v.Encode()), nil
		default:
			return nil, fmt.Errorf("%w, got %T", ErrFormBodyType, body)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	return data, nil
}

func classify(resp *Response) error {
	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		var raw json.RawMessage

		err := json.Unmarshal(resp.Body, &raw)
		if err != nil {
			return fmt.Errorf("failed to parse response body: %w", err)
		}

		return nil
	case resp.StatusCode >= http.StatusBadRequest:
		return qbo.NewAPIError(resp.StatusCode, resp.Body)
	default:
		return nil
	}
}
