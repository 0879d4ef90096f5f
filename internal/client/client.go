package client

import (
	"context"
	"fmt"

	"github.com/apigrate/quickbooks/internal/auth"
	qbohttp "github.com/apigrate/quickbooks/internal/http"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// Client implements the qbo.Connector interface.
type Client struct {
	httpClient   *qbohttp.Client
	tokenManager *auth.OAuth2TokenManager
	accounting   *AccountingAPI
	baseURL      string
	logger       qbo.Logger
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *qbo.Config) []qbohttp.Option {
	var httpOpts []qbohttp.Option

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, qbohttp.WithHTTPClient(config.HTTPClient))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, qbohttp.WithTimeout(config.HTTPTimeout))
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, qbohttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, qbohttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, qbohttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		httpOpts = append(httpOpts, qbohttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	return httpOpts
}

// New creates a connector. The configuration is validated once here and not
// consulted again afterwards.
func New(config *qbo.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	full := config.WithDefaults()
	httpOpts := createHTTPClientOptions(&full)

	// token and revocation calls share transport settings but never the 401 replay
	tokenHTTPClient := qbohttp.NewClient(full.TokenURL, nil, httpOpts...).StandardClient()
	tokenManager := auth.NewOAuth2TokenManager(&full, auth.WithHTTPClient(tokenHTTPClient))

	httpClient := qbohttp.NewClient(full.BaseURL, tokenManager, httpOpts...)

	logger := full.Logger
	if logger == nil {
		logger = qbo.NopLogger{}
	}

	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		accounting:   NewAccountingAPI(httpClient, qbo.Registry(), full.MinorVersion),
		baseURL:      full.BaseURL,
		logger:       logger,
	}, nil
}

// BaseURL returns the accounting API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Accounting implements qbo.Connector.Accounting.
func (c *Client) Accounting() qbo.AccountingAPI {
	return c.accounting
}

// Credentials implements qbo.Connector.Credentials.
func (c *Client) Credentials() qbo.Credentials {
	return c.tokenManager.Credentials()
}

// SetCredentials implements qbo.Connector.SetCredentials.
func (c *Client) SetCredentials(update *qbo.Credentials) error {
	return c.tokenManager.SetCredentials(update)
}

// AuthorizationURL implements qbo.Connector.AuthorizationURL.
func (c *Client) AuthorizationURL(state string) string {
	return c.tokenManager.AuthCodeURL(state)
}

// ExchangeAuthorizationCode implements qbo.Connector.ExchangeAuthorizationCode.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code, realmID string) (*qbo.TokenPayload, error) {
	payload, err := c.tokenManager.ExchangeCode(ctx, code, realmID)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	return payload, nil
}

// RefreshAccessToken implements qbo.Connector.RefreshAccessToken.
func (c *Client) RefreshAccessToken(ctx context.Context) (*qbo.TokenPayload, error) {
	payload, err := c.tokenManager.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("refreshing access token: %w", err)
	}

	return payload, nil
}

// Disconnect implements qbo.Connector.Disconnect.
func (c *Client) Disconnect(ctx context.Context) (string, error) {
	c.logger.Debug("disconnecting from the accounting API", nil)

	response, err := c.tokenManager.Revoke(ctx)
	if err != nil {
		return response, fmt.Errorf("disconnecting: %w", err)
	}

	return response, nil
}

// AddTokenListener implements qbo.Connector.AddTokenListener.
func (c *Client) AddTokenListener(listener qbo.TokenListener) {
	c.tokenManager.AddListener(listener)
}

var _ qbo.Connector = (*Client)(nil)
