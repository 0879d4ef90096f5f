package qbo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apigrate/quickbooks/internal/constants"
)

// Connector is the entry point for a single QuickBooks Online company (realm).
type Connector interface {
	// Accounting returns the per-entity operation sets built from the registry.
	Accounting() AccountingAPI

	// Credentials returns a snapshot of the credentials currently held.
	Credentials() Credentials
	// SetCredentials merges the non-empty fields of update into the held credentials.
	SetCredentials(update *Credentials) error

	// AuthorizationURL builds the consent URL for the authorization code flow.
	AuthorizationURL(state string) string
	// ExchangeAuthorizationCode trades a consent code for tokens.
	ExchangeAuthorizationCode(ctx context.Context, code, realmID string) (*TokenPayload, error)
	// RefreshAccessToken runs the refresh_token grant.
	RefreshAccessToken(ctx context.Context) (*TokenPayload, error)
	// Disconnect revokes the refresh token and returns the provider's raw response text.
	Disconnect(ctx context.Context) (string, error)

	// AddTokenListener registers a receiver for token lifecycle notifications.
	AddTokenListener(listener TokenListener)
}

// AccountingAPI exposes the entity operation sets and the batch endpoint.
type AccountingAPI interface {
	Entity(handle string) (*Entity, bool)
	Entities() []*Entity
	Batch(ctx context.Context, payload interface{}, opts *CallOptions) (json.RawMessage, error)
}

// Creator posts a new entity.
type Creator interface {
	Create(ctx context.Context, payload interface{}, opts *CallOptions) (json.RawMessage, error)
}

// Reader fetches a single entity by id.
type Reader interface {
	Get(ctx context.Context, id string, opts *CallOptions) (json.RawMessage, error)
}

// Updater posts an update for an entity (operation=update).
type Updater interface {
	Update(ctx context.Context, payload interface{}, opts *CallOptions) (json.RawMessage, error)
}

// Deleter posts a delete for an entity (operation=delete).
type Deleter interface {
	Delete(ctx context.Context, payload interface{}, opts *CallOptions) (json.RawMessage, error)
}

// Querier runs a query statement. An empty statement selects every record of the entity.
type Querier interface {
	Query(ctx context.Context, statement string, opts *CallOptions) (json.RawMessage, error)
}

// Reporter runs a report with caller supplied parameters.
type Reporter interface {
	Report(ctx context.Context, params url.Values, opts *CallOptions) (json.RawMessage, error)
}

// Entity is the operation set of one registry entry. Unsupported operations are nil.
type Entity struct {
	Descriptor EntityDescriptor

	Creator  Creator
	Reader   Reader
	Updater  Updater
	Deleter  Deleter
	Querier  Querier
	Reporter Reporter
}

// CallOptions are per-call query parameter overrides.
type CallOptions struct {
	// RequestID is sent as requestid for idempotent writes.
	RequestID string
	// MinorVersion overrides Config.MinorVersion for this call.
	MinorVersion string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents connector configuration.
//
// # Credentials
//
// AccessToken, RefreshToken and RealmID seed the connector. When none are
// supplied, CredentialInitializer is invoked lazily before the first request
// and again on Disconnect, which lets callers keep credentials in an external
// store.
//
// # Endpoints
//
// BaseURL defaults to the production accounting API; use SandboxBaseURL for
// sandbox companies. The OAuth2 endpoint fields exist for testing and default
// to Intuit's published URLs.
//
// # Timeouts and retries
//
// RetryMax controls transport level retries only (connection resets and
// similar). HTTP status codes are never retried by the transport; a 401 is
// handled by a single refresh-and-replay.
type Config struct {
	// ClientID: OAuth2 client id of the app. Required.
	ClientID string
	// ClientSecret: OAuth2 client secret of the app. Required.
	ClientSecret string
	// RedirectURI: callback registered with the app. Required.
	RedirectURI string

	AccessToken  string
	RefreshToken string
	RealmID      string

	// CredentialInitializer: optional lazy credential source.
	CredentialInitializer CredentialInitializer

	// BaseURL: accounting API root, e.g. "https://quickbooks.api.intuit.com/v3".
	BaseURL string
	// MinorVersion: default minorversion query parameter; empty omits it.
	MinorVersion string

	AuthorizationURL string
	TokenURL         string
	RevocationURL    string

	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// HTTPClient: optional base client; its Transport and Timeout are reused.
	HTTPClient *http.Client

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Debug: enables request/response logging when a Logger is provided.
	Debug  bool
	Logger Logger

	// Listeners: receivers registered at construction time.
	Listeners []TokenListener
}

// Production and sandbox accounting API roots.
const (
	ProductionBaseURL = constants.ProductionBaseURL
	SandboxBaseURL    = constants.SandboxBaseURL
)

// Validate reports whether the configuration can build a connector.
func (c *Config) Validate() error {
	if c == nil || c.ClientID == "" || c.ClientSecret == "" {
		return &CredentialsError{Reason: "invalid configuration", Err: constants.ErrMissingClientConfig}
	}

	if c.RedirectURI == "" {
		return &CredentialsError{Reason: "invalid configuration", Err: constants.ErrMissingRedirectURI}
	}

	return nil
}

// WithDefaults returns a copy of the configuration with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = constants.ProductionBaseURL
	}

	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.AuthorizationURL == "" {
		c.AuthorizationURL = constants.AuthorizationEndpoint
	}

	if c.TokenURL == "" {
		c.TokenURL = constants.TokenEndpoint
	}

	if c.RevocationURL == "" {
		c.RevocationURL = constants.RevocationEndpoint
	}

	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.UserAgent
	}

	return c
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}
