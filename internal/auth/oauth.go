package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// OAuth2TokenManager holds the credentials of one connector and runs the
// authorization_code, refresh_token and revocation transitions against the
// provider. All three authenticate with HTTP Basic client credentials.
type OAuth2TokenManager struct {
	oauth         *oauth2.Config
	revocationURL string
	userAgent     string
	httpClient    *http.Client
	initializer   qbo.CredentialInitializer
	logger        qbo.Logger

	mutex     sync.RWMutex
	creds     qbo.Credentials
	listeners []qbo.TokenListener

	refreshGroup singleflight.Group
}

// Option configures an OAuth2TokenManager.
type Option func(*OAuth2TokenManager)

// WithHTTPClient sets the client used for token and revocation calls.
func WithHTTPClient(client *http.Client) Option {
	return func(m *OAuth2TokenManager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger qbo.Logger) Option {
	return func(m *OAuth2TokenManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewOAuth2TokenManager creates a token manager seeded from cfg.
func NewOAuth2TokenManager(cfg *qbo.Config, opts ...Option) *OAuth2TokenManager {
	full := cfg.WithDefaults()

	m := &OAuth2TokenManager{
		oauth:         qbo.OAuth2Config(&full),
		revocationURL: full.RevocationURL,
		userAgent:     full.UserAgent,
		httpClient:    &http.Client{Timeout: constants.ShortHTTPTimeout},
		initializer:   full.CredentialInitializer,
		logger:        qbo.NopLogger{},
		creds: qbo.Credentials{
			AccessToken:  full.AccessToken,
			RefreshToken: full.RefreshToken,
			RealmID:      full.RealmID,
		},
	}

	if full.Logger != nil {
		m.logger = full.Logger
	}

	for _, opt := range opts {
		opt(m)
	}

	m.listeners = append(m.listeners, full.Listeners...)

	return m
}

// AuthCodeURL returns the consent URL for the configured client.
func (m *OAuth2TokenManager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state)
}

// AddListener registers a token lifecycle listener.
func (m *OAuth2TokenManager) AddListener(listener qbo.TokenListener) {
	if listener == nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.listeners = append(m.listeners, listener)
}

// Credentials returns a snapshot of the stored credentials.
func (m *OAuth2TokenManager) Credentials() qbo.Credentials {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.creds
}

// SetCredentials merges update into the stored credentials. Empty fields in
// update never clear a stored value.
func (m *OAuth2TokenManager) SetCredentials(update *qbo.Credentials) error {
	if update == nil {
		return &qbo.CredentialsError{Reason: "no credentials provided", Err: constants.ErrNilCredentials}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.logChanges(*update)
	m.creds = m.creds.Merge(*update)

	return nil
}

// logChanges must be called with the write lock held.
func (m *OAuth2TokenManager) logChanges(update qbo.Credentials) {
	if update.AccessToken != "" && m.creds.AccessToken != "" && update.AccessToken != m.creds.AccessToken {
		m.logger.Debug("access token changed", nil)
	}

	if update.RefreshToken != "" && m.creds.RefreshToken != "" && update.RefreshToken != m.creds.RefreshToken {
		m.logger.Debug("refresh token changed", nil)
	}

	if update.RealmID != "" && m.creds.RealmID != "" && update.RealmID != m.creds.RealmID {
		m.logger.Debug("realm id changed", map[string]interface{}{"from": m.creds.RealmID, "to": update.RealmID})
	}
}

// EnsureCredentials returns complete credentials, consulting the initializer
// once when any field is missing. It never performs network I/O itself.
func (m *OAuth2TokenManager) EnsureCredentials(ctx context.Context) (qbo.Credentials, error) {
	creds := m.Credentials()
	if creds.Complete() {
		return creds, nil
	}

	m.logger.Debug("credentials incomplete", map[string]interface{}{"missing": creds.Missing()})

	if m.initializer == nil {
		return creds, &qbo.CredentialsError{
			Reason: "provide them explicitly or configure a credential initializer",
			Err:    constants.ErrMissingCredentials,
		}
	}

	err := m.initialize(ctx)
	if err != nil {
		return creds, err
	}

	creds = m.Credentials()
	if !creds.Complete() {
		return creds, &qbo.CredentialsError{
			Reason: "missing " + strings.Join(creds.Missing(), ", "),
			Err:    constants.ErrCredentialsAfterInitializer,
		}
	}

	return creds, nil
}

func (m *OAuth2TokenManager) initialize(ctx context.Context) error {
	m.logger.Debug("obtaining credentials from initializer", nil)

	supplied, err := m.initializer(ctx)
	if err != nil {
		return fmt.Errorf("credential initializer: %w", err)
	}

	if supplied != nil {
		return m.SetCredentials(supplied)
	}

	return nil
}

// ExchangeCode runs the authorization_code grant. realmID is used only when
// the provider response carries no realm of its own.
func (m *OAuth2TokenManager) ExchangeCode(ctx context.Context, code, realmID string) (*qbo.TokenPayload, error) {
	return m.grant(ctx, grantAuthorizationCode, realmID, func(ctx context.Context) (*oauth2.Token, error) {
		return m.oauth.Exchange(ctx, code)
	})
}

// Refresh runs the refresh_token grant with the stored refresh token, loading
// credentials from the initializer when none is held yet.
func (m *OAuth2TokenManager) Refresh(ctx context.Context) (*qbo.TokenPayload, error) {
	refreshToken := m.Credentials().RefreshToken
	if refreshToken == "" && m.initializer != nil {
		err := m.initialize(ctx)
		if err != nil {
			return nil, err
		}

		refreshToken = m.Credentials().RefreshToken
	}

	if refreshToken == "" {
		return nil, &qbo.CredentialsError{Reason: "cannot refresh access token", Err: constants.ErrMissingRefreshToken}
	}

	return m.grant(ctx, grantRefreshToken, "", func(ctx context.Context) (*oauth2.Token, error) {
		return m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	})
}

// RefreshRejected refreshes after the provider rejected accessToken.
// Concurrent callers that saw the same token rejected share one grant, and a
// caller whose token was already replaced returns without a grant. The grant
// is not tied to any one caller's context; a caller whose context ends stops
// waiting without cancelling the grant for the others.
func (m *OAuth2TokenManager) RefreshRejected(ctx context.Context, accessToken string) error {
	creds := m.Credentials()
	if creds.AccessToken != accessToken {
		m.logger.Debug("access token already refreshed", nil)

		return nil
	}

	result := m.refreshGroup.DoChan(creds.RefreshToken, func() (interface{}, error) {
		if m.Credentials().AccessToken != accessToken {
			return nil, nil
		}

		return m.Refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		if res.Shared {
			m.logger.Debug("joined in-flight token refresh", nil)
		}

		return res.Err
	}
}

func (m *OAuth2TokenManager) grant(ctx context.Context, grantType, realmID string, exchange func(context.Context) (*oauth2.Token, error)) (*qbo.TokenPayload, error) {
	m.logger.Debug("requesting token grant", map[string]interface{}{"grant_type": grantType})

	token, err := exchange(context.WithValue(ctx, oauth2.HTTPClient, m.httpClient))
	if err != nil {
		return nil, grantError(grantType, err)
	}

	m.mutex.Lock()

	if realmID == "" {
		realmID = m.creds.RealmID
	}

	if provided := extraString(token, "realmId"); provided != "" {
		realmID = provided
	}

	payload := &qbo.TokenPayload{
		TokenType:              token.TokenType,
		AccessToken:            token.AccessToken,
		RefreshToken:           token.RefreshToken,
		ExpiresIn:              extraInt(token, "expires_in"),
		XRefreshTokenExpiresIn: extraInt(token, "x_refresh_token_expires_in"),
		RealmID:                realmID,
	}

	m.creds = m.creds.Merge(payload.Credentials())
	// the provider may omit the refresh token when it is unchanged
	payload.RefreshToken = m.creds.RefreshToken

	m.mutex.Unlock()

	m.logger.Info("token grant succeeded", map[string]interface{}{
		"grant_type": grantType,
		"realm_id":   payload.RealmID,
		"expires_in": payload.ExpiresIn,
	})

	m.notifyRefreshed(*payload)

	return payload, nil
}

func grantError(grantType string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}

		return &qbo.CredentialsError{
			Reason: fmt.Sprintf("unsuccessful %s grant (HTTP %d): %s", grantType, status, strings.TrimSpace(string(retrieveErr.Body))),
			Err:    fmt.Errorf("%w: %w", constants.ErrGrantRejected, err),
		}
	}

	return fmt.Errorf("%s grant: %w", grantType, err)
}

// Revoke revokes the refresh token. Credentials are re-read from the
// initializer first. Without a refresh token it does nothing.
func (m *OAuth2TokenManager) Revoke(ctx context.Context) (string, error) {
	if m.initializer != nil {
		err := m.initialize(ctx)
		if err != nil {
			return "", err
		}
	}

	refreshToken := m.Credentials().RefreshToken
	if refreshToken == "" {
		m.logger.Debug("no refresh token to revoke", nil)

		return "", nil
	}

	body, err := json.Marshal(map[string]string{"token": refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to marshal revocation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revocationURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create revocation request: %w", err)
	}

	req.SetBasicAuth(m.oauth.ClientID, m.oauth.ClientSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("revocation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxTokenResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read revocation response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		m.logger.Warn("token revocation was not successful", map[string]interface{}{
			"status":   resp.StatusCode,
			"response": string(text),
		})

		return string(text), fmt.Errorf("%w (HTTP %d)", constants.ErrRevocationRejected, resp.StatusCode)
	}

	m.logger.Info("refresh token revoked", nil)
	m.notifyRevoked(string(text))

	return string(text), nil
}

func (m *OAuth2TokenManager) snapshotListeners() []qbo.TokenListener {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return append([]qbo.TokenListener(nil), m.listeners...)
}

func (m *OAuth2TokenManager) notifyRefreshed(payload qbo.TokenPayload) {
	for _, listener := range m.snapshotListeners() {
		m.dispatch(constants.TokenRefreshedSubject, func() { listener.TokenRefreshed(payload) })
	}
}

func (m *OAuth2TokenManager) notifyRevoked(response string) {
	for _, listener := range m.snapshotListeners() {
		m.dispatch(constants.TokenRevokedSubject, func() { listener.TokenRevoked(response) })
	}
}

// dispatch runs one listener; a panic is logged and does not reach the caller.
func (m *OAuth2TokenManager) dispatch(event string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("token listener panicked", map[string]interface{}{"event": event, "panic": fmt.Sprint(r)})
		}
	}()

	call()
}

func extraString(token *oauth2.Token, key string) string {
	switch v := token.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func extraInt(token *oauth2.Token, key string) int64 {
	switch v := token.Extra(key).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()

		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)

		return n
	default:
		return 0
	}
}
