package qbo

import (
	"context"

	"github.com/google/uuid"
)

// Credentials are the tokens and realm held by a connector.
type Credentials struct {
	AccessToken  string `json:"access_token,omitempty"  yaml:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	RealmID      string `json:"realm_id,omitempty"      yaml:"realm_id,omitempty"`
}

// Merge returns c with every non-empty field of update applied.
func (c Credentials) Merge(update Credentials) Credentials {
	if update.AccessToken != "" {
		c.AccessToken = update.AccessToken
	}

	if update.RefreshToken != "" {
		c.RefreshToken = update.RefreshToken
	}

	if update.RealmID != "" {
		c.RealmID = update.RealmID
	}

	return c
}

// Complete reports whether every field needed for an authenticated call is present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.RealmID != ""
}

// Missing names the empty fields.
func (c Credentials) Missing() []string {
	var missing []string

	if c.AccessToken == "" {
		missing = append(missing, "access_token")
	}

	if c.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}

	if c.RealmID == "" {
		missing = append(missing, "realm_id")
	}

	return missing
}

// TokenPayload is the token endpoint response, completed with the realm in effect.
type TokenPayload struct {
	TokenType              string `json:"token_type,omitempty"                 yaml:"token_type,omitempty"`
	AccessToken            string `json:"access_token"                         yaml:"access_token"`
	RefreshToken           string `json:"refresh_token,omitempty"              yaml:"refresh_token,omitempty"`
	ExpiresIn              int64  `json:"expires_in,omitempty"                 yaml:"expires_in,omitempty"`
	XRefreshTokenExpiresIn int64  `json:"x_refresh_token_expires_in,omitempty" yaml:"x_refresh_token_expires_in,omitempty"`
	RealmID                string `json:"realm_id,omitempty"                   yaml:"realm_id,omitempty"`
}

// Credentials converts the payload into a credentials update.
func (p TokenPayload) Credentials() Credentials {
	return Credentials{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, RealmID: p.RealmID}
}

// TokenListener receives token lifecycle notifications. Calls are synchronous
// and happen after the new credentials are stored.
type TokenListener interface {
	TokenRefreshed(payload TokenPayload)
	TokenRevoked(response string)
}

// TokenListenerFuncs adapts plain functions to TokenListener. Nil fields are skipped.
type TokenListenerFuncs struct {
	OnRefreshed func(payload TokenPayload)
	OnRevoked   func(response string)
}

// TokenRefreshed implements TokenListener.
func (f TokenListenerFuncs) TokenRefreshed(payload TokenPayload) {
	if f.OnRefreshed != nil {
		f.OnRefreshed(payload)
	}
}

// TokenRevoked implements TokenListener.
func (f TokenListenerFuncs) TokenRevoked(response string) {
	if f.OnRevoked != nil {
		f.OnRevoked(response)
	}
}

// CredentialInitializer supplies credentials on demand. A nil result with a
// nil error means nothing is stored.
type CredentialInitializer func(ctx context.Context) (*Credentials, error)

// CredentialStore persists credentials between runs.
type CredentialStore interface {
	Get(ctx context.Context) (*Credentials, error)
	Set(ctx context.Context, creds Credentials) error
}

// NewRequestID returns a fresh value for CallOptions.RequestID.
func NewRequestID() string {
	return uuid.NewString()
}
