package qbo

import (
	"golang.org/x/oauth2"

	"github.com/apigrate/quickbooks/internal/constants"
)

// OAuth2Config builds the oauth2 configuration used for consent and grants.
// Client credentials are sent with HTTP Basic auth.
func OAuth2Config(cfg *Config) *oauth2.Config {
	authURL := cfg.AuthorizationURL
	if authURL == "" {
		authURL = constants.AuthorizationEndpoint
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = constants.TokenEndpoint
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{constants.AccountingScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// AuthorizationURL returns the consent URL for the accounting scope. Every
// query parameter is percent-encoded and response_type is always "code".
func AuthorizationURL(clientID, redirectURI, state string) string {
	return OAuth2Config(&Config{ClientID: clientID, RedirectURI: redirectURI}).AuthCodeURL(state)
}
