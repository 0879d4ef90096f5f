package qbo

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/apigrate/quickbooks/internal/constants"
)

func TestAuthorizationURL(t *testing.T) {
	t.Parallel()

	raw := AuthorizationURL("cid", "https://x/cb", "s1")

	assert.True(t, strings.HasPrefix(raw, constants.AuthorizationEndpoint+"?"))
	assert.Contains(t, raw, "redirect_uri=https%3A%2F%2Fx%2Fcb")
	assert.Contains(t, raw, "response_type=code")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "https://x/cb", q.Get("redirect_uri"))
	assert.Equal(t, "s1", q.Get("state"))
	assert.Equal(t, constants.AccountingScope, q.Get("scope"))
}

func TestOAuth2Config(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := OAuth2Config(&Config{ClientID: "cid", ClientSecret: "secret", RedirectURI: "https://x/cb"})

		assert.Equal(t, constants.TokenEndpoint, cfg.Endpoint.TokenURL)
		assert.Equal(t, constants.AuthorizationEndpoint, cfg.Endpoint.AuthURL)
		assert.Equal(t, oauth2.AuthStyleInHeader, cfg.Endpoint.AuthStyle)
		assert.Equal(t, []string{constants.AccountingScope}, cfg.Scopes)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()

		cfg := OAuth2Config(&Config{TokenURL: "http://127.0.0.1/token", AuthorizationURL: "http://127.0.0.1/auth"})

		assert.Equal(t, "http://127.0.0.1/token", cfg.Endpoint.TokenURL)
		assert.Equal(t, "http://127.0.0.1/auth", cfg.Endpoint.AuthURL)
	})
}
