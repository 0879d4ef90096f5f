package commands

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/internal/credstore"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

func TestAuthURL(t *testing.T) {
	setupViper(t, nil)

	out := mustExecute(t, NewAuthCommand(), "url", "--state", "s1")

	parsed, err := url.Parse(out[:len(out)-1])
	require.NoError(t, err)
	assert.Equal(t, "s1", parsed.Query().Get("state"))
	assert.Equal(t, "cid", parsed.Query().Get("client_id"))
	assert.Equal(t, "code", parsed.Query().Get("response_type"))
	assert.Equal(t, "https://example.com/callback", parsed.Query().Get("redirect_uri"))
}

func TestAuthURLRequiresClientConfig(t *testing.T) {
	setupViper(t, nil)
	viper.Set("redirect_uri", "")

	_, err := execute(t, NewAuthCommand(), "url")
	require.ErrorIs(t, err, constants.ErrMissingRedirectURI)
}

func TestAuthExchangeRequiresRealm(t *testing.T) {
	setupViper(t, nil)

	_, err := execute(t, NewAuthCommand(), "exchange", "--code", "c1")
	require.ErrorIs(t, err, constants.ErrMissingRealmID)
}

func TestAuthLifecycle(t *testing.T) {
	fake := newFakeAPI(t)
	path := setupViper(t, fake)
	store := credstore.NewFileStore(path)

	_, err := execute(t, NewAuthCommand(), "show")
	require.ErrorIs(t, err, constants.ErrNotConnected)

	out := mustExecute(t, NewAuthCommand(), "exchange", "--code", "c1", "--realm", "123")

	var payload qbo.TokenPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "123", payload.RealmID)
	assert.Equal(t, "acce***", payload.AccessToken, "tokens are masked in output")

	stored, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, qbo.Credentials{AccessToken: "access-1", RefreshToken: "refresh-1", RealmID: "123"}, *stored)

	mustExecute(t, NewAuthCommand(), "refresh")

	stored, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, qbo.Credentials{AccessToken: "access-2", RefreshToken: "refresh-2", RealmID: "123"}, *stored)

	out = mustExecute(t, NewAuthCommand(), "show")
	assert.Contains(t, out, `"realm_id": "123"`)
	assert.NotContains(t, out, "refresh-2")

	out = mustExecute(t, NewAuthCommand(), "revoke")
	assert.Contains(t, out, "Token revoked")
	assert.Equal(t, 1, fake.revoked)
}

func TestAuthShowTable(t *testing.T) {
	path := setupViper(t, nil)
	viper.Set("output", "table")

	require.NoError(t, credstore.NewFileStore(path).Set(context.Background(),
		qbo.Credentials{AccessToken: "access-token", RefreshToken: "refresh-token", RealmID: "123"}))

	out := mustExecute(t, NewAuthCommand(), "show")
	assert.Contains(t, out, "123")
	assert.Contains(t, out, "acce***")
	assert.NotContains(t, out, "access-token")
}
