package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// fakeAPI stands in for the token, revocation and accounting endpoints.
type fakeAPI struct {
	server *httptest.Server

	mutex      sync.Mutex
	tokenCalls int
	revoked    int
	paths      []string
	queries    []string
	auth       []string
	bodies     []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	fake := &fakeAPI{}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fake.mutex.Lock()
		defer fake.mutex.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/token":
			fake.tokenCalls++
			n := fake.tokenCalls
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token_type":    "bearer",
				"access_token":  "access-" + string(rune('0'+n)),
				"refresh_token": "refresh-" + string(rune('0'+n)),
				"expires_in":    3600,
			})
		case "/revoke":
			fake.revoked++
			w.WriteHeader(http.StatusOK)
		default:
			fake.paths = append(fake.paths, r.Method+" "+r.URL.Path)
			fake.queries = append(fake.queries, r.URL.RawQuery)
			fake.auth = append(fake.auth, r.Header.Get("Authorization"))
			fake.bodies = append(fake.bodies, string(body))
			_, _ = io.WriteString(w, `{"Customer":{"Id":"58","DisplayName":"Amy"}}`)
		}
	}))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeAPI) last() (path, query, auth, body string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	i := len(f.paths) - 1

	return f.paths[i], f.queries[i], f.auth[i], f.bodies[i]
}

// setupViper points the CLI at fake and an empty credentials file.
func setupViper(t *testing.T, fake *fakeAPI) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	credentials := filepath.Join(t.TempDir(), "credentials.yml")

	viper.Set("client_id", "cid")
	viper.Set("client_secret", "secret")
	viper.Set("redirect_uri", "https://example.com/callback")
	viper.Set("credentials_file", credentials)
	viper.Set("output", "json")

	if fake != nil {
		viper.Set("base_url", fake.server.URL+"/v3")
		viper.Set("token_url", fake.server.URL+"/token")
		viper.Set("revocation_url", fake.server.URL+"/revoke")
	}

	return credentials
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func mustExecute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()

	out, err := execute(t, cmd, args...)
	require.NoError(t, err)

	return out
}
