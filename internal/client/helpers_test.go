package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apigrate/quickbooks/pkg/qbo"
)

const (
	tokenPath  = "/oauth2/v1/tokens/bearer"
	revokePath = "/v2/oauth2/tokens/revoke"
)

type recordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Body          string
	Authorization string
}

// fakeQuickBooks serves the token, revocation and accounting endpoints.
type fakeQuickBooks struct {
	server *httptest.Server

	mutex       sync.Mutex
	tokenCalls  int
	revokeCalls int
	requests    []recordedRequest

	// apiStatus returns the status for the n-th (1-based) accounting call.
	apiStatus   func(call int) int
	apiBody     string
	tokenStatus int
	tokenDelay  time.Duration
}

func newFakeQuickBooks(t *testing.T) *fakeQuickBooks {
	t.Helper()

	fake := &fakeQuickBooks{
		apiStatus:   func(int) int { return http.StatusOK },
		apiBody:     `{"time":"2024-01-01T00:00:00Z"}`,
		tokenStatus: http.StatusOK,
	}

	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeQuickBooks) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	if r.URL.Path == tokenPath && f.tokenDelay > 0 {
		time.Sleep(f.tokenDelay)
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == tokenPath:
		f.tokenCalls++
		w.WriteHeader(f.tokenStatus)

		if f.tokenStatus != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token_type":    "bearer",
			"access_token":  fmt.Sprintf("A%d", f.tokenCalls+1),
			"refresh_token": fmt.Sprintf("R%d", f.tokenCalls+1),
			"expires_in":    3600,
		})
	case r.URL.Path == revokePath:
		f.revokeCalls++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "")
	case strings.HasPrefix(r.URL.Path, "/v3/company/"):
		f.requests = append(f.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Body:          string(body),
			Authorization: r.Header.Get("Authorization"),
		})

		status := f.apiStatus(len(f.requests))
		w.WriteHeader(status)

		if status == http.StatusUnauthorized {
			_, _ = io.WriteString(w, `{"fault":{"error":[{"message":"AuthenticationFailed","code":"3200"}],"type":"AUTHENTICATION"}}`)

			return
		}

		_, _ = io.WriteString(w, f.apiBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeQuickBooks) config() *qbo.Config {
	return &qbo.Config{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		RedirectURI:   "https://example.com/callback",
		AccessToken:   "A1",
		RefreshToken:  "R1",
		RealmID:       "123",
		BaseURL:       f.server.URL + "/v3",
		TokenURL:      f.server.URL + tokenPath,
		RevocationURL: f.server.URL + revokePath,
	}
}

func (f *fakeQuickBooks) lastRequest(t *testing.T) recordedRequest {
	t.Helper()

	f.mutex.Lock()
	defer f.mutex.Unlock()

	require.NotEmpty(t, f.requests)

	return f.requests[len(f.requests)-1]
}

func (f *fakeQuickBooks) counts() (tokenCalls, apiCalls int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.tokenCalls, len(f.requests)
}

func newTestClient(t *testing.T, fake *fakeQuickBooks, mutate func(*qbo.Config)) *Client {
	t.Helper()

	cfg := fake.config()
	if mutate != nil {
		mutate(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}
