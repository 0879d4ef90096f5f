package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

func TestNew_ValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(&qbo.Config{ClientID: "id", ClientSecret: "secret"})
	require.ErrorIs(t, err, constants.ErrMissingRedirectURI)
	assert.True(t, qbo.IsCredentialsError(err))

	_, err = New(nil)
	require.ErrorIs(t, err, constants.ErrMissingClientConfig)
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.apiStatus = func(call int) int {
		if call == 1 {
			return http.StatusUnauthorized
		}

		return http.StatusOK
	}
	fake.apiBody = `{"QueryResponse":{"Item":[]}}`

	var refreshed []qbo.TokenPayload

	client := newTestClient(t, fake, nil)
	client.AddTokenListener(qbo.TokenListenerFuncs{OnRefreshed: func(p qbo.TokenPayload) { refreshed = append(refreshed, p) }})

	item, _ := client.Accounting().Entity("Item")

	result, err := item.Querier.Query(context.Background(), "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"QueryResponse":{"Item":[]}}`, string(result))

	tokenCalls, apiCalls := fake.counts()
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 2, apiCalls)
	assert.Equal(t, "Bearer A2", fake.lastRequest(t).Authorization)

	require.Len(t, refreshed, 1)
	assert.Equal(t, "123", refreshed[0].RealmID)
	assert.Equal(t, qbo.Credentials{AccessToken: "A2", RefreshToken: "R2", RealmID: "123"}, client.Credentials())
}

func TestClient_SecondUnauthorizedIsTerminal(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.apiStatus = func(int) int { return http.StatusUnauthorized }

	client := newTestClient(t, fake, nil)
	invoice, _ := client.Accounting().Entity("Invoice")

	_, err := invoice.Reader.Get(context.Background(), "1", nil)
	require.Error(t, err)
	assert.True(t, qbo.IsUnauthorized(err))

	tokenCalls, apiCalls := fake.counts()
	assert.Equal(t, 1, tokenCalls, "exactly one refresh per logical call")
	assert.Equal(t, 2, apiCalls)
}

func TestClient_RejectedRefreshIsCredentialsError(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.apiStatus = func(int) int { return http.StatusUnauthorized }
	fake.tokenStatus = http.StatusBadRequest

	client := newTestClient(t, fake, nil)

	var refreshed int

	client.AddTokenListener(qbo.TokenListenerFuncs{OnRefreshed: func(qbo.TokenPayload) { refreshed++ }})

	item, _ := client.Accounting().Entity("Item")

	_, err := item.Querier.Query(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, qbo.IsCredentialsError(err))
	require.ErrorIs(t, err, constants.ErrGrantRejected)
	assert.Zero(t, refreshed)

	_, apiCalls := fake.counts()
	assert.Equal(t, 1, apiCalls)
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)

	var mutex sync.Mutex

	var rejected int

	fake.apiStatus = func(int) int {
		// every request presenting the first access token is rejected
		mutex.Lock()
		defer mutex.Unlock()

		last := fake.requests[len(fake.requests)-1]
		if last.Authorization == "Bearer A1" {
			rejected++

			return http.StatusUnauthorized
		}

		return http.StatusOK
	}

	client := newTestClient(t, fake, nil)
	item, _ := client.Accounting().Entity("Item")

	const callers = 6

	var wg sync.WaitGroup

	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := item.Querier.Query(context.Background(), "", nil)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	mutex.Lock()
	assert.Positive(t, rejected)
	mutex.Unlock()

	tokenCalls, _ := fake.counts()
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, "A2", client.Credentials().AccessToken)
}

func TestClient_CanceledCallerDoesNotFailSharedRefresh(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.tokenDelay = 300 * time.Millisecond
	fake.apiStatus = func(int) int {
		last := fake.requests[len(fake.requests)-1]
		if last.Authorization == "Bearer A1" {
			return http.StatusUnauthorized
		}

		return http.StatusOK
	}

	client := newTestClient(t, fake, nil)
	item, _ := client.Accounting().Entity("Item")

	shortCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup

	var errShort, errLong error

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, errShort = item.Querier.Query(shortCtx, "", nil)
	}()

	go func() {
		defer wg.Done()

		_, errLong = item.Querier.Query(context.Background(), "", nil)
	}()

	wg.Wait()

	require.ErrorIs(t, errShort, context.DeadlineExceeded)
	require.NoError(t, errLong)

	tokenCalls, _ := fake.counts()
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, "A2", client.Credentials().AccessToken)
}

func TestClient_MissingCredentialsFailBeforeNetwork(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	client := newTestClient(t, fake, func(c *qbo.Config) {
		c.AccessToken, c.RefreshToken, c.RealmID = "", "", ""
	})

	item, _ := client.Accounting().Entity("Item")

	_, err := item.Querier.Query(context.Background(), "", nil)
	require.ErrorIs(t, err, constants.ErrMissingCredentials)

	tokenCalls, apiCalls := fake.counts()
	assert.Zero(t, tokenCalls)
	assert.Zero(t, apiCalls)
}

func TestClient_CredentialInitializer(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	client := newTestClient(t, fake, func(c *qbo.Config) {
		c.AccessToken, c.RefreshToken, c.RealmID = "", "", ""
		c.CredentialInitializer = func(context.Context) (*qbo.Credentials, error) {
			return &qbo.Credentials{AccessToken: "stored-access", RefreshToken: "stored-refresh", RealmID: "456"}, nil
		}
	})

	item, _ := client.Accounting().Entity("Item")

	_, err := item.Reader.Get(context.Background(), "3", nil)
	require.NoError(t, err)

	got := fake.lastRequest(t)
	assert.Equal(t, "/v3/company/456/item/3", got.Path)
	assert.Equal(t, "Bearer stored-access", got.Authorization)
}

func TestClient_TokenLifecycle(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	client := newTestClient(t, fake, func(c *qbo.Config) {
		c.AccessToken, c.RefreshToken, c.RealmID = "", "", ""
	})

	var revoked []string

	client.AddTokenListener(qbo.TokenListenerFuncs{OnRevoked: func(r string) { revoked = append(revoked, r) }})

	consent := client.AuthorizationURL("csrf")
	assert.Contains(t, consent, "state=csrf")
	assert.Contains(t, consent, "response_type=code")

	payload, err := client.ExchangeAuthorizationCode(context.Background(), "code", "789")
	require.NoError(t, err)
	assert.Equal(t, "789", payload.RealmID)
	assert.Equal(t, qbo.Credentials{AccessToken: "A2", RefreshToken: "R2", RealmID: "789"}, client.Credentials())

	payload, err = client.RefreshAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A3", payload.AccessToken)

	_, err = client.Disconnect(context.Background())
	require.NoError(t, err)
	assert.Len(t, revoked, 1)

	require.NoError(t, client.SetCredentials(&qbo.Credentials{RealmID: "999"}))
	assert.Equal(t, "999", client.Credentials().RealmID)
	assert.Equal(t, "A3", client.Credentials().AccessToken)
}
