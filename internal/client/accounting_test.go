package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigrate/quickbooks/pkg/qbo"
)

func TestAccountingAPI_Entity(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	api := newTestClient(t, fake, nil).Accounting()

	for _, d := range qbo.Registry() {
		entity, ok := api.Entity(d.Handle)
		require.True(t, ok, d.Handle)
		assert.Equal(t, d, entity.Descriptor)
	}

	_, ok := api.Entity("Widget")
	assert.False(t, ok)

	entities := api.Entities()
	entities[0] = nil
	assert.NotNil(t, api.Entities()[0], "Entities returns a copy")
}

func TestAccountingAPI_Batch(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.apiBody = `{"BatchItemResponse":[{"bId":"1"}]}`

	api := newTestClient(t, fake, nil).Accounting()

	payload := json.RawMessage(`{"BatchItemRequest":[{"bId":"1","operation":"create","Vendor":{"DisplayName":"V"}}]}`)

	result, err := api.Batch(context.Background(), payload, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"BatchItemResponse":[{"bId":"1"}]}`, string(result))

	got := fake.lastRequest(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v3/company/123/batch", got.Path)
	assert.Empty(t, got.Query)
	assert.JSONEq(t, string(payload), got.Body)
}

func TestAccountingAPI_BatchClientError(t *testing.T) {
	t.Parallel()

	fake := newFakeQuickBooks(t)
	fake.apiStatus = func(int) int { return http.StatusBadRequest }
	fake.apiBody = `{"Fault":{"Error":[{"Detail":"Unsupported Operation","code":"2010"}]}}`

	_, err := newTestClient(t, fake, nil).Accounting().Batch(context.Background(), map[string]interface{}{}, nil)
	require.Error(t, err)

	apiErr, ok := qbo.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.HasFault("2010"))
	assert.Contains(t, apiErr.Error(), "entity name is not recognized")
}
