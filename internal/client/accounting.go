package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	qbohttp "github.com/apigrate/quickbooks/internal/http"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// AccountingAPI implements qbo.AccountingAPI.
type AccountingAPI struct {
	httpClient   *qbohttp.Client
	minorVersion string
	byHandle     map[string]*qbo.Entity
	ordered      []*qbo.Entity
}

// NewAccountingAPI builds one operation set per descriptor.
func NewAccountingAPI(httpClient *qbohttp.Client, descriptors []qbo.EntityDescriptor, minorVersion string) *AccountingAPI {
	api := &AccountingAPI{
		httpClient:   httpClient,
		minorVersion: minorVersion,
		byHandle:     make(map[string]*qbo.Entity, len(descriptors)),
		ordered:      make([]*qbo.Entity, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		entity := BuildEntity(httpClient, d, minorVersion)
		api.byHandle[d.Handle] = entity
		api.ordered = append(api.ordered, entity)
	}

	return api
}

// Entity implements qbo.AccountingAPI.Entity.
func (a *AccountingAPI) Entity(handle string) (*qbo.Entity, bool) {
	entity, ok := a.byHandle[handle]

	return entity, ok
}

// Entities implements qbo.AccountingAPI.Entities.
func (a *AccountingAPI) Entities() []*qbo.Entity {
	return append([]*qbo.Entity(nil), a.ordered...)
}

// Batch implements qbo.AccountingAPI.Batch. The payload is sent as is; like
// entity operations, opts.RequestID and the resolved minor version are added
// as the requestid and minorversion query parameters.
func (a *AccountingAPI) Batch(ctx context.Context, payload interface{}, opts *qbo.CallOptions) (json.RawMessage, error) {
	resp, err := a.httpClient.Do(ctx, &qbohttp.Request{
		Method: http.MethodPost,
		Path:   "/batch",
		Query:  withCallOptions(nil, opts, a.minorVersion),
		Body:   payload,
		Entity: "batch",
	})
	if err != nil {
		return nil, fmt.Errorf("running batch: %w", err)
	}

	return resp.Body, nil
}
