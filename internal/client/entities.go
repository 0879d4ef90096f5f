package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/apigrate/quickbooks/internal/constants"
	qbohttp "github.com/apigrate/quickbooks/internal/http"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// entityCore is shared by the per-operation types of one descriptor. Each
// operation type carries exactly one method so an unsupported operation
// cannot be reached through a type assertion.
type entityCore struct {
	httpClient   *qbohttp.Client
	descriptor   qbo.EntityDescriptor
	minorVersion string
}

type (
	creator  struct{ *entityCore }
	reader   struct{ *entityCore }
	updater  struct{ *entityCore }
	deleter  struct{ *entityCore }
	querier  struct{ *entityCore }
	reporter struct{ *entityCore }
)

// BuildEntity assembles the operation set declared by d.
func BuildEntity(httpClient *qbohttp.Client, d qbo.EntityDescriptor, minorVersion string) *qbo.Entity {
	core := &entityCore{httpClient: httpClient, descriptor: d, minorVersion: minorVersion}
	entity := &qbo.Entity{Descriptor: d}

	if d.Capabilities.Has(qbo.CapabilityCreate) {
		entity.Creator = creator{core}
	}

	if d.Capabilities.Has(qbo.CapabilityRead) {
		entity.Reader = reader{core}
	}

	if d.Capabilities.Has(qbo.CapabilityUpdate) {
		entity.Updater = updater{core}
	}

	if d.Capabilities.Has(qbo.CapabilityDelete) {
		entity.Deleter = deleter{core}
	}

	if d.Capabilities.Has(qbo.CapabilityQuery) {
		entity.Querier = querier{core}
	}

	if d.Capabilities.Has(qbo.CapabilityReport) {
		entity.Reporter = reporter{core}
	}

	return entity
}

// Create implements qbo.Creator.
func (c creator) Create(ctx context.Context, payload interface{}, opts *qbo.CallOptions) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodPost, "/"+c.descriptor.Fragment, nil, payload, opts)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.descriptor.Name, err)
	}

	return resp, nil
}

// Get implements qbo.Reader.
func (c reader) Get(ctx context.Context, id string, opts *qbo.CallOptions) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("getting %s: %w", c.descriptor.Name, constants.ErrEmptyEntityID)
	}

	resp, err := c.do(ctx, http.MethodGet, "/"+c.descriptor.Fragment+"/"+url.PathEscape(id), nil, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", c.descriptor.Name, id, err)
	}

	return resp, nil
}

// Update implements qbo.Updater.
func (c updater) Update(ctx context.Context, payload interface{}, opts *qbo.CallOptions) (json.RawMessage, error) {
	query := url.Values{constants.QueryParamOperation: {"update"}}

	resp, err := c.do(ctx, http.MethodPost, "/"+c.descriptor.Fragment, query, payload, opts)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", c.descriptor.Name, err)
	}

	return resp, nil
}

// Delete implements qbo.Deleter.
func (c deleter) Delete(ctx context.Context, payload interface{}, opts *qbo.CallOptions) (json.RawMessage, error) {
	query := url.Values{constants.QueryParamOperation: {"delete"}}

	resp, err := c.do(ctx, http.MethodPost, "/"+c.descriptor.Fragment, query, payload, opts)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", c.descriptor.Name, err)
	}

	return resp, nil
}

// Query implements qbo.Querier.
func (c querier) Query(ctx context.Context, statement string, opts *qbo.CallOptions) (json.RawMessage, error) {
	if statement == "" {
		statement = DefaultQuery(c.descriptor)
	}

	query := url.Values{constants.QueryParamQuery: {statement}}

	resp, err := c.do(ctx, http.MethodGet, "/query", query, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.descriptor.Name, err)
	}

	return resp, nil
}

// Report implements qbo.Reporter. params are passed through untouched.
func (c reporter) Report(ctx context.Context, params url.Values, opts *qbo.CallOptions) (json.RawMessage, error) {
	query := url.Values{}
	for key, values := range params {
		query[key] = append([]string(nil), values...)
	}

	resp, err := c.do(ctx, http.MethodGet, "/reports/"+c.descriptor.Fragment, query, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("running %s report: %w", c.descriptor.Name, err)
	}

	return resp, nil
}

// DefaultQuery selects every record of the entity.
func DefaultQuery(d qbo.EntityDescriptor) string {
	return "select * from " + d.Name
}

func (c *entityCore) do(ctx context.Context, method, path string, query url.Values, payload interface{}, opts *qbo.CallOptions) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(ctx, &qbohttp.Request{
		Method: method,
		Path:   path,
		Query:  withCallOptions(query, opts, c.minorVersion),
		Body:   payload,
		Entity: c.descriptor.Name,
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// withCallOptions adds requestid and minorversion. The per-call minor version
// wins over the connector default; with neither the parameter is omitted.
func withCallOptions(query url.Values, opts *qbo.CallOptions, defaultMinorVersion string) url.Values {
	if query == nil {
		query = url.Values{}
	}

	minorVersion := defaultMinorVersion

	if opts != nil {
		if opts.RequestID != "" {
			query.Set(constants.QueryParamRequestID, opts.RequestID)
		}

		if opts.MinorVersion != "" {
			minorVersion = opts.MinorVersion
		}
	}

	if minorVersion != "" {
		query.Set(constants.QueryParamMinorVersion, minorVersion)
	}

	if len(query) == 0 {
		return nil
	}

	return query
}
