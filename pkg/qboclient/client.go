// Package qboclient provides the main entry point for creating QuickBooks Online connectors
package qboclient

import (
	"fmt"
	"strings"

	"github.com/apigrate/quickbooks/internal/auth"
	"github.com/apigrate/quickbooks/internal/client"
	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// New creates a connector for the production accounting API unless
// config.BaseURL says otherwise.
func New(config *qbo.Config) (qbo.Connector, error) {
	if config == nil {
		return nil, &qbo.CredentialsError{Reason: "invalid configuration", Err: constants.ErrMissingClientConfig}
	}

	normalized := *config
	normalized.BaseURL = normalizeBaseURL(config.BaseURL)

	conn, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new connector: %w", err)
	}

	return conn, nil
}

// NewSandbox creates a connector for the sandbox accounting API.
func NewSandbox(config *qbo.Config) (qbo.Connector, error) {
	if config == nil {
		return New(nil)
	}

	sandbox := *config
	sandbox.BaseURL = constants.SandboxBaseURL

	return New(&sandbox)
}

// NewWithStore creates a connector that reads its credentials from store when
// none are configured and writes every refreshed token back to it.
func NewWithStore(config *qbo.Config, store qbo.CredentialStore) (qbo.Connector, error) {
	if config == nil || store == nil {
		return New(config)
	}

	withStore := *config
	if withStore.CredentialInitializer == nil {
		withStore.CredentialInitializer = auth.StoreInitializer(store)
	}

	withStore.Listeners = append(
		append([]qbo.TokenListener(nil), config.Listeners...),
		auth.NewStorePersister(store, config.Logger),
	)

	return New(&withStore)
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return constants.ProductionBaseURL
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}
