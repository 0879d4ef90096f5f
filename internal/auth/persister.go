package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// Static errors for err113 compliance.
var (
	ErrNoCredentialStore = errors.New("no credential store configured")
)

// StorePersister is a TokenListener that writes refreshed credentials back to
// a CredentialStore, merging them into whatever is stored.
type StorePersister struct {
	store   qbo.CredentialStore
	logger  qbo.Logger
	timeout time.Duration
}

// NewStorePersister creates a persister for store.
func NewStorePersister(store qbo.CredentialStore, logger qbo.Logger) *StorePersister {
	if logger == nil {
		logger = qbo.NopLogger{}
	}

	return &StorePersister{store: store, logger: logger, timeout: constants.ShortHTTPTimeout}
}

// TokenRefreshed implements qbo.TokenListener.
func (p *StorePersister) TokenRefreshed(payload qbo.TokenPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.Persist(ctx, payload.Credentials())
	if err != nil {
		// the grant itself succeeded; only persistence is lost
		p.logger.Warn("failed to persist refreshed credentials", map[string]interface{}{"error": err.Error()})
	}
}

// TokenRevoked implements qbo.TokenListener. Stored credentials are kept so
// the realm id survives a reconnect.
func (p *StorePersister) TokenRevoked(string) {
	p.logger.Debug("refresh token revoked; stored credentials left in place", nil)
}

// Persist merges update into the stored credentials.
func (p *StorePersister) Persist(ctx context.Context, update qbo.Credentials) error {
	if p.store == nil {
		return ErrNoCredentialStore
	}

	current, err := p.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored credentials: %w", err)
	}

	merged := update
	if current != nil {
		merged = current.Merge(update)
	}

	err = p.store.Set(ctx, merged)
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	return nil
}

// StoreInitializer adapts a CredentialStore into a credential initializer.
func StoreInitializer(store qbo.CredentialStore) qbo.CredentialInitializer {
	return func(ctx context.Context) (*qbo.Credentials, error) {
		return store.Get(ctx)
	}
}
