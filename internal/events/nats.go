// Package events publishes token lifecycle events to NATS so other services
// sharing a QuickBooks connection can pick up rotated credentials.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// TokenEvent is the message body published for every token event.
type TokenEvent struct {
	Type                   string    `json:"type"`
	RealmID                string    `json:"realm_id,omitempty"`
	ExpiresIn              int64     `json:"expires_in,omitempty"`
	XRefreshTokenExpiresIn int64     `json:"x_refresh_token_expires_in,omitempty"`
	AccessToken            string    `json:"access_token,omitempty"`
	RefreshToken           string    `json:"refresh_token,omitempty"`
	OccurredAt             time.Time `json:"occurred_at"`
}

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier implements qbo.TokenListener by publishing TokenEvents.
type NATSNotifier struct {
	publisher     Publisher
	prefix        string
	includeTokens bool
	logger        qbo.Logger
	now           func() time.Time
}

// NotifierOption configures a NATSNotifier.
type NotifierOption func(*NATSNotifier)

// WithSubjectPrefix overrides the default "qbo" subject prefix.
func WithSubjectPrefix(prefix string) NotifierOption {
	return func(n *NATSNotifier) {
		n.prefix = strings.TrimSuffix(prefix, ".")
	}
}

// WithTokens includes the raw token values in published events. Only enable
// this on a trusted, access-controlled subject.
func WithTokens() NotifierOption {
	return func(n *NATSNotifier) {
		n.includeTokens = true
	}
}

// WithLogger sets the logger used for publish failures.
func WithLogger(logger qbo.Logger) NotifierOption {
	return func(n *NATSNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNATSNotifier creates a notifier publishing through publisher.
func NewNATSNotifier(publisher Publisher, opts ...NotifierOption) *NATSNotifier {
	n := &NATSNotifier{
		publisher: publisher,
		prefix:    constants.DefaultSubjectPrefix,
		logger:    qbo.NopLogger{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Subject returns the full subject for an event name.
func (n *NATSNotifier) Subject(name string) string {
	if n.prefix == "" {
		return name
	}

	return n.prefix + "." + name
}

// TokenRefreshed implements qbo.TokenListener.
func (n *NATSNotifier) TokenRefreshed(payload qbo.TokenPayload) {
	event := TokenEvent{
		Type:                   constants.TokenRefreshedSubject,
		RealmID:                payload.RealmID,
		ExpiresIn:              payload.ExpiresIn,
		XRefreshTokenExpiresIn: payload.XRefreshTokenExpiresIn,
		OccurredAt:             n.now().UTC(),
	}

	if n.includeTokens {
		event.AccessToken = payload.AccessToken
		event.RefreshToken = payload.RefreshToken
	}

	n.publish(event)
}

// TokenRevoked implements qbo.TokenListener. The revocation response body is
// not forwarded.
func (n *NATSNotifier) TokenRevoked(string) {
	n.publish(TokenEvent{Type: constants.TokenRevokedSubject, OccurredAt: n.now().UTC()})
}

func (n *NATSNotifier) publish(event TokenEvent) {
	subject := n.Subject(event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to encode token event", map[string]interface{}{"subject": subject, "error": err.Error()})

		return
	}

	err = n.publisher.Publish(subject, data)
	if err != nil {
		n.logger.Warn("failed to publish token event", map[string]interface{}{"subject": subject, "error": err.Error()})

		return
	}

	n.logger.Debug("token event published", map[string]interface{}{"subject": subject})
}

// Connect dials a NATS server with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(constants.UserAgent),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return conn, nil
}

var _ qbo.TokenListener = (*NATSNotifier)(nil)
