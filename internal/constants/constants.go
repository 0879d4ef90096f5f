package constants

import "time"

// Intuit OAuth2 endpoints.
const (
	// AuthorizationEndpoint is where the user grants consent.
	AuthorizationEndpoint = "https://appcenter.intuit.com/connect/oauth2"

	// TokenEndpoint serves both the authorization_code and refresh_token grants.
	TokenEndpoint = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"

	// RevocationEndpoint revokes a refresh token.
	RevocationEndpoint = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"

	// AccountingScope is the only scope requested by the connector.
	AccountingScope = "com.intuit.quickbooks.accounting"
)

// Accounting API base URLs.
const (
	ProductionBaseURL = "https://quickbooks.api.intuit.com/v3"
	SandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com/v3"
)

// UserAgent is sent on every request unless headers are overridden.
const UserAgent = "Apigrate QuickBooks Go Connector/1.x"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and credential files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token and revocation calls.
	ShortHTTPTimeout = 10 * time.Second
)

// Transport retry settings. Status codes are never retried by the transport.
const (
	// DefaultRetryMax disables transport retries unless configured.
	DefaultRetryMax = 0

	// LowRetryMax is used by the CLI.
	LowRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// MaxAuthRetries bounds how often a request is replayed after a 401.
const MaxAuthRetries = 1

// MaxTokenResponseBytes caps how much of a token or revocation response is read.
const MaxTokenResponseBytes = 1 << 20

// Provider fault codes with dedicated explanations.
const (
	FaultCodeServerError     = "500"
	FaultCodeUnsupported     = "2010"
	FaultCodeQueryParse      = "4000"
	FaultCodeInvalidProperty = "4001"
	FaultCodeObjectNotFound  = "610"
)

// Query parameters understood by the accounting API.
const (
	QueryParamRequestID    = "requestid"
	QueryParamMinorVersion = "minorversion"
	QueryParamOperation    = "operation"
	QueryParamQuery        = "query"
)

// Event subjects published for token lifecycle notifications.
const (
	DefaultSubjectPrefix  = "qbo"
	TokenRefreshedSubject = "token.refreshed"
	TokenRevokedSubject   = "token.revoked"
)

// UI and display constants.
const (
	// CheckMarkSymbol marks a supported capability.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// CLI defaults.
const (
	ConfigDirName       = ".qbo"
	ConfigFileName      = "config"
	CredentialsFileName = "credentials.yml"
	EnvPrefix           = "QBO"
	RequestIDAuto       = "auto"
	MaskedValue         = "***"
)
