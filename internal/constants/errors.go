package constants

import "errors"

// Static errors for err113 compliance.
var (
	ErrMissingClientConfig         = errors.New("client id and client secret are required")
	ErrMissingRedirectURI          = errors.New("redirect uri is required")
	ErrMissingCredentials          = errors.New("access token, refresh token and realm id are required")
	ErrCredentialsAfterInitializer = errors.New("credentials still incomplete after initializer")
	ErrMissingRefreshToken         = errors.New("no refresh token is available")
	ErrNilCredentials              = errors.New("credentials update must not be nil")
	ErrGrantRejected               = errors.New("token grant was rejected")
	ErrRevocationRejected          = errors.New("token revocation was rejected")
	ErrMissingRealmID              = errors.New("realm id is required")
	ErrEmptyEntityID               = errors.New("entity id is required")
	ErrUnknownEntity               = errors.New("unknown entity")
	ErrUnsupportedOperation        = errors.New("operation is not supported by entity")
	ErrNotConnected                = errors.New("no stored credentials; run \"qbo auth exchange\" first")
	ErrInvalidOutputFormat         = errors.New("invalid output format")
	ErrInvalidReportParam          = errors.New("report parameters must be key=value")
	ErrInvalidPayload              = errors.New("payload is not valid JSON")
)
