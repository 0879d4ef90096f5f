package qbo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/apigrate/quickbooks/internal/constants"
)

// CredentialsError reports missing or unusable OAuth credentials. It is never
// retried; the end user has to re-authorize.
type CredentialsError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *CredentialsError) Error() string {
	if e.Err == nil {
		return "credentials error: " + e.Reason
	}

	if e.Reason == "" {
		return "credentials error: " + e.Err.Error()
	}

	return fmt.Sprintf("credentials error: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CredentialsError) Unwrap() error {
	return e.Err
}

// Fault is one entry of the provider's Fault.Error list.
type Fault struct {
	Code    string `json:"code"              yaml:"code"`
	Message string `json:"Message,omitempty" yaml:"message,omitempty"`
	Detail  string `json:"Detail,omitempty"  yaml:"detail,omitempty"`
	Element string `json:"element,omitempty" yaml:"element,omitempty"`
}

// APIError is a non-success response from the accounting API. Payload keeps
// the raw body so callers can branch on provider fault codes.
type APIError struct {
	StatusCode  int
	Message     string
	Explanation string
	Payload     json.RawMessage
	Faults      []Fault
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Explanation == "" {
		return e.Message
	}

	return e.Message + " " + e.Explanation
}

// HasFault reports whether the response carried the given fault code.
func (e *APIError) HasFault(code string) bool {
	for _, f := range e.Faults {
		if f.Code == code {
			return true
		}
	}

	return false
}

// ThrottlingError is returned for HTTP 429. errors.As with *APIError also matches it.
type ThrottlingError struct {
	APIError
}

// Unwrap exposes the embedded APIError.
func (e *ThrottlingError) Unwrap() error {
	return &e.APIError
}

// NewAPIError classifies a non-success response. A 429 yields *ThrottlingError,
// everything else *APIError.
func NewAPIError(statusCode int, body []byte) error {
	payload := rawPayload(body)
	faults := ParseFaults(body)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &ThrottlingError{APIError{
			StatusCode: statusCode,
			Message:    "API request limit reached.",
			Payload:    payload,
			Faults:     faults,
		}}
	case statusCode >= http.StatusInternalServerError:
		return &APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("Server Error (HTTP %d)", statusCode),
			Payload:    payload,
			Faults:     faults,
		}
	default:
		explanation := ExplainFaults(faults)
		if explanation == "" {
			explanation = strings.TrimSpace(string(body))
		}

		return &APIError{
			StatusCode:  statusCode,
			Message:     fmt.Sprintf("Client Error (HTTP %d)", statusCode),
			Explanation: explanation,
			Payload:     payload,
			Faults:      faults,
		}
	}
}

// ParseFaults extracts Fault.Error entries from a response body.
func ParseFaults(body []byte) []Fault {
	if !gjson.ValidBytes(body) {
		return nil
	}

	list := gjson.GetBytes(body, "Fault.Error")
	if !list.IsArray() {
		return nil
	}

	var faults []Fault

	list.ForEach(func(_, value gjson.Result) bool {
		faults = append(faults, Fault{
			Code:    value.Get("code").String(),
			Message: value.Get("Message").String(),
			Detail:  value.Get("Detail").String(),
			Element: value.Get("element").String(),
		})

		return true
	})

	return faults
}

// ExplainFaults renders a readable explanation with a recommendation for known codes.
func ExplainFaults(faults []Fault) string {
	lines := make([]string, 0, len(faults))

	for _, f := range faults {
		line := fmt.Sprintf("Error code %s. %s.", f.Code, f.Detail)

		switch f.Code {
		case constants.FaultCodeServerError, constants.FaultCodeUnsupported:
			line += " Recommendation: possible misconfiguration, the entity name is not recognized."
		case constants.FaultCodeQueryParse:
			line += " Recommendation: check your query, including punctuation. For example, you might be using double quotes instead of single quotes."
		case constants.FaultCodeInvalidProperty:
			line += " Recommendation: check your entity and attribute names to make sure they match the QuickBooks API specifications."
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func rawPayload(body []byte) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return nil
	}

	return json.RawMessage(body)
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// IsThrottled checks if the error is a rate limit error.
func IsThrottled(err error) bool {
	throttled := &ThrottlingError{}

	return errors.As(err, &throttled)
}

// IsCredentialsError checks if re-authorization is required.
func IsCredentialsError(err error) bool {
	credErr := &CredentialsError{}

	return errors.As(err, &credErr)
}

// IsUnauthorized checks if the error is a terminal 401.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)

	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}

	return apiErr.StatusCode == http.StatusNotFound || apiErr.HasFault(constants.FaultCodeObjectNotFound)
}
