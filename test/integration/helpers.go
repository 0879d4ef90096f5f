//go:build integration

package integration

import (
	"os"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	CredentialsFile string
	MinorVersion    string
	Verbose         bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		ClientID:        os.Getenv("QBO_CLIENT_ID"),
		ClientSecret:    os.Getenv("QBO_CLIENT_SECRET"),
		RedirectURI:     getenv("QBO_REDIRECT_URI", "http://localhost:8080/callback"),
		CredentialsFile: os.Getenv("QBO_SANDBOX_CREDENTIALS"),
		MinorVersion:    os.Getenv("QBO_MINOR_VERSION"),
		Verbose:         os.Getenv("QBO_VERBOSE") == "true",
	}
}

// Ready reports whether a sandbox company has been connected.
func (c *TestConfig) Ready() bool {
	if c.ClientID == "" || c.ClientSecret == "" || c.CredentialsFile == "" {
		return false
	}

	_, err := os.Stat(c.CredentialsFile)

	return err == nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
