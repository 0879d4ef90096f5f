package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/internal/credstore"
	"github.com/apigrate/quickbooks/internal/events"
	"github.com/apigrate/quickbooks/pkg/qbo"
	"github.com/apigrate/quickbooks/pkg/qboclient"
)

// session bundles a connector with the resources that must be released after
// the command finishes.
type session struct {
	conn  qbo.Connector
	store *credstore.FileStore
	close func()
}

// credentialsPath resolves the credentials file, defaulting to
// ~/.qbo/credentials.yml.
func credentialsPath() (string, error) {
	path := viper.GetString("credentials_file")
	if path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.CredentialsFileName), nil
}

// clientSecret returns the configured secret, prompting on an interactive
// terminal when none is set.
func clientSecret(cmd *cobra.Command) (string, error) {
	secret := viper.GetString("client_secret")
	if secret != "" {
		return secret, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Client secret: ")

	secretBytes, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	return strings.TrimSpace(string(secretBytes)), nil
}

// buildConfig assembles the connector configuration from viper.
func buildConfig(cmd *cobra.Command) (*qbo.Config, error) {
	secret, err := clientSecret(cmd)
	if err != nil {
		return nil, err
	}

	config := &qbo.Config{
		ClientID:      viper.GetString("client_id"),
		ClientSecret:  secret,
		RedirectURI:   viper.GetString("redirect_uri"),
		BaseURL:       viper.GetString("base_url"),
		MinorVersion:  viper.GetString("minor_version"),
		TokenURL:      viper.GetString("token_url"),
		RevocationURL: viper.GetString("revocation_url"),
		Debug:         viper.GetBool("verbose"),
	}

	if config.BaseURL == "" && viper.GetBool("sandbox") {
		config.BaseURL = constants.SandboxBaseURL
	}

	return config, nil
}

// newSession creates a connector whose credentials are read from and written
// back to the credentials file. When nats_url is set, token events are also
// published to NATS.
func newSession(cmd *cobra.Command) (*session, error) {
	config, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	zl, err := newZapLogger(viper.GetBool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	config.Logger = zapLogger{logger: zl}

	closers := []func(){func() { _ = zl.Sync() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	natsURL := viper.GetString("nats_url")
	if natsURL != "" {
		nc, err := events.Connect(natsURL)
		if err != nil {
			closeAll()

			return nil, err
		}

		// events published during the command must reach the server before exit
		closers = append(closers, func() {
			_ = nc.Flush()
			nc.Close()
		})
		opts := []events.NotifierOption{events.WithLogger(config.Logger)}
		if prefix := viper.GetString("nats_subject_prefix"); prefix != "" {
			opts = append(opts, events.WithSubjectPrefix(prefix))
		}

		config.Listeners = append(config.Listeners, events.NewNATSNotifier(nc, opts...))

		zl.Debug("publishing token events", zap.String("url", natsURL))
	}

	path, err := credentialsPath()
	if err != nil {
		closeAll()

		return nil, err
	}

	store := credstore.NewFileStore(path)

	conn, err := qboclient.NewWithStore(config, store)
	if err != nil {
		closeAll()

		return nil, err
	}

	return &session{conn: conn, store: store, close: closeAll}, nil
}
