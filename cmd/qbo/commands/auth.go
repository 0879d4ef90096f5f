package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the QuickBooks OAuth2 connection",
		Long:  "Start the authorization flow, exchange codes, refresh and revoke tokens",
	}

	cmd.AddCommand(newAuthURLCommand())
	cmd.AddCommand(newAuthExchangeCommand())
	cmd.AddCommand(newAuthRefreshCommand())
	cmd.AddCommand(newAuthRevokeCommand())
	cmd.AddCommand(newAuthShowCommand())

	return cmd
}

func newAuthURLCommand() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		Long:  "Print the URL a user opens to grant this app access to a QuickBooks company",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if state == "" {
				state = qbo.NewRequestID()
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.conn.AuthorizationURL(state))

			return err
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "CSRF state value (generated when empty)")

	return cmd
}

func newAuthExchangeCommand() *cobra.Command {
	var code, realmID string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for tokens",
		Long:  "Exchange the code from the OAuth2 redirect for tokens and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if realmID == "" {
				return constants.ErrMissingRealmID
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			payload, err := s.conn.ExchangeAuthorizationCode(cmd.Context(), code, realmID)
			if err != nil {
				return fmt.Errorf("failed to exchange authorization code: %w", err)
			}

			return renderTokenPayload(cmd, payload)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the redirect")
	cmd.Flags().StringVar(&realmID, "realm", "", "realm (company) id from the redirect")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newAuthRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			payload, err := s.conn.RefreshAccessToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to refresh access token: %w", err)
			}

			return renderTokenPayload(cmd, payload)
		},
	}
}

func newAuthRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "revoke",
		Aliases: []string{"disconnect"},
		Short:   "Revoke the stored refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			body, err := s.conn.Disconnect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to revoke token: %w", err)
			}

			if body != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), body)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Token revoked")

			return err
		},
	}
}

func newAuthShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored credentials (tokens masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			creds, err := s.store.Get(cmd.Context())
			if err != nil {
				return err
			}

			if creds == nil {
				return constants.ErrNotConnected
			}

			return renderCredentials(cmd, *creds, s.store.Path())
		},
	}
}

func renderTokenPayload(cmd *cobra.Command, payload *qbo.TokenPayload) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	masked := *payload
	masked.AccessToken = maskToken(payload.AccessToken)
	masked.RefreshToken = maskToken(payload.RefreshToken)

	if format != constants.FormatTable {
		return writeValue(cmd.OutOrStdout(), format, masked)
	}

	return renderTable(cmd.OutOrStdout(), []string{"Property", "Value"}, [][]string{
		{"Realm ID", masked.RealmID},
		{"Access Token", masked.AccessToken},
		{"Refresh Token", masked.RefreshToken},
		{"Expires In", strconv.FormatInt(masked.ExpiresIn, 10)},
		{"Refresh Token Expires In", strconv.FormatInt(masked.XRefreshTokenExpiresIn, 10)},
	})
}

func renderCredentials(cmd *cobra.Command, creds qbo.Credentials, path string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	masked := qbo.Credentials{
		AccessToken:  maskToken(creds.AccessToken),
		RefreshToken: maskToken(creds.RefreshToken),
		RealmID:      creds.RealmID,
	}

	if format != constants.FormatTable {
		return writeValue(cmd.OutOrStdout(), format, masked)
	}

	return renderTable(cmd.OutOrStdout(), []string{"Property", "Value"}, [][]string{
		{"File", path},
		{"Realm ID", masked.RealmID},
		{"Access Token", masked.AccessToken},
		{"Refresh Token", masked.RefreshToken},
	})
}
