package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/tagdeck/internal/session"
)

func newTokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for local development",
		Long: `Sign a session token with the configured JWT secret. In production
tokens come from the auth provider; this command exists to call the API and
the MCP endpoint against a local server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Session.JWTSecret == "" {
				return fmt.Errorf("session.jwt_secret is required to sign tokens")
			}
			verifier := session.NewVerifier(cfg.Session.JWTSecret, cfg.Session.Issuer, cfg.Session.Audience)
			token, err := verifier.Issue(args[0], email, ttl)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}
