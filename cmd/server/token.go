package main

import (
	"errors"
	"os"
	"time"

	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		email  string
		ttl    time.Duration
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a reviewer token for the review API and dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("SUPPORTDESK_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("set SUPPORTDESK_JWT_SECRET or pass --secret")
			}

			token, err := auth.NewAuthenticator(secret, nil).GenerateToken(email, ttl)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "reviewer email to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default: $SUPPORTDESK_JWT_SECRET)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
