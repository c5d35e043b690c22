package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/auth"
)

func (a *app) tokenCmd() *cobra.Command {
	var (
		clientID string
		secret   string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the pricing API",
		Long: `Token signs a JWT for one API client with PRICER_JWT_SECRET (or --secret).
The server must be started with the same secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = a.cfg.Auth.JWTSecret
			}
			if ttl == 0 {
				ttl = a.cfg.Auth.TokenTTL
			}
			token, err := auth.GenerateToken(clientID, secret, ttl)
			if err != nil {
				return err
			}
			a.logger.Info("issued token", "client_id", clientID, "expires_in", ttl.String())
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "", "Client ID recorded in the token and on stored quotes.")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret. Defaults to PRICER_JWT_SECRET.")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime. Defaults to PRICER_TOKEN_TTL_HOURS or 24h.")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}
