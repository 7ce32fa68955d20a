package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/admin-dashboard/pkg/auth"
)

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		name    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff bearer token for the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.cfg.Auth.Enabled() {
				return errors.New("auth.secret is not configured")
			}
			if ttl <= 0 {
				ttl = c.cfg.Auth.TokenTTL
			}

			token, err := auth.NewJWTService(c.cfg.Auth.Secret, c.cfg.Auth.Issuer).
				GenerateAccessToken(subject, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "staff identifier")
	cmd.Flags().StringVar(&name, "name", "", "staff display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
