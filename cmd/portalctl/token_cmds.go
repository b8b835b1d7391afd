package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/token"
)

func tokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token utilities",
	}
	cmd.AddCommand(tokenInspectCmd(c))
	return cmd
}

func tokenInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Decode a token without verifying it",
		Long: `Decode a token without verifying it. Defaults to the stored access
token. The signature is not checked; only the server can do that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			} else {
				store, err := c.store()
				if err != nil {
					return err
				}
				access, ok := store.AccessToken()
				if !ok {
					return errSignedOut
				}
				raw = access
			}

			claim, err := token.Decode(raw)
			if err != nil {
				return fmt.Errorf("decode token: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(claim); err != nil {
				return err
			}

			now := c.clock.Now()
			switch {
			case !now.Before(claim.ExpiresAt):
				fmt.Fprintln(cmd.OutOrStdout(), "expired")
			case token.ExpiringSoonAt(raw, now):
				fmt.Fprintf(cmd.OutOrStdout(), "expiring soon, %s left\n", claim.Remaining(now).Round(time.Second))
			}
			return nil
		},
	}
}

func credentialCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Credential utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash",
		Short: "Read a password from stdin and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password, c.cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}
