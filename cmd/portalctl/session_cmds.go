package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/client/session"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

// errSignedOut is returned by commands that need a stored session.
var errSignedOut = errors.New("not signed in, run portalctl login")

func loginCmd(c *cli) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			resp, err := c.client().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			store, err := c.store()
			if err != nil {
				return err
			}
			if err := store.Store(resp.Tokens); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", resp.User.Username, resp.User.RoleLabel)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}

			// The server keeps no session, so a failed notification still
			// signs the client out.
			if access, ok := store.AccessToken(); ok {
				if err := c.client().Logout(cmd.Context(), access); err != nil {
					c.logger.Warn("logout notification failed", zap.Error(err))
				}
			}
			if err := store.Clear(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(c *cli) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if remote {
				access, ok := store.AccessToken()
				if !ok {
					return errSignedOut
				}
				me, err := c.client().Me(cmd.Context(), access)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%s)\nexpires %s, %ds left\n",
					me.User.Username, me.User.RoleLabel, me.ExpiresAt, me.RemainingSeconds)
				return nil
			}

			user, ok := store.CurrentUser()
			if !ok {
				return errSignedOut
			}
			fmt.Fprintf(out, "%s (%s)\nexpires %s\n",
				user.PrincipalName, policy.RoleLabel(user.Role), user.ExpiresAt.Format(time.RFC3339))
			if store.NeedsRefresh() {
				fmt.Fprintln(out, "access token expires soon, run portalctl refresh")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of decoding locally")

	return cmd
}

func refreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			if err := c.refresh(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

// refresh renews the stored pair. A refresh token the server rejects ends
// the session.
func (c *cli) refresh(ctx context.Context, store *session.Store) error {
	refreshToken, ok := store.RefreshToken()
	if !ok {
		return errSignedOut
	}

	resp, err := c.client().Refresh(ctx, refreshToken)
	if err != nil {
		if domain.IsTokenError(err) {
			if clearErr := store.Clear(); clearErr != nil {
				c.logger.Warn("clear session", zap.Error(clearErr))
			}
			return fmt.Errorf("session ended, sign in again: %w", err)
		}
		return err
	}
	return store.Store(resp.Tokens)
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", fmt.Errorf("%w: password required", domain.ErrInvalidInput)
	}
	return secret, nil
}
