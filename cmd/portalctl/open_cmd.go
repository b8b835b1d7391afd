package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/client/guard"
	"github.com/spec-kit/project-portal/internal/client/views"
	"github.com/spec-kit/project-portal/internal/domain"
)

func openCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <route>",
		Short: "Open a portal page through the route guard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, ok := views.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: unknown page %q", domain.ErrNotFound, args[0])
			}
			out := cmd.OutOrStdout()

			navigate := guard.NavigatorFunc(func(target string) {
				fmt.Fprintf(out, "redirect %s\n", target)
			})
			g := guard.New(c.loadSession, navigate, guard.WithLogger(c.logger))

			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.Client.Timeout)
			defer cancel()

			mount := g.Mount(ctx, view)
			defer mount.Unmount()

			state, err := mount.Wait(ctx)
			if err != nil {
				return fmt.Errorf("open %s: %w", view.Route, err)
			}
			c.logger.Debug("page settled", zap.String("route", string(view.Route)), zap.Stringer("state", state))

			if content := mount.Render(); content != "" {
				fmt.Fprintln(out, content)
			}
			return nil
		},
	}
}

// loadSession opens the session file, refreshing first when the access token
// is missing or about to expire. A failed refresh leaves whatever is stored.
func (c *cli) loadSession(ctx context.Context) (guard.SessionReader, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	if store.NeedsRefresh() {
		if err := c.refresh(ctx, store); err != nil {
			c.logger.Debug("refresh before open failed", zap.Error(err))
		}
	}
	return store, nil
}
