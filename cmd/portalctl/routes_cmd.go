package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/project-portal/internal/api/dto"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/policy"
)

func routesCmd(c *cli) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "routes [role]",
		Short: "List the pages a role can open",
		Long: `List the pages a role can open.

With a role argument the table is read locally. Without one the signed-in
role is used, or the server is asked with --remote.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				role, err := domain.ParseRole(args[0])
				if err != nil {
					return err
				}
				printRoutes(out, role, dto.NewRouteItems(policy.AllowedRoutes(role)))
				return nil
			}

			store, err := c.store()
			if err != nil {
				return err
			}

			if remote {
				access, ok := store.AccessToken()
				if !ok {
					return errSignedOut
				}
				resp, err := c.client().Routes(cmd.Context(), access)
				if err != nil {
					return err
				}
				printRoutes(out, resp.Role, resp.Routes)
				return nil
			}

			user, ok := store.CurrentUser()
			if !ok {
				return errSignedOut
			}
			printRoutes(out, user.Role, dto.NewRouteItems(policy.AllowedRoutes(user.Role)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server for the signed-in role")

	return cmd
}

func printRoutes(out io.Writer, role domain.Role, routes []dto.RouteItem) {
	fmt.Fprintf(out, "%s\n", policy.RoleLabel(role))
	for _, r := range routes {
		fmt.Fprintf(out, "  %-16s %s\n", r.Path, r.Label)
	}
}
