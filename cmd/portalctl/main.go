package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/client/api"
	"github.com/spec-kit/project-portal/internal/client/session"
	"github.com/spec-kit/project-portal/internal/client/storage"
	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cli carries what every command needs once flags are parsed.
type cli struct {
	server      string
	sessionFile string
	logLevel    string

	cfg    *config.Config
	logger *zap.Logger
	clock  domain.Clock
}

func newRootCmd() *cobra.Command {
	c := &cli{clock: domain.RealClock{}}

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Sign in to the project portal and open its pages",
		Long: `portalctl keeps a local session for the project portal.

It signs in, refreshes and clears the token pair stored in the session
file, and opens portal pages through the same guard the web client uses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.server, "server", "", "portal base URL (default CLIENT_BASE_URL)")
	root.PersistentFlags().StringVar(&c.sessionFile, "session-file", "", "session file (default CLIENT_SESSION_FILE)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (default LOG_LEVEL)")

	root.AddCommand(
		loginCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		refreshCmd(c),
		openCmd(c),
		routesCmd(c),
		tokenCmd(c),
		credentialCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.server != "" {
		cfg.Client.BaseURL = c.server
	}
	if c.sessionFile != "" {
		cfg.Client.SessionFile = c.sessionFile
	}
	if c.logLevel != "" {
		cfg.Logger.Level = c.logLevel
	}
	cfg.Logger.Format = "console"

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger.Named("portalctl")
	return nil
}

func (c *cli) client() *api.Client {
	return api.New(api.Config{BaseURL: c.cfg.Client.BaseURL, Timeout: c.cfg.Client.Timeout})
}

func (c *cli) store() (*session.Store, error) {
	file, err := storage.OpenFile(c.cfg.Client.SessionFile)
	if err != nil {
		return nil, err
	}
	return session.NewStore(file, c.clock), nil
}
