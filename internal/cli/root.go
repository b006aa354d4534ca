// Package cli defines the cmsd command tree.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inkframe/cms-api/internal/app"
	"github.com/inkframe/cms-api/internal/pkg/config"
	"github.com/inkframe/cms-api/pkg/logger"
)

const serviceName = "cms-api"

func NewRootCmd(version, buildDate string) *cobra.Command {
	root := &cobra.Command{
		Use:           "cmsd",
		Short:         "Content management API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newVersionCmd(version, buildDate))
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			return app.Serve(ctx, cfg, log)
		},
	}
}

func newSeedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin, editor and client accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			created, err := app.SeedUsers(cmd.Context(), cfg, password, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d user(s)\n", created)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for the seeded accounts (default Demo@123)")
	return cmd
}

func newVersionCmd(version, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cmsd %s (%s)\n", version, buildDate)
		},
	}
}

func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	return cfg, log, nil
}
