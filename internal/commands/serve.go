package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/runlog"
	"github.com/cleared-dev/billing/internal/server"
	"github.com/cleared-dev/billing/internal/sources"
	"github.com/cleared-dev/billing/internal/statement"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve statements over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			if addr == "" {
				addr = e.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			set, err := sources.Open(ctx, e.cfg, e.dir, e.logger)
			if err != nil {
				return err
			}
			defer set.Close()

			builder := statement.NewBuilder(set, set,
				statement.WithDefaultCurrency(e.cfg.Company.DefaultCurrency),
				statement.WithCustomers(set.Customers),
				statement.WithLogger(e.logger))

			srv := server.New(builder, server.Options{
				Company:         e.cfg.Company.Name,
				DefaultCurrency: e.cfg.Company.DefaultCurrency,
				AllowedOrigins:  e.cfg.Server.AllowedOrigins,
				Log:             runlog.New(e.dir),
				Logger:          e.logger,
			})
			e.logger.Info("starting billing service",
				zap.String("source", set.Kind),
				zap.String("company", e.cfg.Company.Name))
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from billing.yaml)")
	return cmd
}
