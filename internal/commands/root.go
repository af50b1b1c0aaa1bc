package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/billing/internal/buildinfo"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	repo      string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "billing",
		Short:   "Customers, invoices, payments and statements for a small business",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.repo, "repo", ".", "billing data directory")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (console or json)")

	rootCmd.AddCommand(
		newInitCommand(),
		newCustomerCommand(g),
		newInvoiceCommand(g),
		newPaymentCommand(g),
		newStatementCommand(g),
		newServeCommand(g),
	)

	return rootCmd
}
