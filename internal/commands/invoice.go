package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
)

func newInvoiceCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Record, list and update invoices",
	}
	cmd.AddCommand(newInvoiceAddCommand(g), newInvoiceListCommand(g), newInvoiceStatusCommand(g))
	return cmd
}

func newInvoiceAddCommand(g *globalFlags) *cobra.Command {
	var customer, date, due, total, currency, status, notes string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			if issue.IsZero() {
				issue = time.Now().UTC().Truncate(24 * time.Hour)
			}
			dueDate, err := parseDateFlag("due", due)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(total)
			if err != nil {
				return fmt.Errorf("--total %q: %w", total, err)
			}

			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			set, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer set.Close()

			number, err := set.Book.AddInvoice(cmd.Context(), billing.AddInvoiceParams{
				Customer:  customer,
				IssueDate: issue,
				DueDate:   dueDate,
				Total:     amount,
				Currency:  currency,
				Status:    model.InvoiceStatus(status),
				Notes:     notes,
			})
			if err != nil {
				return err
			}
			e.logger.Info("invoice recorded", zap.String("number", number), zap.String("customer", customer))
			e.commit(set, "invoice: "+number, billing.InvoicesFile)
			fmt.Fprintln(cmd.OutOrStdout(), number)
			return nil
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "customer name (required)")
	cmd.Flags().StringVar(&date, "date", "", "issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&total, "total", "", "invoice total (required)")
	cmd.Flags().StringVar(&currency, "currency", "", "currency (defaults to the customer's)")
	cmd.Flags().StringVar(&status, "status", "", "draft, sent, paid or cancelled (default sent)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func newInvoiceListCommand(g *globalFlags) *cobra.Command {
	var customer string
	var newestFirst bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			set, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer set.Close()

			var invoices []model.Invoice
			if customer != "" {
				order := statement.Ascending
				if newestFirst {
					order = statement.Descending
				}
				invoices, err = set.InvoicesForCustomer(cmd.Context(), customer, order)
			} else {
				invoices, err = set.Book.Invoices(cmd.Context())
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tCUSTOMER\tDATE\tTOTAL\tCURRENCY\tSTATUS")
			for _, inv := range invoices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					inv.Number, inv.Customer, inv.IssueDate.Format(model.DateFormat),
					inv.Total.StringFixed(2), inv.Currency, inv.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "only this customer's invoices, by issue date")
	cmd.Flags().BoolVar(&newestFirst, "newest-first", false, "with --customer, list the latest invoice first")
	return cmd
}

func newInvoiceStatusCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <number> <draft|sent|paid|cancelled>",
		Short: "Change an invoice's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			set, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer set.Close()

			number, status := args[0], model.InvoiceStatus(strings.ToLower(args[1]))
			if err := set.Book.SetInvoiceStatus(cmd.Context(), number, status); err != nil {
				return err
			}
			e.logger.Info("invoice status changed", zap.String("number", number), zap.String("status", string(status)))
			e.commit(set, "invoice: "+number+" "+string(status), billing.InvoicesFile)
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", number, status)
			return nil
		},
	}
}
