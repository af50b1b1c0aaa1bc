package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/model"
)

func newPaymentCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Record, list and remove payments",
	}
	cmd.AddCommand(newPaymentAddCommand(g), newPaymentListCommand(g), newPaymentDeleteCommand(g))
	return cmd
}

func newPaymentAddCommand(g *globalFlags) *cobra.Command {
	var p billing.AddPaymentParams
	var date, amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payment received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = time.Now().UTC().Truncate(24 * time.Hour)
			}
			p.Date = d
			if p.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("--amount %q: %w", amount, err)
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

			ref, err := set.Book.AddPayment(cmd.Context(), p)
			if err != nil {
				return err
			}
			e.logger.Info("payment recorded", zap.String("reference", ref), zap.String("customer", p.Customer))
			e.commit(set, "payment: "+ref, billing.PaymentsFile)
			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Customer, "customer", "", "customer name (required)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount received (required)")
	cmd.Flags().StringVar(&p.Currency, "currency", "", "currency (defaults to the invoice's, then the customer's)")
	cmd.Flags().StringVar(&p.Reference, "reference", "", "payment reference (allocated when empty)")
	cmd.Flags().StringVar(&p.Method, "method", "", "payment method, e.g. eft or card")
	cmd.Flags().StringVar(&p.Invoice, "invoice", "", "invoice number this payment settles")
	cmd.Flags().StringVar(&p.Notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newPaymentListCommand(g *globalFlags) *cobra.Command {
	var customer string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
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

			var payments []model.Payment
			if customer != "" {
				payments, err = set.PaymentsForCustomer(cmd.Context(), customer)
			} else {
				payments, err = set.Book.Payments(cmd.Context())
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "REFERENCE\tCUSTOMER\tDATE\tAMOUNT\tCURRENCY\tINVOICE")
			for _, p := range payments {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					p.Reference, p.Customer, p.Date.Format(model.DateFormat),
					p.Amount.StringFixed(2), p.Currency, p.Invoice)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "only this customer's payments")
	return cmd
}

func newPaymentDeleteCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reference>",
		Short: "Remove a payment recorded in error",
		Args:  cobra.ExactArgs(1),
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

			ref := args[0]
			if err := set.Book.DeletePayment(cmd.Context(), ref); err != nil {
				return err
			}
			e.logger.Info("payment deleted", zap.String("reference", ref))
			e.commit(set, "payment: delete "+ref, billing.PaymentsFile)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted payment %s\n", ref)
			return nil
		},
	}
}
