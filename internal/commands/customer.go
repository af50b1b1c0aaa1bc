package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/billing/internal/customers"
	"github.com/cleared-dev/billing/internal/model"
)

func newCustomerCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers",
	}
	cmd.AddCommand(newCustomerAddCommand(g), newCustomerListCommand(g))
	return cmd
}

func newCustomerAddCommand(g *globalFlags) *cobra.Command {
	var c model.Customer

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a customer",
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

			c.Name = args[0]
			added, err := set.AddCustomer(cmd.Context(), c)
			if err != nil {
				return err
			}
			e.commit(set, "customer: add "+added.Name, customers.FileName)
			fmt.Fprintf(cmd.OutOrStdout(), "Added customer %s\n", added.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Email, "email", "", "email address")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&c.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&c.Currency, "currency", "", "billing currency (defaults to the company currency)")

	return cmd
}

func newCustomerListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers",
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

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCURRENCY\tEMAIL\tPHONE")
			for _, c := range set.Customers.All() {
				cur := c.Currency
				if cur == "" {
					cur = e.cfg.Company.DefaultCurrency
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, cur, c.Email, c.Phone)
			}
			return tw.Flush()
		},
	}
}
