package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/render"
	"github.com/cleared-dev/billing/internal/runlog"
	"github.com/cleared-dev/billing/internal/sources"
	"github.com/cleared-dev/billing/internal/statement"
)

// Statement output formats.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatPDF   = "pdf"
)

type statementOptions struct {
	customer string
	from     string
	to       string
	currency string
	format   string
	out      string
}

func newStatementCommand(g *globalFlags) *cobra.Command {
	var opts statementOptions

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Generate a customer statement",
		Long: `Generate a customer statement: every invoice and payment in the period,
oldest first, with a running balance kept separately for each currency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case formatTable, formatCSV, formatJSON, formatPDF:
			default:
				return fmt.Errorf("unknown format %q (want table, csv, json or pdf)", opts.format)
			}
			period, err := statement.NewPeriod(opts.from, opts.to)
			if err != nil {
				return err
			}

			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			return runStatement(cmd, e, period, opts)
		},
	}

	cmd.Flags().StringVar(&opts.customer, "customer", "", "customer name (required)")
	cmd.Flags().StringVar(&opts.from, "from", "", "first day YYYY-MM-DD (default: beginning)")
	cmd.Flags().StringVar(&opts.to, "to", "", "last day YYYY-MM-DD (default: present)")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "only this currency")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "table, csv, json or pdf")
	cmd.Flags().StringVar(&opts.out, "out", "", "write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("customer")

	cmd.AddCommand(newStatementLogCommand(g))
	return cmd
}

func newStatementLogCommand(g *globalFlags) *cobra.Command {
	var customer string
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent statement runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(g)
			if err != nil {
				return err
			}
			defer e.close()

			entries, err := runlog.New(e.dir).Read()
			if err != nil {
				return err
			}
			if customer != "" {
				entries = slices.DeleteFunc(entries, func(en runlog.Entry) bool {
					return !billing.SameCustomer(en.Customer, customer)
				})
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tCUSTOMER\tPERIOD\tROWS\tOUTCOME\tDETAIL")
			for _, en := range entries {
				period := statement.Period{From: en.From, To: en.To}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					en.Timestamp.Local().Format("2006-01-02 15:04:05"), en.Customer, period,
					en.Rows, en.Outcome, en.Detail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "only runs for this customer")
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many runs, newest last (0 for all)")
	return cmd
}

func runStatement(cmd *cobra.Command, e *env, period statement.Period, opts statementOptions) error {
	ctx := cmd.Context()
	set, err := sources.Open(ctx, e.cfg, e.dir, e.logger)
	if err != nil {
		return err
	}
	defer set.Close()

	builder := statement.NewBuilder(set, set,
		statement.WithDefaultCurrency(e.cfg.Company.DefaultCurrency),
		statement.WithCustomers(set.Customers),
		statement.WithLogger(e.logger))

	st, err := builder.Generate(ctx, opts.customer, period)
	if lerr := runlog.New(e.dir).Append(runlog.NewEntry(time.Now(), opts.customer, period, st, err)); lerr != nil {
		e.logger.Warn("writing statement log", zap.Error(lerr))
	}
	if err != nil {
		return fmt.Errorf("generating statement: %w", err)
	}

	if opts.format == formatPDF {
		return writePDF(cmd, e, st, opts)
	}

	w := cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.out, err)
		}
		defer f.Close()
		w = f
	}

	currencies := st.Currencies()
	if opts.currency != "" {
		currencies = []string{strings.ToUpper(strings.TrimSpace(opts.currency))}
	} else if len(currencies) == 0 {
		currencies = []string{e.cfg.Company.DefaultCurrency}
	}

	switch opts.format {
	case formatCSV:
		rows := st.Rows
		if opts.currency != "" {
			rows = st.RowsFor(currencies[0])
		}
		return render.WriteCSV(w, rows)

	case formatJSON:
		out := *st
		if opts.currency != "" {
			out.Rows = st.RowsFor(currencies[0])
			out.Summaries = []model.Summary{st.Summary(currencies[0])}
		} else if len(out.Summaries) == 0 {
			out.Summaries = []model.Summary{statement.Summarize(nil, currencies[0])}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	return writeTables(w, st, currencies)
}

func writeTables(w io.Writer, st *statement.Statement, currencies []string) error {
	for i, c := range currencies {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Statement for %s, %s (%s)\n\n", st.Customer, st.Period, c)
		if err := render.Table(w, st.RowsFor(c), st.Summary(c)); err != nil {
			return err
		}
	}
	return nil
}

func writePDF(cmd *cobra.Command, e *env, st *statement.Statement, opts statementOptions) error {
	doc, err := render.NewDocument(e.cfg.Company.Name, st, opts.currency, e.cfg.Company.DefaultCurrency)
	if err != nil {
		return err
	}

	path := opts.out
	if path == "" {
		path = filepath.Join(e.dir, "exports", render.FileName(st.Customer, doc.Currency, st.GeneratedAt))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := render.PDF(f, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
