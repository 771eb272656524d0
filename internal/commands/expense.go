package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the expenses table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.openBackend(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", res.Store.Dialect())
			return nil
		},
	}
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var category, description, date string

	cmd := &cobra.Command{
		Use:   "add AMOUNT",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}

			input := core.NewExpense{Amount: amount}
			if cmd.Flags().Changed("category") {
				input.Category = core.StringPtr(category)
			}
			if cmd.Flags().Changed("description") {
				input.Description = core.StringPtr(description)
			}
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return err
				}
				input.Date = &d
			}

			res, err := opts.openBackend(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			created, err := res.Service.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense added successfully (id %d, %s)\n", created.ID, created.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category label")
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-text description")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.openBackend(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			expenses, err := res.Service.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]apphttp.ExpenseResponse, 0, len(expenses))
				for _, e := range expenses {
					out = append(out, apphttp.NewExpenseResponse(e))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeExpenseTable(cmd.OutOrStdout(), expenses)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the same JSON as GET /api/expenses")
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an expense by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid expense id %q", args[0])
			}

			res, err := opts.openBackend(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			if err := res.Service.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Expense deleted successfully")
			return nil
		},
	}
}

func newSummaryCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total spending per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.openBackend(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer res.Cleanup()

			totals, err := res.Service.Summary(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), apphttp.NewSummaryResponse(totals))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL")
			for _, ct := range totals {
				name := "(none)"
				if ct.Category != nil {
					name = *ct.Category
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, core.FormatAmount(ct.Total))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the same JSON as GET /api/expenses/summary")
	return cmd
}

func writeExpenseTable(w io.Writer, expenses []core.Expense) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, core.FormatAmount(e.Amount), e.CategoryName(), e.DescriptionText())
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
