package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
)

func newDueCmd(a *app) *cobra.Command {
	var (
		email string
		days  int
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List active subscriptions billing within the next days",
		Example: `  invoicerctl due --email demo@invoicer.local
  invoicerctl due --email demo@invoicer.local --days 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db := a.db.DB

			user, err := persistence.NewGormUserRepository(db).FindByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("find account %s: %w", email, err)
			}

			subscriptions := billingapp.NewSubscriptionService(a.tx,
				persistence.NewGormSubscriptionRepository(db),
				persistence.NewGormInvoiceRepository(db),
				persistence.NewGormClientRepository(db),
				persistence.NewGormCompanyRepository(db),
				persistence.NewGormServiceItemRepository(db),
				a.settings(), nil, a.log)

			due, err := subscriptions.Due(ctx, user.ID, days)
			if err != nil {
				return err
			}
			return printDue(cmd.OutOrStdout(), due)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default: billing.due_window_days)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printDue(out io.Writer, due *billingapp.DueSubscriptionsResponse) error {
	fmt.Fprintf(out, "%d subscription(s) due between %s and %s\n",
		len(due.Subscriptions), due.From.Format(billingapp.DateLayout), due.To.Format(billingapp.DateLayout))
	if len(due.Subscriptions) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLIENT\tNEXT BILLING\tCYCLE\tPRICE")
	for _, s := range due.Subscriptions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\n",
			s.ID, s.ClientID, s.NextBillingDate.Format(billingapp.DateLayout),
			s.BillingCycle, s.Price.StringFixed(2), s.Currency)
	}
	return w.Flush()
}
