package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/scheduler"
)

var jobNames = []string{scheduler.JobOverdueSweep, scheduler.JobReminders, scheduler.JobAdvanceExpiry}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run billing maintenance jobs once",
	}

	run := &cobra.Command{
		Use:       "run [job...]",
		Short:     "Run the named jobs, or all of them",
		ValidArgs: jobNames,
		Args:      cobra.OnlyValidArgs,
		Example: `  invoicerctl jobs run
  invoicerctl jobs run overdue-sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = jobNames
			}

			// the reminder job is the only one that renders and mails
			var documents *billingapp.DocumentService
			if slices.Contains(names, scheduler.JobReminders) {
				var err error
				if documents, err = a.documents(cmd.Context()); err != nil {
					return err
				}
			}

			db := a.db.DB
			jobs := billingapp.NewJobs(a.tx,
				persistence.NewGormInvoiceRepository(db),
				persistence.NewGormSubscriptionRepository(db),
				documents, nil, a.log)
			s, err := scheduler.NewBillingScheduler(a.cfg.Scheduler, jobs, a.log)
			if err != nil {
				return err
			}

			var failed int
			for _, name := range names {
				st, err := s.RunNow(cmd.Context(), name)
				printJobState(cmd.OutOrStdout(), st)
				if err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d job(s) failed", failed, len(names))
			}
			return nil
		},
	}

	list := offline(&cobra.Command{
		Use:   "list",
		Short: "List the available jobs",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range jobNames {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	cmd.AddCommand(run, list)
	return cmd
}

func printJobState(out io.Writer, st scheduler.JobState) {
	if st.Error != "" {
		fmt.Fprintf(out, "%-20s %-8s processed=%d error=%s\n", st.Name, st.Status, st.Processed, st.Error)
		return
	}
	fmt.Fprintf(out, "%-20s %-8s processed=%d\n", st.Name, st.Status, st.Processed)
}
