package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
)

var version = "1.0.0"

// app is the state shared by all subcommands, opened in PersistentPreRunE
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database
	tx  shared.Transactor

	closers []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:   "invoicerctl",
		Short: "Maintenance CLI for the invoicer backend",
		Long: `invoicerctl works directly on the invoicer database using the same
configuration as the API server (config.toml, INVOICER_* variables, .env).

It manages the schema, seeds demo data, lists subscriptions due for billing
and runs the billing maintenance jobs once, outside the server's scheduler.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), logLevel)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newDueCmd(a),
		newJobsCmd(a),
	)
	return root
}

func (a *app) open(_ context.Context, logLevel string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	db, err := persistence.NewDatabase(cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.db = db
	a.tx = persistence.NewGormTransactor(db.DB)
	a.closers = append(a.closers, db.Close, func() error {
		_ = log.Sync()
		return nil
	})
	return nil
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *app) settings() billingapp.Settings {
	return billingapp.Settings{
		InvoiceNumberPrefix:     a.cfg.Billing.InvoiceNumberPrefix,
		DefaultPaymentTermsDays: a.cfg.Billing.DefaultPaymentTermsDays,
		DueWindowDays:           a.cfg.Billing.DueWindowDays,
	}
}

// documents builds the PDF and mail pipeline. Only the reminder job needs it.
func (a *app) documents(ctx context.Context) (*billingapp.DocumentService, error) {
	renderer, err := printing.NewInvoiceRenderer(a.cfg.PDF, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, renderer.Close)

	composer, err := mail.NewComposer(a.cfg.Mail.FromName)
	if err != nil {
		return nil, err
	}
	sender, err := mail.NewSender(a.cfg.Mail, a.log)
	if err != nil {
		return nil, err
	}
	archive, err := storage.NewArchive(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return nil, err
	}

	db := a.db.DB
	return billingapp.NewDocumentService(a.tx,
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormClientRepository(db),
		persistence.NewGormCompanyRepository(db),
		persistence.NewGormPaymentMethodRepository(db),
		renderer, composer, sender, archive, nil, a.log), nil
}
