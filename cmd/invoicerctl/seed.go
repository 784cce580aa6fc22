package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	catalogapp "github.com/invoicer/backend/internal/application/catalog"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
)

type seedOptions struct {
	email         string
	password      string
	name          string
	currency      string
	clients       int
	services      int
	subscriptions int
	generate      bool
	seed          uint64
}

func newSeedCmd(a *app) *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account with clients, services and subscriptions",
		Long: `Create demo data for one account. The account is registered when the
email is unknown; otherwise records are added to the existing account.

Generated values come from a seeded faker, so the same --seed produces the
same names and amounts.`,
		Example: `  invoicerctl seed
  invoicerctl seed --email demo@example.com --clients 20 --subscriptions 30 --generate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.clients < 1 || opts.services < 1 {
				return errors.New("--clients and --services must be at least 1")
			}
			return runSeed(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.email, "email", "demo@invoicer.local", "Account email")
	f.StringVar(&opts.password, "password", "demo-password", "Password used when the account is created")
	f.StringVar(&opts.name, "name", "Demo User", "Display name used when the account is created")
	f.StringVar(&opts.currency, "currency", "EUR", "Currency of the company and its services")
	f.IntVar(&opts.clients, "clients", 5, "Number of clients")
	f.IntVar(&opts.services, "services", 3, "Number of recurring services")
	f.IntVar(&opts.subscriptions, "subscriptions", 5, "Number of subscriptions")
	f.BoolVar(&opts.generate, "generate", false, "Generate the first invoice of every subscription")
	f.Uint64Var(&opts.seed, "seed", 1, "Faker seed")
	return cmd
}

func runSeed(cmd *cobra.Command, a *app, opts seedOptions) error {
	ctx := cmd.Context()
	db := a.db.DB
	settings := a.settings()

	userRepo := persistence.NewGormUserRepository(db)
	clientRepo := persistence.NewGormClientRepository(db)
	companyRepo := persistence.NewGormCompanyRepository(db)
	serviceRepo := persistence.NewGormServiceItemRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)

	authService := identityapp.NewAuthService(userRepo, auth.NewJWTService(a.cfg.JWT),
		auth.NewInMemoryTokenBlacklist(), identityapp.DefaultAuthServiceConfig(), a.log)
	companies := partnerapp.NewCompanyService(a.tx, companyRepo,
		persistence.NewGormPaymentMethodRepository(db), settings.DefaultPaymentTermsDays, a.log)
	clients := partnerapp.NewClientService(a.tx, clientRepo, a.log)
	items := catalogapp.NewServiceItemService(serviceRepo, a.log)
	subscriptions := billingapp.NewSubscriptionService(a.tx, persistence.NewGormSubscriptionRepository(db),
		invoiceRepo, clientRepo, companyRepo, serviceRepo, settings, nil, a.log)

	ownerID, err := ensureAccount(ctx, a, authService, opts)
	if err != nil {
		return err
	}

	fx := newFixtures(opts.seed, opts.currency)

	company, err := companies.Create(ctx, ownerID, fx.company())
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}

	serviceIDs := make([]uuid.UUID, 0, opts.services)
	for range opts.services {
		item, err := items.Create(ctx, ownerID, fx.service())
		if err != nil {
			return fmt.Errorf("create service: %w", err)
		}
		serviceIDs = append(serviceIDs, item.ID)
	}

	clientIDs := make([]uuid.UUID, 0, opts.clients)
	for range opts.clients {
		client, err := clients.Create(ctx, ownerID, fx.client())
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		clientIDs = append(clientIDs, client.ID)
	}

	now := time.Now().UTC()
	generated := 0
	for i := range opts.subscriptions {
		req := fx.subscription(clientIDs[i%len(clientIDs)], serviceIDs[i%len(serviceIDs)], company.ID, now)
		sub, err := subscriptions.Create(ctx, ownerID, req)
		if err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		if !opts.generate {
			continue
		}
		if _, err := subscriptions.GenerateInvoice(ctx, ownerID, sub.ID, billingapp.GenerateInvoiceRequest{}); err != nil {
			return fmt.Errorf("generate invoice for subscription %s: %w", sub.ID, err)
		}
		generated++
	}

	a.log.Info("Seed completed",
		zap.String("owner_id", ownerID.String()),
		zap.String("company_id", company.ID.String()),
		zap.Int("services", len(serviceIDs)),
		zap.Int("clients", len(clientIDs)),
		zap.Int("subscriptions", opts.subscriptions),
		zap.Int("invoices", generated),
	)
	fmt.Fprintf(cmd.OutOrStdout(),
		"account %s: 1 company, %d services, %d clients, %d subscriptions, %d invoices\n",
		opts.email, len(serviceIDs), len(clientIDs), opts.subscriptions, generated)
	return nil
}

// ensureAccount returns the id of the account with opts.email, registering it first when unknown
func ensureAccount(ctx context.Context, a *app, authService *identityapp.AuthService, opts seedOptions) (uuid.UUID, error) {
	user, err := persistence.NewGormUserRepository(a.db.DB).FindByEmail(ctx, opts.email)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	resp, err := authService.Register(ctx, identityapp.RegisterRequest{
		Email:    opts.email,
		Name:     opts.name,
		Password: opts.password,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("register %s: %w", opts.email, err)
	}
	a.log.Info("Account registered", zap.String("email", resp.User.Email))
	return resp.User.ID, nil
}
