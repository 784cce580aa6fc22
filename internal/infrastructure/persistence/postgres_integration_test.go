//go:build integration

package persistence

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/migration"
)

// newPostgresDB starts a postgres container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(nil, "", 0))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.NotZero(t, version)
	return db
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	u, err := identity.NewUser(uuid.NewString()[:8]+"@example.com", "Owner", "secret123")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u.ID
}

func TestPostgres_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	db := newPostgresDB(t)
	owner := seedUser(t, db)
	client := seedClient(t, db, owner, "acme")
	company := seedCompany(t, db, owner, "Studio", true)
	inv := seedInvoice(t, db, owner, client, company, "PG-1", "100.00", time.Now().AddDate(0, 0, 30))

	tx := NewGormTransactor(db)
	invoices := NewGormInvoiceRepository(db)
	payments := NewGormPaymentRepository(db)

	pay := func(amount decimal.Decimal) error {
		return tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
			locked, err := invoices.FindByIDForUpdate(ctx, owner, inv.ID)
			if err != nil {
				return err
			}
			p, err := billing.NewPayment(locked, billing.NewPaymentInput{Amount: amount})
			if err != nil {
				return err
			}
			if err := locked.ApplyPayment(amount, time.Now()); err != nil {
				return err
			}
			if err := payments.Save(ctx, p); err != nil {
				return err
			}
			return invoices.Save(ctx, locked)
		})
	}

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = pay(decimal.NewFromInt(60))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, billing.ErrOverpayment)
	}
	assert.Equal(t, 1, succeeded)

	sum, err := payments.SumByInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(sum), "got %s", sum)

	require.NoError(t, pay(decimal.NewFromInt(40)))
	final, err := invoices.FindByID(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, final.Status)
	assert.NotNil(t, final.PaidDate)
}

func TestPostgres_SequenceIsGaplessUnderContention(t *testing.T) {
	db := newPostgresDB(t)
	tx := NewGormTransactor(db)
	invoices := NewGormInvoiceRepository(db)

	const workers = 10
	got := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
				n, err := invoices.NextSequence(ctx, "202507")
				got[i] = n
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, n := range got {
		assert.Equal(t, int64(i+1), n)
	}
}

func TestPostgres_ConstraintsTranslate(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	owner := seedUser(t, db)
	client := seedClient(t, db, owner, "acme")
	company := seedCompany(t, db, owner, "Studio", true)
	seedInvoice(t, db, owner, client, company, "PG-DUP", "10", time.Now())

	dup, err := billing.NewInvoice(owner, billing.NewInvoiceInput{
		InvoiceNumber: "PG-DUP", ClientID: client.ID, CompanyID: company.ID, Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, NewGormInvoiceRepository(db).Save(ctx, dup), shared.ErrAlreadyExists)

	err = NewGormClientRepository(db).Delete(ctx, owner, client.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}
