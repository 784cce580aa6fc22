package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

func TestNumberer_SkipsTakenGeneratedNumbers(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 14)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(company, nil)
	f.invoices.On("NextSequence", mock.Anything, "202507").Return(int64(1), nil).Once()
	f.invoices.On("NextSequence", mock.Anything, "202507").Return(int64(2), nil).Once()
	f.invoices.On("ExistsByNumber", mock.Anything, "INV-202507-00001").Return(true, nil)
	f.invoices.On("ExistsByNumber", mock.Anything, "INV-202507-00002").Return(false, nil)
	f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	resp, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{ClientID: client.ID, Amount: decimal.NewFromInt(10)})

	require.NoError(t, err)
	assert.Equal(t, "INV-202507-00002", resp.InvoiceNumber)
	f.invoices.AssertNumberOfCalls(t, "NextSequence", 2)
}

func TestNumberer_GivesUpAfterBoundedDraws(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 14)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(company, nil)
	f.invoices.On("NextSequence", mock.Anything, "202507").Return(int64(7), nil)
	f.invoices.On("ExistsByNumber", mock.Anything, "INV-202507-00007").Return(true, nil)

	_, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{ClientID: client.ID, Amount: decimal.NewFromInt(10)})

	require.Error(t, err)
	f.invoices.AssertNumberOfCalls(t, "NextSequence", maxNumberDraws)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// sqliteInvoiceService runs InvoiceService on a migrated in-memory database
func sqliteInvoiceService(t *testing.T) (*InvoiceService, *gorm.DB) {
	t.Helper()

	database, err := persistence.NewDatabase(config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"}, nil, "")
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })

	db := database.DB
	svc := NewInvoiceService(persistence.NewGormTransactor(db),
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormPaymentRepository(db),
		persistence.NewGormOrderRepository(db),
		persistence.NewGormClientRepository(db),
		persistence.NewGormCompanyRepository(db),
		Settings{}, newCountingRecorder(), zap.NewNop())
	svc.now = fixedClock
	return svc, db
}

func seedBillingParty(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *partner.Client {
	t.Helper()
	ctx := context.Background()
	client := newClient(t, ownerID, "billing@"+ownerID.String()[:8]+".test")
	require.NoError(t, persistence.NewGormClientRepository(db).Save(ctx, client))
	require.NoError(t, persistence.NewGormCompanyRepository(db).Save(ctx, newCompany(t, ownerID, 30)))
	return client
}

func TestInvoiceService_ManualAndGeneratedNumbersShareAPeriod(t *testing.T) {
	ctx := context.Background()
	svc, db := sqliteInvoiceService(t)

	alice, bob := uuid.New(), uuid.New()
	aliceClient := seedBillingParty(t, db, alice)
	bobClient := seedBillingParty(t, db, bob)

	create := func(owner uuid.UUID, client *partner.Client, number string) (*InvoiceResponse, error) {
		return svc.Create(ctx, owner, CreateInvoiceRequest{
			InvoiceNumber: number,
			ClientID:      client.ID,
			Amount:        decimal.NewFromInt(100),
		})
	}

	// manual numbers in the generated format, ahead of the counter
	for _, number := range []string{"INV-202507-00001", "INV-202507-00002"} {
		_, err := create(alice, aliceClient, number)
		require.NoError(t, err)
	}

	got := map[string]bool{}
	for i := range 4 {
		owner, client := alice, aliceClient
		if i%2 == 1 {
			owner, client = bob, bobClient
		}
		inv, err := create(owner, client, "")
		require.NoError(t, err, "generated create %d", i)
		assert.False(t, got[inv.InvoiceNumber], "number %s issued twice", inv.InvoiceNumber)
		got[inv.InvoiceNumber] = true
	}

	assert.Equal(t, map[string]bool{
		"INV-202507-00003": true,
		"INV-202507-00004": true,
		"INV-202507-00005": true,
		"INV-202507-00006": true,
	}, got)

	_, err := create(bob, bobClient, "INV-202507-00004")
	assert.ErrorContains(t, err, "Invoice number already exists")
}
