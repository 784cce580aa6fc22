package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
)

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := NewDatabase(config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"}, nil, "")
	require.NoError(t, err)
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// newMockPostgres wraps a sqlmock connection in the postgres dialector
func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedClient(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string) *partner.Client {
	t.Helper()
	c, err := partner.NewClient(ownerID, partner.ClientInput{Name: name, Email: "billing@" + name + ".example.com"})
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), c))
	return c
}

func seedCompany(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, isDefault bool) *partner.Company {
	t.Helper()
	c, err := partner.NewCompany(ownerID, partner.CompanyInput{Name: name, PaymentTermsDays: 30, IsDefault: isDefault})
	require.NoError(t, err)
	require.NoError(t, NewGormCompanyRepository(db).Save(context.Background(), c))
	return c
}

func seedInvoice(t *testing.T, db *gorm.DB, ownerID uuid.UUID, client *partner.Client, company *partner.Company, number string, amount string, due time.Time) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(ownerID, billing.NewInvoiceInput{
		InvoiceNumber: number,
		ClientID:      client.ID,
		CompanyID:     company.ID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "EUR",
		IssueDate:     due.AddDate(0, 0, -30),
		DueDate:       due,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Save(context.Background(), inv))
	return inv
}

func seedClientCtx(t *testing.T, ctx context.Context, repo *GormClientRepository, ownerID uuid.UUID, name string) *partner.Client {
	t.Helper()
	c, err := partner.NewClient(ownerID, partner.ClientInput{Name: name})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))
	return c
}
