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

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
)

type invoiceFixture struct {
	svc       *InvoiceService
	invoices  *MockInvoiceRepository
	payments  *MockPaymentRepository
	orders    *MockOrderRepository
	clients   *MockClientRepository
	companies *MockCompanyRepository
	recorder  *countingRecorder
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoices:  new(MockInvoiceRepository),
		payments:  new(MockPaymentRepository),
		orders:    new(MockOrderRepository),
		clients:   new(MockClientRepository),
		companies: new(MockCompanyRepository),
		recorder:  newCountingRecorder(),
	}
	f.svc = NewInvoiceService(passthroughTx{}, f.invoices, f.payments, f.orders, f.clients, f.companies,
		Settings{}, f.recorder, zap.NewNop())
	f.svc.now = fixedClock
	return f
}

func TestInvoiceService_Create_GeneratesNumberAndDueDate(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 14)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(company, nil)
	f.invoices.On("NextSequence", mock.Anything, "202507").Return(int64(42), nil)
	f.invoices.On("ExistsByNumber", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*billing.Invoice")).Return(nil)

	resp, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{
		ClientID: client.ID,
		Amount:   decimal.NewFromInt(1200),
	})

	require.NoError(t, err)
	assert.Equal(t, "INV-202507-00042", resp.InvoiceNumber)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, company.ID, resp.CompanyID)
	assert.Equal(t, "2025-07-29", resp.DueDate.Format(DateLayout))
	assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, 1, f.recorder.created[SourceManual])
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Create_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 30)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindByID", mock.Anything, ownerID, company.ID).Return(company, nil)
	f.invoices.On("ExistsByNumber", mock.Anything, "2025-001").Return(true, nil)

	_, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{
		InvoiceNumber: "2025-001",
		ClientID:      client.ID,
		CompanyID:     &company.ID,
		Amount:        decimal.NewFromInt(10),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_Create_UniqueViolationOnSave(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 30)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(company, nil)
	f.invoices.On("ExistsByNumber", mock.Anything, "2025-002").Return(false, nil)
	f.invoices.On("Save", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

	_, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{
		InvoiceNumber: "2025-002",
		ClientID:      client.ID,
		Amount:        decimal.NewFromInt(10),
	})

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "ALREADY_EXISTS", de.Code)
	assert.Equal(t, "Invoice number already exists", de.Message)
}

func TestInvoiceService_Create_MissingClient(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	clientID := uuid.New()
	f.clients.On("FindByID", mock.Anything, ownerID, clientID).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{ClientID: clientID, Amount: decimal.NewFromInt(1)})

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CLIENT", de.Code)
}

func TestInvoiceService_Create_NoDefaultCompany(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Create(ctx, ownerID, CreateInvoiceRequest{ClientID: client.ID, Amount: decimal.NewFromInt(1)})

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "NO_DEFAULT_COMPANY", de.Code)
}

func TestInvoiceService_Create_OrderOfAnotherClient(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	client := newClient(t, ownerID, "billing@acme.test")
	company := newCompany(t, ownerID, 30)
	order, err := billing.NewOrder(ownerID, billing.OrderInput{
		ClientID:    uuid.New(),
		Description: "Retainer",
		Amount:      decimal.NewFromInt(500),
		Currency:    "EUR",
		Frequency:   billing.FrequencyMonthly,
		StartDate:   testNow,
	})
	require.NoError(t, err)

	f.clients.On("FindByID", mock.Anything, ownerID, client.ID).Return(client, nil)
	f.companies.On("FindDefault", mock.Anything, ownerID).Return(company, nil)
	f.orders.On("FindByID", mock.Anything, ownerID, order.ID).Return(order, nil)

	_, err = f.svc.Create(ctx, ownerID, CreateInvoiceRequest{ClientID: client.ID, OrderID: &order.ID, Amount: decimal.NewFromInt(1)})

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ORDER", de.Code)
}

func TestInvoiceService_Update_SentInvoiceAmountRejected(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newSentInvoice(t, ownerID, "100", testNow.AddDate(0, 0, 10))
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	amount := decimal.NewFromInt(200)
	_, err := f.svc.Update(ctx, ownerID, inv.ID, UpdateInvoiceRequest{Amount: &amount})

	assert.ErrorIs(t, err, billing.ErrInvoiceNotEditable)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_Update_NotesOnSentInvoice(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newSentInvoice(t, ownerID, "100", testNow.AddDate(0, 0, 10))
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.invoices.On("Save", mock.Anything, inv).Return(nil)

	notes := "Paid via wire, awaiting confirmation"
	resp, err := f.svc.Update(ctx, ownerID, inv.ID, UpdateInvoiceRequest{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, notes, resp.Notes)
	assert.Equal(t, "SENT", resp.Status)
}

func TestInvoiceService_Delete_WithPayments(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newInvoice(t, ownerID, "100")
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.payments.On("CountByInvoice", mock.Anything, inv.ID).Return(int64(2), nil)

	err := f.svc.Delete(ctx, ownerID, inv.ID)

	assert.ErrorIs(t, err, billing.ErrInvoiceHasPayments)
	f.invoices.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newInvoice(t, ownerID, "100")
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.payments.On("CountByInvoice", mock.Anything, inv.ID).Return(int64(0), nil)
	f.invoices.On("Delete", mock.Anything, ownerID, inv.ID).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, ownerID, inv.ID))
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Cancel(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newSentInvoice(t, ownerID, "100", testNow.AddDate(0, 0, 10))
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.invoices.On("Save", mock.Anything, inv).Return(nil)

	resp, err := f.svc.Cancel(ctx, ownerID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, 1, f.recorder.transitions["CANCELLED"])
}

func TestInvoiceService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	id := uuid.New()
	f.invoices.On("FindByID", mock.Anything, ownerID, id).Return(nil, shared.ErrNotFound)

	_, err := f.svc.GetByID(ctx, ownerID, id)
	assert.True(t, shared.IsNotFound(err))
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newInvoiceFixture()
	inv := newInvoice(t, ownerID, "75.50")
	f.invoices.On("FindAll", mock.Anything, ownerID, mock.MatchedBy(func(filter billing.InvoiceFilter) bool {
		return filter.Status == billing.InvoiceStatusDraft && filter.PageSize == 20
	})).Return([]billing.Invoice{*inv}, int64(1), nil)

	items, total, err := f.svc.List(ctx, ownerID, InvoiceListFilter{Status: "DRAFT"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, inv.InvoiceNumber, items[0].InvoiceNumber)
}
