package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/storage"
)

type documentFixture struct {
	svc       *DocumentService
	invoices  *MockInvoiceRepository
	clients   *MockClientRepository
	companies *MockCompanyRepository
	renderer  *fakeRenderer
	sender    *fakeSender
	archive   *fakeArchive
	recorder  *countingRecorder
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	composer, err := mail.NewComposer("Invoicer")
	require.NoError(t, err)
	f := &documentFixture{
		invoices:  new(MockInvoiceRepository),
		clients:   new(MockClientRepository),
		companies: new(MockCompanyRepository),
		renderer:  &fakeRenderer{},
		sender:    &fakeSender{},
		archive:   newFakeArchive(),
		recorder:  newCountingRecorder(),
	}
	f.svc = NewDocumentService(passthroughTx{}, f.invoices, f.clients, f.companies, stubMethodRepository{},
		f.renderer, composer, f.sender, f.archive, f.recorder, zap.NewNop())
	f.svc.now = fixedClock
	return f
}

// expectParties wires the client and company of inv
func (f *documentFixture) expectParties(t *testing.T, inv *billing.Invoice, email string) *partner.Client {
	t.Helper()
	client := newClient(t, inv.OwnerID, email)
	client.ID = inv.ClientID
	company := newCompany(t, inv.OwnerID, 14)
	company.ID = inv.CompanyID
	f.clients.On("FindByID", mock.Anything, inv.OwnerID, inv.ClientID).Return(client, nil)
	f.companies.On("FindByID", mock.Anything, inv.OwnerID, inv.CompanyID).Return(company, nil)
	return client
}

func TestDocumentService_Send_DraftBecomesSent(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newInvoice(t, ownerID, "250")
	f.expectParties(t, inv, "billing@acme.test")

	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.invoices.On("Save", mock.Anything, inv).Return(nil)

	resp, err := f.svc.Send(ctx, ownerID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, "SENT", resp.Invoice.Status)
	assert.False(t, resp.Resent)
	assert.True(t, resp.Archived)
	assert.Equal(t, []string{"billing@acme.test", "accounting@acme.test"}, resp.Recipients)
	require.NotNil(t, inv.SentDate)
	assert.Equal(t, testNow, *inv.SentDate)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, []string{"billing@acme.test"}, msg.To)
	assert.Equal(t, []string{"accounting@acme.test"}, msg.Cc)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, mail.PDFFilename(inv.InvoiceNumber), msg.Attachments[0].Filename)

	key := storage.InvoiceKey(ownerID.String(), inv.InvoiceNumber)
	assert.Contains(t, f.archive.objects, key)
	assert.Equal(t, 1, f.recorder.transitions["SENT"])
}

func TestDocumentService_Send_Resend(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newSentInvoice(t, ownerID, "250", testNow.AddDate(0, 0, 3))
	sentAt := *inv.SentDate
	f.expectParties(t, inv, "billing@acme.test")

	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)
	f.invoices.On("FindByIDForUpdate", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	resp, err := f.svc.Send(ctx, ownerID, inv.ID)

	require.NoError(t, err)
	assert.True(t, resp.Resent)
	assert.Equal(t, "SENT", resp.Invoice.Status)
	assert.Equal(t, sentAt, *inv.SentDate)
	assert.Len(t, f.sender.sent, 1)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDocumentService_Send_MailFailureKeepsStatus(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	f.sender.err = errors.New("connection refused")
	inv := newInvoice(t, ownerID, "250")
	f.expectParties(t, inv, "billing@acme.test")
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.Send(ctx, ownerID, inv.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
	assert.Empty(t, f.archive.objects)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDocumentService_Send_RenderFailure(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	f.renderer.err = errors.New("chrome crashed")
	inv := newInvoice(t, ownerID, "250")
	f.expectParties(t, inv, "billing@acme.test")
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.Send(ctx, ownerID, inv.ID)

	require.Error(t, err)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
}

func TestDocumentService_Send_ClientWithoutEmail(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newInvoice(t, ownerID, "250")
	f.expectParties(t, inv, "")
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.Send(ctx, ownerID, inv.ID)

	assert.ErrorIs(t, err, ErrClientEmailMissing)
	assert.Empty(t, f.sender.sent)
}

func TestDocumentService_Send_CancelledInvoice(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newInvoice(t, ownerID, "250")
	require.NoError(t, inv.Cancel(testNow))
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.Send(ctx, ownerID, inv.ID)

	assert.ErrorIs(t, err, billing.ErrInvalidTransition)
	assert.Zero(t, f.renderer.calls)
}

func TestDocumentService_PDF(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newInvoice(t, ownerID, "99")
	f.expectParties(t, inv, "billing@acme.test")
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	pdf, err := f.svc.PDF(ctx, ownerID, inv.ID)

	require.NoError(t, err)
	assert.Equal(t, mail.PDFFilename(inv.InvoiceNumber), pdf.Filename)
	assert.Contains(t, string(pdf.Content), inv.InvoiceNumber)
	assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
}

func TestDocumentService_ArchiveLink(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	inv := newSentInvoice(t, ownerID, "99", testNow)
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.ArchiveLink(ctx, ownerID, inv.ID)
	assert.True(t, shared.IsNotFound(err))

	key := storage.InvoiceKey(ownerID.String(), inv.InvoiceNumber)
	f.archive.objects[key] = []byte("%PDF")

	link, err := f.svc.ArchiveLink(ctx, ownerID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.test/"+key, link.URL)
	assert.Equal(t, testNow.Add(ArchiveLinkTTL), link.ExpiresAt)
}

func TestDocumentService_ArchiveLink_Disabled(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	f := newDocumentFixture(t)
	f.svc.archive = storage.NewNoopArchive(zap.NewNop())
	inv := newSentInvoice(t, ownerID, "99", testNow)
	f.invoices.On("FindByID", mock.Anything, ownerID, inv.ID).Return(inv, nil)

	_, err := f.svc.ArchiveLink(ctx, ownerID, inv.ID)

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "ARCHIVE_DISABLED", de.Code)
}
