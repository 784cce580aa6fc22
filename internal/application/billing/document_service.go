package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// ArchiveLinkTTL is the lifetime of archive download links
const ArchiveLinkTTL = 15 * time.Minute

// Mail kinds for Recorder.MailDelivered
const (
	MailKindInvoice  = "invoice"
	MailKindReminder = "reminder"
)

// ErrClientEmailMissing is returned when an invoice cannot be mailed
var ErrClientEmailMissing = shared.NewDomainError("CLIENT_EMAIL_MISSING", "Client has no email address")

// DocumentService renders invoice PDFs and delivers them by mail
type DocumentService struct {
	tx          shared.Transactor
	invoiceRepo billing.InvoiceRepository
	clientRepo  partner.ClientRepository
	companyRepo partner.CompanyRepository
	methodRepo  partner.PaymentMethodRepository
	renderer    printing.InvoiceRenderer
	composer    *mail.Composer
	sender      mail.Sender
	archive     storage.Archive
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewDocumentService creates a new DocumentService. recorder may be nil.
func NewDocumentService(
	tx shared.Transactor,
	invoiceRepo billing.InvoiceRepository,
	clientRepo partner.ClientRepository,
	companyRepo partner.CompanyRepository,
	methodRepo partner.PaymentMethodRepository,
	renderer printing.InvoiceRenderer,
	composer *mail.Composer,
	sender mail.Sender,
	archive storage.Archive,
	recorder Recorder,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		companyRepo: companyRepo,
		methodRepo:  methodRepo,
		renderer:    renderer,
		composer:    composer,
		sender:      sender,
		archive:     archive,
		recorder:    recorderOrNop(recorder),
		logger:      logger,
		now:         systemClock,
	}
}

// rendered is an invoice with its parties and PDF
type rendered struct {
	invoice *billing.Invoice
	client  *partner.Client
	doc     *printing.InvoiceDocument
	pdf     []byte
}

func (s *DocumentService) render(ctx context.Context, inv *billing.Invoice) (*rendered, error) {
	client, err := s.clientRepo.FindByID(ctx, inv.OwnerID, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client of invoice %s: %w", inv.InvoiceNumber, err)
	}
	company, err := s.companyRepo.FindByID(ctx, inv.OwnerID, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company of invoice %s: %w", inv.InvoiceNumber, err)
	}
	methods, err := s.methodRepo.FindByCompany(ctx, inv.OwnerID, company.ID)
	if err != nil {
		return nil, err
	}

	doc := printing.NewInvoiceDocument(inv, client, company, methods)
	start := time.Now()
	pdf, err := s.renderer.RenderInvoice(ctx, doc)
	s.recorder.PDFRendered(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return &rendered{invoice: inv, client: client, doc: doc, pdf: pdf}, nil
}

// PDF renders an invoice in any status
func (s *DocumentService) PDF(ctx context.Context, ownerID, id uuid.UUID) (*InvoicePDF, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "pdf", telemetry.SpanAttrInvoiceID, id.String())
	defer span.End()

	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	r, err := s.render(ctx, inv)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &InvoicePDF{Filename: mail.PDFFilename(inv.InvoiceNumber), Content: r.pdf}, nil
}

// Send renders the invoice, mails it to the client with the cc list and
// archives the PDF, then moves a DRAFT to SENT. SENT and OVERDUE invoices are
// re-delivered without a status change. A render or mail failure leaves the
// invoice untouched.
func (s *DocumentService) Send(ctx context.Context, ownerID, id uuid.UUID) (*SendInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "send", telemetry.SpanAttrInvoiceID, id.String())
	defer span.End()

	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.CanSend(); err != nil {
		return nil, err
	}
	r, err := s.render(ctx, inv)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !r.client.HasEmail() {
		return nil, ErrClientEmailMissing
	}

	msg, err := s.composer.InvoiceMessage(r.doc, r.client.Email, r.client.CCEmails, r.pdf)
	if err != nil {
		return nil, err
	}
	err = s.sender.Send(ctx, msg)
	s.recorder.MailDelivered(MailKindInvoice, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("deliver invoice %s: %w", inv.InvoiceNumber, err)
	}
	s.recorder.InvoiceSent()

	archived := s.store(ctx, inv, r.pdf)

	var changed bool
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.invoiceRepo.FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		changed, err = locked.MarkSent(s.now())
		if err != nil {
			return err
		}
		inv = locked
		if !changed {
			return nil
		}
		return s.invoiceRepo.Save(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.recorder.InvoiceTransitioned(inv.Status.String())
	}

	recipients := append([]string{r.client.Email}, r.client.CCEmails...)
	s.logger.Info("Invoice sent",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Strings("recipients", recipients),
		zap.Bool("resent", !changed))

	return &SendInvoiceResponse{
		Invoice:    ToInvoiceResponse(inv),
		Recipients: recipients,
		Archived:   archived,
		Resent:     !changed,
	}, nil
}

// store archives a delivered PDF. Failures are logged; the mail already went out.
func (s *DocumentService) store(ctx context.Context, inv *billing.Invoice, pdf []byte) bool {
	if _, noop := s.archive.(*storage.NoopArchive); noop || s.archive == nil {
		return false
	}
	key := storage.InvoiceKey(inv.OwnerID.String(), inv.InvoiceNumber)
	if err := s.archive.Upload(ctx, key, pdf, "application/pdf"); err != nil {
		s.logger.Warn("Failed to archive invoice PDF",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

// ArchiveLink returns a time-limited download link for the archived PDF of
// a sent invoice.
func (s *DocumentService) ArchiveLink(ctx context.Context, ownerID, id uuid.UUID) (*ArchiveLinkResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	key := storage.InvoiceKey(inv.OwnerID.String(), inv.InvoiceNumber)
	exists, err := s.archive.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, noop := s.archive.(*storage.NoopArchive); noop {
			return nil, shared.NewDomainError("ARCHIVE_DISABLED", storage.ErrArchiveDisabled.Error())
		}
		return nil, shared.ErrNotFound
	}
	url, expires, err := s.archive.DownloadURL(ctx, key, ArchiveLinkTTL)
	if errors.Is(err, storage.ErrArchiveDisabled) {
		return nil, shared.NewDomainError("ARCHIVE_DISABLED", err.Error())
	}
	if err != nil {
		return nil, err
	}
	return &ArchiveLinkResponse{URL: url, ExpiresAt: expires}, nil
}

// remind mails a payment reminder for an OVERDUE invoice and stamps it.
// Returns false when the client has no email.
func (s *DocumentService) remind(ctx context.Context, inv *billing.Invoice, now time.Time) (bool, error) {
	r, err := s.render(ctx, inv)
	if err != nil {
		return false, err
	}
	if !r.client.HasEmail() {
		return false, nil
	}
	daysOverdue := int(billing.DateOf(now).Sub(inv.DueDate).Hours() / 24)
	msg, err := s.composer.ReminderMessage(r.doc, r.client.Email, r.client.CCEmails, daysOverdue, r.pdf)
	if err != nil {
		return false, err
	}
	err = s.sender.Send(ctx, msg)
	s.recorder.MailDelivered(MailKindReminder, err)
	if err != nil {
		return false, fmt.Errorf("deliver reminder for %s: %w", inv.InvoiceNumber, err)
	}

	return true, s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.invoiceRepo.FindByIDForUpdate(ctx, inv.OwnerID, inv.ID)
		if err != nil {
			return err
		}
		locked.RecordReminder(now)
		return s.invoiceRepo.Save(ctx, locked)
	})
}
