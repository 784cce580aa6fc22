package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	"github.com/invoicer/backend/internal/domain/shared"
)

type invoiceMocks struct {
	invoices  *mockInvoiceService
	documents *mockDocumentService
	payments  *mockPaymentService
}

func setupInvoiceRoutes(userID string) (http.Handler, invoiceMocks) {
	m := invoiceMocks{
		invoices:  new(mockInvoiceService),
		documents: new(mockDocumentService),
		payments:  new(mockPaymentService),
	}
	h := NewInvoiceHandler(NewBaseHandler(false), m.invoices, m.documents, m.payments)
	r := newTestRouter(userID)
	r.GET("/api/invoices", h.List)
	r.POST("/api/invoices", h.Create)
	r.GET("/api/invoices/:id", h.GetByID)
	r.PUT("/api/invoices/:id", h.Update)
	r.DELETE("/api/invoices/:id", h.Delete)
	r.POST("/api/invoices/:id/send", h.Send)
	r.GET("/api/invoices/:id/pdf", h.PDF)
	r.POST("/api/invoices/:id/cancel", h.Cancel)
	r.GET("/api/invoices/:id/archive", h.ArchiveLink)
	r.GET("/api/invoices/:id/payments", h.ListPayments)
	r.POST("/api/invoices/:id/payments", h.AddPayment)
	return r, m
}

func TestInvoiceHandler_List_FilterValidation(t *testing.T) {
	ownerID := uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())

	w := perform(t, r, http.MethodGet, "/api/invoices?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, r, http.MethodGet, "/api/invoices?client_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	clientID := uuid.NewString()
	m.invoices.On("List", mock.Anything, ownerID, mock.MatchedBy(func(f billingapp.InvoiceListFilter) bool {
		return f.Status == "OVERDUE" && f.ClientID == clientID
	})).Return([]billingapp.InvoiceResponse{}, int64(0), nil)

	w = perform(t, r, http.MethodGet, "/api/invoices?status=OVERDUE&client_id="+clientID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	m.invoices.AssertExpectations(t)
}

func TestInvoiceHandler_Update_NotEditable(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.invoices.On("Update", mock.Anything, ownerID, id, mock.Anything).
		Return(nil, shared.NewDomainError("INVOICE_NOT_EDITABLE", "Only draft invoices can be edited"))

	w := perform(t, r, http.MethodPut, "/api/invoices/"+id.String(), map[string]any{"notes": "late"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVOICE_NOT_EDITABLE", decode(t, w).Error)
}

func TestInvoiceHandler_PDF(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.documents.On("PDF", mock.Anything, ownerID, id).
		Return(&billingapp.InvoicePDF{Filename: "INV-202507-00001.pdf", Content: []byte("%PDF-1.4")}, nil)

	w := perform(t, r, http.MethodGet, "/api/invoices/"+id.String()+"/pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="INV-202507-00001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestInvoiceHandler_Send(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.documents.On("Send", mock.Anything, ownerID, id).Return(&billingapp.SendInvoiceResponse{
		Invoice:    billingapp.InvoiceResponse{ID: id, Status: "SENT"},
		Recipients: []string{"billing@acme.test"},
		Resent:     true,
	}, nil)

	w := perform(t, r, http.MethodPost, "/api/invoices/"+id.String()+"/send", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Contains(t, string(env.Data), `"resent":true`)
	assert.Contains(t, string(env.Data), "billing@acme.test")
}

func TestInvoiceHandler_Cancel_WithPayments(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.invoices.On("Cancel", mock.Anything, ownerID, id).
		Return(nil, shared.NewDomainError("HAS_PAYMENTS", "Invoice has payments"))

	w := perform(t, r, http.MethodPost, "/api/invoices/"+id.String()+"/cancel", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_HAS_PAYMENTS", decode(t, w).Error)
}

func TestInvoiceHandler_ArchiveLink_Disabled(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.documents.On("ArchiveLink", mock.Anything, ownerID, id).
		Return(nil, shared.NewDomainError("ARCHIVE_DISABLED", "Invoice archive is not configured"))

	w := perform(t, r, http.MethodGet, "/api/invoices/"+id.String()+"/archive", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_ARCHIVE_DISABLED", decode(t, w).Error)

	other := uuid.New()
	expires := time.Date(2025, 7, 1, 12, 15, 0, 0, time.UTC)
	m.documents.On("ArchiveLink", mock.Anything, ownerID, other).
		Return(&billingapp.ArchiveLinkResponse{URL: "https://s3.test/invoices/x.pdf", ExpiresAt: expires}, nil)
	w = perform(t, r, http.MethodGet, "/api/invoices/"+other.String()+"/archive", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://s3.test/invoices/x.pdf")
}

func TestInvoiceHandler_AddPayment_UsesPathInvoice(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.payments.On("Create", mock.Anything, ownerID, mock.MatchedBy(func(req billingapp.CreatePaymentRequest) bool {
		return req.InvoiceID == id && req.Amount.Equal(decimal.NewFromInt(150)) && req.Method == "CARD"
	})).Return(&billingapp.PaymentResult{
		Payment: billingapp.PaymentResponse{ID: uuid.New()},
		Invoice: billingapp.InvoiceResponse{ID: id, Status: "PAID"},
	}, nil)

	w := perform(t, r, http.MethodPost, "/api/invoices/"+id.String()+"/payments",
		map[string]any{"amount": "150", "method": "CARD"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)
	m.payments.AssertExpectations(t)
}

func TestInvoiceHandler_AddPayment_Overpayment(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.payments.On("Create", mock.Anything, ownerID, mock.Anything).
		Return(nil, shared.NewDomainError("OVERPAYMENT", "Payment exceeds the outstanding amount"))

	w := perform(t, r, http.MethodPost, "/api/invoices/"+id.String()+"/payments", map[string]any{"amount": "9999"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_OVERPAYMENT", decode(t, w).Error)
}

func TestInvoiceHandler_ListPayments(t *testing.T) {
	ownerID, id := uuid.New(), uuid.New()
	r, m := setupInvoiceRoutes(ownerID.String())
	m.payments.On("ListByInvoice", mock.Anything, ownerID, id).
		Return([]billingapp.PaymentResponse{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	w := perform(t, r, http.MethodGet, "/api/invoices/"+id.String()+"/payments", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(string(decode(t, w).Data), `"id"`))
	m.payments.AssertExpectations(t)
}
