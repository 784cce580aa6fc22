package billing

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Date accepts "2006-01-02" or RFC 3339 in request bodies
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return shared.NewDomainError("INVALID_DATE", "Dates must be YYYY-MM-DD or RFC 3339")
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func dateOrZero(d *Date) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func datePtr(d *Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// uuidParam parses an optional query ID. Binding has already rejected
// malformed values.
func uuidParam(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   search,
	}.Normalize()
}

// =============================================================================
// Invoice DTOs
// =============================================================================

// LineItemDTO is one billed position
type LineItemDTO struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func toLineItems(items []LineItemDTO) billing.LineItems {
	if items == nil {
		return nil
	}
	return lo.Map(items, func(li LineItemDTO, _ int) billing.LineItem {
		return billing.LineItem{Description: li.Description, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
	})
}

// CreateInvoiceRequest creates a DRAFT invoice. An empty invoice_number asks
// for a generated one.
type CreateInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number" binding:"max=50"`
	ClientID      uuid.UUID       `json:"client_id" binding:"required"`
	CompanyID     *uuid.UUID      `json:"company_id"`
	OrderID       *uuid.UUID      `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"omitempty,currency"`
	IssueDate     *Date           `json:"issue_date"`
	DueDate       *Date           `json:"due_date"`
	Description   string          `json:"description" binding:"max=2000"`
	Notes         string          `json:"notes" binding:"max=2000"`
	Items         []LineItemDTO   `json:"items" binding:"omitempty,max=100,dive"`
}

// UpdateInvoiceRequest is a partial update
type UpdateInvoiceRequest struct {
	ClientID    *uuid.UUID       `json:"client_id"`
	CompanyID   *uuid.UUID       `json:"company_id"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency" binding:"omitempty,currency"`
	IssueDate   *Date            `json:"issue_date"`
	DueDate     *Date            `json:"due_date"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Notes       *string          `json:"notes" binding:"omitempty,max=2000"`
	Items       []LineItemDTO    `json:"items" binding:"omitempty,max=100,dive"`
}

func (r UpdateInvoiceRequest) toUpdate() billing.InvoiceUpdate {
	u := billing.InvoiceUpdate{
		ClientID:    r.ClientID,
		CompanyID:   r.CompanyID,
		Amount:      r.Amount,
		IssueDate:   datePtr(r.IssueDate),
		DueDate:     datePtr(r.DueDate),
		Items:       toLineItems(r.Items),
		Description: r.Description,
		Notes:       r.Notes,
	}
	if r.Currency != nil {
		c := currencyOf(*r.Currency)
		u.Currency = &c
	}
	return u
}

// InvoiceListFilter holds the query parameters of GET /api/invoices
type InvoiceListFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search"`
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT SENT PAID OVERDUE CANCELLED"`
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	OrderID   string `form:"order_id" binding:"omitempty,uuid"`
}

func (f InvoiceListFilter) toDomain() billing.InvoiceFilter {
	return billing.InvoiceFilter{
		Filter:    listFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		Status:    billing.InvoiceStatus(f.Status),
		ClientID:  uuidParam(f.ClientID),
		CompanyID: uuidParam(f.CompanyID),
		OrderID:   uuidParam(f.OrderID),
	}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	ClientID       uuid.UUID       `json:"client_id"`
	CompanyID      uuid.UUID       `json:"company_id"`
	OrderID        *uuid.UUID      `json:"order_id"`
	SubscriptionID *uuid.UUID      `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Currency       string          `json:"currency"`
	IssueDate      Date            `json:"issue_date"`
	DueDate        Date            `json:"due_date"`
	Status         string          `json:"status"`
	Description    string          `json:"description"`
	Notes          string          `json:"notes"`
	Items          []LineItemDTO   `json:"items"`
	SentDate       *time.Time      `json:"sent_date"`
	PaidDate       *time.Time      `json:"paid_date"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	LastReminderAt *time.Time      `json:"last_reminder_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		ClientID:       inv.ClientID,
		CompanyID:      inv.CompanyID,
		OrderID:        inv.OrderID,
		SubscriptionID: inv.SubscriptionID,
		Amount:         inv.Amount,
		PaidAmount:     inv.PaidAmount,
		Outstanding:    inv.Outstanding(),
		Currency:       inv.Currency.String(),
		IssueDate:      Date{inv.IssueDate},
		DueDate:        Date{inv.DueDate},
		Status:         inv.Status.String(),
		Description:    inv.Description,
		Notes:          inv.Notes,
		Items: lo.Map(inv.Items, func(li billing.LineItem, _ int) LineItemDTO {
			return LineItemDTO{Description: li.Description, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
		}),
		SentDate:       inv.SentDate,
		PaidDate:       inv.PaidDate,
		CancelledAt:    inv.CancelledAt,
		LastReminderAt: inv.LastReminderAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// SendInvoiceResponse reports a delivery
type SendInvoiceResponse struct {
	Invoice    InvoiceResponse `json:"invoice"`
	Recipients []string        `json:"recipients"`
	Archived   bool            `json:"archived"`
	Resent     bool            `json:"resent"`
}

// InvoicePDF is a rendered invoice
type InvoicePDF struct {
	Filename string
	Content  []byte
}

// ArchiveLinkResponse is a time-limited download link of an archived PDF
type ArchiveLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// CreatePaymentRequest records money received against an invoice
type CreatePaymentRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"omitempty,oneof=BANK_TRANSFER CARD CASH PAYPAL CRYPTO CHECK OTHER"`
	PaidDate  *Date           `json:"paid_date"`
	Reference string          `json:"reference" binding:"max=200"`
	Notes     string          `json:"notes" binding:"max=2000"`
}

// InvoicePaymentRequest is the body of POST /api/invoices/:id/payments,
// where the invoice comes from the path
type InvoicePaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"omitempty,oneof=BANK_TRANSFER CARD CASH PAYPAL CRYPTO CHECK OTHER"`
	PaidDate  *Date           `json:"paid_date"`
	Reference string          `json:"reference" binding:"max=200"`
	Notes     string          `json:"notes" binding:"max=2000"`
}

// ForInvoice turns the request into a CreatePaymentRequest
func (r InvoicePaymentRequest) ForInvoice(invoiceID uuid.UUID) CreatePaymentRequest {
	return CreatePaymentRequest{
		InvoiceID: invoiceID,
		Amount:    r.Amount,
		Method:    r.Method,
		PaidDate:  r.PaidDate,
		Reference: r.Reference,
		Notes:     r.Notes,
	}
}

// UpdatePaymentRequest is a partial update
type UpdatePaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	Method    *string          `json:"method" binding:"omitempty,oneof=BANK_TRANSFER CARD CASH PAYPAL CRYPTO CHECK OTHER"`
	PaidDate  *Date            `json:"paid_date"`
	Reference *string          `json:"reference" binding:"omitempty,max=200"`
	Notes     *string          `json:"notes" binding:"omitempty,max=2000"`
}

func (r UpdatePaymentRequest) toUpdate() billing.PaymentUpdate {
	u := billing.PaymentUpdate{
		Amount:    r.Amount,
		PaidDate:  datePtr(r.PaidDate),
		Reference: r.Reference,
		Notes:     r.Notes,
	}
	if r.Method != nil {
		m := billing.PaymentMethod(*r.Method)
		u.Method = &m
	}
	return u
}

// PaymentListFilter holds the query parameters of GET /api/payments
type PaymentListFilter struct {
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string     `form:"search"`
	InvoiceID string     `form:"invoice_id" binding:"omitempty,uuid"`
	Method    string     `form:"method"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
}

func (f PaymentListFilter) toDomain() billing.PaymentFilter {
	return billing.PaymentFilter{
		Filter:    listFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		InvoiceID: uuidParam(f.InvoiceID),
		Method:    billing.PaymentMethod(f.Method),
		From:      f.From,
		To:        f.To,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
	PaidDate  Date            `json:"paid_date"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToPaymentResponse converts a domain Payment
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		Currency:  p.Currency.String(),
		Method:    p.Method.String(),
		PaidDate:  Date{p.PaidDate},
		Reference: p.Reference,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PaymentResult is a payment plus the invoice state it left behind
type PaymentResult struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// =============================================================================
// Order DTOs
// =============================================================================

// OrderRequest creates or fully replaces an order. Missing description,
// amount and currency are taken from the referenced service.
type OrderRequest struct {
	ClientID    uuid.UUID       `json:"client_id" binding:"required"`
	ServiceID   *uuid.UUID      `json:"service_id"`
	Description string          `json:"description" binding:"max=2000"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"omitempty,currency"`
	Frequency   string          `json:"frequency" binding:"omitempty,oneof=ONE_TIME WEEKLY MONTHLY QUARTERLY YEARLY"`
	StartDate   *Date           `json:"start_date"`
	EndDate     *Date           `json:"end_date"`
	Notes       string          `json:"notes" binding:"max=2000"`
}

// OrderStatusRequest changes the status of an order
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE PAUSED CANCELLED"`
}

// GenerateInvoiceRequest tunes an invoice generated from an order or a subscription
type GenerateInvoiceRequest struct {
	CompanyID     *uuid.UUID `json:"company_id"`
	InvoiceNumber string     `json:"invoice_number" binding:"max=50"`
	IssueDate     *Date      `json:"issue_date"`
	Notes         string     `json:"notes" binding:"max=2000"`
}

// OrderListFilter holds the query parameters of GET /api/orders
type OrderListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE PAUSED CANCELLED"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

func (f OrderListFilter) toDomain() billing.OrderFilter {
	return billing.OrderFilter{
		Filter:   listFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		Status:   billing.OrderStatus(f.Status),
		ClientID: uuidParam(f.ClientID),
	}
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID       `json:"id"`
	ClientID       uuid.UUID       `json:"client_id"`
	ServiceID      *uuid.UUID      `json:"service_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Frequency      string          `json:"frequency"`
	Status         string          `json:"status"`
	StartDate      Date            `json:"start_date"`
	EndDate        *Date           `json:"end_date"`
	NextDueDate    *Date           `json:"next_due_date"`
	LastInvoicedAt *time.Time      `json:"last_invoiced_at"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain Order; now drives next_due_date
func ToOrderResponse(o *billing.Order, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID,
		ClientID:       o.ClientID,
		ServiceID:      o.ServiceID,
		Description:    o.Description,
		Amount:         o.Amount,
		Currency:       o.Currency.String(),
		Frequency:      o.Frequency.String(),
		Status:         o.Status.String(),
		StartDate:      Date{o.StartDate},
		LastInvoicedAt: o.LastInvoicedAt,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.EndDate != nil {
		resp.EndDate = &Date{*o.EndDate}
	}
	if next, ok := o.NextDueDate(now); ok {
		resp.NextDueDate = &Date{next}
	}
	return resp
}

// =============================================================================
// Subscription DTOs
// =============================================================================

// CreateSubscriptionRequest starts a subscription. Price, currency, billing
// day and cycle default to the service's values; company defaults to the
// user's default company.
type CreateSubscriptionRequest struct {
	ClientID     uuid.UUID        `json:"client_id" binding:"required"`
	ServiceID    uuid.UUID        `json:"service_id" binding:"required"`
	CompanyID    *uuid.UUID       `json:"company_id"`
	Price        *decimal.Decimal `json:"price"`
	Currency     string           `json:"currency" binding:"omitempty,currency"`
	BillingDay   *int             `json:"billing_day" binding:"omitempty,billing_day"`
	BillingCycle string           `json:"billing_cycle" binding:"omitempty,oneof=MONTHLY QUARTERLY YEARLY"`
	StartDate    *Date            `json:"start_date"`
	Notes        string           `json:"notes" binding:"max=2000"`
}

// UpdateSubscriptionRequest is a partial update
type UpdateSubscriptionRequest struct {
	ServiceID        *uuid.UUID       `json:"service_id"`
	CompanyID        *uuid.UUID       `json:"company_id"`
	Price            *decimal.Decimal `json:"price"`
	Currency         *string          `json:"currency" binding:"omitempty,currency"`
	BillingDay       *int             `json:"billing_day" binding:"omitempty,billing_day"`
	BillingCycle     *string          `json:"billing_cycle" binding:"omitempty,oneof=MONTHLY QUARTERLY YEARLY"`
	Status           *string          `json:"status" binding:"omitempty,oneof=ACTIVE PAUSED CANCELLED PAID_IN_ADVANCE"`
	AdvancePaidUntil *Date            `json:"advance_paid_until"`
	Notes            *string          `json:"notes" binding:"omitempty,max=2000"`
}

func (r UpdateSubscriptionRequest) toUpdate() billing.SubscriptionUpdate {
	u := billing.SubscriptionUpdate{
		ServiceID:        r.ServiceID,
		CompanyID:        r.CompanyID,
		Price:            r.Price,
		BillingDay:       r.BillingDay,
		AdvancePaidUntil: datePtr(r.AdvancePaidUntil),
		Notes:            r.Notes,
	}
	if r.Currency != nil {
		c := currencyOf(*r.Currency)
		u.Currency = &c
	}
	if r.BillingCycle != nil {
		f := billing.Frequency(*r.BillingCycle)
		u.BillingCycle = &f
	}
	if r.Status != nil {
		s := billing.SubscriptionStatus(*r.Status)
		u.Status = &s
	}
	return u
}

// SubscriptionListFilter holds the query parameters of GET /api/subscriptions
type SubscriptionListFilter struct {
	Page             int    `form:"page" binding:"omitempty,min=1"`
	PageSize         int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy          string `form:"order_by"`
	OrderDir         string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search           string `form:"search"`
	Status           string `form:"status" binding:"omitempty,oneof=ACTIVE PAUSED CANCELLED PAID_IN_ADVANCE"`
	ClientID         string `form:"client_id" binding:"omitempty,uuid"`
	IncludeCancelled bool   `form:"include_cancelled"`
}

func (f SubscriptionListFilter) toDomain() billing.SubscriptionFilter {
	return billing.SubscriptionFilter{
		Filter:           listFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		Status:           billing.SubscriptionStatus(f.Status),
		ClientID:         uuidParam(f.ClientID),
		IncludeCancelled: f.IncludeCancelled,
	}
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID               uuid.UUID       `json:"id"`
	ClientID         uuid.UUID       `json:"client_id"`
	ServiceID        uuid.UUID       `json:"service_id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	Price            decimal.Decimal `json:"price"`
	MonthlyAmount    decimal.Decimal `json:"monthly_amount"`
	Currency         string          `json:"currency"`
	BillingDay       int             `json:"billing_day"`
	BillingCycle     string          `json:"billing_cycle"`
	Status           string          `json:"status"`
	StartDate        Date            `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	NextBillingDate  Date            `json:"next_billing_date"`
	AdvancePaidUntil *Date           `json:"advance_paid_until"`
	LastInvoicedAt   *time.Time      `json:"last_invoiced_at"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToSubscriptionResponse converts a domain Subscription
func ToSubscriptionResponse(s *billing.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:              s.ID,
		ClientID:        s.ClientID,
		ServiceID:       s.ServiceID,
		CompanyID:       s.CompanyID,
		Price:           s.Price,
		MonthlyAmount:   s.MonthlyAmount().Round(2),
		Currency:        s.Currency.String(),
		BillingDay:      s.BillingDay,
		BillingCycle:    s.BillingCycle.String(),
		Status:          s.Status.String(),
		StartDate:       Date{s.StartDate},
		EndDate:         s.EndDate,
		NextBillingDate: Date{s.NextBillingDate},
		LastInvoicedAt:  s.LastInvoicedAt,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.AdvancePaidUntil != nil {
		resp.AdvancePaidUntil = &Date{*s.AdvancePaidUntil}
	}
	return resp
}

// DueSubscriptionsResponse lists subscriptions billing inside the window
type DueSubscriptionsResponse struct {
	From          Date                   `json:"from"`
	To            Date                   `json:"to"`
	Days          int                    `json:"days"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// GeneratedInvoiceResponse is an invoice generated from a subscription
type GeneratedInvoiceResponse struct {
	Invoice      InvoiceResponse      `json:"invoice"`
	Subscription SubscriptionResponse `json:"subscription"`
}
