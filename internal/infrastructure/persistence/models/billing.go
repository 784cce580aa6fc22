package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice domain entity
type InvoiceModel struct {
	OwnedModel
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	CompanyID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	OrderID        *uuid.UUID            `gorm:"type:uuid;index"`
	SubscriptionID *uuid.UUID            `gorm:"type:uuid;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency  `gorm:"type:varchar(3);not null"`
	IssueDate      time.Time             `gorm:"type:date;not null"`
	DueDate        time.Time             `gorm:"type:date;not null;index"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	Description    string                `gorm:"type:text"`
	Notes          string                `gorm:"type:text"`
	Items          billing.LineItems     `gorm:"type:jsonb"`
	SentDate       *time.Time
	PaidDate       *time.Time
	CancelledAt    *time.Time
	LastReminderAt *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		OwnedEntity:    m.ToOwnedEntity(),
		InvoiceNumber:  m.InvoiceNumber,
		ClientID:       m.ClientID,
		CompanyID:      m.CompanyID,
		OrderID:        m.OrderID,
		SubscriptionID: m.SubscriptionID,
		Amount:         m.Amount,
		PaidAmount:     m.PaidAmount,
		Currency:       m.Currency,
		IssueDate:      billing.DateOf(m.IssueDate),
		DueDate:        billing.DateOf(m.DueDate),
		Status:         m.Status,
		Description:    m.Description,
		Notes:          m.Notes,
		Items:          m.Items,
		SentDate:       m.SentDate,
		PaidDate:       m.PaidDate,
		CancelledAt:    m.CancelledAt,
		LastReminderAt: m.LastReminderAt,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:  inv.InvoiceNumber,
		ClientID:       inv.ClientID,
		CompanyID:      inv.CompanyID,
		OrderID:        inv.OrderID,
		SubscriptionID: inv.SubscriptionID,
		Amount:         inv.Amount,
		PaidAmount:     inv.PaidAmount,
		Currency:       inv.Currency,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Status:         inv.Status,
		Description:    inv.Description,
		Notes:          inv.Notes,
		Items:          inv.Items,
		SentDate:       inv.SentDate,
		PaidDate:       inv.PaidDate,
		CancelledAt:    inv.CancelledAt,
		LastReminderAt: inv.LastReminderAt,
	}
	m.FromOwnedEntity(inv.OwnedEntity)
	return m
}

// InvoiceSequenceModel holds the generated-number counter of one period (YYYYMM)
type InvoiceSequenceModel struct {
	Period    string `gorm:"type:varchar(6);primaryKey"`
	LastValue int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}

// PaymentModel is the persistence model for the Payment domain entity
type PaymentModel struct {
	OwnedModel
	InvoiceID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency  valueobject.Currency  `gorm:"type:varchar(3);not null"`
	Method    billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaidDate  time.Time             `gorm:"type:date;not null;index"`
	Reference string                `gorm:"type:varchar(200)"`
	Notes     string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		OwnedEntity: m.ToOwnedEntity(),
		InvoiceID:   m.InvoiceID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Method:      m.Method,
		PaidDate:    billing.DateOf(m.PaidDate),
		Reference:   m.Reference,
		Notes:       m.Notes,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Method:    p.Method,
		PaidDate:  p.PaidDate,
		Reference: p.Reference,
		Notes:     p.Notes,
	}
	m.FromOwnedEntity(p.OwnedEntity)
	return m
}

// OrderModel is the persistence model for the Order domain entity
type OrderModel struct {
	OwnedModel
	ClientID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ServiceID      *uuid.UUID           `gorm:"type:uuid;index"`
	Description    string               `gorm:"type:text;not null"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	Frequency      billing.Frequency    `gorm:"type:varchar(20);not null"`
	Status         billing.OrderStatus  `gorm:"type:varchar(20);not null;index"`
	StartDate      time.Time            `gorm:"type:date;not null"`
	EndDate        *time.Time           `gorm:"type:date"`
	LastInvoicedAt *time.Time
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity
func (m *OrderModel) ToDomain() *billing.Order {
	return &billing.Order{
		OwnedEntity:    m.ToOwnedEntity(),
		ClientID:       m.ClientID,
		ServiceID:      m.ServiceID,
		Description:    m.Description,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Frequency:      m.Frequency,
		Status:         m.Status,
		StartDate:      billing.DateOf(m.StartDate),
		EndDate:        datePtr(m.EndDate),
		LastInvoicedAt: m.LastInvoicedAt,
		Notes:          m.Notes,
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *billing.Order) *OrderModel {
	m := &OrderModel{
		ClientID:       o.ClientID,
		ServiceID:      o.ServiceID,
		Description:    o.Description,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Frequency:      o.Frequency,
		Status:         o.Status,
		StartDate:      o.StartDate,
		EndDate:        o.EndDate,
		LastInvoicedAt: o.LastInvoicedAt,
		Notes:          o.Notes,
	}
	m.FromOwnedEntity(o.OwnedEntity)
	return m
}

// SubscriptionModel is the persistence model for the Subscription domain entity
type SubscriptionModel struct {
	OwnedModel
	ClientID         uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ServiceID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CompanyID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Price            decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	Currency         valueobject.Currency       `gorm:"type:varchar(3);not null"`
	BillingDay       int                        `gorm:"not null"`
	BillingCycle     billing.Frequency          `gorm:"type:varchar(20);not null"`
	Status           billing.SubscriptionStatus `gorm:"type:varchar(20);not null;index"`
	StartDate        time.Time                  `gorm:"type:date;not null"`
	EndDate          *time.Time                 `gorm:"type:date"`
	NextBillingDate  time.Time                  `gorm:"type:date;not null;index"`
	AdvancePaidUntil *time.Time                 `gorm:"type:date"`
	LastInvoicedAt   *time.Time
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription entity
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	return &billing.Subscription{
		OwnedEntity:      m.ToOwnedEntity(),
		ClientID:         m.ClientID,
		ServiceID:        m.ServiceID,
		CompanyID:        m.CompanyID,
		Price:            m.Price,
		Currency:         m.Currency,
		BillingDay:       m.BillingDay,
		BillingCycle:     m.BillingCycle,
		Status:           m.Status,
		StartDate:        billing.DateOf(m.StartDate),
		EndDate:          datePtr(m.EndDate),
		NextBillingDate:  billing.DateOf(m.NextBillingDate),
		AdvancePaidUntil: datePtr(m.AdvancePaidUntil),
		LastInvoicedAt:   m.LastInvoicedAt,
		Notes:            m.Notes,
	}
}

// SubscriptionModelFromDomain creates a persistence model from a domain Subscription
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{
		ClientID:         s.ClientID,
		ServiceID:        s.ServiceID,
		CompanyID:        s.CompanyID,
		Price:            s.Price,
		Currency:         s.Currency,
		BillingDay:       s.BillingDay,
		BillingCycle:     s.BillingCycle,
		Status:           s.Status,
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		NextBillingDate:  s.NextBillingDate,
		AdvancePaidUntil: s.AdvancePaidUntil,
		LastInvoicedAt:   s.LastInvoicedAt,
		Notes:            s.Notes,
	}
	m.FromOwnedEntity(s.OwnedEntity)
	return m
}

// datePtr normalizes an optional date column to UTC midnight
func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := billing.DateOf(*t)
	return &d
}
