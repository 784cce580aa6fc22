package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/catalog"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/printing"
)

var testNow = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) NextSequence(ctx context.Context, period string) (int64, error) {
	args := m.Called(ctx, period)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) CountByOrder(ctx context.Context, ownerID, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindReminderCandidates(ctx context.Context, before time.Time, limit int) ([]billing.Invoice, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billing.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) FindByInvoice(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, ownerID, invoiceID)
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Order, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.OrderFilter) ([]billing.Order, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billing.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *billing.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*billing.Subscription, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*billing.Subscription, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter billing.SubscriptionFilter) ([]billing.Subscription, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]billing.Subscription), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubscriptionRepository) FindDue(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]billing.Subscription, error) {
	args := m.Called(ctx, ownerID, from, to)
	return args.Get(0).([]billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindExpiredAdvance(ctx context.Context, asOf time.Time, limit int) ([]billing.Subscription, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, sub *billing.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter partner.ClientFilter) ([]partner.Client, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]partner.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockClientRepository) CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockCompanyRepository is a mock implementation of CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*partner.Company, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context, ownerID uuid.UUID) ([]partner.Company, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindDefault(ctx context.Context, ownerID uuid.UUID) (*partner.Company, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindOldest(ctx context.Context, ownerID, exceptID uuid.UUID) (*partner.Company, error) {
	args := m.Called(ctx, ownerID, exceptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Company), args.Error(1)
}

func (m *MockCompanyRepository) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *partner.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *MockCompanyRepository) ClearDefault(ctx context.Context, ownerID, exceptID uuid.UUID) error {
	return m.Called(ctx, ownerID, exceptID).Error(0)
}

func (m *MockCompanyRepository) CountReferences(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockServiceItemRepository is a mock implementation of ServiceItemRepository
type MockServiceItemRepository struct {
	mock.Mock
}

func (m *MockServiceItemRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ServiceItem, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ServiceItem), args.Error(1)
}

func (m *MockServiceItemRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter catalog.ServiceItemFilter) ([]catalog.ServiceItem, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]catalog.ServiceItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockServiceItemRepository) Save(ctx context.Context, item *catalog.ServiceItem) error {
	return m.Called(ctx, item).Error(0)
}

// stubMethodRepository returns no payment methods
type stubMethodRepository struct{}

func (stubMethodRepository) FindByID(context.Context, uuid.UUID, uuid.UUID) (*partner.PaymentMethod, error) {
	return nil, errors.New("not implemented")
}

func (stubMethodRepository) FindByCompany(context.Context, uuid.UUID, uuid.UUID) ([]partner.PaymentMethod, error) {
	return nil, nil
}

func (stubMethodRepository) Save(context.Context, *partner.PaymentMethod) error { return nil }

func (stubMethodRepository) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubMethodRepository) ClearDefault(context.Context, uuid.UUID, uuid.UUID) error { return nil }

// fakeRenderer returns a fixed PDF or err
type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) RenderInvoice(_ context.Context, doc *printing.InvoiceDocument) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 " + doc.Number), nil
}

func (r *fakeRenderer) Close() error { return nil }

// fakeSender records outgoing mail
type fakeSender struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// fakeArchive keeps uploads in memory
type fakeArchive struct {
	objects map[string][]byte
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}}
}

func (a *fakeArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	a.objects[key] = data
	return nil
}

func (a *fakeArchive) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.objects[key]
	return ok, nil
}

func (a *fakeArchive) DownloadURL(_ context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	return "https://archive.test/" + key, testNow.Add(ttl), nil
}

// countingRecorder counts transitions by status
type countingRecorder struct {
	nopRecorder
	created     map[string]int
	transitions map[string]int
	payments    int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{created: map[string]int{}, transitions: map[string]int{}}
}

func (r *countingRecorder) InvoiceCreated(source string)      { r.created[source]++ }
func (r *countingRecorder) InvoiceTransitioned(status string) { r.transitions[status]++ }
func (r *countingRecorder) PaymentRecorded(string, string, decimal.Decimal) {
	r.payments++
}
