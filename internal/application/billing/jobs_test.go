package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
)

func newJobsFixture(t *testing.T) (*Jobs, *documentFixture, *MockSubscriptionRepository) {
	t.Helper()
	docs := newDocumentFixture(t)
	subs := new(MockSubscriptionRepository)
	jobs := NewJobs(passthroughTx{}, docs.invoices, subs, docs.svc, docs.recorder, zap.NewNop())
	return jobs, docs, subs
}

func TestJobs_SweepOverdue(t *testing.T) {
	ctx := context.Background()
	jobs, docs, _ := newJobsFixture(t)

	late := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -1))
	paidMeanwhile := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -2))
	require.NoError(t, paidMeanwhile.ApplyPayment(decimal.NewFromInt(100), testNow))
	broken := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -3))

	docs.invoices.On("FindPastDue", mock.Anything, billing.DateOf(testNow), 50).
		Return([]billing.Invoice{*late, *paidMeanwhile, *broken}, nil)
	docs.invoices.On("FindByIDForUpdate", mock.Anything, late.OwnerID, late.ID).Return(late, nil)
	docs.invoices.On("FindByIDForUpdate", mock.Anything, paidMeanwhile.OwnerID, paidMeanwhile.ID).Return(paidMeanwhile, nil)
	docs.invoices.On("FindByIDForUpdate", mock.Anything, broken.OwnerID, broken.ID).Return(nil, errors.New("deadlock detected"))
	docs.invoices.On("Save", mock.Anything, late).Return(nil)

	marked, err := jobs.SweepOverdue(ctx, testNow, 50)

	assert.Equal(t, 1, marked)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Equal(t, billing.InvoiceStatusOverdue, late.Status)
	assert.Equal(t, billing.InvoiceStatusPaid, paidMeanwhile.Status)
	assert.Equal(t, 1, docs.recorder.transitions["OVERDUE"])
}

func TestJobs_SweepOverdue_DueTodayUntouched(t *testing.T) {
	ctx := context.Background()
	jobs, docs, _ := newJobsFixture(t)
	today := newSentInvoice(t, uuid.New(), "100", billing.DateOf(testNow))

	docs.invoices.On("FindPastDue", mock.Anything, billing.DateOf(testNow), 10).Return([]billing.Invoice{*today}, nil)
	docs.invoices.On("FindByIDForUpdate", mock.Anything, today.OwnerID, today.ID).Return(today, nil)

	marked, err := jobs.SweepOverdue(ctx, testNow, 10)

	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.Equal(t, billing.InvoiceStatusSent, today.Status)
	docs.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestJobs_SendReminders(t *testing.T) {
	ctx := context.Background()
	jobs, docs, _ := newJobsFixture(t)
	cooldown := 72 * time.Hour

	overdue := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -10))
	require.True(t, overdue.MarkOverdue(testNow))
	recent := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -10))
	require.True(t, recent.MarkOverdue(testNow))
	recent.RecordReminder(testNow.Add(-time.Hour))

	docs.expectParties(t, overdue, "billing@acme.test")
	docs.invoices.On("FindReminderCandidates", mock.Anything, testNow.Add(-cooldown), 25).
		Return([]billing.Invoice{*overdue, *recent}, nil)
	docs.invoices.On("FindByIDForUpdate", mock.Anything, overdue.OwnerID, overdue.ID).Return(overdue, nil)
	docs.invoices.On("Save", mock.Anything, overdue).Return(nil)

	sent, err := jobs.SendReminders(ctx, testNow, cooldown, 25)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, docs.sender.sent, 1)
	assert.Equal(t, []string{"billing@acme.test"}, docs.sender.sent[0].To)
	require.NotNil(t, overdue.LastReminderAt)
	assert.Equal(t, testNow, *overdue.LastReminderAt)
}

func TestJobs_SendReminders_NoEmailSkipped(t *testing.T) {
	ctx := context.Background()
	jobs, docs, _ := newJobsFixture(t)
	overdue := newSentInvoice(t, uuid.New(), "100", testNow.AddDate(0, 0, -10))
	require.True(t, overdue.MarkOverdue(testNow))

	docs.expectParties(t, overdue, "")
	docs.invoices.On("FindReminderCandidates", mock.Anything, mock.Anything, 25).Return([]billing.Invoice{*overdue}, nil)

	sent, err := jobs.SendReminders(ctx, testNow, time.Hour, 25)

	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, docs.sender.sent)
}

func TestJobs_ExpireAdvancePayments(t *testing.T) {
	ctx := context.Background()
	jobs, _, subs := newJobsFixture(t)

	start := testNow.AddDate(0, -3, 0)
	sub := newSubscription(t, uuid.New(), uuid.New(), uuid.New(), 1, start)
	require.NoError(t, sub.ChangeStatus(billing.SubscriptionStatusPaidInAdvance, ptr(testNow.AddDate(0, -1, 0)), start))

	subs.On("FindExpiredAdvance", mock.Anything, billing.DateOf(testNow), 50).Return([]billing.Subscription{*sub}, nil)
	subs.On("FindByIDForUpdate", mock.Anything, sub.OwnerID, sub.ID).Return(sub, nil)
	subs.On("Save", mock.Anything, sub).Return(nil)

	expired, err := jobs.ExpireAdvancePayments(ctx, testNow, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, billing.SubscriptionStatusActive, sub.Status)
}

func ptr[T any](v T) *T { return &v }
