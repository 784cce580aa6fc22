package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscription(t *testing.T, billingDay int, start time.Time) *Subscription {
	t.Helper()
	sub, err := NewSubscription(uuid.New(), NewSubscriptionInput{
		ClientID:   uuid.New(),
		ServiceID:  uuid.New(),
		CompanyID:  uuid.New(),
		Price:      dec("49.90"),
		BillingDay: billingDay,
		StartDate:  start,
	})
	require.NoError(t, err)
	return sub
}

func TestNewSubscription(t *testing.T) {
	t.Run("first billing date rolls past a matching start date", func(t *testing.T) {
		sub := newTestSubscription(t, 10, date(2025, 7, 10))
		assert.Equal(t, date(2025, 8, 10), sub.NextBillingDate)
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
		assert.Equal(t, FrequencyMonthly, sub.BillingCycle)
	})

	t.Run("rejects billing day out of range", func(t *testing.T) {
		_, err := NewSubscription(uuid.New(), NewSubscriptionInput{
			ClientID: uuid.New(), ServiceID: uuid.New(), CompanyID: uuid.New(),
			Price: dec("10"), BillingDay: 32,
		})
		requireCode(t, err, "INVALID_BILLING_DAY")
	})

	t.Run("rejects weekly cycle", func(t *testing.T) {
		_, err := NewSubscription(uuid.New(), NewSubscriptionInput{
			ClientID: uuid.New(), ServiceID: uuid.New(), CompanyID: uuid.New(),
			Price: dec("10"), BillingDay: 1, BillingCycle: FrequencyWeekly,
		})
		requireCode(t, err, "INVALID_BILLING_CYCLE")
	})
}

func TestSubscription_UpdateBillingDay(t *testing.T) {
	sub := newTestSubscription(t, 10, date(2025, 7, 10))
	now := date(2025, 7, 20)

	price := dec("59.90")
	require.NoError(t, sub.Update(SubscriptionUpdate{Price: &price}, now))
	assert.Equal(t, date(2025, 8, 10), sub.NextBillingDate, "unchanged billing day keeps the date")

	same := 10
	require.NoError(t, sub.Update(SubscriptionUpdate{BillingDay: &same}, now))
	assert.Equal(t, date(2025, 8, 10), sub.NextBillingDate)

	day := 25
	require.NoError(t, sub.Update(SubscriptionUpdate{BillingDay: &day}, now))
	assert.Equal(t, 25, sub.BillingDay)
	assert.Equal(t, date(2025, 7, 25), sub.NextBillingDate, "recomputed from now")
}

func TestSubscription_StatusTransitions(t *testing.T) {
	now := date(2025, 7, 20)

	t.Run("pause and resume", func(t *testing.T) {
		sub := newTestSubscription(t, 10, date(2025, 5, 10))
		require.NoError(t, sub.ChangeStatus(SubscriptionStatusPaused, nil, now))
		require.NoError(t, sub.ChangeStatus(SubscriptionStatusActive, nil, date(2025, 9, 1)))
		assert.Equal(t, date(2025, 9, 10), sub.NextBillingDate, "stale date is recomputed on resume")
	})

	t.Run("paid in advance pushes billing past the window", func(t *testing.T) {
		sub := newTestSubscription(t, 10, date(2025, 7, 10))
		until := date(2025, 12, 31)
		require.NoError(t, sub.ChangeStatus(SubscriptionStatusPaidInAdvance, &until, now))
		assert.Equal(t, SubscriptionStatusPaidInAdvance, sub.Status)
		require.NotNil(t, sub.AdvancePaidUntil)
		assert.Equal(t, date(2026, 1, 10), sub.NextBillingDate)

		assert.False(t, sub.ExpireAdvance(date(2025, 12, 31)))
		assert.True(t, sub.ExpireAdvance(date(2026, 1, 1)))
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
	})

	t.Run("paid in advance needs a future date", func(t *testing.T) {
		sub := newTestSubscription(t, 10, date(2025, 7, 10))
		requireCode(t, sub.ChangeStatus(SubscriptionStatusPaidInAdvance, nil, now), "ADVANCE_DATE_REQUIRED")
		past := date(2025, 7, 1)
		requireCode(t, sub.ChangeStatus(SubscriptionStatusPaidInAdvance, &past, now), "INVALID_ADVANCE_DATE")
	})

	t.Run("cancel is terminal and stamps end date", func(t *testing.T) {
		sub := newTestSubscription(t, 10, date(2025, 7, 10))
		cancelAt := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)
		require.NoError(t, sub.Cancel(cancelAt))
		assert.Equal(t, SubscriptionStatusCancelled, sub.Status)
		require.NotNil(t, sub.EndDate)
		assert.Equal(t, cancelAt, *sub.EndDate)

		requireCode(t, sub.ChangeStatus(SubscriptionStatusActive, nil, now), "INVALID_TRANSITION")
		price := dec("1")
		requireCode(t, sub.Update(SubscriptionUpdate{Price: &price}, now), "INVALID_TRANSITION")
	})
}

func TestSubscription_AdvanceCycle(t *testing.T) {
	sub := newTestSubscription(t, 31, date(2025, 1, 15))
	require.Equal(t, date(2025, 1, 31), sub.NextBillingDate)

	require.NoError(t, sub.AdvanceCycle(date(2025, 1, 31)))
	assert.Equal(t, date(2025, 2, 28), sub.NextBillingDate)
	require.NoError(t, sub.AdvanceCycle(date(2025, 2, 28)))
	assert.Equal(t, date(2025, 3, 31), sub.NextBillingDate, "anchor survives a clamped month")

	require.NoError(t, sub.ChangeStatus(SubscriptionStatusPaused, nil, date(2025, 3, 1)))
	requireCode(t, sub.AdvanceCycle(date(2025, 3, 1)), "INVALID_TRANSITION")
}

func TestSubscription_IsDueWithin(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	fiveDays := newTestSubscription(t, 15, date(2025, 7, 1))
	require.Equal(t, date(2025, 7, 15), fiveDays.NextBillingDate)
	assert.True(t, fiveDays.IsDueWithin(now, 7))

	tenDays := newTestSubscription(t, 20, date(2025, 7, 1))
	assert.False(t, tenDays.IsDueWithin(now, 7))

	require.NoError(t, fiveDays.ChangeStatus(SubscriptionStatusPaused, nil, now))
	assert.False(t, fiveDays.IsDueWithin(now, 7))
}

func TestSubscription_MonthlyAmount(t *testing.T) {
	sub := newTestSubscription(t, 1, date(2025, 1, 1))
	sub.Price = dec("120")
	sub.BillingCycle = FrequencyQuarterly
	assert.Equal(t, "40", sub.MonthlyAmount().Round(2).String())
}
