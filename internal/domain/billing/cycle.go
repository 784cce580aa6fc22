package billing

import (
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Billing days are day-of-month anchors. When the anchor exceeds the length of
// the target month it is clamped to the month's last day (31 → Feb 28/29,
// Apr 30). The anchor itself never changes, so a day-31 subscription bills on
// Jan 31, Feb 28, Mar 31.
const (
	MinBillingDay = 1
	MaxBillingDay = 31

	// DefaultDueWindowDays is the lookahead used by the due-subscriptions query.
	DefaultDueWindowDays = 7
)

// ValidateBillingDay checks the 1..31 range
func ValidateBillingDay(day int) error {
	if day < MinBillingDay || day > MaxBillingDay {
		return ErrInvalidBillingDay.WithDetails(map[string]int{"billing_day": day})
	}
	return nil
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped moves t forward by n months and lands on anchorDay,
// clamped to the end of the target month.
func AddMonthsClamped(t time.Time, n int, anchorDay int) time.Time {
	t = DateOf(t)
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return clampedDate(first.Year(), first.Month(), anchorDay)
}

// NextBillingDate computes the first billing date strictly after ref.
//
// The candidate is billingDay in ref's month. A candidate on or before ref
// rolls to the following month. The result is always later than ref.
func NextBillingDate(billingDay int, ref time.Time) (time.Time, error) {
	if err := ValidateBillingDay(billingDay); err != nil {
		return time.Time{}, err
	}
	r := DateOf(ref)
	candidate := clampedDate(r.Year(), r.Month(), billingDay)
	if !candidate.After(r) {
		candidate = AddMonthsClamped(r, 1, billingDay)
	}
	return candidate, nil
}

// DueWindow returns the [from, to] bounds of the due query. from is the start
// of today so subscriptions billing today are still reported.
func DueWindow(now time.Time, days int) (time.Time, time.Time) {
	if days <= 0 {
		days = DefaultDueWindowDays
	}
	return DateOf(now), now.UTC().AddDate(0, 0, days)
}

// IsPastDue reports whether due lies on a calendar day before now.
func IsPastDue(due, now time.Time) bool {
	return DateOf(now).After(DateOf(due))
}

// Frequency is how often an order or subscription is billed
type Frequency string

const (
	FrequencyOneTime   Frequency = "ONE_TIME"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// IsValid checks if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOneTime, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// String returns the string representation of Frequency
func (f Frequency) String() string {
	return string(f)
}

// IsRecurring is false only for ONE_TIME
func (f Frequency) IsRecurring() bool {
	return f != FrequencyOneTime
}

// IsMonthBased reports whether the cycle is a whole number of months,
// which is what billing-day anchors apply to.
func (f Frequency) IsMonthBased() bool {
	return f.Months() > 0
}

// Months returns the cycle length in months, 0 for weekly or one-time.
func (f Frequency) Months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	}
	return 0
}

// Next returns the occurrence following from. anchorDay applies to
// month-based cycles; ONE_TIME has no next occurrence.
func (f Frequency) Next(from time.Time, anchorDay int) (time.Time, bool) {
	switch {
	case f == FrequencyWeekly:
		return DateOf(from).AddDate(0, 0, 7), true
	case f.IsMonthBased():
		return AddMonthsClamped(from, f.Months(), anchorDay), true
	}
	return time.Time{}, false
}

// MonthlyFactor normalizes one cycle's price to a monthly amount.
func (f Frequency) MonthlyFactor() decimal.Decimal {
	switch f {
	case FrequencyWeekly:
		return decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
	case FrequencyMonthly:
		return decimal.NewFromInt(1)
	case FrequencyQuarterly:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	case FrequencyYearly:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(12))
	}
	return decimal.Zero
}

// ParseFrequency validates a frequency string
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", shared.NewDomainError("INVALID_FREQUENCY", fmt.Sprintf("Unknown frequency %q", s))
	}
	return f, nil
}
