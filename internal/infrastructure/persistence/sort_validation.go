package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

func withCommon(fields ...string) map[string]bool {
	m := map[string]bool{"created_at": true, "updated_at": true}
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// Allowed order_by columns per resource
var (
	ClientSortFields       = withCommon("name", "email", "company_name")
	ServiceItemSortFields  = withCommon("name", "category", "default_price")
	OrderSortFields        = withCommon("start_date", "amount", "status")
	InvoiceSortFields      = withCommon("invoice_number", "issue_date", "due_date", "amount", "status")
	PaymentSortFields      = withCommon("paid_date", "amount", "method")
	SubscriptionSortFields = withCommon("next_billing_date", "price", "billing_day", "status")
)
