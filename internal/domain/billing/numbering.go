package billing

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultInvoiceNumberPrefix is used when no prefix is configured
const DefaultInvoiceNumberPrefix = "INV"

const maxInvoiceNumberLength = 50

var invoiceNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-_/.#]*$`)

// NormalizeInvoiceNumber trims and validates a caller-supplied number.
// Empty input is allowed and means "generate one".
func NormalizeInvoiceNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", nil
	}
	if len(number) > maxInvoiceNumberLength {
		return "", ErrInvalidInvoiceNumber.WithDetails(map[string]int{"max_length": maxInvoiceNumberLength})
	}
	if !invoiceNumberPattern.MatchString(number) {
		return "", ErrInvalidInvoiceNumber.WithDetails(map[string]string{"invoice_number": number})
	}
	return number, nil
}

// SequencePeriod is the counter bucket for generated numbers, e.g. "202507".
func SequencePeriod(t time.Time) string {
	return t.UTC().Format("200601")
}

// FormatInvoiceNumber renders a generated number: PREFIX-YYYYMM-NNNNN.
func FormatInvoiceNumber(prefix, period string, seq int64) string {
	if prefix == "" {
		prefix = DefaultInvoiceNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, period, seq)
}
