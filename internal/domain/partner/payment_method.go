package partner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// PaymentMethodType tags the payload of a payment method
type PaymentMethodType string

const (
	PaymentMethodTypeBankAccount  PaymentMethodType = "BANK_ACCOUNT"
	PaymentMethodTypeCryptoWallet PaymentMethodType = "CRYPTO_WALLET"
	PaymentMethodTypePayPal       PaymentMethodType = "PAYPAL"
	PaymentMethodTypeOther        PaymentMethodType = "OTHER"
)

// IsValid checks if the type is known
func (t PaymentMethodType) IsValid() bool {
	switch t {
	case PaymentMethodTypeBankAccount, PaymentMethodTypeCryptoWallet,
		PaymentMethodTypePayPal, PaymentMethodTypeOther:
		return true
	}
	return false
}

// requiredDetails lists the payload keys each type must carry
var requiredDetails = map[PaymentMethodType][]string{
	PaymentMethodTypeBankAccount:  {"iban"},
	PaymentMethodTypeCryptoWallet: {"address", "network"},
	PaymentMethodTypePayPal:       {"email"},
}

// PaymentMethod tells clients how to pay one of the user's companies.
// Details is an opaque JSON object whose required keys depend on Type.
type PaymentMethod struct {
	shared.OwnedEntity
	CompanyID uuid.UUID
	Type      PaymentMethodType
	Name      string
	Details   json.RawMessage
	IsDefault bool
}

// NewPaymentMethod creates a payment method for company
func NewPaymentMethod(company *Company, methodType PaymentMethodType, name string, details json.RawMessage, isDefault bool) (*PaymentMethod, error) {
	if company == nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company is required")
	}
	if !methodType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD_TYPE", fmt.Sprintf("Unknown payment method type %q", methodType))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Payment method name cannot be empty")
	}
	normalized, err := validateDetails(methodType, details)
	if err != nil {
		return nil, err
	}
	return &PaymentMethod{
		OwnedEntity: shared.NewOwnedEntity(company.OwnerID),
		CompanyID:   company.ID,
		Type:        methodType,
		Name:        name,
		Details:     normalized,
		IsDefault:   isDefault,
	}, nil
}

// DetailString returns a string field of the payload, or "".
func (pm *PaymentMethod) DetailString(key string) string {
	var m map[string]any
	if err := json.Unmarshal(pm.Details, &m); err != nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func validateDetails(methodType PaymentMethodType, details json.RawMessage) (json.RawMessage, error) {
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	var payload map[string]any
	if err := json.Unmarshal(details, &payload); err != nil || payload == nil {
		return nil, shared.NewDomainError("INVALID_DETAILS", "Details must be a JSON object")
	}
	for _, key := range requiredDetails[methodType] {
		v, ok := payload[key].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, shared.NewDomainError("INVALID_DETAILS", fmt.Sprintf("%s requires details.%s", methodType, key))
		}
	}
	if methodType == PaymentMethodTypeBankAccount {
		iban := strings.ToUpper(strings.ReplaceAll(payload["iban"].(string), " ", ""))
		if !ValidIBAN(iban) {
			return nil, shared.NewDomainError("INVALID_IBAN", "IBAN checksum is invalid")
		}
		payload["iban"] = iban
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DETAILS", "Details could not be encoded")
	}
	return out, nil
}
