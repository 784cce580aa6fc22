package middleware

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriptionForm struct {
	Email      string  `json:"email" binding:"required,email"`
	Currency   string  `json:"currency" binding:"omitempty,currency"`
	BillingDay *int    `json:"billing_day" binding:"omitempty,billing_day"`
	Target     *string `json:"target_currency" binding:"omitempty,currency"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())
}

func TestCustomValidations(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name   string
		form   subscriptionForm
		fields []string
	}{
		{"valid", subscriptionForm{Email: "a@b.test", Currency: "eur", BillingDay: intPtr(31)}, nil},
		{"empty optional fields", subscriptionForm{Email: "a@b.test"}, nil},
		{"unknown currency", subscriptionForm{Email: "a@b.test", Currency: "XYZ"}, []string{"currency"}},
		{"billing day zero", subscriptionForm{Email: "a@b.test", BillingDay: intPtr(0)}, []string{"billing_day"}},
		{"billing day 32", subscriptionForm{Email: "a@b.test", BillingDay: intPtr(32)}, []string{"billing_day"}},
		{"blank pointer currency", subscriptionForm{Email: "a@b.test", Target: strPtr(" ")}, []string{"target_currency"}},
		{"missing email", subscriptionForm{Currency: "USD"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			details := ValidationDetails(err)
			require.Len(t, details, len(tt.fields))
			for i, field := range tt.fields {
				assert.Equal(t, field, details[i].Field)
			}
		})
	}
}

func TestValidationDetails_Messages(t *testing.T) {
	v := newValidator()
	err := v.Struct(subscriptionForm{Email: "nope", Currency: "ABC", BillingDay: intPtr(40)})

	details := ValidationDetails(err)
	require.Len(t, details, 3)
	assert.Equal(t, "Invalid email format", details[0].Message)
	assert.Equal(t, "Unsupported currency code", details[1].Message)
	assert.Equal(t, "Must be a day between 1 and 31", details[2].Message)
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
