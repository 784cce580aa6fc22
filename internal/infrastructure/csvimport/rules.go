package csvimport

import (
	"fmt"
	"net/mail"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

// Column types
const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeEmail   FieldType = "email"
)

// FieldRule describes the checks applied to one column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	Unique    bool
	Check     func(value string) error
}

// FieldRuleBuilder builds a FieldRule fluently:
//
//	csvimport.Field("email").Email().MaxLength(200).Unique().Build()
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column, typed as string
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required rejects blank values
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int expects an integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Email expects a single address
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// MaxLength caps the value length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Unique rejects a value already seen in an earlier row of the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Check adds a custom check; its error message becomes the row error
func (b *FieldRuleBuilder) Check(fn func(value string) error) *FieldRuleBuilder {
	b.rule.Check = fn
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator applies rules row by row. It is not safe for concurrent use.
type Validator struct {
	rules  []FieldRule
	seen   map[string]map[string]int // column -> value -> first line
	errors *ErrorCollection
}

// NewValidator creates a validator keeping at most maxErrors errors
func NewValidator(rules []FieldRule, maxErrors int) *Validator {
	return &Validator{
		rules:  rules,
		seen:   make(map[string]map[string]int),
		errors: NewErrorCollection(maxErrors),
	}
}

// Validate checks row and reports whether it passed every rule
func (v *Validator) Validate(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				v.fail(row.Line, rule.Column, CodeRequired, "value is required", "")
				ok = false
			}
			continue
		}

		if err := checkType(value, rule.Type); err != nil {
			v.fail(row.Line, rule.Column, CodeInvalidType, fmt.Sprintf("expected %s", rule.Type), value)
			ok = false
			continue
		}
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.fail(row.Line, rule.Column, CodeInvalidLength,
				fmt.Sprintf("length must be at most %d", rule.MaxLength), "")
			ok = false
		}
		if rule.Check != nil {
			if err := rule.Check(value); err != nil {
				v.fail(row.Line, rule.Column, CodeInvalidValue, err.Error(), value)
				ok = false
			}
		}
		if rule.Unique && !v.firstSeen(row.Line, rule.Column, value) {
			ok = false
		}
	}
	return ok
}

func (v *Validator) firstSeen(line int, column, value string) bool {
	values := v.seen[column]
	if values == nil {
		values = make(map[string]int)
		v.seen[column] = values
	}
	if first, dup := values[value]; dup {
		v.fail(line, column, CodeDuplicate, fmt.Sprintf("duplicate of line %d", first), value)
		return false
	}
	values[value] = line
	return true
}

func (v *Validator) fail(line int, column, code, message, value string) {
	v.errors.Add(RowError{Line: line, Column: column, Code: code, Message: message, Value: value})
}

// Errors returns the collected errors
func (v *Validator) Errors() *ErrorCollection {
	return v.errors
}

func checkType(value string, t FieldType) error {
	switch t {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil {
			return err
		}
		if addr.Address != value {
			return fmt.Errorf("expected a bare address")
		}
	}
	return nil
}
