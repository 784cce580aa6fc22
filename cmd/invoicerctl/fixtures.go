package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/invoicer/backend/internal/application/billing"
	catalogapp "github.com/invoicer/backend/internal/application/catalog"
	partnerapp "github.com/invoicer/backend/internal/application/partner"
)

// currencies used for generated records; all are accepted by the currency validator
var seedCurrencies = []string{"EUR", "USD", "GBP", "CHF"}

var seedCategories = []string{"DEVELOPMENT", "DESIGN", "CONSULTING", "HOSTING", "MAINTENANCE", "SUPPORT"}

var seedCycles = []string{"MONTHLY", "MONTHLY", "QUARTERLY", "YEARLY"}

// fixtures draws demo records from a seeded faker so a seed run is repeatable
type fixtures struct {
	faker    *gofakeit.Faker
	currency string
}

func newFixtures(seed uint64, currency string) *fixtures {
	return &fixtures{faker: gofakeit.New(seed), currency: currency}
}

func (f *fixtures) address() partnerapp.AddressDTO {
	addr := f.faker.Address()
	return partnerapp.AddressDTO{
		Street:     addr.Street,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.Zip,
		Country:    addr.Country,
	}
}

func (f *fixtures) company() partnerapp.CreateCompanyRequest {
	name := f.faker.Company()
	terms := 14
	return partnerapp.CreateCompanyRequest{
		Name:               name,
		LegalName:          name + " " + f.faker.CompanySuffix(),
		Address:            f.address(),
		TaxCode:            fmt.Sprintf("VAT%09d", f.faker.Number(0, 999999999)),
		RegistrationNumber: fmt.Sprintf("REG-%06d", f.faker.Number(0, 999999)),
		Email:              "billing@" + f.faker.DomainName(),
		Phone:              f.faker.Phone(),
		BankName:           f.faker.Company() + " Bank",
		IBAN:               f.faker.AchAccount(),
		SWIFT:              "DEMOXX22",
		DefaultCurrency:    f.currency,
		PaymentTermsDays:   &terms,
	}
}

func (f *fixtures) client() partnerapp.ClientRequest {
	person := f.faker.Person()
	company := f.faker.Company()
	return partnerapp.ClientRequest{
		Name:              company,
		Email:             person.Contact.Email,
		CompanyName:       company,
		Phone:             person.Contact.Phone,
		ContactPerson:     person.FirstName + " " + person.LastName,
		Address:           f.address(),
		PreferredCurrency: f.pick(seedCurrencies),
		Notes:             f.faker.Sentence(8),
	}
}

func (f *fixtures) service() catalogapp.CreateServiceItemRequest {
	category := f.pick(seedCategories)
	cycle := f.pick(seedCycles)
	day := f.billingDay()
	return catalogapp.CreateServiceItemRequest{
		Name:              fmt.Sprintf("%s %s", f.faker.BuzzWord(), strings.ToLower(category)),
		Description:       f.faker.Sentence(10),
		Category:          category,
		DefaultPrice:      f.price(),
		Currency:          f.currency,
		IsRecurring:       true,
		BillingCycle:      cycle,
		DefaultBillingDay: &day,
	}
}

// subscription starts within the last few months so generation has work to do
func (f *fixtures) subscription(clientID, serviceID, companyID uuid.UUID, now time.Time) billingapp.CreateSubscriptionRequest {
	day := f.billingDay()
	start := now.AddDate(0, -f.faker.Number(0, 3), -f.faker.Number(0, 27))
	return billingapp.CreateSubscriptionRequest{
		ClientID:     clientID,
		ServiceID:    serviceID,
		CompanyID:    &companyID,
		BillingDay:   &day,
		BillingCycle: f.pick(seedCycles),
		StartDate:    &billingapp.Date{Time: start},
		Notes:        "seeded",
	}
}

func (f *fixtures) billingDay() int {
	return f.faker.Number(1, 28)
}

func (f *fixtures) price() decimal.Decimal {
	cents := f.faker.Number(2500, 250000)
	return decimal.New(int64(cents), -2)
}

func (f *fixtures) pick(values []string) string {
	return values[f.faker.Number(0, len(values)-1)]
}
