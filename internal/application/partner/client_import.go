package partner

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/csvimport"
)

// Client import errors
var (
	ErrImportFile    = shared.NewDomainError("IMPORT_INVALID_FILE", "File is not a readable CSV")
	ErrImportInvalid = shared.NewDomainError("IMPORT_INVALID", "Import file has invalid rows; nothing was imported")
)

// ClientImportColumns lists the recognized columns; only name is required.
// cc_emails holds addresses separated by semicolons.
var ClientImportColumns = []string{
	"name", "email", "company_name", "phone", "contact_person",
	"street", "city", "state", "postal_code", "country",
	"cc_emails", "registration_number", "vat_number", "preferred_currency", "notes",
}

const maxImportErrors = 100

// ClientImportResult reports the outcome of an import. Errors is set when
// validation failed, in which case nothing was written.
type ClientImportResult struct {
	TotalRows   int                  `json:"total_rows"`
	ValidRows   int                  `json:"valid_rows"`
	ErrorRows   int                  `json:"error_rows"`
	Imported    int                  `json:"imported"`
	DryRun      bool                 `json:"dry_run"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"total_errors,omitempty"`
	Truncated   bool                 `json:"truncated,omitempty"`
	Clients     []ClientResponse     `json:"clients,omitempty"`
}

var clientImportRules = []csvimport.FieldRule{
	csvimport.Field("name").Required().MaxLength(200).Build(),
	csvimport.Field("email").Email().MaxLength(200).Unique().Build(),
	csvimport.Field("company_name").MaxLength(200).Build(),
	csvimport.Field("phone").MaxLength(50).Build(),
	csvimport.Field("contact_person").MaxLength(200).Build(),
	csvimport.Field("street").MaxLength(300).Build(),
	csvimport.Field("city").MaxLength(100).Build(),
	csvimport.Field("state").MaxLength(100).Build(),
	csvimport.Field("postal_code").MaxLength(20).Build(),
	csvimport.Field("country").MaxLength(100).Build(),
	csvimport.Field("cc_emails").Check(checkCCEmails).Build(),
	csvimport.Field("registration_number").MaxLength(50).Build(),
	csvimport.Field("vat_number").MaxLength(50).Build(),
	csvimport.Field("preferred_currency").Check(func(v string) error {
		_, err := valueobject.ParseCurrency(v)
		return err
	}).Build(),
	csvimport.Field("notes").MaxLength(2000).Build(),
}

func splitCCEmails(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func checkCCEmails(v string) error {
	emails := splitCCEmails(v)
	if len(emails) > partner.MaxCCEmails {
		return fmt.Errorf("at most %d cc addresses", partner.MaxCCEmails)
	}
	for _, e := range emails {
		if _, err := mail.ParseAddress(e); err != nil {
			return fmt.Errorf("invalid cc address %q", e)
		}
	}
	return nil
}

// Import reads clients from a CSV file. Every row is validated first; the
// clients are only created, in one transaction, when all rows are valid.
// With dryRun the validated clients are returned without being saved.
func (s *ClientService) Import(ctx context.Context, ownerID uuid.UUID, r io.Reader, dryRun bool) (*ClientImportResult, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, ErrImportFile.WithDetails(err.Error())
	}
	if missing := parser.MissingHeaders([]string{"name"}); len(missing) > 0 {
		return nil, ErrImportFile.WithDetails(map[string][]string{"missing_columns": missing})
	}
	rows, err := parser.ReadAll()
	if err != nil {
		return nil, ErrImportFile.WithDetails(err.Error())
	}

	validator := csvimport.NewValidator(clientImportRules, maxImportErrors)
	clients := make([]*partner.Client, 0, len(rows))
	for _, row := range rows {
		if !validator.Validate(row) {
			continue
		}
		client, err := partner.NewClient(ownerID, clientInputFromRow(row))
		if err != nil {
			validator.Errors().Add(csvimport.RowError{Line: row.Line, Code: csvimport.CodeInvalidValue, Message: err.Error()})
			continue
		}
		clients = append(clients, client)
	}

	result := &ClientImportResult{
		TotalRows: len(rows),
		ErrorRows: validator.Errors().Lines(),
		DryRun:    dryRun,
	}
	result.ValidRows = result.TotalRows - result.ErrorRows
	if errs := validator.Errors(); errs.HasErrors() {
		result.Errors = errs.Errors()
		result.TotalErrors = errs.Total()
		result.Truncated = errs.Truncated()
		return nil, ErrImportInvalid.WithDetails(result)
	}

	if !dryRun {
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			for _, c := range clients {
				if err := s.clientRepo.Save(ctx, c); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		result.Imported = len(clients)
		s.logger.Info("Clients imported",
			zap.String("owner_id", ownerID.String()),
			zap.Int("count", len(clients)),
		)
	}

	result.Clients = make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		result.Clients = append(result.Clients, ToClientResponse(c))
	}
	return result, nil
}

func clientInputFromRow(row *csvimport.Row) partner.ClientInput {
	currency, _ := valueobject.ParseCurrency(row.Get("preferred_currency"))
	return partner.ClientInput{
		Name:          row.Get("name"),
		Email:         row.Get("email"),
		CompanyName:   row.Get("company_name"),
		Phone:         row.Get("phone"),
		ContactPerson: row.Get("contact_person"),
		Address: AddressDTO{
			Street:     row.Get("street"),
			City:       row.Get("city"),
			State:      row.Get("state"),
			PostalCode: row.Get("postal_code"),
			Country:    row.Get("country"),
		}.toDomain(),
		CCEmails:           splitCCEmails(row.Get("cc_emails")),
		RegistrationNumber: row.Get("registration_number"),
		VATNumber:          row.Get("vat_number"),
		PreferredCurrency:  currency,
		Notes:              row.Get("notes"),
	}
}
