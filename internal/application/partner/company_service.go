package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
)

// CompanyService manages the user's issuing companies and their payment
// methods. It keeps exactly one default company per user.
type CompanyService struct {
	tx           shared.Transactor
	companyRepo  partner.CompanyRepository
	methodRepo   partner.PaymentMethodRepository
	defaultTerms int
	logger       *zap.Logger
}

// NewCompanyService creates a new CompanyService. defaultTerms applies to
// companies created without payment terms.
func NewCompanyService(
	tx shared.Transactor,
	companyRepo partner.CompanyRepository,
	methodRepo partner.PaymentMethodRepository,
	defaultTerms int,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		tx:           tx,
		companyRepo:  companyRepo,
		methodRepo:   methodRepo,
		defaultTerms: defaultTerms,
		logger:       logger,
	}
}

// Create creates a company. The first company of a user is always the default.
func (s *CompanyService) Create(ctx context.Context, ownerID uuid.UUID, req CreateCompanyRequest) (*CompanyResponse, error) {
	terms := s.defaultTerms
	if req.PaymentTermsDays != nil {
		terms = *req.PaymentTermsDays
	}

	var company *partner.Company
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		count, err := s.companyRepo.Count(ctx, ownerID)
		if err != nil {
			return err
		}
		company, err = partner.NewCompany(ownerID, partner.CompanyInput{
			Name:               req.Name,
			LegalName:          req.LegalName,
			Address:            req.Address.toDomain(),
			TaxCode:            req.TaxCode,
			RegistrationNumber: req.RegistrationNumber,
			Email:              req.Email,
			Phone:              req.Phone,
			Website:            req.Website,
			BankName:           req.BankName,
			IBAN:               req.IBAN,
			SWIFT:              req.SWIFT,
			DefaultCurrency:    valueobject.Currency(req.DefaultCurrency),
			PaymentTermsDays:   terms,
			IsDefault:          req.IsDefault || count == 0,
		})
		if err != nil {
			return err
		}
		if err := s.companyRepo.Save(ctx, company); err != nil {
			return err
		}
		if company.IsDefault {
			return s.companyRepo.ClearDefault(ctx, ownerID, company.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCompanyResponse(company)
	return &resp, nil
}

// GetByID retrieves a company
func (s *CompanyService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*CompanyResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCompanyResponse(company)
	return &resp, nil
}

// List returns all companies of the user, default first
func (s *CompanyService) List(ctx context.Context, ownerID uuid.UUID) ([]CompanyResponse, error) {
	companies, err := s.companyRepo.FindAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return lo.Map(companies, func(c partner.Company, _ int) CompanyResponse {
		return ToCompanyResponse(&c)
	}), nil
}

// Update applies a partial update. Setting is_default moves the flag to this
// company; clearing it on the only company is ignored.
func (s *CompanyService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	var company *partner.Company
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companyRepo.FindByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		wasDefault := company.IsDefault
		if err := company.Update(req.toUpdate()); err != nil {
			return err
		}

		switch {
		case req.IsDefault != nil && *req.IsDefault && !wasDefault:
			company.MarkDefault()
			if err := s.companyRepo.ClearDefault(ctx, ownerID, company.ID); err != nil {
				return err
			}
		case req.IsDefault != nil && !*req.IsDefault && wasDefault:
			successor, err := s.companyRepo.FindOldest(ctx, ownerID, company.ID)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
			if successor == nil {
				break
			}
			company.IsDefault = false
			successor.MarkDefault()
			if err := s.companyRepo.Save(ctx, successor); err != nil {
				return err
			}
		}
		return s.companyRepo.Save(ctx, company)
	})
	if err != nil {
		return nil, err
	}

	resp := ToCompanyResponse(company)
	return &resp, nil
}

// Delete removes a company without invoices or subscriptions. Deleting the
// default promotes the oldest remaining company.
func (s *CompanyService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		company, err := s.companyRepo.FindByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		refs, err := s.companyRepo.CountReferences(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return shared.ErrConflict.WithDetails(map[string]int64{"references": refs})
		}
		if err := s.companyRepo.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		if !company.IsDefault {
			return nil
		}

		successor, err := s.companyRepo.FindOldest(ctx, ownerID, id)
		if shared.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		successor.MarkDefault()
		s.logger.Info("Default company promoted",
			zap.String("deleted_id", id.String()),
			zap.String("company_id", successor.ID.String()))
		return s.companyRepo.Save(ctx, successor)
	})
}

// ListPaymentMethods returns the payment methods of a company
func (s *CompanyService) ListPaymentMethods(ctx context.Context, ownerID, companyID uuid.UUID) ([]PaymentMethodResponse, error) {
	if _, err := s.companyRepo.FindByID(ctx, ownerID, companyID); err != nil {
		return nil, err
	}
	methods, err := s.methodRepo.FindByCompany(ctx, ownerID, companyID)
	if err != nil {
		return nil, err
	}
	return lo.Map(methods, func(m partner.PaymentMethod, _ int) PaymentMethodResponse {
		return ToPaymentMethodResponse(&m)
	}), nil
}

// AddPaymentMethod attaches a payment method to a company. The first method
// of a company becomes its default.
func (s *CompanyService) AddPaymentMethod(ctx context.Context, ownerID, companyID uuid.UUID, req PaymentMethodRequest) (*PaymentMethodResponse, error) {
	var method *partner.PaymentMethod
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		company, err := s.companyRepo.FindByID(ctx, ownerID, companyID)
		if err != nil {
			return err
		}
		existing, err := s.methodRepo.FindByCompany(ctx, ownerID, companyID)
		if err != nil {
			return err
		}
		method, err = partner.NewPaymentMethod(company, partner.PaymentMethodType(req.Type), req.Name, req.Details,
			req.IsDefault || len(existing) == 0)
		if err != nil {
			return err
		}
		if err := s.methodRepo.Save(ctx, method); err != nil {
			return err
		}
		if method.IsDefault {
			return s.methodRepo.ClearDefault(ctx, companyID, method.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToPaymentMethodResponse(method)
	return &resp, nil
}

// DeletePaymentMethod removes a payment method of a company
func (s *CompanyService) DeletePaymentMethod(ctx context.Context, ownerID, companyID, methodID uuid.UUID) error {
	method, err := s.methodRepo.FindByID(ctx, ownerID, methodID)
	if err != nil {
		return err
	}
	if method.CompanyID != companyID {
		return shared.ErrNotFound
	}
	return s.methodRepo.Delete(ctx, ownerID, methodID)
}
