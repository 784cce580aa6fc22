package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
)

// ClientService handles client-related business operations
type ClientService struct {
	tx         shared.Transactor
	clientRepo partner.ClientRepository
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(tx shared.Transactor, clientRepo partner.ClientRepository, logger *zap.Logger) *ClientService {
	return &ClientService{tx: tx, clientRepo: clientRepo, logger: logger}
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, ownerID uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(ownerID, req.toInput())
	if err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}

	resp := ToClientResponse(client)
	return &resp, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// List retrieves a page of clients
func (s *ClientService) List(ctx context.Context, ownerID uuid.UUID, filter ClientListFilter) ([]ClientResponse, int64, error) {
	clients, total, err := s.clientRepo.FindAll(ctx, ownerID, partner.ClientFilter{
		Filter:  toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		Country: filter.Country,
	})
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(clients, func(c partner.Client, _ int) ClientResponse {
		return ToClientResponse(&c)
	}), total, nil
}

// Update replaces all fields of a client
func (s *ClientService) Update(ctx context.Context, ownerID, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// Delete removes a client that nothing refers to
func (s *ClientService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.clientRepo.FindByID(ctx, ownerID, id); err != nil {
		return err
	}
	refs, err := s.clientRepo.CountReferences(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return shared.ErrConflict.WithDetails(map[string]int64{"references": refs})
	}
	if err := s.clientRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}
