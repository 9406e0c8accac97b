package erp

import (
	"context"
	"fmt"

	"github.com/nexerp/ops-console/internal/apiclient"
)

// Service exposes the backend's REST resources through one api client.
type Service struct {
	api *apiclient.Client
}

// NewService wraps an api client.
func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// ListPurchaseOrders fetches a page of purchase orders.
func (s *Service) ListPurchaseOrders(ctx context.Context, params ListParams) (*ListResult[PurchaseOrder], error) {
	var resp APIResponse[ListResult[PurchaseOrder]]
	if err := s.api.Get(ctx, "/api/procurement/purchase-orders"+params.query(), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, envelopeErr(resp.Message)
	}
	return &resp.Data, nil
}

// GetPurchaseOrder fetches one purchase order by id.
func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	if id == "" {
		return nil, fmt.Errorf("purchase order id is required")
	}
	var resp APIResponse[PurchaseOrder]
	if err := s.api.Get(ctx, "/api/procurement/purchase-orders/"+id, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, envelopeErr(resp.Message)
	}
	return &resp.Data, nil
}
