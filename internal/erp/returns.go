package erp

import (
	"context"
)

// ListSalesReturns fetches a page of sales returns.
func (s *Service) ListSalesReturns(ctx context.Context, params ListParams) (*ListResult[SalesReturn], error) {
	var resp APIResponse[ListResult[SalesReturn]]
	if err := s.api.Get(ctx, "/api/sales/returns"+params.query(), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, envelopeErr(resp.Message)
	}
	return &resp.Data, nil
}
