package erp

import (
	"context"
)

// Me fetches the authenticated user's profile.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	var resp APIResponse[Profile]
	if err := s.api.Get(ctx, "/api/account/me", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, envelopeErr(resp.Message)
	}
	return &resp.Data, nil
}
