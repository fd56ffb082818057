package services

import (
	"context"
	"fmt"

	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
)

// HealthService checks that the rate store is reachable.
type HealthService struct {
	BaseService
	pinger portsrepo.Pinger
}

func NewHealthService(pinger portsrepo.Pinger) *HealthService {
	return &HealthService{pinger: pinger}
}

func (s *HealthService) Check(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		s.LogError(ctx, err, "Rate store ping failed")
		return fmt.Errorf("rate store unreachable: %w", err)
	}
	return nil
}
