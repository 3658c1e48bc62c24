package usecase

import (
	"context"
	"strings"

	"github.com/wekeepgrowing/likes-market/internal/config"
	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// maxProviderBatch is the largest id list the provider accepts in one call
const maxProviderBatch = 100

// ProviderOpsService exposes operator actions against the fulfillment provider
type ProviderOpsService struct {
	provider   provider.FulfillmentProvider
	categories config.CategoryMap
	logger     *zap.Logger
}

// NewProviderOpsService creates a new provider operations service
func NewProviderOpsService(fulfillmentProvider provider.FulfillmentProvider, categories config.CategoryMap, logger *zap.Logger) *ProviderOpsService {
	return &ProviderOpsService{
		provider:   fulfillmentProvider,
		categories: categories,
		logger:     logger,
	}
}

// Balance returns the provider account balance
func (s *ProviderOpsService) Balance(ctx context.Context) (*provider.AccountBalance, error) {
	return s.provider.Balance(ctx)
}

// Services returns the provider catalog. A platform restricts the result to
// the categories mapped to it; a platform without a mapping yields nothing.
func (s *ProviderOpsService) Services(ctx context.Context, platform string) ([]*provider.CatalogService, error) {
	services, err := s.provider.Services(ctx)
	if err != nil {
		return nil, err
	}
	if platform == "" {
		return services, nil
	}

	allowed := s.categories.Categories(platform)
	filtered := make([]*provider.CatalogService, 0)
	for _, service := range services {
		for _, category := range allowed {
			if strings.EqualFold(strings.TrimSpace(service.Category), strings.TrimSpace(category)) {
				filtered = append(filtered, service)
				break
			}
		}
	}

	s.logger.Debug("Filtered provider catalog",
		zap.String("platform", platform),
		zap.Int("total", len(services)),
		zap.Int("matched", len(filtered)))
	return filtered, nil
}

// Refill requests refills for upstream orders
func (s *ProviderOpsService) Refill(ctx context.Context, upstreamIDs []string) ([]*provider.RefillResult, error) {
	if err := validateBatch("order_ids", upstreamIDs); err != nil {
		return nil, err
	}
	results, err := s.provider.Refill(ctx, upstreamIDs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Refill requested", zap.Strings("upstream_order_ids", upstreamIDs))
	return results, nil
}

// RefillStatus reports the state of refills
func (s *ProviderOpsService) RefillStatus(ctx context.Context, refillIDs []string) ([]*provider.RefillStatusResult, error) {
	if err := validateBatch("refill_ids", refillIDs); err != nil {
		return nil, err
	}
	return s.provider.RefillStatus(ctx, refillIDs)
}

// Cancel requests cancellation of upstream orders. Local status follows
// through reconciliation once the provider reports it.
func (s *ProviderOpsService) Cancel(ctx context.Context, upstreamIDs []string) ([]*provider.CancelResult, error) {
	if err := validateBatch("order_ids", upstreamIDs); err != nil {
		return nil, err
	}
	results, err := s.provider.Cancel(ctx, upstreamIDs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cancellation requested", zap.Strings("upstream_order_ids", upstreamIDs))
	return results, nil
}

func validateBatch(field string, ids []string) error {
	if len(ids) == 0 {
		return customErr.NewValidationError(field, "must not be empty")
	}
	if len(ids) > maxProviderBatch {
		return customErr.NewValidationError(field, "at most 100 ids per request")
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return customErr.NewValidationError(field, "must not contain empty ids")
		}
	}
	return nil
}
