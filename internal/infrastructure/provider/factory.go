package provider

import (
	"fmt"

	"github.com/wekeepgrowing/likes-market/internal/config"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	cryptoGateway "github.com/wekeepgrowing/likes-market/internal/infrastructure/provider/crypto"
	embeddedGateway "github.com/wekeepgrowing/likes-market/internal/infrastructure/provider/embedded"
	stripeGateway "github.com/wekeepgrowing/likes-market/internal/infrastructure/provider/stripe"
	walletGateway "github.com/wekeepgrowing/likes-market/internal/infrastructure/provider/wallet"
	"go.uber.org/zap"
)

// Factory builds payment gateways from configuration
type Factory struct {
	config      config.GatewaysConfig
	settlements domainRepo.SettlementRepository
	logger      *zap.Logger
}

// NewFactory creates a new gateway factory
func NewFactory(cfg config.GatewaysConfig, settlements domainRepo.SettlementRepository, logger *zap.Logger) *Factory {
	return &Factory{
		config:      cfg,
		settlements: settlements,
		logger:      logger,
	}
}

// GetGateway returns the gateway serving the payment method
func (f *Factory) GetGateway(method model.PaymentMethod) (provider.PaymentGateway, error) {
	switch method {
	case model.PaymentMethodWallet:
		return walletGateway.NewGateway(f.settlements, f.logger.Named("wallet")), nil
	case model.PaymentMethodCrypto:
		return f.createCryptoGateway()
	case model.PaymentMethodHostedCard:
		return f.createStripeGateway()
	case model.PaymentMethodEmbeddedCard:
		return f.createEmbeddedGateway()
	default:
		return nil, fmt.Errorf("unsupported payment method: %s", method)
	}
}

func (f *Factory) createCryptoGateway() (provider.PaymentGateway, error) {
	c := f.config.Crypto
	if c.BaseURL == "" || c.MerchantID == "" || c.APIKey == "" {
		return nil, fmt.Errorf("crypto gateway not configured")
	}

	return cryptoGateway.NewGateway(c.BaseURL, c.MerchantID, c.APIKey, c.Timeout, f.logger.Named("crypto")), nil
}

func (f *Factory) createStripeGateway() (provider.PaymentGateway, error) {
	if f.config.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("hosted card gateway not configured")
	}

	return stripeGateway.NewGateway(f.config.Stripe.SecretKey, f.config.Stripe.SessionTTL, f.config.Stripe.Timeout, f.logger.Named("stripe")), nil
}

func (f *Factory) createEmbeddedGateway() (provider.PaymentGateway, error) {
	c := f.config.Embedded
	if c.BaseURL == "" || c.SecretKey == "" {
		return nil, fmt.Errorf("embedded card gateway not configured")
	}

	return embeddedGateway.NewGateway(c.BaseURL, c.SecretKey, c.Timeout, f.logger.Named("embedded")), nil
}
