package wallet

import (
	"context"
	"fmt"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Gateway settles orders from the buyer's stored-value balance. It performs
// no network I/O; everything happens in one database transaction.
type Gateway struct {
	settlements domainRepo.SettlementRepository
	logger      *zap.Logger
}

// NewGateway creates the wallet gateway
func NewGateway(settlements domainRepo.SettlementRepository, logger *zap.Logger) *Gateway {
	return &Gateway{
		settlements: settlements,
		logger:      logger,
	}
}

func (g *Gateway) Method() model.PaymentMethod {
	return model.PaymentMethodWallet
}

// Initiate debits the wallet and moves the order to PROCESSING
func (g *Gateway) Initiate(ctx context.Context, req *provider.InitiateRequest) (*provider.InitiateResult, error) {
	payment := &model.Payment{}
	if len(req.Metadata) > 0 {
		payment.Metadata = datatypes.JSONMap(req.Metadata)
	}

	ledger, err := g.settlements.SettleWithWallet(ctx, domainRepo.WalletSettlement{
		Order:   req.Order,
		Payment: payment,
		Note:    fmt.Sprintf("Payment for order %s", req.Order.Reference),
	})
	if err != nil {
		return nil, err
	}

	return &provider.InitiateResult{
		SettledSynchronously: true,
		Payment:              payment,
		ProviderData: map[string]interface{}{
			"wallet_transaction_id": ledger.ID,
			"balance_after":         ledger.BalanceAfter.String(),
		},
	}, nil
}
