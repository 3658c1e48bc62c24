package wallet_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/provider/wallet"
)

type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) SettleWithWallet(ctx context.Context, settlement domainRepo.WalletSettlement) (*model.WalletTransaction, error) {
	args := m.Called(ctx, settlement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockSettlementRepository) ConfirmPayment(ctx context.Context, externalID string) (*model.Order, bool, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Bool(1), args.Error(2)
}

func (m *MockSettlementRepository) FailPayment(ctx context.Context, externalID string) (*model.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func TestGateway_Initiate(t *testing.T) {
	ctx := context.Background()
	order := &model.Order{
		ID:        uuid.New(),
		Reference: "V1StGXR8_Z5jdHi6B-myT",
		UserID:    uuid.New(),
		Price:     decimal.RequireFromString("21.58"),
		Currency:  "USD",
		Status:    model.OrderStatusPendingPayment,
	}

	t.Run("settles synchronously", func(t *testing.T) {
		repo := new(MockSettlementRepository)
		gateway := wallet.NewGateway(repo, zap.NewNop())

		repo.On("SettleWithWallet", ctx, mock.MatchedBy(func(s domainRepo.WalletSettlement) bool {
			return s.Order == order && s.Note == "Payment for order V1StGXR8_Z5jdHi6B-myT"
		})).Return(&model.WalletTransaction{
			ID:           7,
			Type:         model.WalletTransactionDebit,
			Amount:       order.Price,
			BalanceAfter: decimal.RequireFromString("78.42"),
		}, nil)

		result, err := gateway.Initiate(ctx, &provider.InitiateRequest{
			Order:    order,
			Metadata: map[string]interface{}{"coupon_code": "SAVE10"},
		})

		require.NoError(t, err)
		assert.True(t, result.SettledSynchronously)
		require.NotNil(t, result.Payment)
		assert.Equal(t, "SAVE10", result.Payment.Metadata["coupon_code"])
		assert.Equal(t, "78.42", result.ProviderData["balance_after"])
		assert.Empty(t, result.CheckoutURL)
		repo.AssertExpectations(t)
	})

	t.Run("propagates insufficient funds", func(t *testing.T) {
		repo := new(MockSettlementRepository)
		gateway := wallet.NewGateway(repo, zap.NewNop())

		repo.On("SettleWithWallet", ctx, mock.Anything).
			Return(nil, domainErrors.NewInsufficientFundsError(order.Price, decimal.RequireFromString("5.00")))

		result, err := gateway.Initiate(ctx, &provider.InitiateRequest{Order: order})

		assert.Nil(t, result)
		assert.True(t, domainErrors.IsInsufficientFunds(err))
	})

	t.Run("propagates blocked account", func(t *testing.T) {
		repo := new(MockSettlementRepository)
		gateway := wallet.NewGateway(repo, zap.NewNop())

		repo.On("SettleWithWallet", ctx, mock.Anything).Return(nil, domainErrors.ErrAccountBlocked)

		_, err := gateway.Initiate(ctx, &provider.InitiateRequest{Order: order})

		assert.ErrorIs(t, err, domainErrors.ErrAccountBlocked)
	})
}
