package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
)

func TestWalletService_GetWallet(t *testing.T) {
	ctx := context.Background()
	wallets := new(MockWalletRepository)
	service := usecase.NewWalletService(wallets, zap.NewNop())

	user := &model.User{ID: uuid.New(), Balance: d("78.42")}
	now := time.Now()
	entries := []*model.WalletTransaction{
		{ID: 2, Type: model.WalletTransactionDebit, Amount: d("21.58"), BalanceAfter: d("78.42"), Note: "Payment for order abc", CreatedAt: now},
		{ID: 1, Type: model.WalletTransactionCredit, Amount: d("100.00"), BalanceAfter: d("100.00"), Note: "Wallet top-up", CreatedAt: now.Add(-time.Hour)},
	}
	wallets.On("GetUser", ctx, user.ID).Return(user, nil)
	wallets.On("History", ctx, user.ID, 20, 0).Return(entries, int64(3), nil)

	resp, err := service.GetWallet(ctx, user.ID, dto.PaginationInfo{})

	require.NoError(t, err)
	assert.True(t, d("78.42").Equal(resp.Balance))
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "DEBIT", resp.Transactions[0].Type)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 20, resp.Pagination.Limit)
	assert.True(t, resp.Pagination.HasMore)
}

func TestWalletService_Credit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("credits with a default note", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		service := usecase.NewWalletService(wallets, zap.NewNop())

		wallets.On("Credit", ctx, userID, d("25.00"), "Wallet top-up", "topup-1").Return(
			&model.User{ID: userID, Balance: d("25.00")},
			&model.WalletTransaction{Type: model.WalletTransactionCredit, Amount: d("25.00"), BalanceAfter: d("25.00"), Note: "Wallet top-up"},
			nil,
		)

		entry, err := service.Credit(ctx, userID, d("25.00"), "", "topup-1")

		require.NoError(t, err)
		assert.Equal(t, "CREDIT", entry.Type)
		assert.True(t, d("25").Equal(entry.BalanceAfter))
	})

	t.Run("rejects non-positive and sub-cent amounts", func(t *testing.T) {
		service := usecase.NewWalletService(new(MockWalletRepository), zap.NewNop())

		var validationErr *customErr.ValidationError
		_, err := service.Credit(ctx, userID, d("0"), "", "")
		assert.True(t, errors.As(err, &validationErr))

		_, err = service.Credit(ctx, userID, d("-5"), "", "")
		assert.True(t, errors.As(err, &validationErr))

		_, err = service.Credit(ctx, userID, d("1.005"), "", "")
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestWalletService_VerifyBalance(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("consistent", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		service := usecase.NewWalletService(wallets, zap.NewNop())
		wallets.On("GetUser", ctx, userID).Return(&model.User{ID: userID, Balance: d("78.42")}, nil)
		wallets.On("LedgerSum", ctx, userID).Return(d("78.42"), nil)

		audit, err := service.VerifyBalance(ctx, userID)

		require.NoError(t, err)
		assert.True(t, audit.Consistent)
		assert.True(t, audit.Drift.IsZero())
	})

	t.Run("drift is reported", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		service := usecase.NewWalletService(wallets, zap.NewNop())
		wallets.On("GetUser", ctx, userID).Return(&model.User{ID: userID, Balance: d("80.00")}, nil)
		wallets.On("LedgerSum", ctx, userID).Return(d("78.42"), nil)

		audit, err := service.VerifyBalance(ctx, userID)

		require.NoError(t, err)
		assert.False(t, audit.Consistent)
		assert.True(t, d("1.58").Equal(audit.Drift))
	})

	t.Run("unknown user", func(t *testing.T) {
		wallets := new(MockWalletRepository)
		service := usecase.NewWalletService(wallets, zap.NewNop())
		wallets.On("GetUser", ctx, userID).Return(nil, customErr.ErrUserNotFound)

		_, err := service.VerifyBalance(ctx, userID)

		assert.ErrorIs(t, err, customErr.ErrUserNotFound)
	})
}
