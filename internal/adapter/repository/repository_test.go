package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func pendingOrder(userID uuid.UUID, price string) *model.Order {
	return &model.Order{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "USD",
		Price:    decimal.RequireFromString(price),
		Status:   model.OrderStatusPendingPayment,
	}
}

func orderRows(id uuid.UUID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status"}).AddRow(id, status)
}

func userRows(id uuid.UUID, balance string, blocked bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "balance", "blocked"}).
		AddRow(id, "buyer@example.com", balance, blocked)
}

func TestSettleWithWallet_InsufficientFunds(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	userID := uuid.New()
	order := pendingOrder(userID, "21.58")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(userRows(userID, "10.00", false))
	mock.ExpectRollback()

	ledger, err := repo.SettleWithWallet(context.Background(), domainRepo.WalletSettlement{
		Order:   order,
		Payment: &model.Payment{},
	})

	assert.Nil(t, ledger)
	var insufficient *domainErrors.InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "10", insufficient.Available.String())
	assert.Equal(t, model.OrderStatusPendingPayment, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleWithWallet_BlockedAccount(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(userRows(userID, "100.00", true))
	mock.ExpectRollback()

	_, err := repo.SettleWithWallet(context.Background(), domainRepo.WalletSettlement{
		Order:   pendingOrder(userID, "5"),
		Payment: &model.Payment{},
	})

	assert.ErrorIs(t, err, domainErrors.ErrAccountBlocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleWithWallet_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	userID := uuid.New()
	order := pendingOrder(userID, "21.58")
	payment := &model.Payment{}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" .* FOR UPDATE`).
		WillReturnRows(userRows(userID, "30.00", false))
	mock.ExpectQuery(`SELECT \* FROM "orders" .* FOR UPDATE`).
		WillReturnRows(orderRows(order.ID, "PENDING_PAYMENT"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "balance"=`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "wallet_transactions"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments" SET "status"=`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ledger, err := repo.SettleWithWallet(context.Background(), domainRepo.WalletSettlement{
		Order:   order,
		Payment: payment,
		Note:    "order payment",
	})

	require.NoError(t, err)
	assert.Equal(t, model.WalletTransactionDebit, ledger.Type)
	assert.True(t, ledger.Amount.Equal(decimal.RequireFromString("21.58")))
	assert.True(t, ledger.BalanceAfter.Equal(decimal.RequireFromString("8.42")))
	assert.Equal(t, model.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, model.PaymentMethodWallet, payment.Gateway)
	assert.Equal(t, order.ID, payment.OrderID)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleWithWallet_OrderAlreadySettled(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	userID := uuid.New()
	order := pendingOrder(userID, "5")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(userRows(userID, "30.00", false))
	mock.ExpectQuery(`SELECT \* FROM "orders" .* FOR UPDATE`).
		WillReturnRows(orderRows(order.ID, "PROCESSING"))
	mock.ExpectRollback()

	_, err := repo.SettleWithWallet(context.Background(), domainRepo.WalletSettlement{
		Order:   order,
		Payment: &model.Payment{},
	})

	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePending_PendingOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB, zap.NewNop())

	orderID := uuid.New()
	now := time.Now()
	externalID := "inv_2"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" .* FOR UPDATE`).
		WillReturnRows(orderRows(orderID, "PENDING_PAYMENT"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments" SET "status"=`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	payment := &model.Payment{
		OrderID:    orderID,
		Gateway:    model.PaymentMethodCrypto,
		ExternalID: &externalID,
		Amount:     decimal.RequireFromString("21.58"),
		Currency:   "USD",
	}
	err := repo.CreatePending(context.Background(), payment)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.NotEqual(t, uuid.Nil, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePending_OrderAlreadySettled(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewPaymentRepository(gormDB, zap.NewNop())

	orderID := uuid.New()

	// A wallet payment won the race; the invoice must not be recorded
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "orders" .* FOR UPDATE`).
		WillReturnRows(orderRows(orderID, "PROCESSING"))
	mock.ExpectRollback()

	err := repo.CreatePending(context.Background(), &model.Payment{
		OrderID: orderID,
		Gateway: model.PaymentMethodHostedCard,
	})

	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPayment_TransitionsPendingOrder(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	orderID := uuid.New()
	paymentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "order_id" FROM "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(orderID))
	mock.ExpectQuery(`SELECT \* FROM "orders" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price"}).
			AddRow(orderID, "PENDING_PAYMENT", "21.58"))
	mock.ExpectQuery(`SELECT \* FROM "payments" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "gateway", "external_id", "amount", "currency", "status"}).
			AddRow(paymentID, orderID, "crypto", "inv_1", "21.58", "USD", "PENDING"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, transitioned, err := repo.ConfirmPayment(context.Background(), "inv_1")

	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.Equal(t, model.PaymentMethodCrypto, order.PaymentMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPayment_RepeatedIsNoop(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "order_id" FROM "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(orderID))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(orderID, "PROCESSING"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "status"}).
			AddRow(uuid.New(), orderID, "SUCCESS"))
	mock.ExpectCommit()

	order, transitioned, err := repo.ConfirmPayment(context.Background(), "inv_1")

	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPayment_UnknownExternalID(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewSettlementRepository(gormDB, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "order_id" FROM "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectRollback()

	_, _, err := repo.ConfirmPayment(context.Background(), "missing")

	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyReconciliation(t *testing.T) {
	t.Run("moves processing order", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewOrderRepository(gormDB, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		completed := model.OrderStatusCompleted
		changed, err := repo.ApplyReconciliation(context.Background(), domainRepo.ReconcileUpdate{
			OrderID:        uuid.New(),
			UpstreamStatus: "Completed",
			NewStatus:      &completed,
			CheckedAt:      time.Now(),
		})

		require.NoError(t, err)
		assert.True(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("records raw status without moving", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewOrderRepository(gormDB, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		changed, err := repo.ApplyReconciliation(context.Background(), domainRepo.ReconcileUpdate{
			OrderID:        uuid.New(),
			UpstreamStatus: "In progress",
			CheckedAt:      time.Now(),
		})

		require.NoError(t, err)
		assert.False(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order left processing concurrently", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewOrderRepository(gormDB, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		failed := model.OrderStatusFailed
		changed, err := repo.ApplyReconciliation(context.Background(), domainRepo.ReconcileUpdate{
			OrderID:        uuid.New(),
			UpstreamStatus: "Failed",
			NewStatus:      &failed,
			CheckedAt:      time.Now(),
		})

		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestGetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewOrderRepository(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.GetByID(context.Background(), uuid.New())

	assert.Nil(t, order)
	assert.ErrorIs(t, err, domainErrors.ErrOrderNotFound)
}

func TestCouponRepository(t *testing.T) {
	t.Run("unknown code yields nil", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewCouponRepository(gormDB, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
			WillReturnRows(sqlmock.NewRows([]string{}))

		coupon, err := repo.GetActiveByCode(context.Background(), "save10")
		assert.NoError(t, err)
		assert.Nil(t, coupon)
	})

	t.Run("records redemption and increments counter", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewCouponRepository(gormDB, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "coupon_redemptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "coupon_redemptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "redeemed_at"}).AddRow(1, time.Now()))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons" SET "redemption_count"=redemption_count + $1`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.RecordRedemption(context.Background(), &model.CouponRedemption{
			CouponID:       uuid.New(),
			UserID:         uuid.New(),
			OrderID:        uuid.New(),
			DiscountAmount: decimal.RequireFromString("2.398"),
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second redemption for the same order is rejected", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := NewCouponRepository(gormDB, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "coupon_redemptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.RecordRedemption(context.Background(), &model.CouponRedemption{
			CouponID: uuid.New(),
			UserID:   uuid.New(),
			OrderID:  uuid.New(),
		})
		assert.ErrorIs(t, err, domainErrors.ErrAlreadyRedeemed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_LedgerSum(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewWalletRepository(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT SUM(CASE WHEN type =`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("12.50"))

	sum, err := repo.LedgerSum(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("12.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsellRepository_EmptyIDs(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewUpsellRepository(gormDB)

	upsells, err := repo.FindActiveByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, upsells)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTruncateRunes(t *testing.T) {
	short := "Incorrect service ID"
	assert.Equal(t, short, truncateRunes(short, 500))

	long := strings.Repeat("잔액 부족", 120)
	cut := truncateRunes(long, 500)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 500, utf8.RuneCountInString(cut))
	assert.True(t, strings.HasPrefix(long, cut))
}
