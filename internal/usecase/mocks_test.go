package usecase_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
)

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindForReconciliation(ctx context.Context, limit int) ([]*model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAwaitingDispatch(ctx context.Context, limit int) ([]*model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ApplyReconciliation(ctx context.Context, update domainRepo.ReconcileUpdate) (bool, error) {
	args := m.Called(ctx, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkDispatched(ctx context.Context, id uuid.UUID, upstreamOrderID string, at time.Time) error {
	return m.Called(ctx, id, upstreamOrderID, at).Error(0)
}

func (m *MockOrderRepository) MarkDispatchFailed(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return m.Called(ctx, id, reason, at).Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePending(ctx context.Context, payment *model.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
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

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note, referenceID string) (*model.User, *model.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, note, referenceID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(*model.WalletTransaction), args.Error(2)
}

func (m *MockWalletRepository) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.WalletTransaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletRepository) LedgerSum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockCouponRepository is a mock implementation of CouponRepository
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCouponRepository) RecordRedemption(ctx context.Context, redemption *model.CouponRedemption) error {
	return m.Called(ctx, redemption).Error(0)
}

// MockUpsellRepository is a mock implementation of UpsellRepository
type MockUpsellRepository struct {
	mock.Mock
}

func (m *MockUpsellRepository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Upsell, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Upsell), args.Error(1)
}

// MockSettingRepository is a mock implementation of SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Setting), args.Error(1)
}

func (m *MockSettingRepository) Upsert(ctx context.Context, setting *model.Setting) error {
	return m.Called(ctx, setting).Error(0)
}

// MockFulfillmentProvider is a mock implementation of FulfillmentProvider
type MockFulfillmentProvider struct {
	mock.Mock
}

func (m *MockFulfillmentProvider) AddOrder(ctx context.Context, req *provider.AddOrderRequest) (*provider.AddOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.AddOrderResult), args.Error(1)
}

func (m *MockFulfillmentProvider) OrderStatus(ctx context.Context, upstreamID string) (*provider.UpstreamOrderStatus, error) {
	args := m.Called(ctx, upstreamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.UpstreamOrderStatus), args.Error(1)
}

func (m *MockFulfillmentProvider) OrdersStatus(ctx context.Context, upstreamIDs []string) (map[string]*provider.UpstreamOrderStatus, error) {
	args := m.Called(ctx, upstreamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*provider.UpstreamOrderStatus), args.Error(1)
}

func (m *MockFulfillmentProvider) Refill(ctx context.Context, upstreamIDs []string) ([]*provider.RefillResult, error) {
	args := m.Called(ctx, upstreamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*provider.RefillResult), args.Error(1)
}

func (m *MockFulfillmentProvider) RefillStatus(ctx context.Context, refillIDs []string) ([]*provider.RefillStatusResult, error) {
	args := m.Called(ctx, refillIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*provider.RefillStatusResult), args.Error(1)
}

func (m *MockFulfillmentProvider) Cancel(ctx context.Context, upstreamIDs []string) ([]*provider.CancelResult, error) {
	args := m.Called(ctx, upstreamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*provider.CancelResult), args.Error(1)
}

func (m *MockFulfillmentProvider) Balance(ctx context.Context) (*provider.AccountBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.AccountBalance), args.Error(1)
}

func (m *MockFulfillmentProvider) Services(ctx context.Context) ([]*provider.CatalogService, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*provider.CatalogService), args.Error(1)
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
	method model.PaymentMethod
}

func (m *MockPaymentGateway) Initiate(ctx context.Context, req *provider.InitiateRequest) (*provider.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.InitiateResult), args.Error(1)
}

func (m *MockPaymentGateway) Method() model.PaymentMethod {
	return m.method
}

// staticResolver resolves gateways from a fixed map
type staticResolver map[model.PaymentMethod]provider.PaymentGateway

func (r staticResolver) GetGateway(method model.PaymentMethod) (provider.PaymentGateway, error) {
	gateway, ok := r[method]
	if !ok {
		return nil, errNotConfigured
	}
	return gateway, nil
}

// recordingPublisher captures published order events
type recordingPublisher struct {
	mu     sync.Mutex
	events []usecase.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	var event usecase.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	statuses := make([]string, 0, len(p.events))
	for _, event := range p.events {
		statuses = append(statuses, event.Status)
	}
	return statuses
}
