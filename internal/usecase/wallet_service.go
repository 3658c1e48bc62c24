package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	customErr "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
)

// WalletService exposes the stored-value ledger. Debits only happen through
// the wallet payment gateway.
type WalletService struct {
	wallets domainRepo.WalletRepository
	logger  *zap.Logger
}

// NewWalletService creates a new wallet service instance
func NewWalletService(wallets domainRepo.WalletRepository, logger *zap.Logger) *WalletService {
	return &WalletService{
		wallets: wallets,
		logger:  logger,
	}
}

// GetWallet returns the balance and a page of ledger entries, newest first
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID, page dto.PaginationInfo) (*dto.WalletResponse, error) {
	page.Normalize()

	user, err := s.wallets.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, total, err := s.wallets.History(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		s.logger.Error("Failed to load wallet history",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load wallet history: %w", err)
	}

	page.Total = total
	page.HasMore = int64(page.Offset+len(entries)) < total

	resp := &dto.WalletResponse{
		Balance:      user.Balance,
		Transactions: make([]dto.WalletTransactionDTO, 0, len(entries)),
		Pagination:   page,
	}
	for _, entry := range entries {
		resp.Transactions = append(resp.Transactions, toTransactionDTO(entry))
	}
	return resp, nil
}

// Credit tops up a wallet. A non-empty referenceID makes repeated calls with
// the same reference return the original entry.
func (s *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note, referenceID string) (*dto.WalletTransactionDTO, error) {
	if !amount.IsPositive() {
		return nil, customErr.NewValidationError("amount", "must be positive")
	}
	if amount.Exponent() < -2 {
		return nil, customErr.NewValidationError("amount", "must have at most two decimal places")
	}
	if note == "" {
		note = "Wallet top-up"
	}

	user, entry, err := s.wallets.Credit(ctx, userID, amount, note, referenceID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Wallet credited",
		zap.String("user_id", userID.String()),
		zap.String("amount", amount.String()),
		zap.String("balance", user.Balance.String()),
		zap.String("reference_id", referenceID))

	result := toTransactionDTO(entry)
	return &result, nil
}

// VerifyBalance recomputes the balance from the ledger and reports drift
func (s *WalletService) VerifyBalance(ctx context.Context, userID uuid.UUID) (*dto.LedgerAudit, error) {
	user, err := s.wallets.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum, err := s.wallets.LedgerSum(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}

	drift := user.Balance.Sub(sum)
	audit := &dto.LedgerAudit{
		StoredBalance: user.Balance,
		LedgerBalance: sum,
		Drift:         drift,
		Consistent:    drift.IsZero(),
	}
	if !audit.Consistent {
		s.logger.Error("Wallet balance does not match ledger",
			zap.String("user_id", userID.String()),
			zap.String("stored", user.Balance.String()),
			zap.String("ledger", sum.String()))
	}
	return audit, nil
}

func toTransactionDTO(entry *model.WalletTransaction) dto.WalletTransactionDTO {
	return dto.WalletTransactionDTO{
		Type:         string(entry.Type),
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Note:         entry.Note,
		CreatedAt:    entry.CreatedAt,
	}
}
