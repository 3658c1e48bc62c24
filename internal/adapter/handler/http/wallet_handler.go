package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/middleware/auth"
	"go.uber.org/zap"
)

// WalletUsecase reads and credits user wallets
type WalletUsecase interface {
	GetWallet(ctx context.Context, userID uuid.UUID, page dto.PaginationInfo) (*dto.WalletResponse, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, note, referenceID string) (*dto.WalletTransactionDTO, error)
	VerifyBalance(ctx context.Context, userID uuid.UUID) (*dto.LedgerAudit, error)
}

type WalletHandler struct {
	wallets WalletUsecase
	logger  *zap.Logger
}

func NewWalletHandler(wallets WalletUsecase, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		wallets: wallets,
		logger:  logger,
	}
}

// GetWallet handles GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	page, err := parsePagination(c)
	if err != nil {
		return err
	}

	wallet, err := h.wallets.GetWallet(c.Request().Context(), user.UserID, page)
	if err != nil {
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, wallet)
}

func parsePagination(c echo.Context) (dto.PaginationInfo, error) {
	var page dto.PaginationInfo
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return page, badRequest("invalid limit parameter", err)
		}
		page.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return page, badRequest("invalid offset parameter", err)
		}
		page.Offset = offset
	}
	page.Normalize()
	return page, nil
}
