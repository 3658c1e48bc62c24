package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// ProviderOperations are operator actions against the fulfillment provider
type ProviderOperations interface {
	Balance(ctx context.Context) (*provider.AccountBalance, error)
	Services(ctx context.Context, platform string) ([]*provider.CatalogService, error)
	Refill(ctx context.Context, upstreamIDs []string) ([]*provider.RefillResult, error)
	RefillStatus(ctx context.Context, refillIDs []string) ([]*provider.RefillStatusResult, error)
	Cancel(ctx context.Context, upstreamIDs []string) ([]*provider.CancelResult, error)
}

// ReconcileRunner runs one reconciliation sweep
type ReconcileRunner interface {
	Run(ctx context.Context) (*dto.ReconcileReport, error)
}

// DispatchRunner runs one fulfillment dispatch sweep
type DispatchRunner interface {
	Run(ctx context.Context) (*dto.DispatchReport, error)
}

// CredentialsManager reloads and rotates the fulfillment provider key
type CredentialsManager interface {
	Refresh(ctx context.Context) error
	StoreAPIKey(ctx context.Context, key string) error
}

// InternalHandler serves operator endpoints behind the internal token
type InternalHandler struct {
	ops         ProviderOperations
	reconciler  ReconcileRunner
	dispatcher  DispatchRunner
	checkout    CheckoutUsecase
	wallets     WalletUsecase
	credentials CredentialsManager
	logger      *zap.Logger
}

func NewInternalHandler(
	ops ProviderOperations,
	reconciler ReconcileRunner,
	dispatcher DispatchRunner,
	checkout CheckoutUsecase,
	wallets WalletUsecase,
	credentials CredentialsManager,
	logger *zap.Logger,
) *InternalHandler {
	return &InternalHandler{
		ops:         ops,
		reconciler:  reconciler,
		dispatcher:  dispatcher,
		checkout:    checkout,
		wallets:     wallets,
		credentials: credentials,
		logger:      logger,
	}
}

type creditRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note" validate:"max=255"`
	ReferenceID string          `json:"reference_id" validate:"max=64"`
}

type credentialsRequest struct {
	APIKey string `json:"api_key" validate:"max=255"`
}

// Balance handles GET /api/v1/internal/provider/balance
func (h *InternalHandler) Balance(c echo.Context) error {
	balance, err := h.ops.Balance(c.Request().Context())
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, balance)
}

// Services handles GET /api/v1/internal/provider/services?platform=
func (h *InternalHandler) Services(c echo.Context) error {
	services, err := h.ops.Services(c.Request().Context(), c.QueryParam("platform"))
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": services})
}

// Refill handles POST /api/v1/internal/provider/refill
func (h *InternalHandler) Refill(c echo.Context) error {
	var req dto.UpstreamIDsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	results, err := h.ops.Refill(c.Request().Context(), req.OrderIDs)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

// RefillStatus handles GET /api/v1/internal/provider/refill-status?ids=1,2
func (h *InternalHandler) RefillStatus(c echo.Context) error {
	var ids []string
	for _, id := range strings.Split(c.QueryParam("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	results, err := h.ops.RefillStatus(c.Request().Context(), ids)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

// Cancel handles POST /api/v1/internal/provider/cancel
func (h *InternalHandler) Cancel(c echo.Context) error {
	var req dto.UpstreamIDsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	results, err := h.ops.Cancel(c.Request().Context(), req.OrderIDs)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

// Reconcile handles POST /api/v1/internal/reconcile
func (h *InternalHandler) Reconcile(c echo.Context) error {
	report, err := h.reconciler.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("Manual reconciliation failed", zap.Error(err))
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// Dispatch handles POST /api/v1/internal/dispatch
func (h *InternalHandler) Dispatch(c echo.Context) error {
	report, err := h.dispatcher.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("Manual dispatch failed", zap.Error(err))
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// ConfirmPayment handles POST /api/v1/internal/payments/:externalId/confirm
func (h *InternalHandler) ConfirmPayment(c echo.Context) error {
	externalID := c.Param("externalId")
	order, err := h.checkout.ConfirmPayment(c.Request().Context(), externalID)
	if err != nil {
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order_id":  order.ID,
		"reference": order.Reference,
		"status":    order.Status,
	})
}

// FailPayment handles POST /api/v1/internal/payments/:externalId/fail
func (h *InternalHandler) FailPayment(c echo.Context) error {
	externalID := c.Param("externalId")
	payment, err := h.checkout.FailPayment(c.Request().Context(), externalID)
	if err != nil {
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"status":     payment.Status,
	})
}

// CreditWallet handles POST /api/v1/internal/wallet/:userId/credit
func (h *InternalHandler) CreditWallet(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return badRequest("invalid user ID", err)
	}

	var req creditRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.wallets.Credit(c.Request().Context(), userID, req.Amount, req.Note, req.ReferenceID)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// AuditWallet handles GET /api/v1/internal/wallet/:userId/audit
func (h *InternalHandler) AuditWallet(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return badRequest("invalid user ID", err)
	}

	audit, err := h.wallets.VerifyBalance(c.Request().Context(), userID)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, audit)
}

// RefreshCredentials handles POST /api/v1/internal/provider/credentials/refresh.
// A body with api_key rotates the stored key first.
func (h *InternalHandler) RefreshCredentials(c echo.Context) error {
	var req credentialsRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest("invalid request body", err)
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
	}

	ctx := c.Request().Context()
	rotated := false
	if req.APIKey != "" {
		if err := h.credentials.StoreAPIKey(ctx, req.APIKey); err != nil {
			return toAppError(err)
		}
		rotated = true
	}

	if err := h.credentials.Refresh(ctx); err != nil {
		return toAppError(err)
	}

	h.logger.Info("Fulfillment credentials refreshed", zap.Bool("rotated", rotated))
	return c.JSON(http.StatusOK, echo.Map{"status": "refreshed", "rotated": rotated})
}
