package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/middleware/auth"
	"go.uber.org/zap"
)

// CheckoutUsecase is the order state machine as seen by HTTP handlers
type CheckoutUsecase interface {
	Checkout(ctx context.Context, userID uuid.UUID, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	PayOrder(ctx context.Context, userID, orderID uuid.UUID, req dto.PayOrderRequest) (*dto.CheckoutResponse, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error)
	ConfirmPayment(ctx context.Context, externalID string) (*model.Order, error)
	FailPayment(ctx context.Context, externalID string) (*model.Payment, error)
}

type CheckoutHandler struct {
	checkout CheckoutUsecase
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutUsecase, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.checkout.Checkout(c.Request().Context(), user.UserID, req)
	if err != nil {
		h.logger.Info("Checkout rejected",
			zap.String("user_id", user.UserID.String()),
			zap.String("payment_method", req.PaymentMethod),
			zap.Error(err))
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// PayOrder handles POST /api/v1/orders/:id/pay
func (h *CheckoutHandler) PayOrder(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid order ID", err)
	}

	var req dto.PayOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.checkout.PayOrder(c.Request().Context(), user.UserID, orderID, req)
	if err != nil {
		h.logger.Info("Payment retry rejected",
			zap.String("user_id", user.UserID.String()),
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid order ID", err)
	}

	order, err := h.checkout.GetOrder(c.Request().Context(), user.UserID, orderID)
	if err != nil {
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, order)
}
