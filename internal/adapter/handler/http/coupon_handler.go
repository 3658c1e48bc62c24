package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/internal/middleware/auth"
	"go.uber.org/zap"
)

// CouponValidator checks a code without recording a redemption
type CouponValidator interface {
	ValidateCoupon(ctx context.Context, req dto.ValidateCouponRequest, userID *uuid.UUID) (*dto.ValidateCouponResponse, error)
}

type CouponHandler struct {
	coupons CouponValidator
	logger  *zap.Logger
}

func NewCouponHandler(coupons CouponValidator, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		logger:  logger,
	}
}

// ValidateCoupon handles POST /api/v1/coupons/validate. The route is public;
// the per-user limit is only checked when a user is authenticated.
func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	var req dto.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var userID *uuid.UUID
	if user, err := auth.GetUserFromContext(c); err == nil {
		userID = &user.UserID
	}

	resp, err := h.coupons.ValidateCoupon(c.Request().Context(), req, userID)
	if err != nil {
		h.logger.Error("Failed to validate coupon", zap.String("code", req.Code), zap.Error(err))
		return toAppError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
