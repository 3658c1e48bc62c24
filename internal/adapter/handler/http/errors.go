package http

import (
	domainErrors "github.com/wekeepgrowing/likes-market/internal/domain/errors"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
	pkgErrors "github.com/wekeepgrowing/likes-market/pkg/errors"
)

// toAppError classifies usecase errors for the shared echo error handler
func toAppError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *pkgErrors.AppError
	if pkgErrors.As(err, &appErr) {
		return err
	}

	var validationErr *domainErrors.ValidationError
	if pkgErrors.As(err, &validationErr) {
		return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, validationErr.Error(), err)
	}

	if domainErrors.IsInsufficientFunds(err) {
		return pkgErrors.NewAppError(pkgErrors.ErrInsufficientFunds, "Insufficient wallet balance", err)
	}

	var gatewayErr *domainErrors.GatewayError
	if pkgErrors.As(err, &gatewayErr) {
		message := gatewayErr.Message
		if message == "" {
			message = "Payment gateway unavailable"
		}
		return pkgErrors.NewAppError(pkgErrors.ErrGatewayUnavailable, message, err)
	}

	if pkgErrors.Is(err, usecase.ErrNoCredentials) {
		return pkgErrors.NewAppError(pkgErrors.ErrGatewayUnavailable, "Fulfillment provider is not configured", err)
	}

	var providerErr *provider.ProviderError
	if pkgErrors.As(err, &providerErr) {
		return pkgErrors.NewAppError(pkgErrors.ErrGatewayUnavailable, providerErr.Error(), err)
	}

	switch {
	case pkgErrors.Is(err, domainErrors.ErrAccountBlocked):
		return pkgErrors.NewAppError(pkgErrors.ErrAccountBlocked, "Account is blocked", err)
	case pkgErrors.Is(err, domainErrors.ErrUserNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrUnauthenticated, "Unknown user", err)
	case pkgErrors.Is(err, domainErrors.ErrOrderNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Order not found", err)
	case pkgErrors.Is(err, domainErrors.ErrPaymentNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Payment not found", err)
	case pkgErrors.Is(err, domainErrors.ErrInvalidTransition):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Order is not awaiting payment", err)
	case pkgErrors.Is(err, domainErrors.ErrDuplicateReference):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Duplicate wallet reference", err)
	}

	return pkgErrors.Wrap(err, "internal error")
}

func badRequest(message string, err error) error {
	return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, message, err)
}
