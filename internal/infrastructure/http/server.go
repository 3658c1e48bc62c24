package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/likes-market/internal/adapter/handler/http"
	"github.com/wekeepgrowing/likes-market/internal/config"
	"github.com/wekeepgrowing/likes-market/internal/middleware/auth"
	pkgErrors "github.com/wekeepgrowing/likes-market/pkg/errors"
	"github.com/wekeepgrowing/likes-market/pkg/logger"
	"go.uber.org/zap"
)

// Dependencies are the usecases the HTTP surface exposes
type Dependencies struct {
	Checkout    handlers.CheckoutUsecase
	Coupons     handlers.CouponValidator
	Wallets     handlers.WalletUsecase
	ProviderOps handlers.ProviderOperations
	Reconciler  handlers.ReconcileRunner
	Dispatcher  handlers.DispatchRunner
	Credentials handlers.CredentialsManager
	DBPing      handlers.Pinger
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	deps   Dependencies
}

func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = pkgErrors.NewHTTPErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	if cfg.Service.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{cfg.Service.ClientURL},
			AllowMethods: []string{http.MethodGet, http.MethodPost},
		}))
	}

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		deps:   deps,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.config.Service.Name, s.config.Service.Version, s.deps.DBPing, s.logger)
	checkoutHandler := handlers.NewCheckoutHandler(s.deps.Checkout, s.logger)
	couponHandler := handlers.NewCouponHandler(s.deps.Coupons, s.logger)
	walletHandler := handlers.NewWalletHandler(s.deps.Wallets, s.logger)
	internalHandler := handlers.NewInternalHandler(
		s.deps.ProviderOps,
		s.deps.Reconciler,
		s.deps.Dispatcher,
		s.deps.Checkout,
		s.deps.Wallets,
		s.deps.Credentials,
		s.logger,
	)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Issuer: s.config.JWT.Issuer,
		Logger: s.logger,
	}
	optionalJWT := jwtConfig
	optionalJWT.Optional = true

	s.echo.GET("/health", healthHandler.Health)

	v1 := s.echo.Group("/api/v1")

	// Public, with the buyer identified when a token is sent
	v1.POST("/coupons/validate", couponHandler.ValidateCoupon, auth.JWTMiddleware(optionalJWT))

	// Per-route so unmatched /api/v1 paths still 404 instead of 401
	requireJWT := auth.JWTMiddleware(jwtConfig)
	v1.POST("/checkout", checkoutHandler.Checkout, requireJWT)
	v1.GET("/orders/:id", checkoutHandler.GetOrder, requireJWT)
	v1.POST("/orders/:id/pay", checkoutHandler.PayOrder, requireJWT)
	v1.GET("/wallet", walletHandler.GetWallet, requireJWT)

	internal := v1.Group("/internal", auth.InternalTokenMiddleware(s.config.JWT.InternalToken, s.logger))
	internal.GET("/provider/balance", internalHandler.Balance)
	internal.GET("/provider/services", internalHandler.Services)
	internal.POST("/provider/refill", internalHandler.Refill)
	internal.GET("/provider/refill-status", internalHandler.RefillStatus)
	internal.POST("/provider/cancel", internalHandler.Cancel)
	internal.POST("/provider/credentials/refresh", internalHandler.RefreshCredentials)
	internal.POST("/reconcile", internalHandler.Reconcile)
	internal.POST("/dispatch", internalHandler.Dispatch)
	internal.POST("/payments/:externalId/confirm", internalHandler.ConfirmPayment)
	internal.POST("/payments/:externalId/fail", internalHandler.FailPayment)
	internal.POST("/wallet/:userId/credit", internalHandler.CreditWallet)
	internal.GET("/wallet/:userId/audit", internalHandler.AuditWallet)
}
