package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// Session expiry must fall between 30 minutes and 24 hours after creation.
const (
	minSessionTTL = 31 * time.Minute
	maxSessionTTL = 24 * time.Hour
)

const defaultTimeout = 30 * time.Second

// Currencies Stripe prices without a minor unit, or with three decimals.
var (
	zeroDecimalCurrencies = map[string]bool{
		"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
		"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
		"vuv": true, "xaf": true, "xof": true, "xpf": true,
	}
	threeDecimalCurrencies = map[string]bool{
		"bhd": true, "jod": true, "kwd": true, "omr": true, "tnd": true,
	}
)

// Gateway creates hosted card checkout sessions
type Gateway struct {
	sessions   session.Client
	sessionTTL time.Duration
	timeout    time.Duration
	backendURL string
	logger     *zap.Logger
	now        func() time.Time
}

// Option customises the gateway
type Option func(*Gateway)

// WithBackendURL points the client at a different API host
func WithBackendURL(url string) Option {
	return func(g *Gateway) {
		g.backendURL = url
	}
}

// NewGateway creates the hosted card gateway. The SDK's own network retries
// are disabled; a failed session request is returned to the caller as is.
func NewGateway(secretKey string, sessionTTL, timeout time.Duration, logger *zap.Logger, opts ...Option) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	g := &Gateway{
		sessions:   session.Client{Key: secretKey},
		sessionTTL: clampTTL(sessionTTL),
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.sessions.B = newBackend(g.backendURL, g.timeout)
	return g
}

func newBackend(url string, timeout time.Duration) stripe.Backend {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if url != "" {
		cfg.URL = stripe.String(url)
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
}

// minorUnits converts a decimal amount to the integer Stripe expects for
// currency. Three-decimal amounts must end in zero.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	currency = strings.ToLower(currency)
	switch {
	case zeroDecimalCurrencies[currency]:
		return amount.Round(0).IntPart()
	case threeDecimalCurrencies[currency]:
		return amount.Round(2).Shift(3).IntPart()
	default:
		return amount.Shift(2).Round(0).IntPart()
	}
}

func (g *Gateway) Method() model.PaymentMethod {
	return model.PaymentMethodHostedCard
}

// Initiate creates a checkout session priced in minor units
func (g *Gateway) Initiate(ctx context.Context, req *provider.InitiateRequest) (*provider.InitiateResult, error) {
	order := req.Order
	unitAmount := minorUnits(order.Price, order.Currency)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(order.ID.String()),
		ExpiresAt:         stripe.Int64(g.now().Add(g.sessionTTL).Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(order.Currency)),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%d %s %s", order.Quantity, order.Platform, order.ServiceType)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if order.Email != "" {
		params.CustomerEmail = stripe.String(order.Email)
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("reference", order.Reference)

	sess, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error("Checkout session creation failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, toProviderError(err)
	}

	result := &provider.InitiateResult{
		ExternalID:  sess.ID,
		CheckoutURL: sess.URL,
		ProviderData: map[string]interface{}{
			"unit_amount": unitAmount,
		},
	}
	if sess.ExpiresAt > 0 {
		expiresAt := time.Unix(sess.ExpiresAt, 0).UTC()
		result.ExpiresAt = &expiresAt
	}

	g.logger.Info("Checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", sess.ID))

	return result, nil
}

func toProviderError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &provider.ProviderError{
			Code:       fmt.Sprintf("HTTP_%d", stripeErr.HTTPStatusCode),
			Message:    stripeErr.Msg,
			Details:    string(stripeErr.Code),
			StatusCode: stripeErr.HTTPStatusCode,
		}
	}
	return &provider.ProviderError{
		Code:    "API_ERROR",
		Message: "Card processor request failed",
		Details: err.Error(),
	}
}

func clampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl < minSessionTTL:
		return minSessionTTL
	case ttl > maxSessionTTL:
		return maxSessionTTL
	default:
		return ttl
	}
}
