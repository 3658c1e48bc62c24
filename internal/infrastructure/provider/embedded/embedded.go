package embedded

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// Gateway exchanges a processor session obtained by the browser for an
// invoice bound to the payer.
type Gateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

// NewGateway creates the embedded card gateway
func NewGateway(baseURL, secretKey string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (g *Gateway) Method() model.PaymentMethod {
	return model.PaymentMethodEmbeddedCard
}

type invoiceRequest struct {
	Amount     string   `json:"amount"`
	Currency   string   `json:"currency"`
	OrderID    string   `json:"order_id"`
	Reference  string   `json:"reference"`
	Customer   customer `json:"customer"`
	WebhookURL string   `json:"webhook_url,omitempty"`
}

type customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Initiate binds the session to the payer and returns the invoice id. The
// caller validates SessionID and Payer before calling.
func (g *Gateway) Initiate(ctx context.Context, req *provider.InitiateRequest) (*provider.InitiateResult, error) {
	order := req.Order

	body, err := json.Marshal(invoiceRequest{
		Amount:    order.Price.StringFixed(2),
		Currency:  order.Currency,
		OrderID:   order.ID.String(),
		Reference: order.Reference,
		Customer: customer{
			Name:  req.Payer.Name,
			Email: req.Payer.Email,
		},
		WebhookURL: req.WebhookURL,
	})
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	endpoint := fmt.Sprintf("%s/sessions/%s/invoice", g.baseURL, url.PathEscape(req.SessionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(g.secretKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("Session exchange request failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Card processor request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	var parsed map[string]interface{}
	parseErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := cast.ToString(parsed["message"])
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		g.logger.Warn("Session exchange rejected",
			zap.String("order_id", order.ID.String()),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", message))
		return nil, &provider.ProviderError{
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    message,
			Details:    cast.ToString(parsed["code"]),
			StatusCode: resp.StatusCode,
		}
	}
	if parseErr != nil {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: parseErr.Error(),
		}
	}

	invoiceID := cast.ToString(parsed["invoice_id"])
	if invoiceID == "" {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Invoice response is missing invoice_id",
		}
	}

	g.logger.Info("Embedded card invoice created",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_id", invoiceID))

	return &provider.InitiateResult{
		ExternalID:  invoiceID,
		CheckoutURL: cast.ToString(parsed["redirect_url"]),
		ProviderData: map[string]interface{}{
			"session_id": req.SessionID,
			"status":     cast.ToString(parsed["status"]),
		},
	}, nil
}
