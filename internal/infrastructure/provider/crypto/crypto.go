package crypto

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// invoice lifetime requested from the processor, in seconds
const invoiceLifetime = 3600

// Gateway creates hosted crypto invoices. Requests are signed with
// md5(base64(body) + apiKey) in the "sign" header.
type Gateway struct {
	baseURL    string
	merchantID string
	apiKey     string
	client     *http.Client
	logger     *zap.Logger
}

// NewGateway creates the crypto invoice gateway
func NewGateway(baseURL, merchantID, apiKey string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		merchantID: merchantID,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (g *Gateway) Method() model.PaymentMethod {
	return model.PaymentMethodCrypto
}

type invoiceRequest struct {
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	OrderID        string `json:"order_id"`
	URLReturn      string `json:"url_return,omitempty"`
	URLSuccess     string `json:"url_success,omitempty"`
	URLCallback    string `json:"url_callback,omitempty"`
	Lifetime       int    `json:"lifetime"`
	AdditionalData string `json:"additional_data,omitempty"`
}

type invoiceResponse struct {
	State   int                    `json:"state"`
	Message string                 `json:"message"`
	Result  map[string]interface{} `json:"result"`
}

// Initiate creates an invoice. Every call produces a fresh invoice, so the
// processor-side order id is unique per attempt.
func (g *Gateway) Initiate(ctx context.Context, req *provider.InitiateRequest) (*provider.InitiateResult, error) {
	order := req.Order
	attemptID := fmt.Sprintf("%s-%s", order.Reference, uuid.NewString()[:8])

	body, err := json.Marshal(invoiceRequest{
		Amount:         order.Price.StringFixed(2),
		Currency:       order.Currency,
		OrderID:        attemptID,
		URLReturn:      req.CancelURL,
		URLSuccess:     req.SuccessURL,
		URLCallback:    req.WebhookURL,
		Lifetime:       invoiceLifetime,
		AdditionalData: order.ID.String(),
	})
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("merchant", g.merchantID)
	httpReq.Header.Set("sign", g.sign(body))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Error("Crypto invoice request failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Crypto payment processor request failed",
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

	var parsed invoiceResponse
	parseErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK || parsed.State != 0 {
		message := parsed.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		g.logger.Warn("Crypto invoice rejected",
			zap.String("order_id", order.ID.String()),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", message))
		return nil, &provider.ProviderError{
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    message,
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

	invoiceID := cast.ToString(parsed.Result["uuid"])
	checkoutURL := cast.ToString(parsed.Result["url"])
	if invoiceID == "" || checkoutURL == "" {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Invoice response is missing uuid or url",
		}
	}

	result := &provider.InitiateResult{
		ExternalID:  invoiceID,
		CheckoutURL: checkoutURL,
		ProviderData: map[string]interface{}{
			"processor_order_id": attemptID,
			"payment_status":     cast.ToString(parsed.Result["payment_status"]),
		},
	}
	if expiredAt := cast.ToInt64(parsed.Result["expired_at"]); expiredAt > 0 {
		expiresAt := time.Unix(expiredAt, 0).UTC()
		result.ExpiresAt = &expiresAt
	}

	g.logger.Info("Crypto invoice created",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_id", invoiceID))

	return result, nil
}

func (g *Gateway) sign(body []byte) string {
	sum := md5.Sum([]byte(base64.StdEncoding.EncodeToString(body) + g.apiKey))
	return hex.EncodeToString(sum[:])
}
