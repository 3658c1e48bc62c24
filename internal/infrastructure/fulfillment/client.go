package fulfillment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
	"go.uber.org/zap"
)

// KeySource supplies the provider API key for each request
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource with a fixed key
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	return string(k), nil
}

// Client speaks the provider's action-keyed form RPC. It never retries on its
// own; callers that can tolerate repeats wrap calls in Retry.
type Client struct {
	endpoint string
	keys     KeySource
	client   *http.Client
	logger   *zap.Logger
}

var _ provider.FulfillmentProvider = (*Client)(nil)

// NewClient creates a provider client. timeout bounds every call.
func NewClient(endpoint string, keys KeySource, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		keys:     keys,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.Named("fulfillment"),
	}
}

// AddOrder submits a new order
func (c *Client) AddOrder(ctx context.Context, req *provider.AddOrderRequest) (*provider.AddOrderResult, error) {
	params := url.Values{}
	params.Set("service", req.ServiceID)
	params.Set("link", req.Link)
	params.Set("quantity", cast.ToString(req.Quantity))
	for key, value := range req.Extra {
		params.Set(key, value)
	}

	payload, err := c.call(ctx, "add", params)
	if err != nil {
		return nil, err
	}

	fields, ok := payload.(map[string]interface{})
	if !ok || fields["order"] == nil {
		return nil, parseError("add", "missing order id")
	}

	upstreamID, err := cast.ToStringE(fields["order"])
	if err != nil || upstreamID == "" {
		return nil, parseError("add", "invalid order id")
	}

	result := &provider.AddOrderResult{
		UpstreamID: upstreamID,
		Status:     cast.ToString(fields["status"]),
	}
	if charge, ok := toDecimal(fields["charge"]); ok {
		result.Charge.Decimal = charge
		result.Charge.Valid = true
	}

	c.logger.Info("Fulfillment order submitted",
		zap.String("service", req.ServiceID),
		zap.Int("quantity", req.Quantity),
		zap.String("upstream_order_id", upstreamID))

	return result, nil
}

// OrderStatus queries one order
func (c *Client) OrderStatus(ctx context.Context, upstreamID string) (*provider.UpstreamOrderStatus, error) {
	params := url.Values{}
	params.Set("order", upstreamID)

	payload, err := c.call(ctx, "status", params)
	if err != nil {
		return nil, err
	}

	fields, ok := payload.(map[string]interface{})
	if !ok {
		return nil, parseError("status", "unexpected response shape")
	}
	return toOrderStatus(fields), nil
}

// OrdersStatus queries many orders in one call; ids are comma-joined
func (c *Client) OrdersStatus(ctx context.Context, upstreamIDs []string) (map[string]*provider.UpstreamOrderStatus, error) {
	params := url.Values{}
	params.Set("orders", strings.Join(upstreamIDs, ","))

	payload, err := c.call(ctx, "status", params)
	if err != nil {
		return nil, err
	}

	byID, ok := payload.(map[string]interface{})
	if !ok {
		return nil, parseError("status", "unexpected response shape")
	}

	statuses := make(map[string]*provider.UpstreamOrderStatus, len(byID))
	for id, entry := range byID {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			statuses[id] = &provider.UpstreamOrderStatus{Error: "unexpected entry shape"}
			continue
		}
		statuses[id] = toOrderStatus(fields)
	}
	return statuses, nil
}

// Refill requests a refill for completed orders
func (c *Client) Refill(ctx context.Context, upstreamIDs []string) ([]*provider.RefillResult, error) {
	if len(upstreamIDs) == 1 {
		params := url.Values{}
		params.Set("order", upstreamIDs[0])

		payload, err := c.call(ctx, "refill", params)
		if err != nil {
			return nil, err
		}
		fields, ok := payload.(map[string]interface{})
		if !ok {
			return nil, parseError("refill", "unexpected response shape")
		}
		return []*provider.RefillResult{{
			UpstreamID: upstreamIDs[0],
			RefillID:   cast.ToString(fields["refill"]),
		}}, nil
	}

	params := url.Values{}
	params.Set("orders", strings.Join(upstreamIDs, ","))

	payload, err := c.call(ctx, "refill", params)
	if err != nil {
		return nil, err
	}
	entries, ok := payload.([]interface{})
	if !ok {
		return nil, parseError("refill", "unexpected response shape")
	}

	results := make([]*provider.RefillResult, 0, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]interface{})
		result := &provider.RefillResult{UpstreamID: cast.ToString(fields["order"])}
		if msg := errorOf(fields["refill"]); msg != "" {
			result.Error = msg
		} else {
			result.RefillID = cast.ToString(fields["refill"])
		}
		results = append(results, result)
	}
	return results, nil
}

// RefillStatus queries refills
func (c *Client) RefillStatus(ctx context.Context, refillIDs []string) ([]*provider.RefillStatusResult, error) {
	if len(refillIDs) == 1 {
		params := url.Values{}
		params.Set("refill", refillIDs[0])

		payload, err := c.call(ctx, "refill_status", params)
		if err != nil {
			return nil, err
		}
		fields, ok := payload.(map[string]interface{})
		if !ok {
			return nil, parseError("refill_status", "unexpected response shape")
		}
		return []*provider.RefillStatusResult{{
			RefillID: refillIDs[0],
			Status:   cast.ToString(fields["status"]),
		}}, nil
	}

	params := url.Values{}
	params.Set("refills", strings.Join(refillIDs, ","))

	payload, err := c.call(ctx, "refill_status", params)
	if err != nil {
		return nil, err
	}
	entries, ok := payload.([]interface{})
	if !ok {
		return nil, parseError("refill_status", "unexpected response shape")
	}

	results := make([]*provider.RefillStatusResult, 0, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]interface{})
		result := &provider.RefillStatusResult{RefillID: cast.ToString(fields["refill"])}
		if msg := errorOf(fields["status"]); msg != "" {
			result.Error = msg
		} else {
			result.Status = cast.ToString(fields["status"])
		}
		results = append(results, result)
	}
	return results, nil
}

// Cancel requests cancellation of a batch of orders
func (c *Client) Cancel(ctx context.Context, upstreamIDs []string) ([]*provider.CancelResult, error) {
	params := url.Values{}
	params.Set("orders", strings.Join(upstreamIDs, ","))

	payload, err := c.call(ctx, "cancel", params)
	if err != nil {
		return nil, err
	}
	entries, ok := payload.([]interface{})
	if !ok {
		return nil, parseError("cancel", "unexpected response shape")
	}

	results := make([]*provider.CancelResult, 0, len(entries))
	for _, entry := range entries {
		fields, _ := entry.(map[string]interface{})
		result := &provider.CancelResult{UpstreamID: cast.ToString(fields["order"])}
		if msg := errorOf(fields["cancel"]); msg != "" {
			result.Error = msg
		} else {
			result.Accepted = true
		}
		results = append(results, result)
	}
	return results, nil
}

// Balance fetches the provider account balance
func (c *Client) Balance(ctx context.Context) (*provider.AccountBalance, error) {
	payload, err := c.call(ctx, "balance", url.Values{})
	if err != nil {
		return nil, err
	}

	fields, ok := payload.(map[string]interface{})
	if !ok {
		return nil, parseError("balance", "unexpected response shape")
	}
	balance, ok := toDecimal(fields["balance"])
	if !ok {
		return nil, parseError("balance", "invalid balance")
	}

	return &provider.AccountBalance{
		Balance:  balance,
		Currency: cast.ToString(fields["currency"]),
	}, nil
}

// Services fetches the full service catalog
func (c *Client) Services(ctx context.Context) ([]*provider.CatalogService, error) {
	payload, err := c.call(ctx, "services", url.Values{})
	if err != nil {
		return nil, err
	}

	entries, ok := payload.([]interface{})
	if !ok {
		return nil, parseError("services", "unexpected response shape")
	}

	services := make([]*provider.CatalogService, 0, len(entries))
	for _, entry := range entries {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		rate, _ := toDecimal(fields["rate"])
		services = append(services, &provider.CatalogService{
			ServiceID: cast.ToString(fields["service"]),
			Name:      cast.ToString(fields["name"]),
			Type:      cast.ToString(fields["type"]),
			Category:  cast.ToString(fields["category"]),
			Rate:      rate,
			Min:       cast.ToInt64(fields["min"]),
			Max:       cast.ToInt64(fields["max"]),
			Refill:    cast.ToBool(fields["refill"]),
			Cancel:    cast.ToBool(fields["cancel"]),
		})
	}
	return services, nil
}

// call posts one action and returns the decoded, unwrapped payload
func (c *Client) call(ctx context.Context, action string, params url.Values) (interface{}, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "CREDENTIALS_ERROR",
			Message: "Failed to load provider credentials",
			Details: err.Error(),
			Cause:   err,
		}
	}

	form := url.Values{}
	for name, values := range params {
		form[name] = values
	}
	form.Set("key", key)
	form.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Fulfillment provider request failed",
			zap.String("action", action),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Fulfillment provider request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	c.logger.Debug("Fulfillment provider responded",
		zap.String("action", action),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(startTime)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := http.StatusText(resp.StatusCode)
		if payload, decodeErr := decodeResponse(body); decodeErr == nil {
			if msg := errorOf(payload); msg != "" {
				message = msg
			}
		}
		return nil, &provider.ProviderError{
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}

	payload, err := decodeResponse(body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}

	if msg := errorOf(payload); msg != "" {
		return nil, &provider.ProviderError{
			Code:    "PROVIDER_ERROR",
			Message: msg,
		}
	}

	return payload, nil
}

func toOrderStatus(fields map[string]interface{}) *provider.UpstreamOrderStatus {
	status := &provider.UpstreamOrderStatus{
		Status:     cast.ToString(fields["status"]),
		StartCount: cast.ToInt64(fields["start_count"]),
		Remains:    cast.ToInt64(fields["remains"]),
		Currency:   cast.ToString(fields["currency"]),
		Error:      cast.ToString(fields["error"]),
	}
	if charge, ok := toDecimal(fields["charge"]); ok {
		status.Charge.Decimal = charge
		status.Charge.Valid = true
	}
	return status
}

func parseError(action, message string) *provider.ProviderError {
	return &provider.ProviderError{
		Code:    "PARSE_ERROR",
		Message: fmt.Sprintf("Unexpected %s response", action),
		Details: message,
	}
}
