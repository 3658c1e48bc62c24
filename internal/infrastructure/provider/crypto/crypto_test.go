package crypto

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/domain/provider"
)

func testOrder() *model.Order {
	return &model.Order{
		ID:        uuid.New(),
		Reference: "ref123",
		Price:     decimal.RequireFromString("21.58"),
		Currency:  "USD",
	}
}

func TestGateway_Initiate(t *testing.T) {
	t.Run("creates a signed invoice", func(t *testing.T) {
		var received invoiceRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment", r.URL.Path)
			assert.Equal(t, "merchant-1", r.Header.Get("merchant"))

			body, _ := io.ReadAll(r.Body)
			sum := md5.Sum([]byte(base64.StdEncoding.EncodeToString(body) + "secret"))
			assert.Equal(t, hex.EncodeToString(sum[:]), r.Header.Get("sign"))
			require.NoError(t, json.Unmarshal(body, &received))

			_, _ = w.Write([]byte(`{"state":0,"result":{"uuid":"inv-1","url":"https://pay.example/inv-1","expired_at":1760000000,"payment_status":"check"}}`))
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, "merchant-1", "secret", 5*time.Second, zap.NewNop())
		order := testOrder()

		result, err := gateway.Initiate(context.Background(), &provider.InitiateRequest{
			Order:      order,
			SuccessURL: "https://shop.example/ok",
			WebhookURL: "https://api.example/webhooks/crypto",
		})

		require.NoError(t, err)
		assert.False(t, result.SettledSynchronously)
		assert.Equal(t, "inv-1", result.ExternalID)
		assert.Equal(t, "https://pay.example/inv-1", result.CheckoutURL)
		require.NotNil(t, result.ExpiresAt)
		assert.Equal(t, int64(1760000000), result.ExpiresAt.Unix())

		assert.Equal(t, "21.58", received.Amount)
		assert.Equal(t, "USD", received.Currency)
		assert.Contains(t, received.OrderID, "ref123-")
		assert.Equal(t, order.ID.String(), received.AdditionalData)
		assert.Equal(t, "https://api.example/webhooks/crypto", received.URLCallback)
	})

	t.Run("each attempt gets a distinct processor order id", func(t *testing.T) {
		var ids []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req invoiceRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			ids = append(ids, req.OrderID)
			_, _ = w.Write([]byte(`{"state":0,"result":{"uuid":"inv","url":"https://pay.example/inv"}}`))
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, "m", "k", 5*time.Second, zap.NewNop())
		order := testOrder()
		for i := 0; i < 2; i++ {
			_, err := gateway.Initiate(context.Background(), &provider.InitiateRequest{Order: order})
			require.NoError(t, err)
		}

		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])
	})

	t.Run("surfaces processor message on rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"state":1,"message":"Minimum amount is 5 USD"}`))
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, "m", "k", 5*time.Second, zap.NewNop())
		_, err := gateway.Initiate(context.Background(), &provider.InitiateRequest{Order: testOrder()})

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "HTTP_422", providerErr.Code)
		assert.Equal(t, "Minimum amount is 5 USD", providerErr.Message)
	})

	t.Run("rejects incomplete response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"state":0,"result":{}}`))
		}))
		defer server.Close()

		gateway := NewGateway(server.URL, "m", "k", 5*time.Second, zap.NewNop())
		_, err := gateway.Initiate(context.Background(), &provider.InitiateRequest{Order: testOrder()})

		var providerErr *provider.ProviderError
		require.True(t, errors.As(err, &providerErr))
		assert.Equal(t, "PARSE_ERROR", providerErr.Code)
	})
}
