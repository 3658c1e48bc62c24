package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestCredentialsCache(t *testing.T) {
	ctx := context.Background()
	sealer, err := crypto.NewAESEncryptionService(testEncryptionKey)
	require.NoError(t, err)

	t.Run("falls back to the configured key", func(t *testing.T) {
		settings := new(MockSettingRepository)
		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).Return(nil, nil)
		cache := usecase.NewCredentialsCache(settings, sealer, "config-key", time.Minute, zap.NewNop())

		key, err := cache.APIKey(ctx)

		require.NoError(t, err)
		assert.Equal(t, "config-key", key)
	})

	t.Run("decrypts the stored key and caches it", func(t *testing.T) {
		ciphertext, iv, err := sealer.Encrypt("stored-key")
		require.NoError(t, err)

		settings := new(MockSettingRepository)
		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).
			Return(&model.Setting{Key: model.SettingFulfillmentAPIKey, Value: ciphertext, IV: iv, Encrypted: true}, nil)
		cache := usecase.NewCredentialsCache(settings, sealer, "config-key", time.Minute, zap.NewNop())

		for i := 0; i < 3; i++ {
			key, err := cache.APIKey(ctx)
			require.NoError(t, err)
			assert.Equal(t, "stored-key", key)
		}
		settings.AssertNumberOfCalls(t, "Get", 1)

		cache.Invalidate()
		_, err = cache.APIKey(ctx)
		require.NoError(t, err)
		settings.AssertNumberOfCalls(t, "Get", 2)

		require.NoError(t, cache.Refresh(ctx))
		settings.AssertNumberOfCalls(t, "Get", 3)
	})

	t.Run("concurrent invalidation never yields an empty key", func(t *testing.T) {
		settings := new(MockSettingRepository)
		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).Return(nil, nil)
		cache := usecase.NewCredentialsCache(settings, sealer, "config-key", time.Minute, zap.NewNop())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				cache.Invalidate()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key, err := cache.APIKey(ctx)
				assert.NoError(t, err)
				assert.Equal(t, "config-key", key)
			}
		}()
		wg.Wait()
	})

	t.Run("no key anywhere", func(t *testing.T) {
		settings := new(MockSettingRepository)
		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).Return(nil, nil)
		cache := usecase.NewCredentialsCache(settings, sealer, "", time.Minute, zap.NewNop())

		_, err := cache.APIKey(ctx)

		assert.ErrorIs(t, err, usecase.ErrNoCredentials)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		settings := new(MockSettingRepository)
		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).Return(nil, errors.New("connection refused"))
		cache := usecase.NewCredentialsCache(settings, sealer, "config-key", time.Minute, zap.NewNop())

		_, err := cache.APIKey(ctx)

		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("store encrypts and invalidates", func(t *testing.T) {
		settings := new(MockSettingRepository)
		var stored *model.Setting
		settings.On("Upsert", ctx, mock.MatchedBy(func(s *model.Setting) bool {
			stored = s
			return s.Encrypted && s.Value != "new-key"
		})).Return(nil)
		cache := usecase.NewCredentialsCache(settings, sealer, "", time.Minute, zap.NewNop())

		require.NoError(t, cache.StoreAPIKey(ctx, "new-key"))

		settings.On("Get", ctx, model.SettingFulfillmentAPIKey).Return(stored, nil)
		key, err := cache.APIKey(ctx)
		require.NoError(t, err)
		assert.Equal(t, "new-key", key)
	})
}
