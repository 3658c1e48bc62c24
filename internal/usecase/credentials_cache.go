package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wekeepgrowing/likes-market/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/likes-market/internal/domain/repository"
	"go.uber.org/zap"
)

// ErrNoCredentials is returned when neither the settings table nor the
// configuration holds a provider key
var ErrNoCredentials = errors.New("fulfillment provider credentials not configured")

// SecretSealer encrypts and decrypts stored secrets
type SecretSealer interface {
	Encrypt(plaintext string) (ciphertext, iv string, err error)
	Decrypt(ciphertext, iv string) (plaintext string, err error)
}

// CredentialsCache holds the fulfillment provider API key for a short TTL.
// The settings row wins over the configured fallback key.
type CredentialsCache struct {
	settings domainRepo.SettingRepository
	sealer   SecretSealer
	fallback string
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	key       string
	expiresAt time.Time
}

// NewCredentialsCache creates a cache; ttl <= 0 disables caching
func NewCredentialsCache(settings domainRepo.SettingRepository, sealer SecretSealer, fallback string, ttl time.Duration, logger *zap.Logger) *CredentialsCache {
	return &CredentialsCache{
		settings: settings,
		sealer:   sealer,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// APIKey returns the cached key, loading it when missing or expired
func (c *CredentialsCache) APIKey(ctx context.Context) (string, error) {
	c.mu.RLock()
	key, expiresAt := c.key, c.expiresAt
	c.mu.RUnlock()

	if key != "" && c.now().Before(expiresAt) {
		return key, nil
	}
	return c.reload(ctx)
}

// Refresh reloads the key from storage regardless of expiry
func (c *CredentialsCache) Refresh(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

// reload returns the key it loaded, which a concurrent Invalidate may
// already have dropped from the cache.
func (c *CredentialsCache) reload(ctx context.Context) (string, error) {
	key, err := c.load(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.key = key
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
	return key, nil
}

// Invalidate drops the cached key so the next call reloads it
func (c *CredentialsCache) Invalidate() {
	c.mu.Lock()
	c.key = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// StoreAPIKey saves a new provider key encrypted and invalidates the cache
func (c *CredentialsCache) StoreAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("api key must not be empty")
	}

	ciphertext, iv, err := c.sealer.Encrypt(key)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key: %w", err)
	}

	if err := c.settings.Upsert(ctx, &model.Setting{
		Key:       model.SettingFulfillmentAPIKey,
		Value:     ciphertext,
		IV:        iv,
		Encrypted: true,
	}); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}

	c.Invalidate()
	c.logger.Info("Fulfillment provider key updated")
	return nil
}

func (c *CredentialsCache) load(ctx context.Context) (string, error) {
	setting, err := c.settings.Get(ctx, model.SettingFulfillmentAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to read provider credentials: %w", err)
	}

	if setting == nil || setting.Value == "" {
		if c.fallback == "" {
			return "", ErrNoCredentials
		}
		return c.fallback, nil
	}

	if !setting.Encrypted {
		return setting.Value, nil
	}

	key, err := c.sealer.Decrypt(setting.Value, setting.IV)
	if err != nil {
		c.logger.Error("Failed to decrypt provider credentials", zap.Error(err))
		return "", fmt.Errorf("failed to decrypt provider credentials: %w", err)
	}
	return key, nil
}
