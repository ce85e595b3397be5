package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"greengate-back/internal/apperrors"
	"greengate-back/internal/model"
	"greengate-back/internal/repository"
	"greengate-back/pkg/whatsapp"
)

const (
	webhookTestMessage      = "Webhook configuration appears valid. Send a test message to your business number to verify end-to-end functionality."
	webhookTestInstructions = "Send a WhatsApp message to your business number and check the Messages page to see if it appears."
)

type ConfigRepository interface {
	SelectValue(ctx context.Context, ext repository.RepoExtension, key string) (string, error)
	UpsertValue(ctx context.Context, ext repository.RepoExtension, key, value string) error
}

type ConfigCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ConfigService reads the key-value store through an optional cache. Known WhatsApp
// keys fall back to the bootstrap values from the service configuration.
type ConfigService struct {
	log        *zap.Logger
	configRepo ConfigRepository
	cache      ConfigCache
	bootstrap  map[string]string
	webhookURL string
	now        func() time.Time
}

func NewConfigService(
	log *zap.Logger,
	configRepo ConfigRepository,
	cache ConfigCache,
	bootstrap model.WhatsAppConfig,
	webhookURL string,
) *ConfigService {
	return &ConfigService{
		log:        log,
		configRepo: configRepo,
		cache:      cache,
		bootstrap: map[string]string{
			model.ConfigKeyAccessToken:   bootstrap.AccessToken,
			model.ConfigKeyWabaID:        bootstrap.WabaID,
			model.ConfigKeyPhoneNumberID: bootstrap.PhoneNumberID,
			model.ConfigKeyVerifyToken:   bootstrap.VerifyToken,
		},
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

func (s *ConfigService) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		value, err := s.cache.Get(ctx, key)
		if err == nil {
			return value, nil
		}

		if !errors.Is(err, apperrors.ErrConfigKeyNotFound) {
			s.log.Warn("Config cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := s.configRepo.SelectValue(ctx, nil, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrConfigKeyNotFound) {
			if fallback := s.bootstrap[key]; fallback != "" {
				return fallback, nil
			}

			return "", apperrors.ErrConfigKeyNotFound
		}

		return "", fmt.Errorf("failed to select config value: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, value); err != nil {
			s.log.Warn("Config cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return value, nil
}

func (s *ConfigService) Set(ctx context.Context, key, value string) error {
	if err := s.configRepo.UpsertValue(ctx, nil, key, value); err != nil {
		return fmt.Errorf("failed to upsert config value: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn("Config cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.log.Info("Config value saved", zap.String("key", key))

	return nil
}

// lookup is Get with a missing key mapped to "".
func (s *ConfigService) lookup(ctx context.Context, key string) (string, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrConfigKeyNotFound) {
			return "", nil
		}

		return "", err
	}

	return value, nil
}

func (s *ConfigService) WhatsAppConfig(ctx context.Context) (model.WhatsAppConfig, error) {
	var cfg model.WhatsAppConfig

	for key, dst := range map[string]*string{
		model.ConfigKeyAccessToken:   &cfg.AccessToken,
		model.ConfigKeyWabaID:        &cfg.WabaID,
		model.ConfigKeyPhoneNumberID: &cfg.PhoneNumberID,
		model.ConfigKeyVerifyToken:   &cfg.VerifyToken,
	} {
		value, err := s.lookup(ctx, key)
		if err != nil {
			return model.WhatsAppConfig{}, err
		}

		*dst = value
	}

	return cfg, nil
}

// SetWhatsAppConfig stores the non-empty fields and generates a verify token when none is given.
func (s *ConfigService) SetWhatsAppConfig(ctx context.Context, req model.SetWhatsAppConfigRequest) error {
	if req.VerifyToken == "" {
		req.VerifyToken = model.VerifyTokenPrefix + strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	for _, kv := range [][2]string{
		{model.ConfigKeyAccessToken, req.AccessToken},
		{model.ConfigKeyWabaID, req.WabaID},
		{model.ConfigKeyPhoneNumberID, req.PhoneNumberID},
		{model.ConfigKeyVerifyToken, req.VerifyToken},
	} {
		if kv[1] == "" {
			continue
		}

		if err := s.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}

	return nil
}

func (s *ConfigService) SafeConfig(ctx context.Context) (*model.SafeConfig, error) {
	cfg, err := s.WhatsAppConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &model.SafeConfig{
		HasAccessToken:   cfg.AccessToken != "",
		HasWabaID:        cfg.WabaID != "",
		HasPhoneNumberID: cfg.PhoneNumberID != "",
		HasVerifyToken:   cfg.VerifyToken != "",
		PhoneNumberID:    cfg.PhoneNumberID,
		WabaID:           cfg.WabaID,
	}, nil
}

// VerifyToken returns "" when no token is configured.
func (s *ConfigService) VerifyToken(ctx context.Context) (string, error) {
	return s.lookup(ctx, model.ConfigKeyVerifyToken)
}

// WebhookInfo prefers the configured public URL over the one derived from the request.
func (s *ConfigService) WebhookInfo(ctx context.Context, derivedURL string) (*model.WebhookInfo, error) {
	cfg, err := s.WhatsAppConfig(ctx)
	if err != nil {
		return nil, err
	}

	webhookURL := s.webhookURL
	if webhookURL == "" {
		webhookURL = derivedURL
	}

	return &model.WebhookInfo{
		WebhookURL:   webhookURL,
		VerifyToken:  cfg.VerifyToken,
		IsConfigured: cfg.AccessToken != "" && cfg.PhoneNumberID != "" && cfg.VerifyToken != "",
	}, nil
}

func (s *ConfigService) TestWebhook(ctx context.Context) (*model.WebhookTestResult, error) {
	token, err := s.VerifyToken(ctx)
	if err != nil {
		return nil, err
	}

	if token == "" {
		return nil, apperrors.ErrVerifyTokenNotSet
	}

	return &model.WebhookTestResult{
		Message:      webhookTestMessage,
		VerifyToken:  token,
		Instructions: webhookTestInstructions,
	}, nil
}

// Credentials are resolved per call so console updates apply without a restart.
func (s *ConfigService) Credentials(ctx context.Context) (whatsapp.Credentials, error) {
	cfg, err := s.WhatsAppConfig(ctx)
	if err != nil {
		return whatsapp.Credentials{}, err
	}

	return whatsapp.Credentials{
		AccessToken:   cfg.AccessToken,
		PhoneNumberID: cfg.PhoneNumberID,
		WabaID:        cfg.WabaID,
	}, nil
}
