package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/ai"
	"github.com/toolbelt/plumbing-estimator/internal/ai/gemini"
	"github.com/toolbelt/plumbing-estimator/internal/ai/openai"
	"github.com/toolbelt/plumbing-estimator/internal/estimate"
	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/history"
	"github.com/toolbelt/plumbing-estimator/internal/logger"
	"github.com/toolbelt/plumbing-estimator/internal/model"
	"github.com/toolbelt/plumbing-estimator/internal/normalize"
	"github.com/toolbelt/plumbing-estimator/internal/secrets"
)

// setup builds the logger and reads the configuration every command starts from.
func setup() (*Config, *zap.Logger) {
	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  viper.GetString("log-file"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Model == nil || config.AI == nil || config.Currency == nil || config.History == nil {
		logger.Fatal("config is incomplete")
	}

	return config, logger
}

func loadPredictor(cfg *ModelConfig, path string, logger *zap.Logger) (*model.Predictor, error) {
	policy, err := model.ParseMissingPolicy(cfg.MissingFields)
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = cfg.Path
	}

	predictor, err := model.LoadPredictor(path, model.Options{
		MissingFields:    policy,
		StrictCategories: cfg.StrictCategories,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("loading model bundle %q: %w", path, err)
	}

	return predictor, nil
}

// newGenerator resolves the API key of the configured provider and builds its client.
func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, string, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	switch provider {
	case "", gemini.Provider:
		pc := providerConfig(cfg.Gemini)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: pc.APIKey,
			File:  pc.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, gemini.Provider, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, pc.Model, pc.MaxRetries, logger.With(zap.Int("ai_retry_attempts", pc.MaxRetries)))
		if err != nil {
			return nil, gemini.Provider, err
		}
		return generator, gemini.Provider, nil

	case openai.Provider:
		pc := providerConfig(cfg.OpenAI)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: pc.APIKey,
			File:  pc.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, openai.Provider, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}

		client, err := openai.NewClient(apiKey, pc.Model, pc.MaxRetries, logger)
		if err != nil {
			return nil, openai.Provider, err
		}
		return client, openai.Provider, nil

	default:
		return nil, provider, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func providerConfig(pc *ProviderConfig) ProviderConfig {
	if pc == nil {
		return ProviderConfig{}
	}
	return *pc
}

// newExtractor chains the provider extractor with the timeout, cache and
// fallback wrappers the configuration asks for.
func newExtractor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Extractor, string, error) {
	generator, provider, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, provider, err
	}

	var extractor ai.Extractor = ai.NewExtractor(provider, generator, logger, cfg.MaxLogLength)
	extractor = ai.WithTimeout(extractor, cfg.Timeout)

	if cfg.CacheSize > 0 {
		cache, err := ai.WithCache(extractor, cfg.CacheSize)
		if err != nil {
			return nil, provider, err
		}
		extractor = cache
	}

	if cfg.Fallback {
		extractor = ai.WithFallback(extractor, features.Defaults(), logger)
	}

	return extractor, provider, nil
}

// openHistory returns nil when history is disabled.
func openHistory(cfg *HistoryConfig, logger *zap.Logger) (*history.Store, error) {
	if !cfg.Enabled {
		logger.Info("estimate history disabled")
		return nil, nil
	}

	store, err := history.Open(cfg.Path)
	if err != nil {
		return nil, err
	}

	logger.Debug("estimate history opened", zap.String("path", cfg.Path))
	return store, nil
}

func newService(config *Config, extractor ai.Extractor, predictor estimate.Predictor, store *history.Store, logger *zap.Logger) (*estimate.Service, error) {
	// a nil *history.Store must not reach the service as a non-nil Recorder
	var recorder estimate.Recorder
	if store != nil {
		recorder = store
	}

	return estimate.NewService(extractor, predictor, recorder, estimate.Options{
		Rate:        config.Currency.Rate,
		TimeDivisor: config.Currency.TimeDivisor,
		Defaults:    features.Defaults(),
		Steps:       normalize.Default(config.AI.Fallback),
	}, logger)
}
