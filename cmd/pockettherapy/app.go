package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/analyzer"
	"github.com/xaenox/pocket-therapy/internal/checkin"
	"github.com/xaenox/pocket-therapy/internal/classifier"
	"github.com/xaenox/pocket-therapy/internal/crisis"
	"github.com/xaenox/pocket-therapy/internal/kv"
	"github.com/xaenox/pocket-therapy/internal/recommender"
	"github.com/xaenox/pocket-therapy/internal/seed"
	"github.com/xaenox/pocket-therapy/internal/storage"
	"github.com/xaenox/pocket-therapy/pkg/config"
)

// app holds the wired collaborators shared by every subcommand.
type app struct {
	storage     storage.Storage
	catalog     storage.CatalogStorage
	kv          kv.Store
	checkin     *checkin.Service
	analyzer    *analyzer.Analyzer
	recommender *recommender.Recommender
	locator     *crisis.Locator
	seeder      *seed.Seeder
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
	logger.Info("Using PostgreSQL storage")
	return storage.NewPostgresStorage(ctx, storage.DatabaseConfig{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logger)
}

func openKV(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kv.Store, error) {
	if cfg.Redis.URL == "" {
		logger.Info("Using in-memory key-value store")
		return kv.NewMemoryStore(), nil
	}
	logger.Info("Using Redis key-value store")
	return kv.NewRedisStore(ctx, kv.RedisConfig{URL: cfg.Redis.URL, Prefix: cfg.Redis.Prefix})
}

func newClassifier(cfg *config.Config, logger *zap.Logger) classifier.Classifier {
	if cfg.Classifier.Provider == "gpt" && cfg.OpenAI.APIKey != "" {
		return classifier.NewGPTClassifier(classifier.GPTOptions{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			MaxTags:     cfg.Classifier.MaxTags,
		}, logger)
	}
	logger.Info("Using keyword trigger classifier")
	return classifier.NewSimpleClassifier(cfg.Classifier.MaxTags)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	cache, err := openKV(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize key-value store: %w", err)
	}

	var providers []crisis.LocationProvider
	if cfg.Crisis.IPLookupURL != "" {
		providers = append(providers, crisis.NewIPLocator(cfg.Crisis.IPLookupURL, cfg.Crisis.IPLookupTimeout))
	}

	return &app{
		storage: store,
		catalog: seed.NewFallbackCatalog(store, logger),
		kv:      cache,
		checkin: checkin.New(store, cache, newClassifier(cfg, logger), checkin.Options{
			Retention: cfg.Retention.Window(),
			Location:  cfg.Location(),
		}, logger),
		analyzer:    analyzer.New(cfg.Location()),
		recommender: recommender.New(logger),
		locator: crisis.NewLocator(store, cache, crisis.Config{
			DefaultCountry:   cfg.Crisis.DefaultCountry,
			LocationTTL:      cfg.Crisis.LocationTTL,
			ResourceCacheTTL: cfg.Crisis.ResourceCacheTTL,
		}, logger, providers...),
		seeder: seed.NewSeeder(store, cache, logger),
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.kv.Close(), a.storage.Close())
}
