package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/mtr-normalizer/internal/classification"
	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/config"
	"github.com/Veraticus/mtr-normalizer/internal/engine"
	"github.com/Veraticus/mtr-normalizer/internal/llm"
	"github.com/Veraticus/mtr-normalizer/internal/okpd2"
	"github.com/Veraticus/mtr-normalizer/internal/service"
	"github.com/Veraticus/mtr-normalizer/internal/storage"
	"github.com/Veraticus/mtr-normalizer/internal/validation"
	"github.com/Veraticus/mtr-normalizer/internal/websearch"
)

// components is the wired pipeline plus everything that needs closing.
type components struct {
	detector *classification.Detector
	pipeline *engine.Pipeline
	research *engine.CachedResearch
	finder   *okpd2.Finder
	store    service.Storage
	offline  bool
}

// initStorage opens the run history database and migrates it.
func initStorage(ctx context.Context, s *config.Settings) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(s.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// buildComponents wires detector, oracles, classifier and validator into a
// pipeline. Without an API key, or with --offline, the mock oracle and the
// built-in catalog stand in for the LLM and the web.
func buildComponents(ctx context.Context, s *config.Settings, progress engine.Progress) (*components, error) {
	logger := slog.Default()
	useOffline := offline || !s.HasAPIKey()
	if useOffline && !offline {
		logger.Warn("no API key configured, using offline oracle",
			"provider", s.LLM.Provider,
			"env", config.ProviderKeyEnv(s.LLM.Provider))
	}

	store, err := initStorage(ctx, s)
	if err != nil {
		return nil, err
	}

	retry := service.RetryOptions{
		MaxAttempts:  s.Processing.MaxRetries,
		InitialDelay: s.Processing.RetryDelay,
	}

	var (
		oracle     service.ResearchOracle
		suggestion service.SuggestionOracle
		sources    = []service.CandidateSource{okpd2.NewCatalog(nil)}
		advisors   []service.CandidateSource
	)

	if useOffline {
		mock := engine.NewMockOracle()
		oracle, suggestion = mock, mock
	} else {
		client, err := llm.NewClient(llm.Config{
			Provider:    s.LLM.Provider,
			APIKey:      s.LLM.APIKey,
			Model:       s.LLM.Model,
			BaseURL:     s.LLM.BaseURL,
			Timeout:     s.LLM.Timeout,
			RateLimit:   s.LLM.RateLimit,
			Temperature: s.LLM.Temperature,
			MaxTokens:   s.LLM.MaxTokens,
		})
		if err != nil {
			_ = store.Close()
			return nil, common.NewUserError("Failed to configure the language model", err)
		}

		webCfg := websearch.Config{
			Timeout:   s.WebSearch.Timeout,
			RateLimit: s.WebSearch.RateLimit,
			Logger:    logger,
		}
		searchCfg := webCfg
		searchCfg.BaseURL = s.WebSearch.SearchURL
		registryCfg := webCfg
		registryCfg.BaseURL = s.WebSearch.RegistryURL

		searcher := websearch.NewProductSearcher(websearch.NewSearcher(searchCfg))
		oracle = llm.NewResearchAgent(client, searcher, logger)
		suggestion = llm.NewSuggester(client)
		sources = append(sources, websearch.NewRegistry(registryCfg))
		advisors = append(advisors, llm.NewCodeAdvisor(client, retry, logger))
	}

	research := engine.NewCachedResearch(oracle, store, s.Cache.TTL, s.Cache.MaxEntries, logger)
	finder := okpd2.NewFinder(okpd2.FinderOptions{
		Sources:    sources,
		Advisors:   advisors,
		Logger:     logger,
		CacheTTL:   s.Cache.TTL,
		CacheLimit: s.Cache.MaxEntries,
	})
	detector := classification.NewDefaultDetector()

	pipeline := engine.New(engine.Dependencies{
		Detector:   detector,
		Research:   research,
		Classifier: okpd2.NewClassifier(finder, nil),
		Validator:  validation.NewValidator(nil, suggestion, s.Processing.CallTimeout, logger),
		Progress:   progress,
		Logger:     logger,
	}, engine.Config{
		BatchSize:   s.Processing.BatchSize,
		Workers:     s.Processing.Workers,
		MaxRetries:  s.Processing.MaxRetries,
		CallTimeout: s.Processing.CallTimeout,
		RetryDelay:  s.Processing.RetryDelay,
	})

	return &components{
		detector: detector,
		pipeline: pipeline,
		research: research,
		finder:   finder,
		store:    store,
		offline:  useOffline,
	}, nil
}

// Close releases caches and the database.
func (c *components) Close() {
	c.research.Close()
	c.finder.Close()
	if err := c.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}
