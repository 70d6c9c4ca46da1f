package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mhbaig/coffeemarketworker/config"
	"mhbaig/coffeemarketworker/internal/adapter"
	"mhbaig/coffeemarketworker/logger"
	"mhbaig/coffeemarketworker/services/browser"
	"mhbaig/coffeemarketworker/services/cache"
	"mhbaig/coffeemarketworker/services/publisher"
	"mhbaig/coffeemarketworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sources configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("sources", len(sources.Sources)).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	store := newCacheStore(cfg)

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		pub = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		defer pub.Close()
		log.Info().Str("addr", cfg.RedisAddr).Str("stream", cfg.RedisStream).
			Msg("Stream publishing enabled")
	}

	adapters := adapter.CreateAdapters(cfg, sources, adapter.Services{
		Cache:    store,
		Sessions: browser.NewRodFactory(cfg.BrowserTimeout),
	})
	if len(adapters) == 0 {
		log.Fatal().Msg("No adapters were created")
	}

	w := worker.NewWorker(adapters, pub, cfg.OutputDir, cfg.CrawlInterval)

	if cfg.RunOnce {
		if _, err := w.RunOnce(); err != nil {
			log.Error().Err(err).Msg("Run finished with errors")
		}
		return
	}

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- w.Start(ctx)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		}
	}

	log.Info().Msg("Shut down gracefully")
}

// newCacheStore selects the cache backend: the file store persists between
// runs on the local disk, memcache serves shared-cache deployments.
func newCacheStore(cfg config.Config) cache.CacheService {
	switch cfg.CacheBackend {
	case config.CacheBackendMemcache:
		logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcache backend")
		return cache.NewMemcacheService(cfg.MemcacheAddr)
	default:
		logger.ForCache().Info().Str("path", cfg.CacheFile).Msg("Using file cache backend")
		return cache.NewFileStore(cfg.CacheFile)
	}
}
