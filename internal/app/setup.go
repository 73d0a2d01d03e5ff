package app

import (
	"context"
	"fmt"

	"github.com/polytrade/polybot/internal/bot"
	"github.com/polytrade/polybot/internal/gamma"
	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/internal/storage"
	"github.com/polytrade/polybot/internal/strategy"
	"github.com/polytrade/polybot/pkg/cache"
	"github.com/polytrade/polybot/pkg/config"
	"github.com/polytrade/polybot/pkg/healthprobe"
	"github.com/polytrade/polybot/pkg/httpserver"
	"github.com/polytrade/polybot/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	bookCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	gammaClient, cachedBooks := setupGammaClient(cfg, logger, bookCache)
	stream := setupStream(cfg, logger)

	journal, err := setupJournal(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup journal: %w", err)
	}

	settings := bot.NewSettingsStore(cfg.SettingsPath, cfg.AllowFastScan, logger)
	err = settings.Load()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	book := setupLedger(cfg, logger, journal, settings)
	registry := setupRegistry(cfg, logger)

	trader := bot.New(bot.Config{
		AppConfig: cfg,
		Settings:  settings,
		Ledger:    book,
		Events:    gammaClient,
		Books:     cachedBooks,
		Stream:    stream,
		Registry:  registry,
		Logger:    logger,
	})

	httpServer := setupHTTPServer(cfg, logger, healthChecker, trader, book)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		bookCache:     bookCache,
		gammaClient:   gammaClient,
		stream:        stream,
		journal:       journal,
		book:          book,
		settings:      settings,
		bot:           trader,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 books)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupGammaClient(cfg *config.Config, logger *zap.Logger, bookCache cache.Cache) (*gamma.Client, *gamma.CachedClient) {
	client := gamma.NewClient(gamma.Config{
		GammaURL: cfg.GammaURL,
		ClobURL:  cfg.ClobURL,
		Timeout:  cfg.HTTPTimeout,
		Logger:   logger,
	})

	return client, gamma.NewCachedClient(client, bookCache, cfg.BookCacheTTL)
}

func setupStream(cfg *config.Config, logger *zap.Logger) *websocket.Stream {
	return websocket.New(websocket.Config{
		URL:                   cfg.WSURL,
		Channel:               cfg.WSChannel,
		DialTimeout:           cfg.WSDialTimeout,
		HeartbeatInterval:     cfg.WSHeartbeatInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		UpdateBufferSize:      cfg.WSUpdateBufferSize,
		Logger:                logger,
	})
}

func setupJournal(cfg *config.Config, logger *zap.Logger) (ledger.Journal, error) {
	if cfg.StorageMode == "postgres" {
		pgJournal, err := storage.NewPostgresJournal(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres journal: %w", err)
		}
		return pgJournal, nil
	}

	return storage.NewConsoleJournal(logger), nil
}

func setupLedger(cfg *config.Config, logger *zap.Logger, journal ledger.Journal, settings *bot.SettingsStore) *ledger.Ledger {
	s := settings.Get()
	return ledger.New(ledger.Config{
		Limits: ledger.RiskLimits{
			MaxPositionSize:      s.MaxPositionSize,
			MaxPortfolioExposure: cfg.MaxPortfolioExposure,
			StopLossPercentage:   s.StopLossPercentage,
			TakeProfitPercentage: s.TakeProfitPercentage,
			DailyLossLimit:       cfg.DailyLossLimit,
		},
		Journal: journal,
		Logger:  logger,
	})
}

func setupRegistry(cfg *config.Config, logger *zap.Logger) *strategy.Registry {
	registry := strategy.NewRegistry()

	registry.Register(strategy.NewArbitrage(strategy.ArbitrageConfig{
		SafetyThreshold: cfg.ArbSafetyThreshold,
		MinNotional:     cfg.ArbMinNotional,
		Logger:          logger,
	}))

	registry.Register(strategy.NewVolumeSpike(strategy.VolumeSpikeConfig{
		SpikeDelta:   cfg.VolumeSpikeDelta,
		Momentum24hr: cfg.VolumeMomentum24hr,
		Logger:       logger,
	}))

	registry.Register(strategy.NewMomentum(strategy.MomentumConfig{
		Window:     cfg.MomentumWindow,
		MinElapsed: cfg.MomentumMinElapsed,
		MinChange:  cfg.MomentumMinChange,
		Logger:     logger,
	}))

	return registry
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	trader *bot.Bot,
	book *ledger.Ledger,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Bot:           trader,
		Ledger:        book,
	})
}
