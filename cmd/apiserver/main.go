// Package main provides the API server binary that serves the roguelike
// HTTP API backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/roguemon/server/internal/api"
	"github.com/roguemon/server/internal/config"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/game/rng"
	"github.com/roguemon/server/internal/observability"
	"github.com/roguemon/server/internal/scripting"
	"github.com/roguemon/server/internal/server"
	"github.com/roguemon/server/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load the species catalog.
	dexStart := time.Now()
	registry, err := dex.LoadRegistry(cfg.Game.DexDir)
	if err != nil {
		logger.Fatal("loading dex content", zap.Error(err))
	}
	logger.Info("dex loaded",
		zap.Int("species", registry.SpeciesCount()),
		zap.Int("moves", registry.MoveCount()),
		zap.Duration("elapsed", time.Since(dexStart)),
	)

	// Connect to PostgreSQL for player, area, and pokemon persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	cryptoSrc := rng.NewCryptoSource()
	src := rng.NewLoggedSource(cryptoSrc, logger)

	httpServer := api.NewServer(
		cfg.HTTP,
		cfg.Game,
		api.Stores{
			Players: postgres.NewPlayerRepository(pool.DB()),
			Areas:   postgres.NewAreaRepository(pool.DB()),
			Pokemon: postgres.NewPokemonRepository(pool.DB()),
		},
		registry,
		src,
		logger,
	)

	// Scripted wild-pokemon AI is optional.
	if cfg.Game.ScriptDir != "" {
		policy := scripting.NewMovePolicy(logger)
		if err := policy.LoadDir(cfg.Game.ScriptDir, cfg.Game.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading ai scripts", zap.Error(err))
		}
		defer policy.Close()
		httpServer.UseMovePolicy(policy)
		logger.Info("ai scripts loaded", zap.String("dir", cfg.Game.ScriptDir))
	}

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("http", httpServer)

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("api server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
