// Package main provides an interactive terminal battle against a wild
// pokemon, useful for exercising the rules engine without the server.
package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/roguemon/server/internal/config"
	"github.com/roguemon/server/internal/frontend"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/game/rng"
	"github.com/roguemon/server/internal/observability"
	"github.com/roguemon/server/internal/scripting"
)

func main() {
	dexDir := flag.String("dex", "content/dex", "path to dex content directory")
	playerSpecies := flag.Int("player", 4, "player species id")
	playerLevel := flag.Int("player-level", 5, "player level")
	enemySpecies := flag.Int("enemy", 1, "enemy species id")
	enemyLevel := flag.Int("enemy-level", 3, "enemy level")
	scriptDir := flag.String("ai-scripts", "", "directory of Lua enemy AI scripts; empty = built-in AI")
	seed := flag.Int64("seed", 0, "rng seed; 0 uses a crypto source")
	flag.Parse()

	logger, err := observability.NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	registry, err := dex.LoadRegistry(*dexDir)
	if err != nil {
		logger.Fatal("loading dex content", zap.Error(err))
	}

	var src rng.Source
	if *seed != 0 {
		src = rng.NewSeededSource(*seed)
	} else {
		src = rng.NewCryptoSource()
	}

	var policy frontend.EnemyPolicy
	if *scriptDir != "" {
		movePolicy := scripting.NewMovePolicy(logger)
		if err := movePolicy.LoadDir(*scriptDir, 0); err != nil {
			logger.Fatal("loading ai scripts", zap.Error(err))
		}
		defer movePolicy.Close()
		policy = movePolicy
	}

	player, err := registry.Spawn(*playerSpecies, *playerLevel)
	if err != nil {
		logger.Fatal("spawning player pokemon", zap.Error(err))
	}
	enemy, err := registry.Spawn(*enemySpecies, *enemyLevel)
	if err != nil {
		logger.Fatal("spawning enemy pokemon", zap.Error(err))
	}

	demo := frontend.NewDemo(os.Stdin, os.Stdout, registry.Chart(), src, policy)
	if _, err := demo.Run(player, enemy); err != nil {
		logger.Fatal("battle error", zap.Error(err))
	}
}
