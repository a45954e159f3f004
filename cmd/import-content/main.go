// Package main provides the world seeding binary: it validates area content
// files against the dex and writes them to the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/roguemon/server/internal/config"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/importer"
	"github.com/roguemon/server/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "content/world", "path to area YAML directory")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	registry, err := dex.LoadRegistry(cfg.Game.DexDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading dex content: %v\n", err)
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	start := time.Now()
	imp := importer.New(registry, postgres.NewAreaRepository(pool.DB()))
	if err := imp.Run(ctx, *sourceDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}
