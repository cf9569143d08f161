package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"

	"elifsite/internal/config"
	"elifsite/internal/db"
	"elifsite/internal/logger"
	"elifsite/internal/pricing"
	"elifsite/internal/repository"
)

// go run ./cmd/catalog -mode=seed
// go run ./cmd/catalog -mode=show
// go run ./cmd/catalog -mode=verify
// go run ./cmd/catalog -mode=transcript -session=<id>
func main() {
	mode := flag.String("mode", "show", "seed, show, verify or transcript")
	session := flag.String("session", "", "session id for -mode=transcript")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lggr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lggr.Sync()

	if cfg.DatabaseURL == "" {
		lggr.Fatalw("DATABASE_URL is not set")
	}

	ctx := context.Background()

	if *mode == "transcript" {
		if *session == "" {
			lggr.Fatalw("-session is required for -mode=transcript")
		}
		conn, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			lggr.Fatalw("postgres unreachable", "err", err)
		}
		defer conn.Close()
		if err := (&repository.TurnRepository{DB: conn}).WriteTranscript(ctx, *session, os.Stdout); err != nil {
			lggr.Fatalw("read transcript failed", "session", *session, "err", err)
		}
		return
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		lggr.Fatalw("postgres unreachable", "err", err)
	}
	defer pool.Close()

	repo := &repository.CatalogRepository{DB: pool}

	switch *mode {
	case "seed":
		if err := repo.Seed(ctx, pricing.Default()); err != nil {
			lggr.Fatalw("seed failed", "err", err)
		}
		lggr.Infow("catalog seeded", "levels", len(pricing.Default().Levels()))

	case "show":
		c, err := repo.Load(ctx)
		if err != nil {
			lggr.Fatalw("load failed", "err", err)
		}
		out, err := pricing.PromptJSON(c)
		if err != nil {
			lggr.Fatalw("encode failed", "err", err)
		}
		fmt.Println(out)

	case "verify":
		c, err := repo.Load(ctx)
		if err != nil {
			lggr.Fatalw("load failed", "err", err)
		}
		if err := pricing.Validate(c); err != nil {
			lggr.Fatalw("stored catalog is invalid", "err", err)
		}
		if !reflect.DeepEqual(c, pricing.Default()) {
			lggr.Warnw("stored catalog differs from the built-in one")
		}
		lggr.Infow("catalog ok", "categories", len(c.Categories))

	default:
		lggr.Fatalw("unknown mode", "mode", *mode)
	}
}
