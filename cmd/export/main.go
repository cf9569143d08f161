package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"elifsite/internal/config"
	"elifsite/internal/export"
	"elifsite/internal/logger"
	"elifsite/internal/page"
	"elifsite/internal/repository"
)

// go run ./cmd/export -format=pdf -out=dist
// go run ./cmd/export -format=all
func main() {
	format := flag.String("format", "all", "jpg, pdf, ai, svg or all")
	out := flag.String("out", ".", "output directory")
	workers := flag.Int("workers", 2, "parallel exports when -format=all")
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

	formats := export.Formats()
	if !strings.EqualFold(*format, "all") {
		f, err := export.ParseFormat(*format)
		if err != nil {
			lggr.Fatalw("bad -format", "err", err)
		}
		formats = []export.Format{f}
	}

	ctx := context.Background()
	catalog, err := repository.LoadCatalog(ctx, cfg)
	if err != nil {
		lggr.Fatalw("load catalog failed", "err", err)
	}
	renderer, err := page.NewRenderer(catalog)
	if err != nil {
		lggr.Fatalw("load page template failed", "err", err)
	}

	engine := &export.ChromiumEngine{
		BrowserPath: cfg.ChromePath,
		Timeout:     cfg.ExportTimeout,
		Args:        []string{"--no-sandbox", "--disable-dev-shm-usage"},
	}
	defer engine.Close()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		lggr.Fatalw("create output dir failed", "dir", *out, "err", err)
	}

	results, err := export.RunBatch(ctx, export.NewService(engine, renderer, lggr, nil), formats, *workers)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		path := filepath.Join(*out, r.Document.Filename)
		if werr := os.WriteFile(path, r.Document.Body, 0o644); werr != nil {
			lggr.Errorw("write export failed", "path", path, "err", werr)
			continue
		}
		lggr.Infow("wrote export", "path", path, "bytes", len(r.Document.Body))
	}
	if err != nil {
		engine.Close()
		lggr.Fatalw("some exports failed", "err", err)
	}
}
