package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"elifsite/internal/chat"
	"elifsite/internal/config"
	"elifsite/internal/db"
	"elifsite/internal/export"
	"elifsite/internal/logger"
	"elifsite/internal/observability"
	"elifsite/internal/page"
	"elifsite/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lggr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lggr.Sync()
	for _, w := range cfg.Warnings() {
		lggr.Warnw(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	metricsSrv := observability.Start(cfg.MetricsPort, reg)

	// --- catalog ---
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	catalog, err := repository.LoadCatalog(startCtx, cfg)
	cancel()
	if err != nil {
		lggr.Fatalw("load catalog failed", "source", cfg.CatalogSource, "err", err)
	}
	lggr.Infow("catalog loaded", "source", cfg.CatalogSource, "categories", len(catalog.Categories))

	// --- transcripts ---
	var store chat.TranscriptStore = chat.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			// plain host:port
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lggr.Fatalw("redis unreachable", "err", err)
		}
		store = &chat.RedisStore{Client: rdb, TTL: cfg.SessionTTL}
	}

	svcOpts := []chat.Option{chat.WithMetrics(metrics)}
	if cfg.DatabaseURL != "" {
		conn, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			lggr.Fatalw("postgres unreachable", "err", err)
		}
		defer conn.Close()
		svcOpts = append(svcOpts, chat.WithArchive(&repository.TurnRepository{DB: conn}))
	}

	// --- advisor ---
	instruction, err := chat.SystemInstruction(catalog)
	if err != nil {
		lggr.Fatalw("build system instruction failed", "err", err)
	}
	advisor := chat.NewAdvisor(chat.NewOpenAIClient(cfg.APIKey, cfg.LLMBaseURL), chat.AdvisorConfig{
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
		Instruction: instruction,
	}, lggr, metrics)
	chatSvc := chat.NewService(store, advisor, lggr, svcOpts...)

	// --- page + export ---
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
	exportSvc := export.NewService(engine, renderer, lggr, metrics)

	// --- router ---
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	page.RegisterRoutes(r, page.NewHandler(renderer, lggr))
	chat.RegisterRoutes(r, chat.NewHandler(chatSvc))
	export.RegisterRoutes(r, export.NewHandler(exportSvc))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		lggr.Infow("listening", "port", cfg.Port, "metrics_port", cfg.MetricsPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lggr.Fatalw("server error", "err", err)
		}
	}()

	<-ctx.Done()
	lggr.Infow("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lggr.Errorw("shutdown failed", "err", err)
	}
	metricsSrv.Shutdown(shutdownCtx)
}
