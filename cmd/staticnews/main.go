package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staticnews/internal/api"
	"staticnews/pkg/breakdown"
	"staticnews/pkg/cache"
	"staticnews/pkg/config"
	"staticnews/pkg/content"
	"staticnews/pkg/db"
	"staticnews/pkg/events"
	"staticnews/pkg/fallback"
	"staticnews/pkg/interrupt"
	"staticnews/pkg/llm"
	"staticnews/pkg/llm/gemini"
	"staticnews/pkg/llm/openai"
	"staticnews/pkg/llm/procedural"
	"staticnews/pkg/logging"
	"staticnews/pkg/media"
	"staticnews/pkg/pipeline"
	"staticnews/pkg/playout"
	"staticnews/pkg/probe"
	"staticnews/pkg/request"
	"staticnews/pkg/schedule"
	"staticnews/pkg/scorer"
	"staticnews/pkg/source"
	"staticnews/pkg/store"
	"staticnews/pkg/tracker"
	"staticnews/pkg/version"
	"staticnews/pkg/voting"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/staticnews.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/staticnews.yaml")
		return
	}

	if err := run(context.Background(), "configs/staticnews.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("static.news started", "version", version.Version)

	dbConn, st, err := initDB(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	tr := tracker.New()
	sqlCache := cache.NewSQLite(st)
	reqClient := request.New(sqlCache, tr, cfg.Request.Timeout.Std())

	schedCfg, err := config.LoadSchedule(cfg.Clock.SchedulePath)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	bus := events.NewBus()
	contentStore := content.NewStore(cfg.Content.Capacity)
	clk := schedule.NewClock(schedCfg)

	// A scheduling invariant violation means the broadcast state machine
	// is corrupt; there is nothing sensible to keep airing.
	fatal := func(err error) {
		slog.Error("Scheduling fault, aborting broadcast", "error", err)
		cancel()
	}
	orch := pipeline.NewOrchestrator(cfg, contentStore, scorer.New(), clk, bus, sqlCache, fatal)

	// Script generation chain.
	scriptProviders, chainNames := initScriptProviders(ctx, cfg)
	scriptExec, err := fallback.New(pipeline.ScriptProviders(scriptProviders), procedural.NewWriter(), cfg.Script.AttemptTimeout.Std(), tr)
	if err != nil {
		return fmt.Errorf("failed to build script chain: %w", err)
	}
	storyExec, err := fallback.New(pipeline.ScriptProviders(scriptProviders), procedural.NewStoryTeller(), cfg.Script.AttemptTimeout.Std(), tr)
	if err != nil {
		return fmt.Errorf("failed to build story chain: %w", err)
	}

	// Media chains: speech, video, composite.
	speechExec, err := mediaChain(cfg.Media.Speech, cfg, reqClient, tr)
	if err != nil {
		return err
	}
	videoExec, err := mediaChain(cfg.Media.Video, cfg, reqClient, tr)
	if err != nil {
		return err
	}
	compositeExec, err := mediaChain(cfg.Media.Composite, cfg, reqClient, tr)
	if err != nil {
		return err
	}

	// Content sources: external feed, then the built-in wire.
	srcChain := source.NewChain(
		source.NewNewsAPIClient(&cfg.Source, reqClient, sqlCache),
		source.NewStaticWire(4),
	)

	// Voting.
	voteMgr := voting.New(&cfg.Voting, st, bus)
	if err := voteMgr.Resume(ctx, time.Now()); err != nil {
		slog.Warn("Voting: resume failed, starting fresh", "error", err)
	}

	// Interrupts and breakdowns.
	interruptCtl := interrupt.NewController(cfg.Interrupt, bus, orch)
	go interruptCtl.Run(ctx)
	bdSched := breakdown.NewScheduler(cfg.Breakdown, orch, nil)

	// Playout.
	hub := playout.NewHub()
	sink := playout.NewMulti(playout.LogSink{}, hub)
	renderLoop := pipeline.NewRenderLoop(orch, speechExec, videoExec, compositeExec, sink, st)
	go renderLoop.Run(ctx)

	// Jobs.
	disp := pipeline.NewDispatcher(&cfg.Pipeline)
	disp.AddJob(pipeline.NewClockJob(&cfg.Clock, orch))
	disp.AddJob(pipeline.NewIngestJob(&cfg.Pipeline, srcChain, contentStore, bus))
	disp.AddJob(pipeline.NewStoryJob(&cfg.Pipeline, storyExec, contentStore))
	disp.AddJob(pipeline.NewScriptJob(&cfg.Pipeline, orch, scriptExec))
	disp.AddJob(pipeline.NewBreakdownJob(&cfg.Breakdown, bdSched))
	disp.AddJob(pipeline.NewVotingJob(&cfg.Voting, voteMgr, contentStore, orch, bus))
	disp.AddJob(pipeline.NewEvictionJob(cfg, contentStore, dbConn))
	go disp.Start(ctx)

	// Startup probes. Script providers are non-critical: the procedural
	// tier keeps the broadcast on air without them.
	probes := make([]probe.Probe, 0, len(scriptProviders))
	for _, p := range scriptProviders {
		probes = append(probes, probe.Probe{Name: p.Name(), Check: p.HealthCheck})
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, cfg, schedCfg, orch, voteMgr, contentStore, st, tr, hub, chainNames)
}

func initDB(cfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

// initScriptProviders builds the configured provider chain, skipping
// providers without keys so a bare install still runs.
func initScriptProviders(ctx context.Context, cfg *config.Config) ([]llm.Provider, []string) {
	var providers []llm.Provider
	var names []string

	for _, pc := range cfg.Script.Providers {
		switch pc.Name {
		case "gemini":
			if pc.Key == "" {
				slog.Info("Script: gemini not configured, skipping")
				continue
			}
			client, err := gemini.NewClient(ctx, pc)
			if err != nil {
				slog.Warn("Script: gemini init failed, skipping", "error", err)
				continue
			}
			providers = append(providers, client)
		case "openai":
			if pc.Key == "" {
				slog.Info("Script: openai not configured, skipping")
				continue
			}
			client, err := openai.NewClient(pc)
			if err != nil {
				slog.Warn("Script: openai init failed, skipping", "error", err)
				continue
			}
			providers = append(providers, client)
		default:
			slog.Warn("Script: unknown provider in config, skipping", "name", pc.Name)
			continue
		}
		names = append(names, pc.Name)
	}

	names = append(names, "procedural")
	return providers, names
}

// mediaChain builds a media fallback chain over the configured services.
func mediaChain(services []config.MediaServiceConfig, cfg *config.Config, rc *request.Client, tr *tracker.Tracker) (*fallback.Executor, error) {
	providers := make([]fallback.Provider, 0, len(services))
	for _, svc := range services {
		providers = append(providers, media.NewHTTPProvider(svc.Name, svc.URL, rc))
	}
	exec, err := fallback.New(providers, media.NewSlate(), cfg.Media.AttemptTimeout.Std(), tr)
	if err != nil {
		return nil, fmt.Errorf("failed to build media chain: %w", err)
	}
	return exec, nil
}

func runServer(ctx context.Context, cfg *config.Config, schedCfg *config.ScheduleConfig, orch *pipeline.Orchestrator, voteMgr *voting.Manager, items *content.Store, st store.Store, tr *tracker.Tracker, hub *playout.Hub, chainNames []string) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Addr,
		api.NewStatusHandler(orch, schedCfg, st),
		api.NewVotingHandler(voteMgr, items, st),
		api.NewStatsHandler(tr, items, orch, hub, chainNames),
		hub,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
