package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flapboard/internal/api"
	"flapboard/pkg/board"
	"flapboard/pkg/breaker"
	"flapboard/pkg/config"
	"flapboard/pkg/core"
	"flapboard/pkg/db"
	"flapboard/pkg/frame"
	"flapboard/pkg/generator"
	"flapboard/pkg/llm"
	"flapboard/pkg/llm/gemini"
	"flapboard/pkg/llm/openai"
	"flapboard/pkg/llm/retry"
	"flapboard/pkg/logging"
	"flapboard/pkg/model"
	"flapboard/pkg/orchestrator"
	"flapboard/pkg/registry"
	"flapboard/pkg/request"
	"flapboard/pkg/selector"
	"flapboard/pkg/store"
	"flapboard/pkg/tracker"
	"flapboard/pkg/version"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/flapboard.yaml", "Path to config file")
	once       = flag.Bool("once", false, "Run a single major update cycle and exit")
)

const messagePrompt = `You write short, warm, occasionally playful messages for a
mechanical split-flap display in a shared space. One message per reply,
nothing else.`

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Flapboard started", "version", version.Version)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	tr := tracker.New()
	rc := request.New(tr, time.Duration(cfg.Request.Timeout))

	preferred, alternate, err := buildProviders(cfg, rc)
	if err != nil {
		return err
	}

	reg := registry.New()
	if err := bootstrapGenerators(reg, cfg); err != nil {
		return err
	}

	decorator := frame.NewDecorator(cfg.Board.Rows, cfg.Board.Cols)
	boardClient := board.New(cfg.Board.BaseURL, cfg.Board.Key,
		board.WithMaxRetries(cfg.Board.MaxRetries),
		board.WithBaseDelay(time.Duration(cfg.Board.BaseDelay)),
		board.WithAttemptTimeout(time.Duration(cfg.Board.Timeout)),
		board.WithTracker(tr),
	)

	brk := breaker.New(st)
	orch := orchestrator.New(orchestrator.Config{
		Registry:  reg,
		Selector:  selector.New(reg, nil),
		Retry:     retry.New(tr),
		Preferred: preferred,
		Alternate: alternate,
		Breaker:   brk,
		Decorator: decorator,
		Validator: decorator,
		Board:     boardClient,
		Store:     st,
	})
	defer orch.Close()

	if *once {
		res, err := orch.GenerateAndSend(ctx, model.GenerationContext{
			UpdateType: model.UpdateMajor,
			Timestamp:  time.Now(),
		})
		if err != nil {
			return err
		}
		slog.Info("Single cycle complete", "success", res.Success, "blocked", res.Blocked)
		return nil
	}

	sched := core.NewScheduler(orch,
		time.Duration(cfg.Updates.MajorInterval),
		time.Duration(cfg.Updates.MinorInterval))

	var apiSrv *http.Server
	if cfg.API.Addr != "" {
		apiSrv = api.NewServer(cfg.API.Addr,
			api.NewEventHandler(sched),
			api.NewHistoryHandler(st),
			api.NewCircuitHandler(brk, reg),
			api.NewStatsHandler(tr),
			cancel,
		)
		go func() {
			slog.Info("API server listening", "addr", cfg.API.Addr)
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("API server failed", "error", err)
				cancel()
			}
		}()
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		slog.Info("Shutdown signal received")
		cancel()
	}()

	sched.Run(ctx)

	if apiSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("API server shutdown incomplete", "error", err)
		}
	}

	logStats(tr)
	return nil
}

// buildProviders creates the preferred and alternate AI providers from
// config. A missing alternate is allowed; a missing preferred is not.
func buildProviders(cfg *config.Config, rc *request.Client) (preferred, alternate llm.Provider, err error) {
	preferred, err = buildProvider(cfg, cfg.LLM.Preferred, rc)
	if err != nil {
		return nil, nil, fmt.Errorf("preferred provider: %w", err)
	}

	if cfg.LLM.Alternate != "" {
		alternate, err = buildProvider(cfg, cfg.LLM.Alternate, rc)
		if err != nil {
			slog.Warn("Alternate provider unavailable, running without failover", "error", err)
			alternate = nil
		}
	}
	return preferred, alternate, nil
}

func buildProvider(cfg *config.Config, name string, rc *request.Client) (llm.Provider, error) {
	pCfg, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found in config", name)
	}

	switch pCfg.Type {
	case "gemini":
		return gemini.NewClient(pCfg, cfg.Log.LLM.Path)
	case "openai":
		return openai.NewClient(name, pCfg, rc)
	default:
		return nil, fmt.Errorf("unknown llm provider type: %s", pCfg.Type)
	}
}

// bootstrapGenerators registers the built-in content sources.
func bootstrapGenerators(reg *registry.Registry, cfg *config.Config) error {
	maxChars := cfg.Board.Rows * cfg.Board.Cols / 2

	entries := []struct {
		reg model.GeneratorRegistration
		gen generator.ContentGenerator
	}{
		{
			reg: model.GeneratorRegistration{
				ID:           "visitor-notification",
				DisplayName:  "Visitor notification",
				Priority:     model.TierNotification,
				Cost:         model.CostEconomy,
				EventPattern: `^visitor\..*`,
			},
			gen: generator.NewEventGenerator("WELCOME {entity}"),
		},
		{
			reg: model.GeneratorRegistration{
				ID:          "ai-message",
				DisplayName: "AI rotating message",
				Priority:    model.TierNormal,
				Cost:        model.CostStandard,
				Format:      &model.FormatOptions{ShowTime: true},
			},
			gen: generator.NewAIGenerator("message", messagePrompt, model.CostStandard, maxChars),
		},
		{
			reg: model.GeneratorRegistration{
				ID:          "static-fallback",
				DisplayName: "Static fallback",
				Priority:    model.TierFallback,
				Cost:        model.CostEconomy,
			},
			gen: generator.NewStaticGenerator(nil),
		},
	}

	for _, e := range entries {
		if problems := e.gen.Validate(); len(problems) > 0 {
			return fmt.Errorf("generator %q misconfigured: %v", e.reg.ID, problems)
		}
		if err := reg.Register(e.reg, e.gen); err != nil {
			return err
		}
	}
	return nil
}

func logStats(tr *tracker.Tracker) {
	for target, stats := range tr.Snapshot() {
		slog.Info("Usage stats",
			"target", target,
			"success", stats.Success,
			"failures", stats.Failures,
			"failovers", stats.FailedOver,
			"retries", stats.Retries)
	}
}
