package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/focusgate/internal/gate/common/clock"
	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/config"
	"github.com/haukened/focusgate/internal/gate/gateways/rules"
	"github.com/haukened/focusgate/internal/gate/gateways/transport"
	"github.com/haukened/focusgate/internal/gate/gateways/wire"
	"github.com/haukened/focusgate/internal/gate/repos/ledger"
	"github.com/haukened/focusgate/internal/gate/repos/registry"
	"github.com/haukened/focusgate/internal/gate/repos/statedb"
	"github.com/haukened/focusgate/internal/gate/repos/usage"
	"github.com/haukened/focusgate/internal/gate/services/arbiter"
	"github.com/haukened/focusgate/internal/gate/services/compiler"
	"github.com/haukened/focusgate/internal/gate/services/engine"
	"github.com/haukened/focusgate/internal/gate/services/scheduler"
	"github.com/haukened/focusgate/internal/gate/services/tracker"
)

const (
	version = "0.1.0-dev"
	appName = "focusgated"

	stateFileName = "focusgate.db"
)

// Application holds all the components of the blocking engine daemon.
type Application struct {
	config    *config.AppConfig
	db        *bbolt.DB
	transport *transport.StdioTransport
	engine    *engine.Engine
	compiler  *compiler.Compiler
	scheduler *scheduler.Scheduler
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"data_dir":      cfg.DataDir,
		"rules_path":    cfg.RulesPath,
		"grace_seconds": cfg.GraceSeconds,
	}, "Starting focusgate engine")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Engine failed")
	}

	log.Info(nil, "Focusgate engine stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	db, err := statedb.Open(filepath.Join(cfg.DataDir, stateFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	targetRepo := registry.New(db)
	grantRepo := ledger.New(db)
	usageRepo := usage.New(db)

	pusher := rules.NewFilePusher(cfg.RulesPath)

	ruleCompiler := compiler.New(compiler.Options{
		Targets: targetRepo,
		Grants:  grantRepo,
		Pusher:  pusher,
		Clock:   clk,
		Logger:  logger,
		Backoff: time.Duration(cfg.RecomputeBackoffMs) * time.Millisecond,
	})

	relock := scheduler.New(scheduler.Options{
		Grants:    grantRepo,
		Counters:  usageRepo,
		Recompute: ruleCompiler,
		Timers:    scheduler.WallTimers{},
		Clock:     clk,
		Logger:    logger,
	})

	sessions, err := arbiter.New(arbiter.Options{
		Lookup:           targetRepo,
		Granter:          grantRepo,
		Relocker:         relock,
		Recompute:        ruleCompiler,
		Clock:            clk,
		Logger:           logger,
		GraceSeconds:     cfg.GraceSeconds,
		SessionCacheSize: cfg.SessionCacheSize,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create arbiter: %w", err)
	}

	usageTracker := tracker.New(usageRepo, logger)

	eng := engine.New(engine.Options{
		Targets:   targetRepo,
		Ledger:    grantRepo,
		Usage:     usageRepo,
		Sessions:  sessions,
		Tracker:   usageTracker,
		Relocker:  relock,
		Recompute: ruleCompiler,
		Matcher:   pusher,
		Clock:     clk,
		Logger:    logger,
	})

	codec := wire.NewNativeCodec()
	stdio := transport.NewStdioTransport(os.Stdin, os.Stdout, codec, logger)

	return &Application{
		config:    cfg,
		db:        db,
		transport: stdio,
		engine:    eng,
		compiler:  ruleCompiler,
		scheduler: relock,
	}, nil
}

// Run starts the engine and blocks until the context is cancelled or the
// host closes the command stream.
func (app *Application) Run(ctx context.Context) error {
	defer func() {
		if err := app.db.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing state database")
		}
	}()

	go app.compiler.Run(ctx)

	// Re-establish expiry timers and drop grants that lapsed while the
	// process was down, then bring enforcement in line with stored state.
	if err := app.scheduler.Restore(); err != nil {
		return fmt.Errorf("failed to restore scheduler state: %w", err)
	}
	app.scheduler.StartRollover()
	defer app.scheduler.Stop()

	if err := app.transport.Start(ctx, app.engine); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}

	log.Info(map[string]any{"transport": "stdio"}, "Blocking engine started")

	select {
	case <-ctx.Done():
	case <-app.transport.Done():
		log.Info(nil, "Command stream closed by host")
	}

	log.Info(nil, "Shutdown initiated")
	return nil
}
