package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"markestedt/snipai/capture"
	"markestedt/snipai/config"
	"markestedt/snipai/inject"
	"markestedt/snipai/llm"
	"markestedt/snipai/platform"
	"markestedt/snipai/session"
	"markestedt/snipai/storage"
	"markestedt/snipai/systray"
	"markestedt/snipai/web"
)

func main() {
	// Setup logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	configPath, _ := config.ConfigPath()
	slog.Info("Configuration loaded", "path", configPath)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err, "path", configPath)
		os.Exit(1)
	}

	// History / stats store lives next to the config file
	db, err := storage.Open(filepath.Dir(configPath))
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// OS automation primitives
	clip := platform.NewClipboard()
	keys := platform.NewKeys()
	windows := platform.NewWindowManager()
	hotkey := platform.NewHotkey()

	// Orchestration components
	guard := capture.NewGuard(clip)
	capturer := capture.NewCapturer(
		guard,
		keys,
		time.Duration(cfg.Capture.TimeoutMs)*time.Millisecond,
		time.Duration(cfg.Capture.PollIntervalMs)*time.Millisecond,
		cfg.Capture.Retries,
	)
	executor := inject.NewExecutor(guard, capturer, keys, windows, 3*time.Second, 100*time.Millisecond)
	undo := inject.NewUndoStore()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		slog.Error("Failed to create LLM provider", "error", err)
		os.Exit(1)
	}

	sinks := &fanoutSink{}
	sess := session.New(capturer, executor, provider, undo, windows, sinks, dbRecorder{db: db})

	srv := web.NewServer(db, cfg, sess, undo, cfg.Web.Port)
	if cfg.Web.Enabled {
		sinks.Add(srv)
		sinks.Add(browserSink{url: srv.URL()})
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("Chat UI server stopped", "error", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := NewAgent(cfg, hotkey, sess)
	agentErr := make(chan error, 1)
	go func() {
		agentErr <- agent.Run(ctx)
	}()

	tray := systray.NewManager(srv.URL())
	go func() {
		select {
		case <-ctx.Done():
		case <-tray.WaitForQuit():
			cancel()
		case err := <-agentErr:
			if err != nil {
				slog.Error("Agent error", "error", err)
			}
			cancel()
		}
		tray.Stop()
	}()

	// The tray owns the main thread until shutdown.
	tray.Run()

	slog.Info("SnipAI stopped")
}
