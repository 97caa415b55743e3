package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"spotlight-mcp-server/internal/browser"
	"spotlight-mcp-server/internal/config"
	mcpserver "spotlight-mcp-server/internal/mcp"
	"spotlight-mcp-server/internal/recorder"
	"spotlight-mcp-server/internal/search"
	"spotlight-mcp-server/internal/session"
	"spotlight-mcp-server/internal/spotlight"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the Spotlight MCP config file")
	ssePort := flag.Int("sse-port", 0, "Optional SSE port override (falls back to config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Before we can redirect logs, write to stderr as last resort
		log.Fatalf("failed to load config: %v", err)
	}

	// Redirect logging to file for stdio mode (stderr interferes with MCP protocol)
	if cfg.MCP.SSEPort == 0 && cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			// If we can't open log file, disable logging to avoid stderr pollution
			log.SetOutput(io.Discard)
		}
	}
	if *ssePort != 0 {
		cfg.MCP.SSEPort = *ssePort
	}

	store := session.NewStore(cfg.Session.StorePath)
	pages := browser.NewPageManager(cfg.Browser)

	if cfg.Browser.AutoStart {
		if err := pages.Start(ctx); err != nil {
			log.Fatalf("failed to initialize browser: %v", err)
		}
		// Best-effort: bind to the logged-in host tab and derive session
		// context. Failure just means the offline dataset serves searches
		// until find-host-tab / refresh-session succeed.
		if _, err := pages.FindHostTab(ctx); err != nil {
			log.Printf("host tab not found at startup: %v", err)
		} else if probe := pages.HostProbe(); probe != nil {
			ext := session.NewExtractor(probe, store, cfg.Browser.GetHostPatterns(),
				cfg.Session.ShortDelay(), cfg.Session.LongDelay())
			go ext.ExtractWithRetry(ctx)
		}
	} else {
		log.Printf("browser auto-start disabled; use MCP tools to launch/attach later")
	}

	limit := cfg.Spotlight.GetPerTypeLimit()
	// The resolver re-probes the strategy whenever the host binding moves,
	// so a tab bound after startup (launch-browser → find-host-tab) still
	// gets the in-page backend.
	resolver := search.NewResolver(func() search.Evaluator {
		if ev := pages.HostEvaluator(); ev != nil {
			return ev
		}
		return nil
	}, pages.HostGeneration, nil, limit)
	executor := search.NewExecutor(resolver.Backend, cfg.Spotlight.CacheTTLDuration(), limit)
	pipeline := search.NewPipeline(executor, store.Current)

	var rec *recorder.Recorder
	if cfg.Spotlight.TraceDir != "" {
		rec, err = recorder.NewRecorder(cfg.Spotlight.TraceDir)
		if err != nil {
			log.Printf("search tracing disabled: %v", err)
		} else {
			if err := rec.Start("server"); err != nil {
				log.Printf("search tracing disabled: %v", err)
				rec = nil
			} else {
				defer rec.Close()
			}
		}
	}

	controller := spotlight.NewController(pipeline, pages, spotlight.Options{
		Debounce: cfg.Spotlight.DebounceDuration(),
		Recorder: rec,
	})
	controller.Initialize()

	server, err := mcpserver.NewServer(cfg, pages, controller, store)
	if err != nil {
		log.Fatalf("failed to initialize MCP server: %v", err)
	}

	var startErr error
	if cfg.MCP.SSEPort > 0 {
		log.Printf("starting Spotlight MCP SSE server on port %d", cfg.MCP.SSEPort)
		startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
	} else {
		log.Printf("starting Spotlight MCP stdio server")
		startErr = server.Start(ctx)
	}

	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		log.Fatalf("server exited with error: %v", startErr)
	}
}
