// Command agent serves the sourcing agent HTTP API, or answers a single
// query and exits.
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

	"github.com/F8ai/sourcing-agent/agent"
	"github.com/F8ai/sourcing-agent/api"
	"github.com/F8ai/sourcing-agent/config"
	"github.com/F8ai/sourcing-agent/kb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	os.Exit(run())
}

func run() int {
	defaultCfg := config.DefaultConfig()

	listenDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("SOURCING_LISTEN_ADDR"); ok {
		listenDefault = value
	}
	kbDefault := defaultCfg.KnowledgeBase
	if value, ok := config.EnvString("SOURCING_KNOWLEDGE_BASE"); ok {
		kbDefault = value
	}

	listenAddr := flag.String("listen", listenDefault, "HTTP listen address")
	kbPath := flag.String("kb", kbDefault, "Path to the knowledge base document")
	sourcesFile := flag.String("sources-file", defaultCfg.SourcesFile, "Path to sources JSON file")
	query := flag.String("query", "", "Process a single query and exit")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.ListenAddr = *listenAddr
	cfg.KnowledgeBase = *kbPath
	cfg.SourcesFile = *sourcesFile
	cfg.Verbose = *verbose

	knowledge, err := kb.Load(cfg.KnowledgeBase)
	if err != nil {
		// Agent still runs; every knowledge query answers empty.
		slog.Warn("loading knowledge base", slog.Any("error", err))
	}
	a := agent.New(knowledge)

	if *query != "" {
		return runQuery(a, *query)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.New(a, cfg, registry).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting sourcing agent", slog.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			return 1
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.Any("error", err))
			return 1
		}
	}
	return 0
}

func runQuery(a *agent.Agent, query string) int {
	fmt.Printf("Processing query: %s\n", query)

	response, err := a.ProcessQuery(context.Background(), "cli_user", query)
	if err != nil {
		slog.Error("query failed", slog.Any("error", err))
		return 1
	}

	fmt.Printf("\nResponse: %s\n", response.Response)
	fmt.Printf("Confidence: %.2f\n", response.Confidence)
	fmt.Printf("Response Time: %.2fs\n", response.ResponseTime)
	return 0
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
