// Command uniparse runs the document ingestion and extraction service:
// upload a document, preview it, extract markdown per page or sheet.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/uniparse/uniparse/config"
	"github.com/uniparse/uniparse/dbopen"
	"github.com/uniparse/uniparse/docstore"
	"github.com/uniparse/uniparse/extract"
	"github.com/uniparse/uniparse/llmmd"
	"github.com/uniparse/uniparse/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("UP_CONFIG"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Document store: durable when data_db is set, in-memory otherwise.
	var store docstore.Store
	if cfg.DataDB != "" {
		db, err := dbopen.Open(cfg.DataDB, dbopen.WithMkdirAll(), dbopen.WithSchema(docstore.Schema))
		if err != nil {
			slog.Error("open document db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = docstore.NewSQLiteStore(db, docstore.Config{Logger: logger})
		slog.Info("using durable document store", "path", cfg.DataDB)
	} else {
		store = docstore.NewMemStore(docstore.Config{Logger: logger})
		slog.Info("using in-memory document store")
	}

	// Extraction pipeline.
	pipe := extract.NewPipeline(store, extract.Config{
		Rich: extract.RichConfig{
			BaseURL: cfg.Rich.BaseURL,
			APIKey:  cfg.Rich.APIKey,
			Timeout: cfg.Rich.Timeout,
		},
		MaxInputChars: cfg.LLM.MaxInputChars,
		Logger:        logger,
	})

	refiner, err := llmmd.New(llmmd.Config{
		Enabled:         cfg.LLM.Enabled,
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Logger:          logger,
	})
	switch {
	case err == nil:
		pipe.SetRefiner(refiner)
		slog.Info("llm markdown refiner enabled", "model", cfg.LLM.Model)
	case errors.Is(err, llmmd.ErrDisabled):
		// Default posture.
	default:
		slog.Error("init llm refiner", "error", err)
		os.Exit(1)
	}

	svc := server.New(store, pipe, server.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		ParseTimeout:   cfg.ParseTimeout,
		AllowedOrigins: cfg.Origins(),
		Logger:         logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	svc.RegisterHTTP(r)

	// Optional MCP stdio surface for agent clients.
	if cfg.MCPTransport == "stdio" {
		go func() {
			if err := svc.NewMCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
				slog.Error("mcp server", "error", err)
			}
		}()
		slog.Info("mcp stdio transport enabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("uniparse listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
}
