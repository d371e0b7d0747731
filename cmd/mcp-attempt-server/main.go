package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cexll/prbot/internal/app"
	"github.com/cexll/prbot/internal/config"
	"github.com/cexll/prbot/internal/logging"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadOperator()
	if err != nil {
		log.Fatalf("[MCP Attempt Server] Invalid configuration: %v", err)
	}

	// stdout carries the protocol; zap writes to stderr.
	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("[MCP Attempt Server] %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to GitHub", zap.Error(err))
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "prbot-attempt-server",
		Version: "v1.0.0",
	}, nil)
	NewHandler(a.Tracker, cfg.Repo(), logger).Register(server)
	logger.Info("Starting on stdio transport", zap.String("repo", cfg.Repo()), zap.String("login", a.Login))

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}
