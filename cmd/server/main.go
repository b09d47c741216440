package main

import (
	"context"
	"log"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/akarpova/vacancyhub/internal/config"
	"github.com/akarpova/vacancyhub/internal/mcp"
	"github.com/akarpova/vacancyhub/pkg/logging"
	"github.com/akarpova/vacancyhub/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	res, err := mcp.InitializeResources(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize resources", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = res.Neo4jClient.Close(ctx)
	}()

	srv := mcp.NewServer(logger, cfg, res)

	go shutdown.Graceful(
		[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
		srv,
		10*time.Second,
		logger,
	)

	logger.Info("vacancyhub server initialized and starting", "addr", net.JoinHostPort(cfg.Host, cfg.Port))

	if err := srv.Run(); err != nil {
		logger.Error("server exited with error", "err", err)
	} else {
		logger.Info("server stopped")
	}
}
