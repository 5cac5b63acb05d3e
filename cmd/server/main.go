package main

import (
	"context"
	"log/slog"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/Tyrowin/heyframe/internal/server"
)

func main() {
	config := server.NewConfigFromEnv()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("Starting Heyframe chat server...")

	chatServer := server.New(config, server.WithLogger(logger))
	chatServer.Start()

	cfg := chatServer.Config()
	httpServer := server.CreateServer(cfg.Port, chatServer.Routes())

	go func() {
		if err := server.StartServer(httpServer); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer)
			},
			"hub": func(ctx context.Context) error {
				return chatServer.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server exited", "code", exitCode)
	os.Exit(exitCode)
}
