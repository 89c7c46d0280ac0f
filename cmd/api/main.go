package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SomaanRauniyar/datainsight-pro/internal/app"
	"github.com/SomaanRauniyar/datainsight-pro/internal/config"
	"github.com/SomaanRauniyar/datainsight-pro/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFormat, "datainsight-api")

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer application.Close()

	application.Start(ctx)

	go func() {
		if err := application.Server.Start(); err != nil {
			log.WithError(err).Error("server stopped")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}
}
