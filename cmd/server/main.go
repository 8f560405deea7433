package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/castscope/castscope/internal/config"
	"github.com/castscope/castscope/internal/etherscan"
	"github.com/castscope/castscope/internal/farcaster"
	"github.com/castscope/castscope/internal/feed"
	"github.com/castscope/castscope/internal/probe"
	"github.com/castscope/castscope/internal/server"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting castscope API")

	// Upstream clients
	farcasterClient := farcaster.NewClient(cfg)
	explorerClient := etherscan.NewClient(cfg)

	// Aggregation pipeline
	feedService := feed.NewService(cfg, farcasterClient)

	// Optional upstream availability probe
	if cfg.ProbeEnabled {
		probeService := probe.NewService(farcasterClient, cfg.ProbeSchedule, cfg.RequestTimeout)
		if err := probeService.Start(); err != nil {
			logrus.Fatalf("Failed to start upstream probe: %v", err)
		}
		defer probeService.Stop()
	}

	// HTTP server
	srv := server.NewServer(cfg, feedService, farcasterClient, explorerClient)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
