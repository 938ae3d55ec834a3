package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/XR-stb/GMatch/internal/api"
	"github.com/XR-stb/GMatch/internal/config"
	"github.com/XR-stb/GMatch/internal/match"
	"github.com/XR-stb/GMatch/internal/server"
	"github.com/XR-stb/GMatch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.ini", "path to config.ini")
	address := flag.String("address", "", "TCP bind address")
	port := flag.Int("port", 0, "TCP bind port")
	httpPort := flag.Int("http-port", -1, "HTTP admin/WebSocket port, 0 disables")
	playersPerRoom := flag.Int("players-per-room", 0, "players required per room")
	maxRatingDiff := flag.Int("max-rating-diff", 0, "max rating difference for the default strategy")
	matchTimeoutMs := flag.Uint64("match-timeout-ms", 0, "head-waiter deadline for forced matches")
	logFile := flag.String("log-file", "", "log file path")
	logLevel := flag.String("log-level", "", "debug|info|warn|error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags win over file and environment.
	if *address != "" {
		cfg.Address = *address
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *httpPort >= 0 {
		cfg.HTTPPort = *httpPort
	}
	if *playersPerRoom > 0 {
		cfg.PlayersPerRoom = *playersPerRoom
	}
	if *maxRatingDiff > 0 {
		cfg.MaxRatingDiff = *maxRatingDiff
	}
	if *matchTimeoutMs > 0 {
		cfg.MatchTimeoutMs = *matchTimeoutMs
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	logger.Info("Starting GMatch server",
		"address", cfg.Address,
		"port", cfg.Port,
		"players_per_room", cfg.PlayersPerRoom,
		"max_rating_diff", cfg.MaxRatingDiff,
	)

	manager := match.NewManager()
	manager.Init(cfg.PlayersPerRoom)
	manager.SetMaxRatingDifference(cfg.MaxRatingDiff)
	manager.SetForceMatchOnTimeout(cfg.ForceMatchOnTimeout)
	manager.SetMatchTimeoutThreshold(cfg.MatchTimeoutMs)

	matchServer := server.NewMatchServer(cfg.Address, cfg.Port, manager, cfg.RateLimitRPS)
	if err := matchServer.Start(); err != nil {
		logger.Error("Failed to start server", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	var httpSrv *http.Server
	if cfg.HTTPPort > 0 {
		router := api.SetupRouter(manager, matchServer)
		httpSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Address, cfg.HTTPPort),
			Handler: router,
		}
		go func() {
			logger.Info("Admin API listening", "address", httpSrv.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Admin API failed", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if httpSrv != nil {
		_ = httpSrv.Close()
	}
	matchServer.Stop()

	logger.Info("Server exited")
}
