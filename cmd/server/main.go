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

	"github.com/boogy/bearer-warden/pkg/config"
	"github.com/boogy/bearer-warden/pkg/handler"
	"github.com/boogy/bearer-warden/pkg/utils"
	"github.com/boogy/bearer-warden/pkg/version"
)

// Settings for the server
type ServerSettings struct {
	Port       int
	ConfigPath string
	LogLevel   string
}

func main() {
	settings := parseCliFlags()
	setupLogging(settings.LogLevel)

	versionInfo := version.Get()
	slog.Info(fmt.Sprintf("Starting %s", versionInfo.BinName),
		slog.String("version", versionInfo.Version),
		slog.String("commit", versionInfo.Commit),
		slog.String("date", versionInfo.Date),
	)

	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The flag wins over the configured port when set explicitly
	if settings.Port > 0 {
		cfg.Server.Port = settings.Port
	}

	ctx, cancel := context.WithTimeout(context.Background(), handler.DefaultTimeout)
	bootstrap, err := handler.NewBootstrap(ctx, cfg, nil, slog.Default())
	cancel()
	if err != nil {
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(bootstrap),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		slog.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("Listening",
		slog.Int("port", cfg.Server.Port),
		slog.String("strategy", bootstrap.Store.Kind().String()),
		slog.Bool("publishJwks", cfg.Server.PublishJWKS),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

func parseCliFlags() ServerSettings {
	settings := ServerSettings{}

	flag.IntVar(&settings.Port, "port", 0, "Port to listen on (overrides server.port)")
	flag.StringVar(&settings.ConfigPath, "config", "", "Directory containing the config file")
	flag.StringVar(&settings.LogLevel, "log-level", utils.GetEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	flag.Parse()

	// Set config path as environment variable if provided
	if settings.ConfigPath != "" {
		if err := os.Setenv("CONFIG_PATH", settings.ConfigPath); err != nil {
			slog.Error("Error setting CONFIG_PATH environment variable", "error", err)
		}
	}

	return settings
}

func setupLogging(level string) {
	logLevel, err := utils.ParseLogLevel(level)
	if err != nil {
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	if err != nil {
		slog.Warn("Invalid log level, defaulting to info", slog.String("level", level))
	}
}
