package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/watchroom/server/internal/controller"
	connrepo "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomrepo "github.com/watchroom/server/internal/repository/room/redis"
	"github.com/watchroom/server/internal/resolver"
	roomservice "github.com/watchroom/server/internal/service/room"
	signalservice "github.com/watchroom/server/internal/service/signal"
	videoservice "github.com/watchroom/server/internal/service/video"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/redisclient"
)

type AppConfig struct {
	Host     string
	Port     int
	LogLevel string

	Secret       string
	RoomIdLength int
	RoomExp      time.Duration

	VoiceLimit     int
	VideoChatLimit int

	ProxyBaseUrl string

	RedisHost     string
	RedisPort     int
	RedisPassword string
}

func (cfg AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must not be empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.VoiceLimit <= 0 {
		return fmt.Errorf("invalid voice limit: %d", cfg.VoiceLimit)
	}
	if cfg.VideoChatLimit <= 0 {
		return fmt.Errorf("invalid videochat limit: %d", cfg.VideoChatLimit)
	}

	return nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Run wires the dependency graph and serves until the context is cancelled,
// then drains with a bounded shutdown.
func Run(ctx context.Context, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     parseLogLevel(cfg.LogLevel),
		}),
	})
	slog.SetDefault(logger)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rc.Close()

	logger.InfoContext(ctx, "connected to redis", "host", cfg.RedisHost, "port", cfg.RedisPort)

	roomRepo := roomrepo.NewRepo(rc, cfg.RoomExp, logger)
	connRepo := connrepo.NewRepo(logger)

	res := resolver.NewResolver()
	proxy := resolver.NewProxyBuilder(cfg.ProxyBaseUrl)

	roomService := roomservice.NewService(roomRepo, &roomservice.Config{
		Secret:       cfg.Secret,
		RoomIdLength: cfg.RoomIdLength,
	}, logger)
	videoService := videoservice.NewService(roomRepo, res, proxy, &videoservice.Config{}, logger)
	signalService := signalservice.NewService(roomRepo, connRepo, &signalservice.Config{
		VoiceLimit:     cfg.VoiceLimit,
		VideoChatLimit: cfg.VideoChatLimit,
	}, logger)

	ctrl := controller.NewController(roomService, videoService, signalService, connRepo, logger)

	server := http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: ctrl.GetMux(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
