package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/watchtogether/internal/controller"
	connInmemory "github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	sessionInmemory "github.com/sharetube/watchtogether/internal/repository/session/inmemory"
	sessionRedis "github.com/sharetube/watchtogether/internal/repository/session/redis"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"github.com/sharetube/watchtogether/pkg/redisclient"
)

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type AppConfig struct {
	Secret        string        `json:"-"`
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	UsersLimit    int           `json:"users_limit"`
	Storage       string        `json:"storage"`
	SessionTTL    time.Duration `json:"session_ttl"`
	RedisPort     int           `json:"redis_port"`
	RedisHost     string        `json:"redis_host"`
	RedisPassword string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must not be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in range 1-65535, got %d", cfg.Port)
	}
	if cfg.UsersLimit < 1 {
		return errors.New("users limit must be greater than 0")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	if cfg.SessionTTL <= 0 {
		return errors.New("session ttl must be greater than 0")
	}

	switch cfg.Storage {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisHost == "" {
			return errors.New("redis host must not be empty")
		}
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, fmt.Errorf("invalid log level: %w", err)
	}

	return logLevel, nil
}

func newLogger(level slog.Level) *slog.Logger {
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

// newSessionRepo builds the configured session registry. The returned closer releases its resources.
func newSessionRepo(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (session.SessionRepo, func() error, error) {
	if cfg.Storage == StorageMemory {
		return sessionInmemory.NewRepo(logger), func() error { return nil }, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return sessionRedis.NewRepo(rc, logger, cfg.SessionTTL), rc.Close, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel, _ := parseLogLevel(cfg.LogLevel)
	logger := newLogger(logLevel)

	sessionRepo, closeRepo, err := newSessionRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	connectionRepo := connInmemory.NewRepo(logger)
	sessionService := session.NewService(sessionRepo, connectionRepo, &session.Config{
		UsersLimit: cfg.UsersLimit,
		Secret:     cfg.Secret,
		TokenTTL:   cfg.SessionTTL,
	}, logger)
	controller := controller.NewController(sessionService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
