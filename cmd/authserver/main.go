// Command authserver runs the HTTP authentication service: login,
// token refresh, registration, and password reset backed by PostgreSQL
// and Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	authcore "github.com/SideProjectSFY/cloneNova"
	"github.com/SideProjectSFY/cloneNova/httpapi"
	"github.com/SideProjectSFY/cloneNova/mail"
	"github.com/SideProjectSFY/cloneNova/password"
	"github.com/SideProjectSFY/cloneNova/pgstore"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := newLogger(envOrDefault("APP_ENV", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	jwtSecret := mustEnv(logger, "JWT_SECRET")
	databaseURL := mustEnv(logger, "DATABASE_URL")
	redisAddr := envOrDefault("REDIS_ADDR", "localhost:6379")
	httpAddr := envOrDefault("HTTP_ADDR", ":8080")
	resetURLBase := envOrDefault("RESET_URL_BASE", "http://localhost:3000/reset-password")

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: envOrDefault("APP_ENV", "development"),
		})
		if err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer redisClient.Close()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	hasher, err := newHasher(envOrDefault("PASSWORD_HASHER", "bcrypt"))
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}

	config := authcore.DefaultConfig()
	config.JWT.Secret = []byte(jwtSecret)
	config.PasswordReset.ResetURLBase = resetURLBase

	builder := authcore.New().
		WithConfig(config).
		WithRedis(redisClient).
		WithUserStore(pgstore.NewUserStore(pool)).
		WithPasswordHasher(hasher)

	if host := os.Getenv("SMTP_HOST"); host != "" {
		sender, err := mail.NewSMTPSender(mail.Config{
			Host:     host,
			Port:     envIntOrDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOrDefault("SMTP_FROM", "noreply@clonenova.example"),
		})
		if err != nil {
			return fmt.Errorf("init mail sender: %w", err)
		}
		builder = builder.WithEmailSender(sender)
	} else {
		logger.Warn("SMTP_HOST not set, password reset mail disabled")
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build auth engine: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/auth/", httpapi.NewHandler(engine, logger).Routes())
	mux.HandleFunc("GET /health", healthHandler(pool, redisClient))

	server := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func healthHandler(pool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		if pool.Ping(ctx) != nil || redisClient.Ping(ctx).Err() != nil {
			status = http.StatusServiceUnavailable
			body = `{"status":"degraded"}`
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// newHasher picks the password scheme from PASSWORD_HASHER. Bcrypt is the
// default because existing rows carry bcrypt hashes; argon2 is available
// for fresh deployments.
func newHasher(scheme string) (authcore.PasswordHasher, error) {
	switch scheme {
	case "bcrypt":
		return password.NewBcrypt(0)
	case "argon2":
		return password.NewArgon2(password.DefaultConfig())
	default:
		return nil, fmt.Errorf("unknown PASSWORD_HASHER %q", scheme)
	}
}

func mustEnv(logger *zap.Logger, name string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		logger.Fatal("missing required env", zap.String("name", name))
	}
	return value
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
