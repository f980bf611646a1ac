package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizza-service/config"
	"pizza-service/factory"
	"pizza-service/handlers"
	"pizza-service/logger"
	"pizza-service/middleware"
	"pizza-service/routes"
	"pizza-service/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zlog.Sync()

	gin.SetMode(cfg.GinMode)

	db, err := config.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	zlog.Info("database connected and migrated", zap.String("driver", cfg.DBDriver))

	if err := config.SeedAdmin(db, cfg, zlog); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sessions go to redis when configured, otherwise into the database
	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		sessions = session.NewRedisStore(rdb, "")
		zlog.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
	} else {
		sqlSessions := session.NewSQLStore(db)
		sessions = sqlSessions
		go purgeSessions(ctx, sqlSessions, zlog)
	}

	auth := middleware.NewAuthenticator([]byte(cfg.JWTSecret), cfg.TokenTTL, sessions, db)
	factoryClient := factory.NewHTTPClient(cfg.FactoryURL, cfg.FactoryAPIKey, cfg.FactoryTimeout, zlog.Named("factory"))
	h := handlers.New(db, auth, factoryClient)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(zlog), middleware.Metrics(), middleware.CORS())
	routes.SetupRoutes(r, h, auth, middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zlog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Error("server shutdown error", zap.Error(err))
		}
	}()

	zlog.Info("pizza service listening", zap.String("addr", srv.Addr), zap.String("version", handlers.Version))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	zlog.Info("server stopped gracefully")
	return nil
}

func purgeSessions(ctx context.Context, store *session.SQLStore, zlog *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				zlog.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zlog.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
