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

	"redvibe/internal/config"
	"redvibe/internal/db"
	"redvibe/internal/logger"
	"redvibe/internal/router"
	"redvibe/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	if cfg.IsProduction() && os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db.Init(cfg.Database, zlog)

	watchedStore, err := newWatchedStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("init watched store", zap.Error(err))
	}
	storage, err := newMediaStorage(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("init media storage", zap.Error(err))
	}

	posts := services.NewPostRepository(db.DB)
	users := services.NewUserService(db.DB)
	inspector := services.NewFFprobeInspector(cfg.Media.FFprobePath, cfg.Media.InspectTimeout)
	validator := services.NewMediaValidator(cfg.Media.MaxUploadBytes(), cfg.Media.MaxVideoSeconds, inspector)

	r := router.New(router.Options{
		Log:          zlog,
		Session:      cfg.Session,
		Media:        cfg.Media,
		Web:          cfg.Web,
		ServeMedia:   cfg.Media.Backend == "local",
		Users:        users,
		Posts:        posts,
		Feed:         services.NewFeedComposer(posts),
		Watched:      services.NewWatchedTracker(watchedStore),
		Interactions: services.NewInteractions(posts, validator, storage, zlog),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("RedVibe server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Error("shutdown http server", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}
}

// newWatchedStore 配置了 REDIS_ADDR 时多实例共享已看集合，否则用进程内 LRU
func newWatchedStore(ctx context.Context, cfg config.Config, zlog *zap.Logger) (services.WatchedStore, error) {
	if cfg.Redis.Addr == "" {
		zlog.Info("watched store: memory", zap.Int("size", cfg.Media.WatchedCacheSize))
		return services.NewMemoryWatchedStore(cfg.Media.WatchedCacheSize)
	}

	client := services.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	zlog.Info("watched store: redis", zap.String("addr", cfg.Redis.Addr))
	return services.NewRedisWatchedStore(client, cfg.Redis.WatchedTTL), nil
}

func newMediaStorage(ctx context.Context, cfg config.Config, zlog *zap.Logger) (services.MediaStorage, error) {
	if cfg.Media.Backend != "s3" {
		if err := os.MkdirAll(cfg.Media.Root, 0o755); err != nil {
			return nil, err
		}
		zlog.Info("media storage: local", zap.String("root", cfg.Media.Root))
		return services.NewLocalStorage(cfg.Media.Root, cfg.Media.URLPrefix), nil
	}

	client, err := services.NewS3Client(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.UseSSL)
	if err != nil {
		return nil, err
	}
	storage := services.NewS3Storage(client, cfg.S3.Bucket, cfg.S3.PublicURL)
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	zlog.Info("media storage: s3", zap.String("endpoint", cfg.S3.Endpoint), zap.String("bucket", cfg.S3.Bucket))
	return storage, nil
}
