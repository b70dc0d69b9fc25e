package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"duoverse-backend/internal/cache"
	"duoverse-backend/internal/config"
	"duoverse-backend/internal/database"
	"duoverse-backend/internal/logger"
	"duoverse-backend/internal/server"
	"duoverse-backend/internal/storage"
	"duoverse-backend/internal/youtube"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("❌ Logger init failed: %v", err)
	}
	defer zl.Sync()

	zl.Info("🔧 Environment detected", zap.String("environment", string(cfg.Env)))

	// 업로드/QR 디렉터리 생성
	for _, dir := range []string{cfg.Storage.StaticDir, cfg.Storage.UploadDir, cfg.Storage.QRDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zl.Fatal("❌ Failed to create directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// 데이터베이스 연결
	db, err := database.ConnectDB(&cfg.Database)
	if err != nil {
		zl.Fatal("❌ Database connection failed", zap.Error(err))
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		zl.Fatal("❌ Database ping failed", zap.Error(err))
	}
	zl.Info("✅ Database connected", zap.String("driver", cfg.Database.Driver))

	ctx := context.Background()

	// Redis (선택)
	var redisClient *cache.RedisClient
	var metadata youtube.MetadataCache
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			zl.Warn("⚠️ Redis unavailable, falling back to in-memory limiter", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			metadata = redisClient
			zl.Info("✅ Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 갤러리 저장소
	var store storage.Store = storage.NewLocalStore(cfg.Storage.UploadDir, "/static/uploads")
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			zl.Warn("⚠️ S3 init failed, using local storage", zap.Error(err))
		} else {
			store = s3Store
			zl.Info("✅ S3 storage enabled", zap.String("bucket", cfg.S3.BucketName))
		}
	}

	// YouTube Data API
	yt, err := youtube.New(ctx, cfg.YouTube, metadata, zl)
	if err != nil {
		zl.Warn("⚠️ YouTube client init failed", zap.Error(err))
	}
	if yt.Enabled() {
		go yt.CheckAPIKey(ctx)
	} else {
		zl.Warn("⚠️ YOUTUBE_API_KEY not set, watch-together lookups disabled")
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, server.Deps{
		DB:      db,
		Redis:   redisClient,
		YouTube: yt,
		Store:   store,
		Log:     zl,
	})
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		zl.Fatal("Server failed to start", zap.Error(err))
	}
}
