package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/postboard/internal/attachment"
	"github.com/abduss/postboard/internal/auth"
	"github.com/abduss/postboard/internal/comment"
	"github.com/abduss/postboard/internal/config"
	"github.com/abduss/postboard/internal/logger"
	"github.com/abduss/postboard/internal/post"
	"github.com/abduss/postboard/internal/server"
	"github.com/abduss/postboard/internal/storage"
	"github.com/abduss/postboard/internal/token"
	"github.com/abduss/postboard/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		zl.Fatal("load config", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.Migrate(ctx, dbPool); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		zl.Fatal("connect minio", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		zl.Fatal("ensure bucket", zap.Error(err))
	}

	authService := auth.NewService(auth.NewRepository(dbPool), token.NewCodec(cfg.Auth), cfg.Auth, zl)

	postService := post.NewService(post.NewRepository(dbPool), nil)
	attachmentService := attachment.NewService(
		attachment.NewRepository(dbPool),
		postService,
		attachment.NewMinIOStore(minioClient),
		attachment.Options{
			Bucket:      cfg.MinIO.Bucket,
			MaxFileSize: cfg.MinIO.MaxUploadBytes,
			PresignTTL:  cfg.MinIO.PresignTTL,
		},
		zl,
	)
	postService.SetAttachmentPurger(attachmentService)

	userService := user.NewService(user.NewRepository(dbPool), attachmentService, zl)
	commentService := comment.NewService(comment.NewRepository(dbPool), postService)

	router := server.NewRouter(server.Dependencies{
		Config:            cfg,
		DB:                dbPool,
		ObjectStore:       minioClient,
		AuthService:       authService,
		UserService:       userService,
		PostService:       postService,
		CommentService:    commentService,
		AttachmentService: attachmentService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zl.Info("postboard API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zl.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}
