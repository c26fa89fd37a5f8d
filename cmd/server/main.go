package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"autods/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"autods/internal/auth"
	"autods/internal/cache"
	"autods/internal/config"
	"autods/internal/csvgrid"
	"autods/internal/gateway/supabase"
	"autods/internal/handler"
	"autods/internal/logging"
	"autods/internal/repository"
	"autods/internal/router"
	"autods/internal/service"
	"autods/internal/storage"
	"autods/internal/view"
)

// @title AutoDS API
// @version 1.0
// @description Lists uploaded CSV files and parses them into rows.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	sb, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal("supabase init", zap.Error(err))
	}
	if cfg.SupabaseServiceKey == "" {
		logger.Warn("SUPABASE_SERVICE_KEY is empty, failed sign ups cannot be rolled back")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, sessions will not persist", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	profiles, closeProfiles, err := repository.Open(ctx, cfg, sb)
	if err != nil {
		logger.Fatal("profile repository init", zap.String("driver", cfg.ProfileDriver), zap.Error(err))
	}
	defer closeProfiles()

	store, err := storage.New(ctx, cfg, sb)
	if err != nil {
		logger.Fatal("storage init", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.SessionSecret, cfg.SessionTTL)
	sessionStore := auth.NewSessionStore(cacheClient)
	identity := auth.NewSupabaseIdentity(sb.Auth())

	// Initialize services
	authService := service.NewAuthService(identity, profiles, sessionStore, jwtService, logger.Named("auth"))
	fileService := service.NewFileService(store, cacheClient, service.FileServiceOptions{
		ListLimit:    cfg.ListLimit,
		SignedURLTTL: cfg.SignedURLTTL,
	}, logger.Named("files"))
	loader := csvgrid.NewLoader(httpClient, csvgrid.Options{
		Delimiter:    cfg.CSVDelimiter,
		Ragged:       csvgrid.ParseRaggedPolicy(cfg.CSVRaggedRows),
		MaxBytes:     cfg.CSVMaxBytes,
		AllowedHosts: cfg.CSVAllowedHosts,
	})

	renderer, err := view.New()
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	router.Register(e, cfg, logger, jwtService, authService, router.Handlers{
		Page: handler.NewPageHandler(),
		Auth: handler.NewAuthHandler(authService, cfg.CookieSecure, logger),
		File: handler.NewFileHandler(fileService, cfg.UploadMaxBytes, logger),
		CSV:  handler.NewCSVHandler(loader, logger),
		API:  handler.NewAPIHandler(fileService, loader, logger),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	logger.Info("swagger documentation available",
		zap.String("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("storage", cfg.StorageDriver),
			zap.String("profiles", cfg.ProfileDriver),
			zap.Strings("csv_hosts", cfg.CSVAllowedHosts),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
