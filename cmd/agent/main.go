package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ledgerline/sync-agent/internal/api"
	"github.com/ledgerline/sync-agent/internal/attendance"
	"github.com/ledgerline/sync-agent/internal/auth"
	"github.com/ledgerline/sync-agent/internal/category"
	"github.com/ledgerline/sync-agent/internal/config"
	"github.com/ledgerline/sync-agent/internal/income"
	"github.com/ledgerline/sync-agent/internal/localcache"
	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/internal/payroll"
	"github.com/ledgerline/sync-agent/internal/remote"
	"github.com/ledgerline/sync-agent/internal/reports"
	"github.com/ledgerline/sync-agent/pkg/database"
	"github.com/ledgerline/sync-agent/pkg/utils"
)

func main() {
	// Local .env overrides for development
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Ledgerline sync agent",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Cache.Path,
		MaxOpenConns:    cfg.Cache.MaxOpenConns,
		MaxIdleConns:    cfg.Cache.MaxIdleConns,
		ConnMaxLifetime: cfg.Cache.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open local cache", zap.Error(err))
	}
	defer db.Close()

	cache, err := localcache.New(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot cache", zap.Error(err))
	}

	// Token fallback chain: explicit config value first, then the cookie file
	providers := []auth.TokenProvider{auth.NewStaticToken(cfg.Backend.CSRFToken)}
	if cfg.Backend.CookieFile != "" {
		providers = append(providers, auth.NewCookieFileToken(cfg.Backend.CookieFile, cfg.Backend.CSRFCookieName))
	}
	tokens := auth.NewChain(providers...)

	client := remote.NewClient(remote.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.RequestTimeout,
	}, tokens, logger)

	notifier := notify.NewLogNotifier(logger)

	attendanceMgr := attendance.NewManager(client, notifier, logger)
	payrollMgr := payroll.NewManager(client, notifier, logger)
	incomeMgr := income.NewManager(cache, notifier, logger)
	reportsMgr := reports.NewManager(client, notifier, logger)

	purchaseCats := category.NewManager(category.DomainPurchase, cache, notifier, logger)
	expenseCats := category.NewManager(category.DomainExpense, cache, notifier, logger)

	exporter, err := reports.NewExporter(cfg.Export.OutputDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize report exporter", zap.Error(err))
	}

	// Restore local-only state from the snapshot cache
	if err := incomeMgr.Load(); err != nil {
		logger.Warn("Failed to restore income snapshot", zap.Error(err))
	}
	if err := purchaseCats.Load(); err != nil {
		logger.Warn("Failed to restore purchase categories", zap.Error(err))
	}
	if err := expenseCats.Load(); err != nil {
		logger.Warn("Failed to restore expense categories", zap.Error(err))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Initial reload is best-effort; the agent serves cached state until the
	// backend is reachable
	loadCtx, loadCancel := context.WithTimeout(rootCtx, cfg.Backend.RequestTimeout)
	if err := attendanceMgr.ReloadWeek(loadCtx); err != nil {
		logger.Warn("Initial attendance reload failed", zap.Error(err))
	}
	loadCancel()

	watcher := attendance.NewRolloverWatcher(attendanceMgr, logger)
	if err := watcher.Start(rootCtx); err != nil {
		logger.Fatal("Failed to start rollover watcher", zap.Error(err))
	}
	defer watcher.Stop()

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	handlers := api.NewHandlers(attendanceMgr, payrollMgr, incomeMgr, reportsMgr, exporter, purchaseCats, expenseCats, logger)
	handlers.Register(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down agent...")
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Agent exited")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers for the local dashboard page
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
