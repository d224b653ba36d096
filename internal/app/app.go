// Package app はアプリケーションの起動と依存関係の組み立てを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brainwave/brainwave/internal/assessment"
	"github.com/brainwave/brainwave/internal/auth"
	"github.com/brainwave/brainwave/internal/config"
	"github.com/brainwave/brainwave/internal/database"
	"github.com/brainwave/brainwave/internal/handler"
	"github.com/brainwave/brainwave/internal/icebreaker"
	"github.com/brainwave/brainwave/internal/logger"
	"github.com/brainwave/brainwave/internal/metrics"
	"github.com/brainwave/brainwave/internal/middleware"
	"github.com/brainwave/brainwave/internal/ondemand"
	"github.com/brainwave/brainwave/internal/practice"
	"github.com/brainwave/brainwave/internal/report"
	"github.com/brainwave/brainwave/internal/repository"
	"github.com/brainwave/brainwave/internal/schedule"
	"github.com/brainwave/brainwave/internal/security"
	"github.com/brainwave/brainwave/internal/user"

	"golang.org/x/time/rate"
)

// shutdownTimeout はグレースフルシャットダウンの待機時間。
const shutdownTimeout = 10 * time.Second

// Run は指定されたコマンドを実行する。
func Run(ctx context.Context, cmd Command) error {
	log := logger.Setup(os.Stdout)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, log)
	case CommandHealthcheck:
		return runHealthcheck(cfg)
	default:
		return runServe(ctx, cfg, log)
	}
}

// runMigrate はデータベースマイグレーションを適用する。
func runMigrate(cfg *config.Config, log *slog.Logger) error {
	log.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	log.Info("migrations applied")
	return nil
}

// runHealthcheck はローカルのヘルスエンドポイントを確認する。
func runHealthcheck(cfg *config.Config) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", cfg.ServerPort))
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// runServe は依存関係を組み立ててAPIサーバーを起動する。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// データベース
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("connected to database",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	assessRepo := repository.NewPostgresAssessmentRepo(db)
	reportRepo := repository.NewPostgresReportRepo(db)
	practiceRepo := repository.NewPostgresPracticeRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)

	// セキュリティ
	sanitizer := security.NewTextSanitizer()
	ssrfGuard := security.NewSSRFGuard()
	avatarHTTP := ssrfGuard.NewSafeClient(10*time.Second, 5<<20)

	// メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// AIゲートウェイ
	gateway := ondemand.NewClient(
		&http.Client{Timeout: cfg.GatewayTimeout},
		log,
		cfg.OnDemandAPIKey,
		cfg.OnDemandEndpointID,
		cfg.OnDemandBaseURL,
	)

	// 認証
	provider := auth.NewAuth0Provider(auth.Auth0Config{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0ClientID,
		ClientSecret: cfg.Auth0ClientSecret,
		RedirectURL:  cfg.BackendURL + "/api/auth/callback",
	})
	authService := auth.NewService(provider, userRepo, sessionRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
	})

	// サービス
	userService := user.NewService(userRepo, sessionRepo, sanitizer, ssrfGuard, avatarHTTP)
	assessService := assessment.NewService(assessRepo, sanitizer)
	reportService := report.NewService(reportRepo, assessRepo, gateway, collector, log)
	practiceService := practice.NewService(practiceRepo, sanitizer)
	scheduleService := schedule.NewService(scheduleRepo, sanitizer)
	chatService := icebreaker.NewService(gateway, collector, sanitizer, log)

	// レート制限
	rlConfig := middleware.DefaultRateLimiterConfig()
	rlConfig.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlConfig.GeneralBurst = cfg.RateLimitGeneral
	rlConfig.ReportRate = rate.Limit(float64(cfg.RateLimitReport) / 60.0)
	rlConfig.ReportBurst = cfg.RateLimitReport
	rateLimiter := middleware.NewRateLimiter(rlConfig)
	defer rateLimiter.Stop()

	// ルーター
	router := handler.NewRouter(handler.RouterDeps{
		AuthHandler: handler.NewAuthHandler(authService, handler.AuthHandlerConfig{
			FrontendURL:   cfg.FrontendURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		}),
		UserHandler:       handler.NewUserHandler(userService),
		AssessmentHandler: handler.NewAssessmentHandler(assessService),
		ReportHandler:     handler.NewReportHandler(reportService),
		PracticeHandler:   handler.NewPracticeHandler(practiceService),
		ScheduleHandler:   handler.NewScheduleHandler(scheduleService),
		IceBreakerHandler: handler.NewIceBreakerHandler(chatService),
		HealthHandler:     handler.NewHealthHandler(db),

		SessionFinder: sessionRepo,
		RateLimiter:   rateLimiter,
		Collector:     collector,
		Gatherer:      registry,
		Logger:        log,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		CookieSecure:       cfg.CookieSecure,
		CookieDomain:       cfg.CookieDomain,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// レポート生成はゲートウェイ呼び出しを同期で待つため長めに取る
		WriteTimeout: cfg.GatewayTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// シグナルまたはコンテキストキャンセルで停止
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// maskDatabaseURL は接続URLのパスワードを伏せ字にする。ログ出力用。
func maskDatabaseURL(databaseURL string) string {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "(invalid url)"
	}
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
		}
	}
	return parsed.String()
}
