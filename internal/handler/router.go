package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brainwave/brainwave/internal/metrics"
	"github.com/brainwave/brainwave/internal/middleware"
)

// RouterDeps はルーター構築に必要な依存関係。
type RouterDeps struct {
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	AssessmentHandler *AssessmentHandler
	ReportHandler     *ReportHandler
	PracticeHandler   *PracticeHandler
	ScheduleHandler   *ScheduleHandler
	IceBreakerHandler *IceBreakerHandler
	HealthHandler     *HealthHandler

	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	Collector     metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger

	CORSAllowedOrigins []string
	CookieSecure       bool
	CookieDomain       string
}

// NewRouter はアプリケーションのルーターを構築する。
//
// ルートは3つのグループに分かれる。
//   - 公開ルート: ヘルスチェック、メトリクス、認証フロー
//   - 児童向けルート: セッション認証を要求しない（児童はログインしない）
//   - 保護者向けルート: セッション認証 + CSRF検証 + レート制限を要求する
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.CookieSecure,
		CookieDomain: deps.CookieDomain,
	}

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))

	// 公開ルート
	r.Get("/health", deps.HealthHandler.Check)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/login", deps.AuthHandler.Login)
		r.Get("/register", deps.AuthHandler.Register)
		r.Get("/callback", deps.AuthHandler.Callback)
		r.Get("/logout", deps.AuthHandler.Logout)
		r.Post("/logout", deps.AuthHandler.Logout)
		r.Get("/user", deps.AuthHandler.User)
		r.Get("/me", deps.AuthHandler.Me)
		r.Get("/check", deps.AuthHandler.Check)
	})

	// 児童向けルート（セッションなし）
	r.Route("/api/speech-practice", func(r chi.Router) {
		r.Post("/", deps.PracticeHandler.Create)
		r.Get("/today/{childName}", deps.PracticeHandler.GetToday)
		r.Get("/child/{childName}", deps.PracticeHandler.ListByChild)
		r.Put("/{id}", deps.PracticeHandler.Update)
		r.Delete("/{id}", deps.PracticeHandler.Delete)
	})

	r.Route("/api/daily-schedule", func(r chi.Router) {
		r.Post("/activity", deps.ScheduleHandler.RecordActivity)
		r.Get("/today/{childName}", deps.ScheduleHandler.GetToday)
		r.Get("/range/{childName}", deps.ScheduleHandler.GetRange)
	})

	// チャットはIPキーのレート制限のみ適用する
	r.With(deps.RateLimiter.ChatMiddleware()).
		Post("/api/ice-breaker/chat", deps.IceBreakerHandler.Chat)

	// 保護者向けルート（セッション認証必須）
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", deps.UserHandler.List)
			r.Get("/profile", deps.UserHandler.Profile)
			r.Get("/me/avatar", deps.UserHandler.Avatar)
			r.Get("/{auth0ID}", deps.UserHandler.Get)
			r.Put("/{auth0ID}", deps.UserHandler.Update)
			r.Delete("/{auth0ID}", deps.UserHandler.Delete)
		})

		r.Route("/api/assessments", func(r chi.Router) {
			r.Post("/", deps.AssessmentHandler.Create)
			r.Get("/", deps.AssessmentHandler.List)
			r.Get("/child/{childName}", deps.AssessmentHandler.ListByChild)
			r.Get("/{id}", deps.AssessmentHandler.Get)
			r.Put("/{id}", deps.AssessmentHandler.Update)
			r.Delete("/{id}", deps.AssessmentHandler.Delete)
		})

		r.Route("/api/reports", func(r chi.Router) {
			// レポート生成は専用の厳しいレート制限を追加で適用する
			r.With(deps.RateLimiter.ReportMiddleware()).
				Post("/generate/{assessmentID}", deps.ReportHandler.Generate)
			r.Get("/assessment/{assessmentID}", deps.ReportHandler.GetByAssessment)
			r.Get("/", deps.ReportHandler.List)
			r.Delete("/{id}", deps.ReportHandler.Delete)
		})
	})

	return r
}
