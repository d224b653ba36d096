package icebreaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/ondemand"
	"github.com/brainwave/brainwave/internal/security"
)

type mockGateway struct {
	createSessionFn func(ctx context.Context) (string, error)
	submitQueryFn   func(ctx context.Context, sessionID, query string) (*ondemand.QueryResult, error)
}

func (m *mockGateway) CreateSession(ctx context.Context) (string, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx)
	}
	return "gw-session-1", nil
}

func (m *mockGateway) SubmitQuery(ctx context.Context, sessionID, query string) (*ondemand.QueryResult, error) {
	if m.submitQueryFn != nil {
		return m.submitQueryFn(ctx, sessionID, query)
	}
	return &ondemand.QueryResult{Answer: "gateway reply", MessageID: "msg-1"}, nil
}

type mockCollector struct {
	fallbacks int
}

func (m *mockCollector) RecordReportGenerated()                      {}
func (m *mockCollector) RecordReportGenerationFailure(reason string) {}
func (m *mockCollector) RecordGatewayLatency(d time.Duration)        {}
func (m *mockCollector) RecordChatFallback()                         { m.fallbacks++ }
func (m *mockCollector) RecordHTTPStatus(statusCode int)             {}

func newTestService(gw *mockGateway, collector *mockCollector) *Service {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(gw, collector, security.NewTextSanitizer(), logger)
}

func TestChat_GatewayAvailable_ReturnsGatewayReply(t *testing.T) {
	gw := &mockGateway{
		submitQueryFn: func(ctx context.Context, sessionID, query string) (*ondemand.QueryResult, error) {
			return &ondemand.QueryResult{Answer: "**Hi** there!", MessageID: "msg-1"}, nil
		},
	}
	collector := &mockCollector{}
	svc := newTestService(gw, collector)

	reply, err := svc.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	// ゲートウェイ応答もMarkdown除去される
	if reply != "Hi there!" {
		t.Errorf("reply = %q, want markdown stripped", reply)
	}
	if collector.fallbacks != 0 {
		t.Errorf("fallbacks = %d, want 0", collector.fallbacks)
	}
}

// ゲートウェイ失敗時はエラーにせずローカル応答にフォールバックする。
func TestChat_GatewayFailure_FallsBackLocally(t *testing.T) {
	gw := &mockGateway{
		createSessionFn: func(ctx context.Context) (string, error) {
			return "", errors.New("gateway down")
		},
	}
	collector := &mockCollector{}
	svc := newTestService(gw, collector)

	reply, err := svc.Chat(context.Background(), "I saw a cool animal today")
	if err != nil {
		t.Fatalf("Chat() error = %v, fallback must never fail", err)
	}
	if reply != "I love animals! Do you have a favorite animal?" {
		t.Errorf("reply = %q, want animal keyword response", reply)
	}
	if collector.fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", collector.fallbacks)
	}
}

// 空応答もフォールバック扱いになる。
func TestChat_EmptyGatewayAnswer_FallsBack(t *testing.T) {
	gw := &mockGateway{
		submitQueryFn: func(ctx context.Context, sessionID, query string) (*ondemand.QueryResult, error) {
			return &ondemand.QueryResult{Answer: "", MessageID: "msg-1"}, nil
		},
	}
	collector := &mockCollector{}
	svc := newTestService(gw, collector)

	reply, err := svc.Chat(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply == "" {
		t.Error("expected non-empty fallback reply")
	}
	if collector.fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", collector.fallbacks)
	}
}

func TestChat_EmptyMessage_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockGateway{}, &mockCollector{})

	_, err := svc.Chat(context.Background(), "   ")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestFallbackResponse_KeywordMatching(t *testing.T) {
	svc := newTestService(&mockGateway{}, &mockCollector{})

	cases := []struct {
		message string
		want    string
	}{
		{"HELLO everyone", "Hi there! I'm so happy you're here! 😊"},
		{"I feel sad today", "I'm sorry you feel sad. It's okay to feel that way. I'm here with you. 💙"},
		{"what's your favorite COLOR", "Colors are wonderful! My favorite is blue, like the sky. What's yours?"},
		{"I went to school", "School can be a big adventure! What did you do today?"},
	}

	for _, tc := range cases {
		if got := svc.fallbackResponse(tc.message); got != tc.want {
			t.Errorf("fallbackResponse(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

// キーワード非一致時はプールから選択される。選択はpick関数に委ねられる。
func TestFallbackResponse_NoKeyword_UsesPool(t *testing.T) {
	svc := newTestService(&mockGateway{}, &mockCollector{})
	svc.pick = func(n int) int {
		if n != len(fallbackPool) {
			t.Errorf("pick range = %d, want %d", n, len(fallbackPool))
		}
		return 3
	}

	got := svc.fallbackResponse("xyzzy")
	if got != fallbackPool[3] {
		t.Errorf("fallbackResponse = %q, want pool[3]", got)
	}
}
