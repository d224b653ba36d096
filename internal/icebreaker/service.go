// Package icebreaker は児童向けチャットのドメインロジックを提供する。
// AIゲートウェイが利用できない場合はローカルの応答選択にフォールバックする。
package icebreaker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/brainwave/brainwave/internal/metrics"
	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/ondemand"
	"github.com/brainwave/brainwave/internal/security"
)

// tonePrompt はチャット応答のトーンを固定するシステムプロンプト。
// 自閉症の児童に適した、短く、簡単で、受容的な応答を要求する。
const tonePrompt = `You are a friendly chat buddy for a child with autism. Respond to the following message with a short, simple, warm and validating reply. Use easy words, one or two sentences, and a gentle encouraging tone. Never criticize. You may use a single emoji.

Child's message: %s`

// Service は児童向けチャットのサービス層。
type Service struct {
	gateway   ondemand.Gateway
	collector metrics.MetricsCollector
	sanitizer security.TextSanitizerService
	logger    *slog.Logger
	pick      func(n int) int // テスト用に差し替え可能な乱数選択
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	gateway ondemand.Gateway,
	collector metrics.MetricsCollector,
	sanitizer security.TextSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		gateway:   gateway,
		collector: collector,
		sanitizer: sanitizer,
		logger:    logger,
		pick:      rand.Intn,
	}
}

// Chat はメッセージへの応答を生成する。
//
// ゲートウェイへの往復を試み、いかなる失敗（セッション作成失敗、クエリ失敗、
// 空応答）でもローカルの応答選択にフォールバックする。フォールバックは
// 外部依存ゼロで常に応答を返すため、この操作がエラーになるのは入力検証
// のみである。
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	message = s.sanitizer.SanitizeText(message)
	if message == "" {
		return "", model.NewValidationError("message")
	}

	reply, err := s.tryGateway(ctx, message)
	if err != nil {
		s.logger.Warn("chat gateway unavailable, using local fallback",
			slog.String("error", err.Error()),
		)
		s.collector.RecordChatFallback()
		return s.fallbackResponse(message), nil
	}

	return reply, nil
}

// tryGateway はゲートウェイ経由の応答生成を1回だけ試みる。リトライしない。
func (s *Service) tryGateway(ctx context.Context, message string) (string, error) {
	sessionID, err := s.gateway.CreateSession(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create chat session: %w", err)
	}

	result, err := s.gateway.SubmitQuery(ctx, sessionID, fmt.Sprintf(tonePrompt, message))
	if err != nil {
		return "", fmt.Errorf("failed to submit chat query: %w", err)
	}

	reply := ondemand.RemoveMarkdown(result.Answer)
	if reply == "" {
		return "", fmt.Errorf("empty chat answer")
	}

	return reply, nil
}

// keywordResponse はキーワードとそれに対応する応答の組。
type keywordResponse struct {
	keyword  string
	response string
}

// keywordResponses は部分一致で選択されるキーワード応答。先頭から順に照合する。
var keywordResponses = []keywordResponse{
	{"hello", "Hi there! I'm so happy you're here! 😊"},
	{"hi", "Hi! It's great to talk with you! What would you like to chat about?"},
	{"happy", "That makes me happy too! What's making you smile today? 😊"},
	{"sad", "I'm sorry you feel sad. It's okay to feel that way. I'm here with you. 💙"},
	{"animal", "I love animals! Do you have a favorite animal?"},
	{"color", "Colors are wonderful! My favorite is blue, like the sky. What's yours?"},
	{"joke", "Why did the teddy bear say no to dessert? Because it was already stuffed! 😄"},
	{"play", "Playing is so much fun! What games do you like to play?"},
	{"school", "School can be a big adventure! What did you do today?"},
}

// fallbackPool はキーワードに一致しなかった場合の応答プール。
// 一様ランダムに1つ選択される。
var fallbackPool = []string{
	"That's really cool! Can you tell me more? 😊",
	"I love hearing about that! What else do you like?",
	"You're doing great at sharing! What makes you happy?",
	"That sounds fun! Do you have a favorite color?",
	"Thanks for sharing! What do you like to do for fun?",
}

// fallbackResponse はローカルの応答選択を行う。
// キーワードの部分一致を優先し、一致しない場合はプールからランダムに選ぶ。
func (s *Service) fallbackResponse(message string) string {
	lower := strings.ToLower(message)
	for _, kr := range keywordResponses {
		if strings.Contains(lower, kr.keyword) {
			return kr.response
		}
	}
	return fallbackPool[s.pick(len(fallbackPool))]
}
