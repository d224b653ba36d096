// Package ondemand はOnDemand AIゲートウェイ連携機能を提供する。
// チャットセッションの作成とクエリ送信、およびAI応答の整形を含む。
package ondemand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	// defaultBaseURL はOnDemandチャットAPIのベースURL。
	defaultBaseURL = "https://api.on-demand.io/chat/v1"
	// externalUserID はゲートウェイ側でセッションを束ねる外部ユーザー識別子。
	externalUserID = "brainwave-assessment-user"
)

// Gateway はAIゲートウェイのインターフェース。
// レポート生成とチャットの両方で使用される。
type Gateway interface {
	// CreateSession は新しいチャットセッションを作成し、セッションIDを返す。
	CreateSession(ctx context.Context) (string, error)
	// SubmitQuery はセッションに対してクエリを同期送信し、応答を返す。
	SubmitQuery(ctx context.Context, sessionID, query string) (*QueryResult, error)
}

// QueryResult はゲートウェイのクエリ応答を表す。
type QueryResult struct {
	Answer    string
	MessageID string
}

// Client はOnDemandチャットAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpointID string
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はデフォルトのエンドポイントを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, endpointID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpointID: endpointID,
		baseURL:    baseURL,
	}
}

// createSessionResponse はセッション作成APIのレスポンス。
type createSessionResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CreateSession は新しいチャットセッションを作成する。
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	payload := map[string]any{
		"pluginIds":      []string{},
		"externalUserId": externalUserID,
	}

	body, err := c.post(ctx, c.baseURL+"/sessions", payload)
	if err != nil {
		return "", err
	}

	var resp createSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse session response: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("empty session ID in gateway response")
	}

	return resp.Data.ID, nil
}

// submitQueryResponse はクエリ送信APIのレスポンス。
type submitQueryResponse struct {
	Data struct {
		Answer    string `json:"answer"`
		MessageID string `json:"messageId"`
	} `json:"data"`
}

// SubmitQuery はセッションに対してクエリを同期モードで送信する。
func (c *Client) SubmitQuery(ctx context.Context, sessionID, query string) (*QueryResult, error) {
	payload := map[string]any{
		"endpointId":   c.endpointID,
		"query":        query,
		"pluginIds":    []string{},
		"responseMode": "sync",
	}

	body, err := c.post(ctx, fmt.Sprintf("%s/sessions/%s/query", c.baseURL, sessionID), payload)
	if err != nil {
		return nil, err
	}

	var resp submitQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	if resp.Data.Answer == "" {
		return nil, fmt.Errorf("empty answer in gateway response")
	}

	return &QueryResult{
		Answer:    resp.Data.Answer,
		MessageID: resp.Data.MessageID,
	}, nil
}

// post はJSONペイロードをPOSTし、レスポンスボディを返す。
func (c *Client) post(ctx context.Context, url string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("gateway returned error status",
			slog.String("url", url),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// compile-time interface check
var _ Gateway = (*Client)(nil)
