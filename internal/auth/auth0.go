package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brainwave/brainwave/internal/model"
)

// Auth0Config はAuth0プロバイダーの設定。
// Domainはテナントのドメイン（例: "dev-xxxx.us.auth0.com"）を指定する。
type Auth0Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	LogoutURL   string
}

// Auth0Provider はAuth0のAuthorization Code Flowによる認証を提供する。
type Auth0Provider struct {
	config Auth0Config
}

// NewAuth0Provider はAuth0Providerを生成する。
func NewAuth0Provider(config Auth0Config) *Auth0Provider {
	base := "https://" + config.Domain
	if config.AuthURL == "" {
		config.AuthURL = base + "/authorize"
	}
	if config.TokenURL == "" {
		config.TokenURL = base + "/oauth/token"
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = base + "/userinfo"
	}
	if config.LogoutURL == "" {
		config.LogoutURL = base + "/v2/logout"
	}
	return &Auth0Provider{config: config}
}

// GetLoginURL はAuth0の認証URLを生成する。
// screenHintに"signup"を指定するとAuth0のサインアップ画面を直接開く。
func (p *Auth0Provider) GetLoginURL(state, screenHint string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid profile email"},
		"state":         {state},
	}
	if screenHint != "" {
		params.Set("screen_hint", screenHint)
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// GetLogoutURL はAuth0のログアウトURLを生成する。
// IdP側のセッションも破棄し、returnToへリダイレクトさせる。
func (p *Auth0Provider) GetLogoutURL(returnTo string) string {
	params := url.Values{
		"client_id": {p.config.ClientID},
		"returnTo":  {returnTo},
	}
	return p.config.LogoutURL + "?" + params.Encode()
}

// auth0TokenResponse はAuth0のトークンエンドポイントのレスポンス。
type auth0TokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeResult は認可コード交換の結果。
type ExchangeResult struct {
	UserInfo *model.UserInfo
	IDToken  string
}

// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
func (p *Auth0Provider) ExchangeCode(ctx context.Context, code string) (*ExchangeResult, error) {
	// 1. 認可コードをトークンに交換
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. アクセストークンでユーザー情報を取得
	userInfo, err := p.fetchUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return &ExchangeResult{
		UserInfo: userInfo,
		IDToken:  tokenResp.IDToken,
	}, nil
}

// exchangeToken は認可コードをトークンに交換する。
func (p *Auth0Provider) exchangeToken(ctx context.Context, code string) (*auth0TokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp auth0TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchUserInfo はアクセストークンでAuth0のユーザー情報を取得する。
func (p *Auth0Provider) fetchUserInfo(ctx context.Context, accessToken string) (*model.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo model.UserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.Subject == "" {
		return nil, fmt.Errorf("empty sub in user info response")
	}

	return &userInfo, nil
}

// compile-time interface check
var _ Provider = (*Auth0Provider)(nil)
