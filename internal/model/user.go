// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザー（保護者）を表す。
// Auth0のサブジェクトID（sub）で一意に識別される。
type User struct {
	ID            string
	Auth0ID       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session はユーザーのログインセッションを表す。
// CookieにはIDのみを保持し、IdPトークン等はサーバー側に保存する。
// ログイン時のuserinfoスナップショット（Email以下）も保持し、
// GET /api/auth/meはusersレコードに依存せずこれを返す。
type Session struct {
	ID            string
	UserID        string
	Auth0ID       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
	IDToken       string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// UserInfo はIdPのuserinfoペイロードを表す。
// コールバック時のユーザー作成・更新とGET /api/auth/meで使用する。
type UserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
}
