package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brainwave/brainwave/internal/model"
	"github.com/brainwave/brainwave/internal/user"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	getProfileFn  func(ctx context.Context, callerID string) (*model.User, error)
	getFn         func(ctx context.Context, auth0ID string) (*model.User, error)
	listFn        func(ctx context.Context, limit, skip int) ([]*model.User, error)
	updateFn      func(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error)
	deleteFn      func(ctx context.Context, callerID, targetAuth0ID string) error
	fetchAvatarFn func(ctx context.Context, callerID string) (*user.Avatar, error)
}

func (m *mockUserService) GetProfile(ctx context.Context, callerID string) (*model.User, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, callerID)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, auth0ID string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, auth0ID)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context, limit, skip int) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, skip)
	}
	return nil, nil
}

func (m *mockUserService) Update(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, callerID, targetAuth0ID, input)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, callerID, targetAuth0ID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, targetAuth0ID)
	}
	return nil
}

func (m *mockUserService) FetchAvatar(ctx context.Context, callerID string) (*user.Avatar, error) {
	if m.fetchAvatarFn != nil {
		return m.fetchAvatarFn(ctx, callerID)
	}
	return nil, nil
}

func TestUserHandler_Profile_Success(t *testing.T) {
	svc := &mockUserService{
		getProfileFn: func(ctx context.Context, callerID string) (*model.User, error) {
			return &model.User{ID: "user-1", Auth0ID: callerID, Email: "parent@example.com"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Profile(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if result["email"] != "parent@example.com" {
		t.Errorf("email = %v, want %q", result["email"], "parent@example.com")
	}
}

// 許可リスト外のフィールド（emailなど）のみを含む更新は、
// 更新対象なしとして400を返す。
func TestUserHandler_Update_OnlyDisallowedFields_ReturnsBadRequest(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error) {
			if input.Name != nil || input.Picture != nil {
				t.Errorf("input = %+v, want all nil fields", input)
			}
			return nil, model.NewNoValidFieldsError()
		},
	}
	h := NewUserHandler(svc)

	body := `{"email": "attacker@example.com"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/auth0|parent-1", bytes.NewBufferString(body))
	req = withAuth0ID(req, "auth0|parent-1")
	req = withChiURLParam(req, "auth0ID", "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeNoValidFields {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeNoValidFields)
	}
}

func TestUserHandler_Update_Name_Success(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error) {
			if input.Name == nil || *input.Name != "新しい名前" {
				t.Errorf("name = %v, want %q", input.Name, "新しい名前")
			}
			return &model.User{ID: "user-1", Auth0ID: targetAuth0ID, Name: *input.Name}, nil
		},
	}
	h := NewUserHandler(svc)

	body := `{"name": "新しい名前"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/auth0|parent-1", bytes.NewBufferString(body))
	req = withAuth0ID(req, "auth0|parent-1")
	req = withChiURLParam(req, "auth0ID", "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	result := decodeJSONBody(t, w)
	if result["name"] != "新しい名前" {
		t.Errorf("name = %v, want %q", result["name"], "新しい名前")
	}
}

// 他人のプロフィール更新は403を返す。
func TestUserHandler_Update_OtherUser_ReturnsForbidden(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, callerID, targetAuth0ID string, input user.UpdateInput) (*model.User, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewUserHandler(svc)

	body := `{"name": "hijack"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/auth0|victim", bytes.NewBufferString(body))
	req = withAuth0ID(req, "auth0|attacker")
	req = withChiURLParam(req, "auth0ID", "auth0|victim")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUserHandler_Avatar_ProxiesImage(t *testing.T) {
	svc := &mockUserService{
		fetchAvatarFn: func(ctx context.Context, callerID string) (*user.Avatar, error) {
			return &user.Avatar{Data: []byte("png-bytes"), ContentType: "image/png"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/avatar", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Avatar(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want %q", got, "image/png")
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body = %q, want %q", w.Body.String(), "png-bytes")
	}
}

func TestUserHandler_Avatar_BlockedURL_ReturnsForbidden(t *testing.T) {
	svc := &mockUserService{
		fetchAvatarFn: func(ctx context.Context, callerID string) (*user.Avatar, error) {
			return nil, model.NewSSRFBlockedError()
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/avatar", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Avatar(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeSSRFBlocked {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeSSRFBlocked)
	}
}
