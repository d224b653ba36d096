package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brainwave/brainwave/internal/assessment"
	"github.com/brainwave/brainwave/internal/model"
)

// mockAssessmentService はAssessmentServiceInterfaceのモック実装。
type mockAssessmentService struct {
	createFn      func(ctx context.Context, callerID string, input assessment.CreateInput) (*model.Assessment, error)
	getFn         func(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error)
	listFn        func(ctx context.Context, callerID string, limit, skip int) ([]*model.Assessment, error)
	listByChildFn func(ctx context.Context, callerID, childName string) ([]*model.Assessment, error)
	updateFn      func(ctx context.Context, callerID, assessmentID string, update model.AssessmentUpdate) (*model.Assessment, error)
	deleteFn      func(ctx context.Context, callerID, assessmentID string) error
}

func (m *mockAssessmentService) Create(ctx context.Context, callerID string, input assessment.CreateInput) (*model.Assessment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, callerID, input)
	}
	return nil, nil
}

func (m *mockAssessmentService) Get(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error) {
	if m.getFn != nil {
		return m.getFn(ctx, callerID, assessmentID)
	}
	return nil, nil
}

func (m *mockAssessmentService) List(ctx context.Context, callerID string, limit, skip int) ([]*model.Assessment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, callerID, limit, skip)
	}
	return nil, nil
}

func (m *mockAssessmentService) ListByChild(ctx context.Context, callerID, childName string) ([]*model.Assessment, error) {
	if m.listByChildFn != nil {
		return m.listByChildFn(ctx, callerID, childName)
	}
	return nil, nil
}

func (m *mockAssessmentService) Update(ctx context.Context, callerID, assessmentID string, update model.AssessmentUpdate) (*model.Assessment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, callerID, assessmentID, update)
	}
	return nil, nil
}

func (m *mockAssessmentService) Delete(ctx context.Context, callerID, assessmentID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, callerID, assessmentID)
	}
	return nil
}

func TestAssessmentHandler_Create_Success(t *testing.T) {
	svc := &mockAssessmentService{
		createFn: func(ctx context.Context, callerID string, input assessment.CreateInput) (*model.Assessment, error) {
			if callerID != "auth0|parent-1" {
				t.Errorf("callerID = %q, want %q", callerID, "auth0|parent-1")
			}
			if input.ChildInfo.Name != "たろう" {
				t.Errorf("child name = %q, want %q", input.ChildInfo.Name, "たろう")
			}
			return &model.Assessment{
				ID:            "assessment-1",
				ParentAuth0ID: callerID,
				ChildInfo:     input.ChildInfo,
				TestResults:   input.TestResults,
			}, nil
		},
	}
	h := NewAssessmentHandler(svc)

	body := `{"childInfo":{"name":"たろう","age":6},"testResults":[{"testName":"writing","timeInSeconds":32.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	result := decodeJSONBody(t, w)
	if result["id"] != "assessment-1" {
		t.Errorf("id = %v, want %q", result["id"], "assessment-1")
	}
}

func TestAssessmentHandler_Create_WithoutSession_ReturnsUnauthenticated(t *testing.T) {
	h := NewAssessmentHandler(&mockAssessmentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeUnauthenticated {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeUnauthenticated)
	}
}

func TestAssessmentHandler_Create_InvalidBody_ReturnsBadRequest(t *testing.T) {
	h := NewAssessmentHandler(&mockAssessmentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/assessments", bytes.NewBufferString(`{invalid`))
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeInvalidRequest)
	}
}

func TestAssessmentHandler_Get_NotFound(t *testing.T) {
	svc := &mockAssessmentService{
		getFn: func(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error) {
			return nil, model.NewAssessmentNotFoundError()
		},
	}
	h := NewAssessmentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/missing", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeAssessmentNotFound {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeAssessmentNotFound)
	}
}

// 他人のリソースへのアクセスは403を返し、リソースの内容は一切漏らさない。
func TestAssessmentHandler_Get_Forbidden_NoContentLeak(t *testing.T) {
	svc := &mockAssessmentService{
		getFn: func(ctx context.Context, callerID, assessmentID string) (*model.Assessment, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewAssessmentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/other-users", nil)
	req = withAuth0ID(req, "auth0|parent-2")
	req = withChiURLParam(req, "id", "other-users")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeForbidden {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeForbidden)
	}
	if _, ok := errResp["childInfo"]; ok {
		t.Error("forbidden response must not contain resource fields")
	}
}

func TestAssessmentHandler_List_PassesPagination(t *testing.T) {
	var gotLimit, gotSkip int
	svc := &mockAssessmentService{
		listFn: func(ctx context.Context, callerID string, limit, skip int) ([]*model.Assessment, error) {
			gotLimit, gotSkip = limit, skip
			return []*model.Assessment{}, nil
		},
	}
	h := NewAssessmentHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments?limit=2&skip=4", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotLimit != 2 || gotSkip != 4 {
		t.Errorf("pagination = (%d, %d), want (2, 4)", gotLimit, gotSkip)
	}
}

func TestAssessmentHandler_Update_NoValidFields_ReturnsBadRequest(t *testing.T) {
	svc := &mockAssessmentService{
		updateFn: func(ctx context.Context, callerID, assessmentID string, update model.AssessmentUpdate) (*model.Assessment, error) {
			if !update.IsEmpty() {
				t.Error("expected empty update")
			}
			return nil, model.NewNoValidFieldsError()
		},
	}
	h := NewAssessmentHandler(svc)

	// 更新可能フィールドを1つも含まないボディ
	req := httptest.NewRequest(http.MethodPut, "/api/assessments/assessment-1", bytes.NewBufferString(`{"unknownField":"x"}`))
	req = withAuth0ID(req, "auth0|parent-1")
	req = withChiURLParam(req, "id", "assessment-1")
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

func TestAssessmentHandler_Delete_Success(t *testing.T) {
	called := false
	svc := &mockAssessmentService{
		deleteFn: func(ctx context.Context, callerID, assessmentID string) error {
			called = true
			if assessmentID != "assessment-1" {
				t.Errorf("assessmentID = %q, want %q", assessmentID, "assessment-1")
			}
			return nil
		},
	}
	h := NewAssessmentHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/assessments/assessment-1", nil)
	req = withAuth0ID(req, "auth0|parent-1")
	req = withChiURLParam(req, "id", "assessment-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("expected Delete to be called")
	}
}
