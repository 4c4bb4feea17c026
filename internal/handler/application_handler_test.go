package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/castport/internal/model"
)

// recordingApplicationRepo は作成された応募を記録するモック。
type recordingApplicationRepo struct {
	mockApplicationRepo
	created *model.Application
	deleted bool
}

func (m *recordingApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	m.created = app
	return nil
}

func (m *recordingApplicationRepo) DeleteByKindAndID(ctx context.Context, kind model.ApplicationKind, id string) (bool, error) {
	return m.deleted, nil
}

func TestApplicationHandler_Submit_Success(t *testing.T) {
	repo := &recordingApplicationRepo{}
	h := NewApplicationHandler(repo)

	w := httptest.NewRecorder()
	h.Submit(model.ApplicationSummiteer)(w, postJSON("/api/summiteer-applications", map[string]interface{}{
		"name":    "Taro",
		"email":   "Taro@Example.com",
		"payload": map[string]string{"age": "16", "motivation": "climate"},
	}))

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	if repo.created == nil {
		t.Fatal("application not persisted")
	}
	if repo.created.Kind != model.ApplicationSummiteer {
		t.Errorf("kind = %q, want summiteer", repo.created.Kind)
	}
	// メールアドレスは正規化して保存する
	if repo.created.Email != "taro@example.com" {
		t.Errorf("email = %q, want normalized", repo.created.Email)
	}
}

func TestApplicationHandler_Submit_MissingFields_Returns400(t *testing.T) {
	h := NewApplicationHandler(&recordingApplicationRepo{})

	w := httptest.NewRecorder()
	h.Submit(model.ApplicationGuest)(w, postJSON("/api/guest-applications", map[string]string{}))

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

// 未定義の応募種別では送信を受け付けない。
func TestApplicationHandler_Submit_UnknownKind_Returns404(t *testing.T) {
	repo := &recordingApplicationRepo{}
	h := NewApplicationHandler(repo)

	w := httptest.NewRecorder()
	h.Submit(model.ApplicationKind("sponsor"))(w, postJSON("/api/sponsor-applications", map[string]string{
		"name":  "Taro",
		"email": "taro@example.com",
	}))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
	if repo.created != nil {
		t.Error("unknown kind must not be persisted")
	}
}

// ニュースレター購読はメールアドレスのみで送信できる。
func TestApplicationHandler_Submit_Newsletter_EmailOnly(t *testing.T) {
	repo := &recordingApplicationRepo{}
	h := NewApplicationHandler(repo)

	w := httptest.NewRecorder()
	h.Submit(model.ApplicationNewsletter)(w, postJSON("/api/newsletter-applications", map[string]string{
		"email": "reader@example.com",
	}))

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

func TestApplicationHandler_Delete_NotFound_Returns404(t *testing.T) {
	repo := &recordingApplicationRepo{deleted: false}
	h := NewApplicationHandler(repo)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/admin/guest-applications/app-1", nil), "id", "app-1")
	w := httptest.NewRecorder()

	h.Delete(model.ApplicationGuest)(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestApplicationHandler_Delete_Success_Returns204(t *testing.T) {
	repo := &recordingApplicationRepo{deleted: true}
	h := NewApplicationHandler(repo)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/admin/guest-applications/app-1", nil), "id", "app-1")
	w := httptest.NewRecorder()

	h.Delete(model.ApplicationGuest)(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}
