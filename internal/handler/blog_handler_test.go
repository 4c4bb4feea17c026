package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/content"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// --- モック定義 ---

type mockBlogService struct {
	createFn        func(ctx context.Context, user *model.User, title, body string) (*model.BlogPost, error)
	listPublishedFn func(ctx context.Context, limit int) ([]*model.BlogPost, error)
	getPublishedFn  func(ctx context.Context, id string) (*model.BlogPost, error)
	listOwnFn       func(ctx context.Context, user *model.User) ([]*model.BlogPost, error)
	updateFn        func(ctx context.Context, id string, user *model.User, patch content.BlogPostPatch) (*model.BlogPost, error)
	publishFn       func(ctx context.Context, id string, user *model.User) (*model.BlogPost, error)
	deleteFn        func(ctx context.Context, id string, user *model.User) error
}

func (m *mockBlogService) Create(ctx context.Context, user *model.User, title, body string) (*model.BlogPost, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user, title, body)
	}
	return &model.BlogPost{}, nil
}

func (m *mockBlogService) ListPublished(ctx context.Context, limit int) ([]*model.BlogPost, error) {
	if m.listPublishedFn != nil {
		return m.listPublishedFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockBlogService) GetPublished(ctx context.Context, id string) (*model.BlogPost, error) {
	if m.getPublishedFn != nil {
		return m.getPublishedFn(ctx, id)
	}
	return nil, content.ErrNotFound
}

func (m *mockBlogService) ListOwn(ctx context.Context, user *model.User) ([]*model.BlogPost, error) {
	if m.listOwnFn != nil {
		return m.listOwnFn(ctx, user)
	}
	return nil, nil
}

func (m *mockBlogService) Update(ctx context.Context, id string, user *model.User, patch content.BlogPostPatch) (*model.BlogPost, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, user, patch)
	}
	return &model.BlogPost{}, nil
}

func (m *mockBlogService) Submit(ctx context.Context, id string, user *model.User) (*model.BlogPost, error) {
	return &model.BlogPost{ID: id, Status: model.PostStatusSubmitted}, nil
}

func (m *mockBlogService) Publish(ctx context.Context, id string, user *model.User) (*model.BlogPost, error) {
	if m.publishFn != nil {
		return m.publishFn(ctx, id, user)
	}
	return &model.BlogPost{ID: id, Status: model.PostStatusPublished}, nil
}

func (m *mockBlogService) Delete(ctx context.Context, id string, user *model.User) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, user)
	}
	return nil
}

// --- テストヘルパー ---

// withUser はテスト用にリクエストコンテキストに認証済みユーザーを注入するヘルパー。
func withUser(r *http.Request, user *model.User) *http.Request {
	ctx := middleware.ContextWithUser(r.Context(), user)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseErrorCode はエラーレスポンスからcodeを取り出すヘルパー。
func parseErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	code, _ := body["code"].(string)
	return code
}

var castUser = &model.User{ID: "user-a", Role: model.RoleCastMember}

// --- テスト ---

func TestBlogHandler_ListPublished_ReturnsPosts(t *testing.T) {
	now := time.Now()
	svc := &mockBlogService{
		listPublishedFn: func(ctx context.Context, limit int) ([]*model.BlogPost, error) {
			return []*model.BlogPost{
				{ID: "post-1", Title: "Summit Recap", Status: model.PostStatusPublished, CreatedAt: now},
			}, nil
		},
	}
	h := NewBlogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts", nil)
	w := httptest.NewRecorder()

	h.ListPublished(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	var posts []blogPostResponse
	json.NewDecoder(w.Result().Body).Decode(&posts)
	if len(posts) != 1 || posts[0].ID != "post-1" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestBlogHandler_GetPublished_DraftIsNotFound(t *testing.T) {
	// 非公開ステータスの記事はサービス層がErrNotFoundを返す
	h := NewBlogHandler(&mockBlogService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/blog/posts/post-1", nil), "id", "post-1")
	w := httptest.NewRecorder()

	h.GetPublished(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestBlogHandler_Create_Anonymous_Returns401(t *testing.T) {
	h := NewBlogHandler(&mockBlogService{})

	req := postJSON("/api/cast/blog/posts", map[string]string{"title": "t", "content": "c"})
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestBlogHandler_Create_ReturnsCreatedDraft(t *testing.T) {
	svc := &mockBlogService{
		createFn: func(ctx context.Context, user *model.User, title, body string) (*model.BlogPost, error) {
			if user.ID != "user-a" {
				t.Errorf("user.ID = %q, want %q", user.ID, "user-a")
			}
			return &model.BlogPost{ID: "post-new", AuthorID: "member-a", Title: title, Content: body, Status: model.PostStatusDraft}, nil
		},
	}
	h := NewBlogHandler(svc)

	req := withUser(postJSON("/api/cast/blog/posts", map[string]string{"title": "My Week", "content": "<p>hi</p>"}), castUser)
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	var post blogPostResponse
	json.NewDecoder(w.Result().Body).Decode(&post)
	if post.Status != "draft" {
		t.Errorf("status = %q, want draft", post.Status)
	}
}

// 他人の記事の更新はサービス層の所有権チェックで403になる。
func TestBlogHandler_Update_NotOwner_Returns403(t *testing.T) {
	svc := &mockBlogService{
		updateFn: func(ctx context.Context, id string, user *model.User, patch content.BlogPostPatch) (*model.BlogPost, error) {
			return nil, content.ErrForbidden
		},
	}
	h := NewBlogHandler(svc)

	req := withUser(postJSON("/api/cast/blog/posts/post-b", map[string]string{"title": "hijack"}), castUser)
	req = withChiURLParam(req, "id", "post-b")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
	if code := parseErrorCode(t, w); code != model.ErrCodeForbidden {
		t.Errorf("code = %q, want %q", code, model.ErrCodeForbidden)
	}
}

func TestBlogHandler_Delete_NotOwner_Returns403(t *testing.T) {
	svc := &mockBlogService{
		deleteFn: func(ctx context.Context, id string, user *model.User) error {
			return content.ErrForbidden
		},
	}
	h := NewBlogHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/cast/blog/posts/post-b", nil), castUser)
	req = withChiURLParam(req, "id", "post-b")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestBlogHandler_Publish_InvalidTransition_Returns409(t *testing.T) {
	svc := &mockBlogService{
		publishFn: func(ctx context.Context, id string, user *model.User) (*model.BlogPost, error) {
			return nil, content.ErrInvalidStatus
		},
	}
	h := NewBlogHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/cast/blog/posts/post-1/publish", nil), castUser)
	req = withChiURLParam(req, "id", "post-1")
	w := httptest.NewRecorder()

	h.Publish(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

func TestBlogHandler_Publish_Success(t *testing.T) {
	h := NewBlogHandler(&mockBlogService{})

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/cast/blog/posts/post-1/publish", nil), castUser)
	req = withChiURLParam(req, "id", "post-1")
	w := httptest.NewRecorder()

	h.Publish(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	var post blogPostResponse
	json.NewDecoder(w.Result().Body).Decode(&post)
	if post.Status != "published" {
		t.Errorf("status = %q, want published", post.Status)
	}
}
